package adapters

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/worklog/internal/domain"
)

func testRange() domain.DateRange {
	return domain.DateRange{
		Start: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
	}
}

func TestGitHubFetchDecodesItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{
			"id": 42,
			"title": "Fix checkout race",
			"body": "Fixes TRACK-42",
			"state": "closed",
			"updated_at": "2026-03-02T14:30:00Z",
			"comments": 6,
			"pull_request": {"merged_at": "2026-03-02T14:00:00Z"},
			"user": {"login": "ana"},
			"labels": [{"name": "critical"}],
			"repository_url": "https://api.github.com/repos/acme/checkout",
			"reactions": {"total_count": 7}
		}]}`))
	}))
	defer server.Close()

	payload, err := NewGitHub(server.URL).Fetch(context.Background(), "tok-1", testRange())
	require.NoError(t, err)
	require.Len(t, payload.Items, 1)

	item := payload.Items[0]
	require.Equal(t, "gh-42", item["id"])
	require.Equal(t, "merged", item["state"], "a merged PR overrides the closed state")
	require.Equal(t, "acme/checkout", item["repo"])
	require.Equal(t, []string{"critical"}, item["labels"])
	require.Equal(t, 7, item["reactions"])
}

func TestAuthFailureMapsToAuthExpired(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := NewGitHub(server.URL).Fetch(context.Background(), "expired", testRange())

	var authErr *domain.AuthExpiredError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, domain.ToolGitHub, authErr.Tool)
}

func TestRateLimitMapsToRateLimitError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := NewJira(server.URL).Fetch(context.Background(), "tok", testRange())

	var rateErr *domain.RateLimitError
	require.ErrorAs(t, err, &rateErr)
	require.Equal(t, 30*time.Second, rateErr.RetryAfter)
}

func TestServerErrorMapsToToolFetchError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewGitLab(server.URL).Fetch(context.Background(), "tok", testRange())

	var fetchErr *domain.ToolFetchError
	require.ErrorAs(t, err, &fetchErr)
	require.Equal(t, domain.ToolGitLab, fetchErr.Tool)
	require.Equal(t, "http_error", fetchErr.Reason)
}

func TestSlackAPILevelAuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": false, "error": "token_expired"}`))
	}))
	defer server.Close()

	_, err := NewSlack(server.URL).Fetch(context.Background(), "tok", testRange())
	require.True(t, errors.As(err, new(*domain.AuthExpiredError)))
}

func TestCalendarMarksRecurringEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{
			"id": "ev-1",
			"summary": "Daily standup",
			"start": {"dateTime": "2026-03-02T09:00:00Z"},
			"end": {"dateTime": "2026-03-02T09:15:00Z"},
			"organizer": {"displayName": "Carla"},
			"attendees": [{"displayName": "Ana"}, {"email": "bruno@example.com"}],
			"recurringEventId": "rec-9"
		}]}`))
	}))
	defer server.Close()

	payload, err := NewCalendar(server.URL).Fetch(context.Background(), "tok", testRange())
	require.NoError(t, err)
	require.Len(t, payload.Items, 1)
	require.Equal(t, true, payload.Items[0]["recurring"])
	require.Equal(t, []string{"Ana", "bruno@example.com"}, payload.Items[0]["attendees"])
}

func TestRegistryFallsBackToGeneric(t *testing.T) {
	registry := NewRegistry(DefaultConfig())

	adapter := registry.Lookup(domain.ToolType("whiteboard"))
	payload, err := adapter.Fetch(context.Background(), "tok", testRange())
	require.NoError(t, err)
	require.Empty(t, payload.Items)
	require.Equal(t, domain.ToolType("whiteboard"), payload.Tool)
}
