package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/worklog/internal/adapters"
	"example.com/worklog/internal/correlate"
	"example.com/worklog/internal/domain"
	"example.com/worklog/internal/rank"
	"example.com/worklog/internal/session"
)

type stubAdapter struct {
	tool    domain.ToolType
	payload domain.RawPayload
	err     error
}

func (a *stubAdapter) Tool() domain.ToolType { return a.tool }

func (a *stubAdapter) Fetch(context.Context, string, domain.DateRange) (domain.RawPayload, error) {
	return a.payload, a.err
}

type stubSource map[domain.ToolType]adapters.Adapter

func (s stubSource) Lookup(tool domain.ToolType) adapters.Adapter {
	if adapter, ok := s[tool]; ok {
		return adapter
	}
	return adapters.NewGeneric(tool)
}

func newTestRunner(source AdapterSource) (*Runner, *session.Store) {
	store := session.NewStore(session.Config{})
	runner := NewRunner(source, rank.New(rank.DefaultWeights()), correlate.New(correlate.DefaultConfig()), store)
	return runner, store
}

func baseRequest(tools ...domain.ToolType) domain.FetchRequest {
	conns := make([]domain.ToolConnection, 0, len(tools))
	for _, tool := range tools {
		conns = append(conns, domain.ToolConnection{Tool: tool, AccessToken: "tok"})
	}
	return domain.FetchRequest{
		UserID:         "user-1",
		SelfIdentifier: "ana",
		Connections:    conns,
		ConsentGiven:   true,
		DateRange: domain.DateRange{
			Start: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
		},
	}
}

func TestConsentGateRefusesBeforeAnyAdapterRuns(t *testing.T) {
	called := false
	source := stubSource{domain.ToolGitHub: &countingAdapter{called: &called}}
	runner, _ := newTestRunner(source)

	req := baseRequest(domain.ToolGitHub)
	req.ConsentGiven = false

	_, err := runner.Run(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrConsentRequired)
	require.False(t, called, "no adapter may run without consent")
}

type countingAdapter struct {
	called *bool
}

func (a *countingAdapter) Tool() domain.ToolType { return domain.ToolGitHub }

func (a *countingAdapter) Fetch(context.Context, string, domain.DateRange) (domain.RawPayload, error) {
	*a.called = true
	return domain.RawPayload{Tool: domain.ToolGitHub}, nil
}

func TestZeroToolsFailsFast(t *testing.T) {
	runner, _ := newTestRunner(stubSource{})

	req := baseRequest()
	_, err := runner.Run(context.Background(), req)
	require.ErrorIs(t, err, domain.ErrNoToolsSelected)
}

func TestPartialToolFailureStillProducesEntry(t *testing.T) {
	source := stubSource{
		domain.ToolGitHub: &stubAdapter{
			tool: domain.ToolGitHub,
			payload: domain.RawPayload{Tool: domain.ToolGitHub, Items: []domain.RawActivity{{
				"id":         "gh-1",
				"title":      "Fix checkout race",
				"body":       "Bounded retries.",
				"state":      "merged",
				"updated_at": "2026-03-02T14:30:00Z",
				"author":     "ana",
			}}},
		},
		domain.ToolJira: &stubAdapter{
			tool: domain.ToolJira,
			err:  &domain.AuthExpiredError{Tool: domain.ToolJira},
		},
	}
	runner, _ := newTestRunner(source)

	result, err := runner.Run(context.Background(), baseRequest(domain.ToolGitHub, domain.ToolJira))
	require.NoError(t, err)

	require.Equal(t, domain.OutcomeEntryBuilt, result.Outcome)
	require.Len(t, result.Activities, 1)
	require.Equal(t, []domain.ToolFailure{{Tool: domain.ToolJira, Reason: "auth_expired"}}, result.Failures)
	require.NotNil(t, result.Entry)
}

func TestAllToolsFailingYieldsNoActivitiesOutcome(t *testing.T) {
	source := stubSource{
		domain.ToolGitHub: &stubAdapter{tool: domain.ToolGitHub, err: &domain.RateLimitError{Tool: domain.ToolGitHub, RetryAfter: time.Minute}},
	}
	runner, _ := newTestRunner(source)

	result, err := runner.Run(context.Background(), baseRequest(domain.ToolGitHub))
	require.NoError(t, err, "a cycle with zero surviving tools is an outcome, not an error")
	require.Equal(t, domain.OutcomeNoActivities, result.Outcome)
	require.Nil(t, result.Entry)
	require.Len(t, result.Failures, 1)
}

func TestConfiguredMaxActivitiesBoundsTheEntry(t *testing.T) {
	source := stubSource{
		domain.ToolGitHub: &stubAdapter{
			tool: domain.ToolGitHub,
			payload: domain.RawPayload{Tool: domain.ToolGitHub, Items: []domain.RawActivity{
				{"id": "gh-1", "title": "Fix checkout race", "updated_at": "2026-03-02T14:30:00Z"},
				{"id": "gh-2", "title": "Tighten retry budget", "updated_at": "2026-03-02T12:00:00Z"},
			}},
		},
	}
	store := session.NewStore(session.Config{})
	runner := NewRunner(source, rank.New(rank.DefaultWeights()), correlate.New(correlate.DefaultConfig()), store,
		WithMaxActivities(1))

	req := baseRequest(domain.ToolGitHub)
	req.MaxActivities = 0

	result, err := runner.Run(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, result.Activities, 1)
}

func TestStoredSessionCarriesNoAccessTokens(t *testing.T) {
	source := stubSource{
		domain.ToolGitHub: &stubAdapter{
			tool: domain.ToolGitHub,
			payload: domain.RawPayload{Tool: domain.ToolGitHub, Items: []domain.RawActivity{{
				"id":         "gh-1",
				"title":      "Fix checkout race",
				"updated_at": "2026-03-02T14:30:00Z",
			}}},
		},
		domain.ToolJira: &stubAdapter{
			tool: domain.ToolJira,
			err:  &domain.AuthExpiredError{Tool: domain.ToolJira},
		},
	}
	runner, store := newTestRunner(source)

	result, err := runner.Run(context.Background(), baseRequest(domain.ToolGitHub, domain.ToolJira))
	require.NoError(t, err)

	sess, err := store.Get(result.SessionID)
	require.NoError(t, err)
	require.Empty(t, sess.Payload.Request.Connections, "tokens must not outlive the fetch fan-out")
	require.Equal(t, []domain.ToolType{domain.ToolGitHub, domain.ToolJira}, sess.SourceTypes)
}

func TestFullCycleStripsSecretsCorrelatesAndRanks(t *testing.T) {
	source := stubSource{
		domain.ToolGitHub: &stubAdapter{
			tool: domain.ToolGitHub,
			payload: domain.RawPayload{Tool: domain.ToolGitHub, Items: []domain.RawActivity{{
				"id":          "gh-1",
				"title":       "Fix checkout race",
				"body":        "Fixes TRACK-42, API_KEY=AKIAEXAMPLE1234",
				"state":       "merged",
				"updated_at":  "2026-03-02T14:30:00Z",
				"author":      "ana",
				"pull_number": float64(1),
			}}},
		},
		domain.ToolJira: &stubAdapter{
			tool: domain.ToolJira,
			payload: domain.RawPayload{Tool: domain.ToolJira, Items: []domain.RawActivity{{
				"key":           "TRACK-42",
				"summary":       "Checkout intermittently fails",
				"status":        "Done",
				"updated":       "2026-03-02T10:00:00Z",
				"assignee":      "ana",
				"comment_count": float64(5),
			}}},
		},
		domain.ToolGoogleCalendar: &stubAdapter{
			tool: domain.ToolGoogleCalendar,
			payload: domain.RawPayload{Tool: domain.ToolGoogleCalendar, Items: []domain.RawActivity{{
				"id":        "ev-1",
				"summary":   "Daily standup",
				"start":     "2026-03-02T09:00:00Z",
				"end":       "2026-03-02T09:15:00Z",
				"organizer": "carla",
			}}},
		},
	}
	runner, store := newTestRunner(source)

	result, err := runner.Run(context.Background(), baseRequest(domain.ToolGitHub, domain.ToolJira, domain.ToolGoogleCalendar))
	require.NoError(t, err)
	require.Equal(t, domain.OutcomeEntryBuilt, result.Outcome)

	byID := make(map[string]domain.RankedActivity)
	for _, activity := range result.Activities {
		byID[activity.ID] = activity
	}

	pr := byID["gh-1"]
	require.NotContains(t, pr.Body, "AKIAEXAMPLE1234", "secret is stripped before anything downstream sees the body")
	require.Contains(t, pr.Body, "TRACK-42", "the issue key survives redaction")

	var issueRef *domain.Correlation
	for i, corr := range result.Correlations {
		if corr.Type == domain.CorrelationIssueReference {
			issueRef = &result.Correlations[i]
		}
	}
	require.NotNil(t, issueRef, "PR and tracker issue must be linked")
	require.GreaterOrEqual(t, issueRef.Confidence, 0.8)
	require.ElementsMatch(t, []string{"gh-1", "TRACK-42"}, issueRef.ActivityIDs)

	require.Less(t, pr.Rank, byID["ev-1"].Rank, "the code change outranks the routine standup")

	sess, err := store.Get(result.SessionID)
	require.NoError(t, err)
	require.Equal(t, result, sess.Payload)
}
