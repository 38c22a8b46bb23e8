package adapters

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"example.com/worklog/internal/domain"
)

// Slack fetches the user's recent thread activity.
type Slack struct {
	baseURL string
	client  restClient
}

// NewSlack constructs the adapter.
func NewSlack(baseURL string) *Slack {
	return &Slack{baseURL: baseURL, client: newRESTClient(domain.ToolSlack)}
}

func (s *Slack) Tool() domain.ToolType { return domain.ToolSlack }

type slackSearchResponse struct {
	OK       bool   `json:"ok"`
	Error    string `json:"error"`
	Messages struct {
		Matches []struct {
			TS      string `json:"ts"`
			Text    string `json:"text"`
			User    string `json:"username"`
			Channel struct {
				Name string `json:"name"`
			} `json:"channel"`
			ReplyCount int `json:"reply_count"`
			Reactions  []struct {
				Count int `json:"count"`
			} `json:"reactions"`
		} `json:"matches"`
	} `json:"messages"`
}

// Fetch searches messages involving the user within the range.
func (s *Slack) Fetch(ctx context.Context, accessToken string, dateRange domain.DateRange) (domain.RawPayload, error) {
	endpoint := fmt.Sprintf("%s/search.messages?query=from:me&count=100", s.baseURL)

	var resp slackSearchResponse
	if err := s.client.getJSON(ctx, endpoint, accessToken, &resp); err != nil {
		return domain.RawPayload{}, err
	}
	if !resp.OK {
		if resp.Error == "token_expired" || resp.Error == "invalid_auth" {
			return domain.RawPayload{}, &domain.AuthExpiredError{Tool: domain.ToolSlack}
		}
		return domain.RawPayload{}, &domain.ToolFetchError{
			Tool: domain.ToolSlack, Reason: "api_error", Err: fmt.Errorf("slack: %s", resp.Error),
		}
	}

	payload := domain.RawPayload{Tool: domain.ToolSlack}
	for _, match := range resp.Messages.Matches {
		ts := slackTimestamp(match.TS)
		if ts.Before(dateRange.Start) || ts.After(dateRange.End) {
			continue
		}
		reactions := 0
		for _, reaction := range match.Reactions {
			reactions += reaction.Count
		}
		payload.Items = append(payload.Items, domain.RawActivity{
			"ts":          match.TS,
			"timestamp":   ts.Format(time.RFC3339),
			"text":        match.Text,
			"user":        match.User,
			"channel":     match.Channel.Name,
			"reply_count": match.ReplyCount,
			"reactions":   reactions,
		})
	}
	return payload, nil
}

// slackTimestamp converts Slack's "seconds.micros" ts into a time.
func slackTimestamp(ts string) time.Time {
	seconds, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(int64(seconds), 0).UTC()
}
