package adapters

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"encoding/json"

	"example.com/worklog/internal/domain"
)

const clientTimeout = 10 * time.Second

// restClient wraps one tool's HTTP access with shared error mapping.
type restClient struct {
	tool       domain.ToolType
	httpClient *http.Client
}

func newRESTClient(tool domain.ToolType) restClient {
	return restClient{
		tool: tool,
		httpClient: &http.Client{
			Timeout: clientTimeout,
		},
	}
}

// getJSON performs an authorized GET and decodes the response, translating
// HTTP failures into the per-tool error taxonomy.
func (c restClient) getJSON(ctx context.Context, url, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &domain.ToolFetchError{Tool: c.tool, Reason: "request_build", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.ToolFetchError{Tool: c.tool, Reason: "transport", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &domain.AuthExpiredError{Tool: c.tool}
	case resp.StatusCode == http.StatusTooManyRequests:
		return &domain.RateLimitError{Tool: c.tool, RetryAfter: retryAfter(resp)}
	case resp.StatusCode >= 300:
		body, _ := io.ReadAll(resp.Body)
		return &domain.ToolFetchError{
			Tool:   c.tool,
			Reason: "http_error",
			Err:    fmt.Errorf("status %d: %s", resp.StatusCode, body),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.ToolFetchError{Tool: c.tool, Reason: "decode", Err: err}
	}
	return nil
}

func retryAfter(resp *http.Response) time.Duration {
	if raw := resp.Header.Get("Retry-After"); raw != "" {
		if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return time.Minute
}
