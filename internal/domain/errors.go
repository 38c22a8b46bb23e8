package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrConsentRequired is returned when a fetch request arrives without consent.
	ErrConsentRequired = errors.New("user consent required before fetching tool data")
	// ErrNoToolsSelected is returned when a fetch request names zero tools.
	ErrNoToolsSelected = errors.New("no tools selected for fetch")
	// ErrSessionNotFound covers both absent and expired sessions; callers never
	// distinguish the two.
	ErrSessionNotFound = errors.New("session not found")
	// ErrEntryNotFound is returned when a published entry cannot be located.
	ErrEntryNotFound = errors.New("journal entry not found")
)

// ToolFetchError reports a per-tool fetch failure. It is collected, never fatal
// to the cycle.
type ToolFetchError struct {
	Tool   ToolType
	Reason string
	Err    error
}

func (e *ToolFetchError) Error() string {
	return fmt.Sprintf("tool %s fetch failed (%s): %v", e.Tool, e.Reason, e.Err)
}

func (e *ToolFetchError) Unwrap() error { return e.Err }

// RateLimitError indicates the tool throttled the request.
type RateLimitError struct {
	Tool       ToolType
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("tool %s rate limited, retry after %s", e.Tool, e.RetryAfter)
}

// AuthExpiredError indicates the tool rejected the access token; the tool needs
// reconnecting, never a silent retry.
type AuthExpiredError struct {
	Tool ToolType
}

func (e *AuthExpiredError) Error() string {
	return fmt.Sprintf("tool %s authorization expired", e.Tool)
}

// LLMGenerationError is fatal to the generation step only; ranked and correlated
// data survives in the session so generation can be retried without a re-fetch.
type LLMGenerationError struct {
	Err error
}

func (e *LLMGenerationError) Error() string {
	return fmt.Sprintf("llm generation failed: %v", e.Err)
}

func (e *LLMGenerationError) Unwrap() error { return e.Err }

// FailureReason classifies a tool failure for the caller.
func FailureReason(err error) string {
	var rate *RateLimitError
	var auth *AuthExpiredError
	switch {
	case errors.As(err, &auth):
		return "auth_expired"
	case errors.As(err, &rate):
		return "rate_limited"
	default:
		return "fetch_failed"
	}
}
