// Package pipeline orchestrates one fetch cycle: fan-out fetch, normalize,
// rank, correlate, format, and session storage.
package pipeline

import (
	"context"
	"log"
	"sort"
	"sync"

	"example.com/worklog/internal/adapters"
	"example.com/worklog/internal/correlate"
	"example.com/worklog/internal/domain"
	"example.com/worklog/internal/format"
	"example.com/worklog/internal/normalize"
	"example.com/worklog/internal/rank"
	"example.com/worklog/internal/session"
)

// AdapterSource resolves adapters for requested tools.
type AdapterSource interface {
	Lookup(tool domain.ToolType) adapters.Adapter
}

// Runner executes fetch cycles. Every stage after the fan-out is a synchronous
// pure transform over materialized data.
type Runner struct {
	adapters      AdapterSource
	ranker        *rank.Ranker
	correlator    *correlate.Correlator
	store         *session.Store
	maxActivities int
	logger        *log.Logger
}

// Option tailors a Runner.
type Option func(*Runner)

// WithMaxActivities sets the entry size used when a request does not name one.
func WithMaxActivities(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.maxActivities = n
		}
	}
}

// NewRunner constructs a Runner.
func NewRunner(source AdapterSource, ranker *rank.Ranker, correlator *correlate.Correlator, store *session.Store, opts ...Option) *Runner {
	runner := &Runner{
		adapters:      source,
		ranker:        ranker,
		correlator:    correlator,
		store:         store,
		maxActivities: rank.DefaultMaxCount,
		logger:        log.New(log.Writer(), "[pipeline] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(runner)
	}
	return runner
}

// Run executes one cycle. Tool-level failures are collected, never fatal; the
// cycle runs to completion or typed failure.
func (r *Runner) Run(ctx context.Context, req domain.FetchRequest) (*domain.FetchResult, error) {
	// Hard privacy gate: nothing is fetched without consent.
	if !req.ConsentGiven {
		return nil, domain.ErrConsentRequired
	}
	if len(req.Connections) == 0 {
		return nil, domain.ErrNoToolsSelected
	}
	if req.MaxActivities <= 0 {
		req.MaxActivities = r.maxActivities
	}

	payloads, failures := r.fetchAll(ctx, req)

	var contexts []domain.ActivityContext
	for _, payload := range payloads {
		contexts = append(contexts, normalize.ExtractAll(payload, req.SelfIdentifier)...)
	}

	// Access tokens do not outlive the fan-out; only the token-free request
	// survives into the result and the session store.
	stored := req
	stored.Connections = nil

	result := &domain.FetchResult{
		Request:  stored,
		Failures: failures,
	}

	if len(contexts) == 0 {
		// Zero surviving tools or zero activities is a distinct outcome, not
		// an error.
		result.Outcome = domain.OutcomeNoActivities
		result.SessionID = r.storeResult(req, result)
		recordCycle(string(result.Outcome))
		return result, nil
	}

	result.Activities = r.ranker.Rank(contexts, req.MaxActivities)
	result.Correlations = r.correlator.Correlate(result.Activities)
	result.Entry = format.Build(format.Input{
		Request:      req,
		Activities:   result.Activities,
		Correlations: result.Correlations,
	})
	result.Outcome = domain.OutcomeEntryBuilt
	result.SessionID = r.storeResult(req, result)

	recordCycle(string(result.Outcome))
	recordActivities(len(result.Activities))
	recordCorrelations(len(result.Correlations))
	r.logger.Printf("cycle complete: %d activities, %d correlations, %d tool failures",
		len(result.Activities), len(result.Correlations), len(failures))
	return result, nil
}

// fetchAll fans out over the requested tools. Each adapter's failure is
// isolated and collected.
func (r *Runner) fetchAll(ctx context.Context, req domain.FetchRequest) ([]domain.RawPayload, []domain.ToolFailure) {
	var (
		mu       sync.Mutex
		payloads []domain.RawPayload
		failures []domain.ToolFailure
		wg       sync.WaitGroup
	)

	for _, conn := range req.Connections {
		wg.Add(1)
		go func(conn domain.ToolConnection) {
			defer wg.Done()
			adapter := r.adapters.Lookup(conn.Tool)
			payload, err := adapter.Fetch(ctx, conn.AccessToken, req.DateRange)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				reason := domain.FailureReason(err)
				r.logger.Printf("tool %s failed (%s): %v", conn.Tool, reason, err)
				recordToolFailure(string(conn.Tool), reason)
				failures = append(failures, domain.ToolFailure{Tool: conn.Tool, Reason: reason})
				return
			}
			payloads = append(payloads, payload)
		}(conn)
	}
	wg.Wait()

	// Deterministic downstream input regardless of goroutine completion order.
	sort.Slice(payloads, func(i, j int) bool { return payloads[i].Tool < payloads[j].Tool })
	sort.Slice(failures, func(i, j int) bool { return failures[i].Tool < failures[j].Tool })
	return payloads, failures
}

func (r *Runner) storeResult(req domain.FetchRequest, result *domain.FetchResult) string {
	sourceTypes := make([]domain.ToolType, 0, len(req.Connections))
	for _, conn := range req.Connections {
		sourceTypes = append(sourceTypes, conn.Tool)
	}
	return r.store.Create(req.UserID, sourceTypes, result)
}
