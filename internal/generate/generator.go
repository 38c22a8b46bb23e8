// Package generate invokes the LLM provider over assembled prompts and
// enforces response-shape contracts locally instead of trusting the model.
package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"example.com/worklog/internal/domain"
	"example.com/worklog/internal/prompt"
)

// QuestionCount is the exact number of follow-up questions an organized entry
// carries.
const QuestionCount = 3

// fallbackQuestions pad the result deterministically when the model returns
// fewer questions than required.
var fallbackQuestions = []string{
	"Q: What was the most difficult decision in this period, and why?",
	"Q: Which of these activities should be followed up on next week?",
	"Q: Who else should know about this work?",
}

// Config tunes the generator.
type Config struct {
	Timeout          time.Duration
	RetryBackoff     time.Duration
	InputTokenBudget int
}

// OrganizedContent is the model's narrative plus the locally enforced shape.
type OrganizedContent struct {
	Narrative         string   `json:"narrative"`
	FollowUpQuestions []string `json:"follow_up_questions"`
	PromptTokens      int      `json:"prompt_tokens"`
	CompletionTokens  int      `json:"completion_tokens"`
}

// Generator runs the single long-latency step of the pipeline: one awaited
// call with an explicit timeout and at most one bounded retry.
type Generator struct {
	client    LLMClient
	assembler *prompt.Assembler
	cfg       Config
	logger    *log.Logger
}

// New constructs a Generator.
func New(client LLMClient, assembler *prompt.Assembler, cfg Config) *Generator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 2 * time.Second
	}
	if cfg.InputTokenBudget <= 0 {
		cfg.InputTokenBudget = 12000
	}
	return &Generator{
		client:    client,
		assembler: assembler,
		cfg:       cfg,
		logger:    log.New(log.Writer(), "[generate] ", log.LstdFlags),
	}
}

const systemPreamble = "You organize engineering work journals. Respond with the narrative first, then the follow-up questions."

// Organize builds the prompt from a stored fetch result and calls the
// provider. The ranked activities travel as a peer JSON structure beside the
// narrative prompt, never nested inside it.
func (g *Generator) Organize(ctx context.Context, result *domain.FetchResult) (*OrganizedContent, error) {
	known := BuildKnownContext(result)

	narrative, err := g.assembler.Build(known, result.Activities, result.Correlations, QuestionCount)
	if err != nil {
		return nil, &domain.LLMGenerationError{Err: err}
	}

	structured, err := json.Marshal(struct {
		Known      domain.KnownContext     `json:"known_context"`
		Activities []domain.RankedActivity `json:"ranked_activities"`
	}{Known: known, Activities: result.Activities})
	if err != nil {
		return nil, &domain.LLMGenerationError{Err: err}
	}

	user := narrative + "\n\nStructured data (reference, do not restate verbatim):\n" + string(structured)

	resp, err := g.complete(ctx, ChatRequest{System: systemPreamble, User: user})
	if err != nil {
		return nil, &domain.LLMGenerationError{Err: err}
	}

	g.logger.Printf("tokens prompt=%d completion=%d", resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
	recordTokens(resp.Usage)
	if resp.Usage.PromptTokens > g.cfg.InputTokenBudget {
		// Signal to trim activity count upstream; never a hard failure.
		g.logger.Printf("warning: prompt tokens %d exceed budget %d, consider lowering max activities", resp.Usage.PromptTokens, g.cfg.InputTokenBudget)
		recordBudgetExceeded()
	}

	narrativeText, questions := splitResponse(resp.Content)
	return &OrganizedContent{
		Narrative:         narrativeText,
		FollowUpQuestions: EnforceQuestionCount(questions),
		PromptTokens:      resp.Usage.PromptTokens,
		CompletionTokens:  resp.Usage.CompletionTokens,
	}, nil
}

// complete performs the provider call with one bounded retry on transient
// failure. No retry storm.
func (g *Generator) complete(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.client.Complete(callCtx, req)
	observeLatency(time.Since(start))
	if err == nil {
		return resp, nil
	}
	if !errors.Is(err, errTransient) {
		return ChatResponse{}, err
	}

	g.logger.Printf("transient provider failure, retrying once: %v", err)
	select {
	case <-ctx.Done():
		return ChatResponse{}, ctx.Err()
	case <-time.After(g.cfg.RetryBackoff):
	}

	retryCtx, cancelRetry := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancelRetry()
	start = time.Now()
	resp, err = g.client.Complete(retryCtx, req)
	observeLatency(time.Since(start))
	return resp, err
}

// BuildKnownContext derives the generator's primitive facts from a fetch
// result. Pure aggregation over already-computed data.
func BuildKnownContext(result *domain.FetchResult) domain.KnownContext {
	known := domain.KnownContext{
		DateRange:       result.Request.DateRange,
		TotalActivities: len(result.Activities),
	}

	seenPeople := make(map[string]struct{})
	seenSources := make(map[domain.ToolType]struct{})
	for _, activity := range result.Activities {
		for _, person := range activity.People {
			if _, dup := seenPeople[person]; dup {
				continue
			}
			seenPeople[person] = struct{}{}
			known.Collaborators = append(known.Collaborators, person)
		}
		if _, dup := seenSources[activity.Source]; !dup {
			seenSources[activity.Source] = struct{}{}
			known.Sources = append(known.Sources, activity.Source)
		}
		if activity.Scope != nil {
			known.CodeAdditions += activity.Scope.Additions
			known.CodeDeletions += activity.Scope.Deletions
			known.FilesChanged += activity.Scope.FilesChanged
		}
		if activity.SourceSubtype == "meeting" {
			known.MeetingCount++
		}
	}
	return known
}

var questionLine = regexp.MustCompile(`(?m)^\s*Q\d*[.:)]\s*(.+)$`)

// splitResponse separates the narrative from labeled follow-up questions.
func splitResponse(content string) (string, []string) {
	matches := questionLine.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return strings.TrimSpace(content), nil
	}

	narrative := strings.TrimSpace(content[:matches[0][0]])
	questions := make([]string, 0, len(matches))
	for _, m := range matches {
		q := strings.TrimSpace(content[m[2]:m[3]])
		if q != "" {
			questions = append(questions, fmt.Sprintf("Q: %s", q))
		}
	}
	return narrative, questions
}

// EnforceQuestionCount truncates to the required count and pads with
// deterministic fallbacks when the model returned fewer.
func EnforceQuestionCount(questions []string) []string {
	if len(questions) > QuestionCount {
		questions = questions[:QuestionCount]
	}
	for i := len(questions); i < QuestionCount; i++ {
		questions = append(questions, fallbackQuestions[i%len(fallbackQuestions)])
	}
	return questions
}
