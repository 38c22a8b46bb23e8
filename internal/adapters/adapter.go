// Package adapters fetches raw activity from external tools. Each adapter is
// independently fallible; normalization and ranking live elsewhere.
package adapters

import (
	"context"

	"example.com/worklog/internal/domain"
)

// Adapter fetches one tool's raw activity for a date range.
type Adapter interface {
	Tool() domain.ToolType
	Fetch(ctx context.Context, accessToken string, dateRange domain.DateRange) (domain.RawPayload, error)
}

// Config carries per-tool base URLs so tests can point adapters at stubs.
type Config struct {
	GitHubBaseURL     string
	GitLabBaseURL     string
	JiraBaseURL       string
	SlackBaseURL      string
	CalendarBaseURL   string
	ConfluenceBaseURL string
}

// DefaultConfig returns the production endpoints.
func DefaultConfig() Config {
	return Config{
		GitHubBaseURL:     "https://api.github.com",
		GitLabBaseURL:     "https://gitlab.com/api/v4",
		JiraBaseURL:       "https://api.atlassian.com",
		SlackBaseURL:      "https://slack.com/api",
		CalendarBaseURL:   "https://www.googleapis.com/calendar/v3",
		ConfluenceBaseURL: "https://api.atlassian.com/wiki",
	}
}

// Registry maps tool types to adapters. Unknown-but-connected tools resolve to
// a low-signal generic adapter so one new tool never breaks a cycle.
type Registry struct {
	adapters map[domain.ToolType]Adapter
}

// NewRegistry builds the standard adapter set.
func NewRegistry(cfg Config) *Registry {
	registry := &Registry{adapters: make(map[domain.ToolType]Adapter)}
	registry.Register(NewGitHub(cfg.GitHubBaseURL))
	registry.Register(NewGitLab(cfg.GitLabBaseURL))
	registry.Register(NewJira(cfg.JiraBaseURL))
	registry.Register(NewSlack(cfg.SlackBaseURL))
	registry.Register(NewCalendar(cfg.CalendarBaseURL))
	registry.Register(NewConfluence(cfg.ConfluenceBaseURL))
	registry.Register(NewGeneric(domain.ToolTeams))
	registry.Register(NewGeneric(domain.ToolFigma))
	registry.Register(NewGeneric(domain.ToolLinear))
	return registry
}

// Register adds or replaces an adapter.
func (r *Registry) Register(adapter Adapter) {
	r.adapters[adapter.Tool()] = adapter
}

// Lookup resolves a tool's adapter, falling back to a generic one.
func (r *Registry) Lookup(tool domain.ToolType) Adapter {
	if adapter, ok := r.adapters[tool]; ok {
		return adapter
	}
	return NewGeneric(tool)
}
