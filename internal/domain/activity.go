// Package domain defines the shared types flowing through the aggregation pipeline.
package domain

import "time"

// ToolType identifies a connected external tool.
type ToolType string

const (
	ToolGitHub         ToolType = "github"
	ToolGitLab         ToolType = "gitlab"
	ToolJira           ToolType = "jira"
	ToolSlack          ToolType = "slack"
	ToolGoogleCalendar ToolType = "google_calendar"
	ToolConfluence     ToolType = "confluence"
	ToolTeams          ToolType = "teams"
	ToolFigma          ToolType = "figma"
	ToolLinear         ToolType = "linear"
)

// SourcePriority is the fixed tie-break order used by the ranker; lower is better.
var SourcePriority = map[ToolType]int{
	ToolGitHub:         0,
	ToolGitLab:         1,
	ToolJira:           2,
	ToolSlack:          3,
	ToolGoogleCalendar: 4,
	ToolConfluence:     5,
	ToolTeams:          6,
	ToolFigma:          7,
	ToolLinear:         8,
}

// EdgeType is an upstream classification of an activity's importance.
type EdgeType string

const (
	EdgePrimary    EdgeType = "primary"
	EdgeOutcome    EdgeType = "outcome"
	EdgeSupporting EdgeType = "supporting"
	EdgeContextual EdgeType = "contextual"
)

// DateRange bounds one fetch cycle.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// RawActivity is one unprocessed item exactly as an adapter decoded it.
// The field set is tool-specific; the normalizer owns interpretation.
type RawActivity map[string]any

// RawPayload carries one tool's fetched items through the pipeline.
type RawPayload struct {
	Tool  ToolType
	Items []RawActivity
}

// CodeScope captures the size of a code change when one exists.
type CodeScope struct {
	Additions    int `json:"additions"`
	Deletions    int `json:"deletions"`
	FilesChanged int `json:"files_changed"`
}

// ActivityContext is the uniform, tool-agnostic representation of one external
// activity. Built once by the normalizer and immutable afterwards.
type ActivityContext struct {
	ID            string
	Title         string
	Date          time.Time
	Source        ToolType
	SourceSubtype string
	People        []string
	UserRole      string
	Body          string
	Labels        []string
	Scope         *CodeScope
	Container     string
	State         string
	LinkedItems   []string
	Sentiment     string
	IsRoutine     bool
	Edge          EdgeType
	Reactions     int
	Comments      int
	DurationMin   int
	Technologies  []string
}

// RankedActivity is an ActivityContext with its relevance score attached.
type RankedActivity struct {
	ActivityContext
	Score float64
	Rank  int
}
