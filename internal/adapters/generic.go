package adapters

import (
	"context"

	"example.com/worklog/internal/domain"
)

// Generic stands in for connected tools without a well-supported API. It
// yields an empty payload rather than failing: a low-signal tool contributes
// nothing rich, and a connected-but-unknown tool must never break a cycle.
type Generic struct {
	tool domain.ToolType
}

// NewGeneric constructs the fallback adapter for a tool type.
func NewGeneric(tool domain.ToolType) *Generic {
	return &Generic{tool: tool}
}

func (g *Generic) Tool() domain.ToolType { return g.tool }

// Fetch returns an empty payload for the tool.
func (g *Generic) Fetch(_ context.Context, _ string, _ domain.DateRange) (domain.RawPayload, error) {
	return domain.RawPayload{Tool: g.tool}, nil
}
