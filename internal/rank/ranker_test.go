package rank

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/worklog/internal/domain"
)

func fixtureActivities() []domain.ActivityContext {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	return []domain.ActivityContext{
		{
			ID:            "pr-1",
			Title:         "Fix checkout race",
			Date:          base.Add(2 * time.Hour),
			Source:        domain.ToolGitHub,
			SourceSubtype: "pull_request",
			Edge:          domain.EdgePrimary,
			Body:          strings.Repeat("detailed analysis ", 10),
			State:         "merged",
			Scope:         &domain.CodeScope{Additions: 350, Deletions: 40},
			LinkedItems:   []string{"TRACK-42"},
		},
		{
			ID:            "meet-1",
			Title:         "Daily standup",
			Date:          base.Add(3 * time.Hour),
			Source:        domain.ToolGoogleCalendar,
			SourceSubtype: "meeting",
			Edge:          domain.EdgeContextual,
			IsRoutine:     true,
			People:        []string{"ana", "bruno", "carla", "dmitri"},
		},
		{
			ID:            "doc-1",
			Title:         "Checkout redesign notes",
			Date:          base.Add(time.Hour),
			Source:        domain.ToolConfluence,
			SourceSubtype: "document",
			Edge:          domain.EdgeSupporting,
			Body:          "short",
		},
	}
}

func TestRankIsDeterministic(t *testing.T) {
	ranker := New(DefaultWeights())
	input := fixtureActivities()

	first := ranker.Rank(input, 10)
	second := ranker.Rank(input, 10)

	require.Equal(t, first, second)
}

func TestRankBoundSubsetAndMonotoneScores(t *testing.T) {
	ranker := New(DefaultWeights())
	input := fixtureActivities()

	ranked := ranker.Rank(input, 2)
	require.LessOrEqual(t, len(ranked), 2)

	ids := make(map[string]struct{})
	for _, activity := range input {
		ids[activity.ID] = struct{}{}
	}
	for i, item := range ranked {
		_, ok := ids[item.ID]
		require.True(t, ok, "ranked output must be a subset of input")
		require.Equal(t, i+1, item.Rank)
		if i > 0 {
			require.GreaterOrEqual(t, ranked[i-1].Score, item.Score)
		}
	}
}

func TestRoutineMeetingNeverOutranksCompletedPrimary(t *testing.T) {
	ranker := New(DefaultWeights())
	ranked := ranker.Rank(fixtureActivities(), 10)

	positions := make(map[string]int)
	for _, item := range ranked {
		positions[item.ID] = item.Rank
	}
	require.Less(t, positions["pr-1"], positions["meet-1"],
		"completed primary activity with non-trivial body must outrank a routine meeting")
}

func TestTieBreakByRecencyThenSource(t *testing.T) {
	ranker := New(DefaultWeights())
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	input := []domain.ActivityContext{
		{ID: "older", Date: base, Source: domain.ToolGitHub, Edge: domain.EdgeSupporting},
		{ID: "newer", Date: base.Add(time.Hour), Source: domain.ToolJira, Edge: domain.EdgeSupporting},
		{ID: "same-time-jira", Date: base, Source: domain.ToolJira, Edge: domain.EdgeSupporting},
	}

	ranked := ranker.Rank(input, 10)

	require.Equal(t, "newer", ranked[0].ID)
	require.Equal(t, "older", ranked[1].ID, "equal score and time breaks by source priority")
	require.Equal(t, "same-time-jira", ranked[2].ID)
}

func TestDefaultMaxCountApplies(t *testing.T) {
	ranker := New(DefaultWeights())
	input := make([]domain.ActivityContext, 0, 25)
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		input = append(input, domain.ActivityContext{
			ID:     string(rune('a' + i)),
			Date:   base.Add(time.Duration(i) * time.Minute),
			Source: domain.ToolGitHub,
			Edge:   domain.EdgeSupporting,
		})
	}

	ranked := ranker.Rank(input, 0)
	require.Len(t, ranked, DefaultMaxCount)
}
