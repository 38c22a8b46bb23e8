package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/worklog/internal/domain"
)

func fixtureInput() Input {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	return Input{
		Request: domain.FetchRequest{
			WorkspaceName: "acme",
			DateRange: domain.DateRange{
				Start: base.Add(-24 * time.Hour),
				End:   base.Add(24 * time.Hour),
			},
		},
		Activities: []domain.RankedActivity{
			{ActivityContext: domain.ActivityContext{
				ID: "pr-1", Title: "Fix checkout race", Date: base.Add(6 * time.Hour),
				Source: domain.ToolGitHub, SourceSubtype: "pull_request",
				People: []string{"Ana Alves", "Bruno Costa"},
				Scope:  &domain.CodeScope{Additions: 400, Deletions: 90, FilesChanged: 9},
				State:  "merged", Comments: 6, Container: "platform/checkout",
				Technologies: []string{"Go"},
			}, Rank: 1, Score: 11.5},
			{ActivityContext: domain.ActivityContext{
				ID: "meet-1", Title: "Incident review", Date: base,
				Source: domain.ToolGoogleCalendar, SourceSubtype: "meeting",
				People: []string{"ana alves", "Carla Dias"}, DurationMin: 45,
			}, Rank: 2, Score: 4},
			{ActivityContext: domain.ActivityContext{
				ID: "TRACK-42", Title: "Checkout intermittently fails", Date: base.Add(2 * time.Hour),
				Source: domain.ToolJira, SourceSubtype: "bug", State: "Done",
				Technologies: []string{"go"},
			}, Rank: 3, Score: 3},
		},
		Correlations: []domain.Correlation{
			{ID: "c1", Type: domain.CorrelationIssueReference, ActivityIDs: []string{"pr-1", "TRACK-42"}, Confidence: 0.9},
		},
	}
}

func TestAggregateSumsEqualTotal(t *testing.T) {
	entry := Build(fixtureInput())

	total := entry.Context.TotalActivities
	require.Equal(t, 3, total)

	byType := 0
	for _, n := range entry.Summary.ActivitiesByType {
		byType += n
	}
	require.Equal(t, total, byType)

	bySource := 0
	for _, n := range entry.Summary.ActivitiesBySource {
		bySource += n
	}
	require.Equal(t, total, bySource)
}

func TestEvidenceOmittedNotZeroFilled(t *testing.T) {
	entry := Build(fixtureInput())

	var pr, meeting, issue domain.EntryActivity
	for _, activity := range entry.Activities {
		switch activity.ID {
		case "pr-1":
			pr = activity
		case "meet-1":
			meeting = activity
		case "TRACK-42":
			issue = activity
		}
	}

	require.NotNil(t, pr.Evidence.Additions)
	require.Equal(t, 400, *pr.Evidence.Additions)
	require.Nil(t, pr.Evidence.DurationMinutes, "a code change has no meeting metrics")

	require.NotNil(t, meeting.Evidence.DurationMinutes)
	require.Equal(t, 45, *meeting.Evidence.DurationMinutes)
	require.NotNil(t, meeting.Evidence.Participants)
	require.Equal(t, 2, *meeting.Evidence.Participants)
	require.Nil(t, meeting.Evidence.Additions, "a meeting has no line stats")

	require.Nil(t, issue.Evidence.Additions)
	require.NotNil(t, issue.Evidence.State)
	require.Equal(t, "Done", *issue.Evidence.State)
}

func TestCollaboratorRosterDeduplicatesAndColors(t *testing.T) {
	entry := Build(fixtureInput())

	roster := entry.Summary.Collaborators
	require.Len(t, roster, 3, "ana alves and Ana Alves collapse to one person")

	names := make(map[string]domain.Collaborator)
	for _, collab := range roster {
		names[collab.Name] = collab
		require.Len(t, collab.Initials, 2)
		require.NotEmpty(t, collab.Color)
	}
	ana := names["Ana Alves"]
	require.Equal(t, "AA", ana.Initials)

	again := Build(fixtureInput())
	require.Equal(t, roster, again.Summary.Collaborators, "roster assignment is deterministic")
}

func TestSpanHours(t *testing.T) {
	entry := Build(fixtureInput())
	require.InDelta(t, 6.0, entry.Context.SpanHours, 0.001)
}

func TestTechnologiesDeduplicatedCaseInsensitively(t *testing.T) {
	entry := Build(fixtureInput())
	require.Equal(t, []string{"Go"}, entry.Summary.Technologies)
}

func TestEmptyInputProducesEmptyAggregates(t *testing.T) {
	entry := Build(Input{Request: domain.FetchRequest{}})

	require.Zero(t, entry.Context.TotalActivities)
	require.Empty(t, entry.Activities)
	require.Empty(t, entry.Summary.Collaborators)
	require.Zero(t, entry.Context.SpanHours)
}
