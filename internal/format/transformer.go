// Package format assembles the final structured journal entry. Every output
// field is either copied or a pure aggregation over already-computed upstream
// data; no interpretation happens here.
package format

import (
	"hash/fnv"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"example.com/worklog/internal/domain"
)

// FormatVersion names the entry structure this transformer produces.
const FormatVersion = "format7"

// palette is the fixed collaborator color set; assignment is deterministic in
// the normalized name.
var palette = []string{
	"#2563eb", "#16a34a", "#d97706", "#dc2626",
	"#7c3aed", "#0891b2", "#be185d", "#4d7c0f",
}

// Input bundles everything the transformer needs.
type Input struct {
	Request      domain.FetchRequest
	Activities   []domain.RankedActivity
	Correlations []domain.Correlation
}

// Build assembles a Format7Entry from ranked and correlated activities.
func Build(in Input) *domain.Format7Entry {
	entry := &domain.Format7Entry{
		EntryMetadata: domain.EntryMetadata{
			EntryID:       uuid.NewString(),
			Format:        FormatVersion,
			GeneratedAt:   time.Now().UTC(),
			WorkspaceName: in.Request.WorkspaceName,
			Quality:       in.Request.Quality,
			Privacy:       in.Request.Privacy,
		},
		Context: domain.EntryContext{
			DateRange:       in.Request.DateRange,
			TotalActivities: len(in.Activities),
			SpanHours:       spanHours(in.Activities),
		},
		Correlations: in.Correlations,
		Summary: domain.EntrySummary{
			ActivitiesByType:   make(map[string]int),
			ActivitiesBySource: make(map[string]int),
		},
	}

	seenSources := make(map[domain.ToolType]struct{})
	seenTech := make(map[string]struct{})
	for _, activity := range in.Activities {
		entry.Activities = append(entry.Activities, toEntryActivity(activity))

		entry.Summary.ActivitiesByType[activity.SourceSubtype]++
		entry.Summary.ActivitiesBySource[string(activity.Source)]++

		if _, dup := seenSources[activity.Source]; !dup {
			seenSources[activity.Source] = struct{}{}
			entry.Context.Sources = append(entry.Context.Sources, activity.Source)
		}
		for _, tech := range activity.Technologies {
			key := strings.ToLower(tech)
			if _, dup := seenTech[key]; !dup {
				seenTech[key] = struct{}{}
				entry.Summary.Technologies = append(entry.Summary.Technologies, tech)
			}
		}
		if container := strings.TrimSpace(activity.Container); container != "" {
			entry.Artifacts = appendArtifact(entry.Artifacts, domain.Artifact{
				Title:  container,
				Source: activity.Source,
			})
		}
	}

	entry.Summary.Collaborators = BuildRoster(in.Activities)
	return entry
}

// toEntryActivity copies one ranked activity and attaches only the evidence
// that genuinely exists for its tool/type. Absent metrics stay nil.
func toEntryActivity(activity domain.RankedActivity) domain.EntryActivity {
	out := domain.EntryActivity{
		ID:            activity.ID,
		Title:         activity.Title,
		Date:          activity.Date,
		Source:        activity.Source,
		SourceSubtype: activity.SourceSubtype,
		Rank:          activity.Rank,
		Score:         activity.Score,
		Body:          activity.Body,
		Labels:        activity.Labels,
		Container:     activity.Container,
	}

	if scope := activity.Scope; scope != nil {
		out.Evidence.Additions = intPtr(scope.Additions)
		out.Evidence.Deletions = intPtr(scope.Deletions)
		out.Evidence.FilesChanged = intPtr(scope.FilesChanged)
	}
	if activity.Comments > 0 {
		out.Evidence.Comments = intPtr(activity.Comments)
	}
	if activity.Reactions > 0 {
		out.Evidence.Reactions = intPtr(activity.Reactions)
	}
	if activity.SourceSubtype == "meeting" {
		if activity.DurationMin > 0 {
			out.Evidence.DurationMinutes = intPtr(activity.DurationMin)
		}
		if len(activity.People) > 0 {
			out.Evidence.Participants = intPtr(len(activity.People))
		}
	}
	if activity.State != "" {
		state := activity.State
		out.Evidence.State = &state
	}
	return out
}

// BuildRoster deduplicates collaborators by normalized name and assigns each a
// deterministic palette color and two-letter initials.
func BuildRoster(activities []domain.RankedActivity) []domain.Collaborator {
	seen := make(map[string]struct{})
	var roster []domain.Collaborator
	for _, activity := range activities {
		for _, name := range activity.People {
			normalized := normalizeName(name)
			if normalized == "" {
				continue
			}
			if _, dup := seen[normalized]; dup {
				continue
			}
			seen[normalized] = struct{}{}
			roster = append(roster, domain.Collaborator{
				Name:     name,
				Initials: initials(name),
				Color:    colorFor(normalized),
			})
		}
	}
	sort.Slice(roster, func(i, j int) bool { return roster[i].Name < roster[j].Name })
	return roster
}

func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func initials(name string) string {
	fields := strings.Fields(name)
	switch len(fields) {
	case 0:
		return "??"
	case 1:
		runes := []rune(strings.ToUpper(fields[0]))
		if len(runes) == 1 {
			return string(runes[0]) + string(runes[0])
		}
		return string(runes[:2])
	default:
		first := []rune(strings.ToUpper(fields[0]))
		last := []rune(strings.ToUpper(fields[len(fields)-1]))
		return string(first[0]) + string(last[0])
	}
}

func colorFor(normalized string) string {
	h := fnv.New32a()
	h.Write([]byte(normalized))
	return palette[h.Sum32()%uint32(len(palette))]
}

// spanHours is the distance between the earliest and latest activity
// timestamps, in hours.
func spanHours(activities []domain.RankedActivity) float64 {
	var earliest, latest time.Time
	for _, activity := range activities {
		if activity.Date.IsZero() {
			continue
		}
		if earliest.IsZero() || activity.Date.Before(earliest) {
			earliest = activity.Date
		}
		if latest.IsZero() || activity.Date.After(latest) {
			latest = activity.Date
		}
	}
	if earliest.IsZero() || latest.IsZero() {
		return 0
	}
	return latest.Sub(earliest).Hours()
}

func appendArtifact(artifacts []domain.Artifact, artifact domain.Artifact) []domain.Artifact {
	for _, existing := range artifacts {
		if existing.Title == artifact.Title && existing.Source == artifact.Source {
			return artifacts
		}
	}
	return append(artifacts, artifact)
}

func intPtr(v int) *int { return &v }
