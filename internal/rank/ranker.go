// Package rank scores normalized activities and selects the most relevant ones.
package rank

import (
	"sort"
	"strings"

	"example.com/worklog/internal/domain"
)

// DefaultMaxCount bounds the ranked set when the caller does not override it.
const DefaultMaxCount = 20

// Weights holds the nine signal weights. The numbers are heuristic tunables,
// not derived constants; the invariants in the tests are what must hold.
type Weights struct {
	EdgePrimary    float64
	EdgeOutcome    float64
	EdgeSupporting float64
	EdgeContextual float64

	RichBody          float64
	RichBodyThreshold int

	LargeScope      float64
	LargeScopeLines int

	ManyParticipants    float64
	ManyParticipantsMin int

	HighSignalLabel float64

	Completed float64

	HighReactions    float64
	HighReactionsMin int

	LinkedItems float64

	RoutinePenalty float64
}

// DefaultWeights returns the standard weight table.
func DefaultWeights() Weights {
	return Weights{
		EdgePrimary:         5.0,
		EdgeOutcome:         4.0,
		EdgeSupporting:      2.5,
		EdgeContextual:      1.0,
		RichBody:            2.0,
		RichBodyThreshold:   120,
		LargeScope:          2.0,
		LargeScopeLines:     300,
		ManyParticipants:    1.5,
		ManyParticipantsMin: 4,
		HighSignalLabel:     2.0,
		Completed:           1.5,
		HighReactions:       1.0,
		HighReactionsMin:    5,
		LinkedItems:         1.0,
		RoutinePenalty:      -3.0,
	}
}

var highSignalLabels = map[string]struct{}{
	"security":        {},
	"critical":        {},
	"breaking":        {},
	"breaking-change": {},
	"incident":        {},
	"p0":              {},
	"p1":              {},
}

var completedStates = map[string]struct{}{
	"merged":    {},
	"closed":    {},
	"done":      {},
	"resolved":  {},
	"complete":  {},
	"completed": {},
	"shipped":   {},
}

// Ranker is a deterministic scorer: identical input always yields identical
// output order and scores.
type Ranker struct {
	weights Weights
}

// New constructs a Ranker with the given weight table.
func New(weights Weights) *Ranker {
	return &Ranker{weights: weights}
}

// Rank scores every activity and returns at most maxCount of them ordered by
// descending score. Ties break by recency, then by fixed source priority.
func (r *Ranker) Rank(activities []domain.ActivityContext, maxCount int) []domain.RankedActivity {
	if maxCount <= 0 {
		maxCount = DefaultMaxCount
	}

	ranked := make([]domain.RankedActivity, 0, len(activities))
	for _, activity := range activities {
		ranked = append(ranked, domain.RankedActivity{
			ActivityContext: activity,
			Score:           r.Score(activity),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return sourcePriority(a.Source) < sourcePriority(b.Source)
	})

	if len(ranked) > maxCount {
		ranked = ranked[:maxCount]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// Score sums the nine independent signal contributions for one activity.
func (r *Ranker) Score(activity domain.ActivityContext) float64 {
	w := r.weights
	score := r.edgeWeight(activity.Edge)

	if len([]rune(activity.Body)) >= w.RichBodyThreshold {
		score += w.RichBody
	}
	if scope := activity.Scope; scope != nil && scope.Additions+scope.Deletions >= w.LargeScopeLines {
		score += w.LargeScope
	}
	if len(activity.People) >= w.ManyParticipantsMin {
		score += w.ManyParticipants
	}
	if hasHighSignalLabel(activity.Labels) {
		score += w.HighSignalLabel
	}
	if isCompleted(activity.State) {
		score += w.Completed
	}
	if activity.Reactions >= w.HighReactionsMin {
		score += w.HighReactions
	}
	if len(activity.LinkedItems) > 0 {
		score += w.LinkedItems
	}
	if activity.IsRoutine {
		score += w.RoutinePenalty
	}
	return score
}

func (r *Ranker) edgeWeight(edge domain.EdgeType) float64 {
	switch edge {
	case domain.EdgePrimary:
		return r.weights.EdgePrimary
	case domain.EdgeOutcome:
		return r.weights.EdgeOutcome
	case domain.EdgeContextual:
		return r.weights.EdgeContextual
	default:
		return r.weights.EdgeSupporting
	}
}

func hasHighSignalLabel(labels []string) bool {
	for _, label := range labels {
		if _, ok := highSignalLabels[strings.ToLower(label)]; ok {
			return true
		}
	}
	return false
}

func isCompleted(state string) bool {
	_, ok := completedStates[strings.ToLower(state)]
	return ok
}

func sourcePriority(tool domain.ToolType) int {
	if p, ok := domain.SourcePriority[tool]; ok {
		return p
	}
	return len(domain.SourcePriority)
}
