// Package correlate detects cross-tool relationships between ranked activities.
package correlate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"example.com/worklog/internal/domain"
)

// Config holds the matcher tunables. Confidence values are heuristics validated
// against the pipeline invariants, not derived constants.
type Config struct {
	IssueRefConfidence  float64
	ProximityWindow     time.Duration
	ProximityConfidence float64
	TopicMinSimilarity  float64
}

// DefaultConfig returns the standard matcher settings.
func DefaultConfig() Config {
	return Config{
		IssueRefConfidence:  0.9,
		ProximityWindow:     4 * time.Hour,
		ProximityConfidence: 0.6,
		TopicMinSimilarity:  0.5,
	}
}

// issueKeyPattern matches tracker keys like TRACK-42 or PROJ-1337.
var issueKeyPattern = regexp.MustCompile(`\b[A-Z][A-Z0-9]+-\d+\b`)

type matcher func(c *Correlator, activities []domain.RankedActivity) []domain.Correlation

// Correlator applies a fixed set of pattern matchers over the ranked set.
// It operates on ranked activities only, never raw payloads, to bound compute.
type Correlator struct {
	cfg      Config
	matchers []matcher
}

// New constructs a Correlator.
func New(cfg Config) *Correlator {
	return &Correlator{
		cfg: cfg,
		matchers: []matcher{
			(*Correlator).matchIssueReferences,
			(*Correlator).matchTemporalProximity,
			(*Correlator).matchTopicSimilarity,
		},
	}
}

// Correlate runs every matcher and deduplicates by (type, activity id set),
// keeping the highest-confidence instance when matchers disagree.
func (c *Correlator) Correlate(activities []domain.RankedActivity) []domain.Correlation {
	best := make(map[string]domain.Correlation)
	for _, match := range c.matchers {
		for _, corr := range match(c, activities) {
			if corr.Confidence < 0 {
				corr.Confidence = 0
			}
			if corr.Confidence > 1 {
				corr.Confidence = 1
			}
			key := dedupeKey(corr)
			if existing, ok := best[key]; !ok || corr.Confidence > existing.Confidence {
				best[key] = corr
			}
		}
	}

	out := make([]domain.Correlation, 0, len(best))
	for _, corr := range best {
		out = append(out, corr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// matchIssueReferences links a code change whose title or body names a tracked
// issue key to the tracker activity carrying that key.
func (c *Correlator) matchIssueReferences(activities []domain.RankedActivity) []domain.Correlation {
	byKey := make(map[string]domain.RankedActivity)
	for _, activity := range activities {
		for _, item := range activity.LinkedItems {
			if issueKeyPattern.MatchString(item) {
				byKey[item] = activity
			}
		}
	}

	var out []domain.Correlation
	for _, activity := range activities {
		text := activity.Title + " " + activity.Body
		for _, key := range issueKeyPattern.FindAllString(text, -1) {
			target, ok := byKey[key]
			if !ok || target.ID == activity.ID {
				continue
			}
			out = append(out, domain.Correlation{
				ID:          correlationID(domain.CorrelationIssueReference, activity.ID, target.ID),
				Type:        domain.CorrelationIssueReference,
				ActivityIDs: idPair(activity.ID, target.ID),
				Description: fmt.Sprintf("%q references issue %s", activity.Title, key),
				Confidence:  c.cfg.IssueRefConfidence,
				Evidence:    key,
			})
		}
	}
	return out
}

// matchTemporalProximity links a meeting to a related discussion or code change
// that followed it within the configured window. Confidence decays linearly
// with the gap.
func (c *Correlator) matchTemporalProximity(activities []domain.RankedActivity) []domain.Correlation {
	var out []domain.Correlation
	for _, meeting := range activities {
		if meeting.SourceSubtype != "meeting" {
			continue
		}
		for _, other := range activities {
			if other.ID == meeting.ID || other.SourceSubtype == "meeting" {
				continue
			}
			gap := other.Date.Sub(meeting.Date)
			if gap <= 0 || gap > c.cfg.ProximityWindow {
				continue
			}
			if !sharesTopic(meeting.Title, other.Title) && !sharesPeople(meeting.People, other.People) {
				continue
			}
			decay := 1 - gap.Seconds()/c.cfg.ProximityWindow.Seconds()
			out = append(out, domain.Correlation{
				ID:          correlationID(domain.CorrelationTemporalProximity, meeting.ID, other.ID),
				Type:        domain.CorrelationTemporalProximity,
				ActivityIDs: idPair(meeting.ID, other.ID),
				Description: fmt.Sprintf("%q was followed by %q within %s", meeting.Title, other.Title, gap.Round(time.Minute)),
				Confidence:  c.cfg.ProximityConfidence * (0.5 + 0.5*decay),
				Evidence:    fmt.Sprintf("gap=%s", gap.Round(time.Minute)),
			})
		}
	}
	return out
}

// matchTopicSimilarity links design and documentation items whose titles share
// enough vocabulary.
func (c *Correlator) matchTopicSimilarity(activities []domain.RankedActivity) []domain.Correlation {
	var out []domain.Correlation
	for i, a := range activities {
		for _, b := range activities[i+1:] {
			if a.Source == b.Source {
				continue
			}
			if !topicalSubtype(a.SourceSubtype) || !topicalSubtype(b.SourceSubtype) {
				continue
			}
			similarity := titleSimilarity(a.Title, b.Title)
			if similarity < c.cfg.TopicMinSimilarity {
				continue
			}
			out = append(out, domain.Correlation{
				ID:          correlationID(domain.CorrelationTopicSimilarity, a.ID, b.ID),
				Type:        domain.CorrelationTopicSimilarity,
				ActivityIDs: idPair(a.ID, b.ID),
				Description: fmt.Sprintf("%q and %q cover the same topic", a.Title, b.Title),
				Confidence:  similarity,
				Evidence:    fmt.Sprintf("title similarity %.2f", similarity),
			})
		}
	}
	return out
}

func topicalSubtype(subtype string) bool {
	switch subtype {
	case "document", "design", "pull_request", "merge_request", "meeting":
		return true
	default:
		return false
	}
}

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "for": {},
	"to": {}, "in": {}, "on": {}, "with": {}, "notes": {},
}

func titleTokens(title string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, field := range strings.Fields(strings.ToLower(title)) {
		field = strings.Trim(field, ".,:;!?()[]\"'")
		if field == "" {
			continue
		}
		if _, stop := stopWords[field]; stop {
			continue
		}
		tokens[field] = struct{}{}
	}
	return tokens
}

// titleSimilarity is token Jaccard over normalized titles.
func titleSimilarity(a, b string) float64 {
	ta, tb := titleTokens(a), titleTokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	intersection := 0
	for token := range ta {
		if _, ok := tb[token]; ok {
			intersection++
		}
	}
	union := len(ta) + len(tb) - intersection
	return float64(intersection) / float64(union)
}

func sharesTopic(a, b string) bool {
	ta, tb := titleTokens(a), titleTokens(b)
	for token := range ta {
		if _, ok := tb[token]; ok {
			return true
		}
	}
	return false
}

func sharesPeople(a, b []string) bool {
	for _, name := range a {
		for _, other := range b {
			if name == other {
				return true
			}
		}
	}
	return false
}

func idPair(a, b string) []string {
	if a < b {
		return []string{a, b}
	}
	return []string{b, a}
}

func correlationID(corrType domain.CorrelationType, a, b string) string {
	pair := idPair(a, b)
	return fmt.Sprintf("%s:%s:%s", corrType, pair[0], pair[1])
}

func dedupeKey(corr domain.Correlation) string {
	ids := append([]string(nil), corr.ActivityIDs...)
	sort.Strings(ids)
	return string(corr.Type) + "|" + strings.Join(ids, ",")
}
