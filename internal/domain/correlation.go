package domain

// CorrelationType names the pattern matcher that produced a correlation.
type CorrelationType string

const (
	CorrelationIssueReference    CorrelationType = "issue_reference"
	CorrelationTemporalProximity CorrelationType = "temporal_proximity"
	CorrelationTopicSimilarity   CorrelationType = "topic_similarity"
)

// Correlation is a detected cross-tool relationship between two or more activities.
type Correlation struct {
	ID          string          `json:"id"`
	Type        CorrelationType `json:"type"`
	ActivityIDs []string        `json:"activity_ids"`
	Description string          `json:"description"`
	Confidence  float64         `json:"confidence"`
	Evidence    string          `json:"evidence"`
}
