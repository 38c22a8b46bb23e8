package domain

// ToolConnection pairs a tool with the access token supplied by the
// integration layer. Token refresh and storage live outside this service.
type ToolConnection struct {
	Tool        ToolType
	AccessToken string
}

// FetchRequest starts one aggregation cycle.
type FetchRequest struct {
	UserID         string
	SelfIdentifier string
	Connections    []ToolConnection
	DateRange      DateRange
	ConsentGiven   bool
	Quality        string
	Privacy        string
	WorkspaceName  string
	MaxActivities  int
}

// Outcome distinguishes "entry produced" from "nothing to report".
type Outcome string

const (
	OutcomeEntryBuilt   Outcome = "entry_built"
	OutcomeNoActivities Outcome = "no_activities"
)

// ToolFailure records one failed tool for the caller; partial success stays legible.
type ToolFailure struct {
	Tool   ToolType `json:"tool"`
	Reason string   `json:"reason"`
}

// KnownContext is the small struct of primitives handed to the generator so
// the model is not asked to re-derive facts already available structurally.
type KnownContext struct {
	DateRange       DateRange  `json:"date_range"`
	Collaborators   []string   `json:"collaborators"`
	Sources         []ToolType `json:"sources"`
	TotalActivities int        `json:"total_activities"`
	CodeAdditions   int        `json:"code_additions"`
	CodeDeletions   int        `json:"code_deletions"`
	FilesChanged    int        `json:"files_changed"`
	MeetingCount    int        `json:"meeting_count"`
}

// FetchResult is one cycle's materialized output, held in the session store.
type FetchResult struct {
	SessionID    string
	Outcome      Outcome
	Entry        *Format7Entry
	Activities   []RankedActivity
	Correlations []Correlation
	Failures     []ToolFailure
	Request      FetchRequest
}
