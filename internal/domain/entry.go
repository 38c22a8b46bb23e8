package domain

import "time"

// EntryMetadata identifies one generated journal entry.
type EntryMetadata struct {
	EntryID       string    `json:"entry_id"`
	Format        string    `json:"format"`
	GeneratedAt   time.Time `json:"generated_at"`
	WorkspaceName string    `json:"workspace_name,omitempty"`
	Quality       string    `json:"quality,omitempty"`
	Privacy       string    `json:"privacy,omitempty"`
}

// EntryContext describes what the entry was built from.
type EntryContext struct {
	DateRange       DateRange  `json:"date_range"`
	Sources         []ToolType `json:"sources"`
	TotalActivities int        `json:"total_activities"`
	SpanHours       float64    `json:"span_hours"`
}

// Evidence holds only the metrics that genuinely exist for an activity's
// tool/type. Absent metrics are omitted, never zero-filled.
type Evidence struct {
	Additions       *int    `json:"additions,omitempty"`
	Deletions       *int    `json:"deletions,omitempty"`
	FilesChanged    *int    `json:"files_changed,omitempty"`
	Comments        *int    `json:"comments,omitempty"`
	Reactions       *int    `json:"reactions,omitempty"`
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
	Participants    *int    `json:"participants,omitempty"`
	State           *string `json:"state,omitempty"`
}

// EntryActivity is one activity as it appears in the final entry.
type EntryActivity struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Date          time.Time `json:"date"`
	Source        ToolType  `json:"source"`
	SourceSubtype string    `json:"source_subtype"`
	Rank          int       `json:"rank"`
	Score         float64   `json:"score"`
	Body          string    `json:"body,omitempty"`
	Labels        []string  `json:"labels,omitempty"`
	Container     string    `json:"container,omitempty"`
	Evidence      Evidence  `json:"evidence"`
}

// Collaborator is one deduplicated person from the cycle's activities.
type Collaborator struct {
	Name     string `json:"name"`
	Initials string `json:"initials"`
	Color    string `json:"color"`
}

// EntrySummary carries the aggregates over the final activity set.
type EntrySummary struct {
	ActivitiesByType   map[string]int `json:"activities_by_type"`
	ActivitiesBySource map[string]int `json:"activities_by_source"`
	Technologies       []string       `json:"technologies"`
	Collaborators      []Collaborator `json:"collaborators"`
}

// Artifact is a link to an external object referenced by the entry.
type Artifact struct {
	Title  string   `json:"title"`
	URL    string   `json:"url,omitempty"`
	Source ToolType `json:"source"`
}

// Format7Entry is the final structured, evidence-annotated journal entry.
type Format7Entry struct {
	EntryMetadata EntryMetadata   `json:"entry_metadata"`
	Context       EntryContext    `json:"context"`
	Activities    []EntryActivity `json:"activities"`
	Correlations  []Correlation   `json:"correlations"`
	Summary       EntrySummary    `json:"summary"`
	Artifacts     []Artifact      `json:"artifacts"`
}

// SavedEntry is a journal entry persisted on the user's behalf, together
// with the narrative the user approved.
type SavedEntry struct {
	ID        string       `json:"id"`
	TenantID  string       `json:"tenant_id"`
	UserID    string       `json:"user_id"`
	Narrative string       `json:"narrative"`
	Entry     Format7Entry `json:"entry"`
	SavedAt   time.Time    `json:"saved_at"`
}

// Cursor marks a pagination position in a saved-entry listing.
type Cursor struct {
	SavedAt time.Time
	ID      string
}
