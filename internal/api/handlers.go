// Package api exposes HTTP handlers for the journal service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"example.com/worklog/internal/auth"
	"example.com/worklog/internal/domain"
	"example.com/worklog/internal/generate"
	"example.com/worklog/internal/persistence"
	"example.com/worklog/internal/session"
)

// CycleRunner runs one aggregation cycle.
type CycleRunner interface {
	Run(ctx context.Context, req domain.FetchRequest) (*domain.FetchResult, error)
}

// ContentOrganizer turns a stored cycle result into narrative content.
type ContentOrganizer interface {
	Organize(ctx context.Context, result *domain.FetchResult) (*generate.OrganizedContent, error)
}

// EntryStore persists entries the user explicitly publishes.
type EntryStore interface {
	Save(ctx context.Context, entry domain.SavedEntry) error
	ListByUser(ctx context.Context, tenantID, userID string, cursor *domain.Cursor, limit int) ([]domain.SavedEntry, *domain.Cursor, error)
}

// EntryPublisher emits an event for each published entry.
type EntryPublisher interface {
	PublishEntry(ctx context.Context, entry domain.SavedEntry) error
}

// Handler coordinates HTTP requests with the aggregation pipeline.
type Handler struct {
	runner    CycleRunner
	sessions  *session.Store
	organizer ContentOrganizer
	entries   EntryStore
	publisher EntryPublisher
}

// NewHandler builds a Handler.
func NewHandler(runner CycleRunner, sessions *session.Store, organizer ContentOrganizer, entries EntryStore, publisher EntryPublisher) *Handler {
	return &Handler{
		runner:    runner,
		sessions:  sessions,
		organizer: organizer,
		entries:   entries,
		publisher: publisher,
	}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/journal/fetch", h.fetch)
	mux.HandleFunc("/v1/journal/sessions/", h.sessionByID)
	mux.HandleFunc("/v1/journal/entries", h.listEntries)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) fetch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeJournalRead) && !claims.HasScope(auth.ScopeJournalWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope journal:read required")
		return
	}

	var req FetchCycleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	result, err := h.runner.Run(r.Context(), req.toDomain(claims.Subject))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrConsentRequired):
			writeError(w, http.StatusForbidden, "consent_required", "explicit consent is required before fetching")
		case errors.Is(err, domain.ErrNoToolsSelected):
			writeError(w, http.StatusBadRequest, "validation_failed", "at least one tool connection is required")
		default:
			writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, toCycleView(result))
}

func (h *Handler) sessionByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/journal/sessions/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing session id")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		h.getSession(w, r, id)
	case action == "" && r.Method == http.MethodDelete:
		h.deleteSession(w, r, id)
	case action == "generate" && r.Method == http.MethodPost:
		h.generateFromSession(w, r, id)
	case action == "save" && r.Method == http.MethodPost:
		h.saveFromSession(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

// ownedSession resolves a session and hides other users' sessions behind the
// same not-found answer as expired ones.
func (h *Handler) ownedSession(r *http.Request, id string) (*session.Session, *auth.Claims, error) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		return nil, nil, auth.ErrMissingToken
	}
	sess, err := h.sessions.Get(id)
	if err != nil {
		return nil, claims, err
	}
	if sess.UserID != claims.Subject {
		return nil, claims, domain.ErrSessionNotFound
	}
	return sess, claims, nil
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request, id string) {
	sess, claims, err := h.ownedSession(r, id)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	if !claims.HasScope(auth.ScopeJournalRead) && !claims.HasScope(auth.ScopeJournalWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope journal:read required")
		return
	}
	writeJSON(w, http.StatusOK, toCycleView(sess.Payload))
}

func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request, id string) {
	sess, claims, err := h.ownedSession(r, id)
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		writeSessionError(w, err)
		return
	}
	if !claims.HasScope(auth.ScopeJournalRead) && !claims.HasScope(auth.ScopeJournalWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope journal:read required")
		return
	}
	// Deleting an absent or expired session succeeds; the caller's goal is
	// already met. A session owned by someone else is left untouched and
	// answered the same way, so its existence never leaks.
	if sess != nil {
		h.sessions.Delete(id)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) generateFromSession(w http.ResponseWriter, r *http.Request, id string) {
	sess, claims, err := h.ownedSession(r, id)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	if !claims.HasScope(auth.ScopeJournalRead) && !claims.HasScope(auth.ScopeJournalWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope journal:read required")
		return
	}
	if sess.Payload == nil || sess.Payload.Outcome != domain.OutcomeEntryBuilt {
		writeError(w, http.StatusConflict, "no_content", "session holds no activities to organize")
		return
	}

	content, err := h.organizer.Organize(r.Context(), sess.Payload)
	if err != nil {
		writeError(w, http.StatusBadGateway, "generation_failed", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, GenerateResponse{
		SessionID:         id,
		Narrative:         content.Narrative,
		FollowUpQuestions: content.FollowUpQuestions,
		PromptTokens:      content.PromptTokens,
		CompletionTokens:  content.CompletionTokens,
	})
}

func (h *Handler) saveFromSession(w http.ResponseWriter, r *http.Request, id string) {
	sess, claims, err := h.ownedSession(r, id)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	if !claims.HasScope(auth.ScopeJournalWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope journal:write required")
		return
	}
	if sess.Payload == nil || sess.Payload.Entry == nil {
		writeError(w, http.StatusConflict, "no_content", "session holds no entry to save")
		return
	}

	var req SaveEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	entry := domain.SavedEntry{
		ID:        uuid.NewString(),
		TenantID:  claims.TenantID,
		UserID:    claims.Subject,
		Narrative: req.Narrative,
		Entry:     *sess.Payload.Entry,
		SavedAt:   time.Now().UTC(),
	}

	if err := h.entries.Save(r.Context(), entry); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	published := true
	if err := h.publisher.PublishEntry(r.Context(), entry); err != nil {
		// The entry is durable; the event can be re-emitted out of band.
		published = false
	}

	// Saving consumes the session so raw context does not outlive its use.
	h.sessions.Delete(id)

	writeJSON(w, http.StatusCreated, SaveEntryResponse{
		EntryID:   entry.ID,
		SavedAt:   entry.SavedAt,
		Published: published,
	})
}

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeJournalRead) && !claims.HasScope(auth.ScopeJournalWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope journal:read required")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			if parsed > 100 {
				parsed = 100
			}
			limit = parsed
		}
	}

	cursor, err := persistence.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}

	entries, next, err := h.entries.ListByUser(r.Context(), claims.TenantID, claims.Subject, cursor, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]EntryView, 0, len(entries))
	for _, entry := range entries {
		items = append(items, toEntryView(entry))
	}

	writeJSON(w, http.StatusOK, ListEntriesResponse{
		Items:      items,
		NextCursor: persistence.EncodeCursor(next),
	})
}

func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
	case errors.Is(err, domain.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "not_found", "session not found or expired")
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

// FetchCycleRequest is the payload for POST /v1/journal/fetch.
type FetchCycleRequest struct {
	SelfIdentifier string               `json:"self_identifier"`
	Connections    []ToolConnectionBody `json:"connections"`
	DateRange      DateRangeBody        `json:"date_range"`
	ConsentGiven   bool                 `json:"consent_given"`
	Quality        string               `json:"quality,omitempty"`
	Privacy        string               `json:"privacy,omitempty"`
	WorkspaceName  string               `json:"workspace_name,omitempty"`
	MaxActivities  int                  `json:"max_activities,omitempty"`
}

// ToolConnectionBody carries one tool credential for the cycle's duration.
type ToolConnectionBody struct {
	Tool        string `json:"tool"`
	AccessToken string `json:"access_token"`
}

// DateRangeBody bounds the cycle's activity window.
type DateRangeBody struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Validate ensures request correctness.
func (r FetchCycleRequest) Validate() error {
	if strings.TrimSpace(r.SelfIdentifier) == "" {
		return errors.New("self_identifier is required")
	}
	if r.DateRange.Start.IsZero() || r.DateRange.End.IsZero() {
		return errors.New("date_range is required")
	}
	if r.DateRange.End.Before(r.DateRange.Start) {
		return errors.New("date_range end must not precede start")
	}
	for _, conn := range r.Connections {
		if strings.TrimSpace(conn.Tool) == "" {
			return errors.New("connection tool is required")
		}
		if strings.TrimSpace(conn.AccessToken) == "" {
			return errors.New("connection access_token is required")
		}
	}
	return nil
}

func (r FetchCycleRequest) toDomain(userID string) domain.FetchRequest {
	conns := make([]domain.ToolConnection, 0, len(r.Connections))
	for _, conn := range r.Connections {
		conns = append(conns, domain.ToolConnection{
			Tool:        domain.ToolType(conn.Tool),
			AccessToken: conn.AccessToken,
		})
	}
	return domain.FetchRequest{
		UserID:         userID,
		SelfIdentifier: r.SelfIdentifier,
		Connections:    conns,
		DateRange:      domain.DateRange{Start: r.DateRange.Start, End: r.DateRange.End},
		ConsentGiven:   r.ConsentGiven,
		Quality:        r.Quality,
		Privacy:        r.Privacy,
		WorkspaceName:  r.WorkspaceName,
		MaxActivities:  r.MaxActivities,
	}
}

// CycleView is the caller-facing shape of one cycle result. Access tokens
// from the originating request never appear here.
type CycleView struct {
	SessionID    string                 `json:"session_id"`
	Outcome      string                 `json:"outcome"`
	Entry        *domain.Format7Entry   `json:"entry,omitempty"`
	Correlations []domain.Correlation   `json:"correlations,omitempty"`
	Failures     []domain.ToolFailure   `json:"failures,omitempty"`
	Activities   []domain.EntryActivity `json:"activities,omitempty"`
}

func toCycleView(result *domain.FetchResult) CycleView {
	view := CycleView{
		SessionID:    result.SessionID,
		Outcome:      string(result.Outcome),
		Entry:        result.Entry,
		Correlations: result.Correlations,
		Failures:     result.Failures,
	}
	if result.Entry != nil {
		view.Activities = result.Entry.Activities
	}
	return view
}

// GenerateResponse carries the organized narrative back to the caller.
type GenerateResponse struct {
	SessionID         string   `json:"session_id"`
	Narrative         string   `json:"narrative"`
	FollowUpQuestions []string `json:"follow_up_questions"`
	PromptTokens      int      `json:"prompt_tokens"`
	CompletionTokens  int      `json:"completion_tokens"`
}

// SaveEntryRequest is the payload for POST /v1/journal/sessions/{id}/save.
type SaveEntryRequest struct {
	Narrative string `json:"narrative"`
}

// SaveEntryResponse describes the saved entry.
type SaveEntryResponse struct {
	EntryID   string    `json:"entry_id"`
	SavedAt   time.Time `json:"saved_at"`
	Published bool      `json:"published"`
}

// EntryView exposes one saved entry.
type EntryView struct {
	EntryID   string              `json:"entry_id"`
	Narrative string              `json:"narrative"`
	Entry     domain.Format7Entry `json:"entry"`
	SavedAt   time.Time           `json:"saved_at"`
}

// ListEntriesResponse packages list results.
type ListEntriesResponse struct {
	Items      []EntryView `json:"items"`
	NextCursor string      `json:"next_cursor,omitempty"`
}

func toEntryView(entry domain.SavedEntry) EntryView {
	return EntryView{
		EntryID:   entry.ID,
		Narrative: entry.Narrative,
		Entry:     entry.Entry,
		SavedAt:   entry.SavedAt,
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
