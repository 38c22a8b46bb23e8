// Package normalize maps tool-specific raw payloads into the uniform
// ActivityContext shape and strips secrets from free text. Template escaping is
// deliberately not done here; that belongs to prompt assembly.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"example.com/worklog/internal/domain"
)

// MaxBodyRunes bounds the free-text body carried on an ActivityContext.
const MaxBodyRunes = 500

type extractor func(raw domain.RawActivity, self string) domain.ActivityContext

// extractors is a closed dispatch table: one routine per well-supported tool.
// Tools without an entry fall through to extractDefault, which yields only
// title/date/people. A tool with no rich API should not be mined for body text.
var extractors = map[domain.ToolType]extractor{
	domain.ToolGitHub:         extractGitHub,
	domain.ToolGitLab:         extractGitLab,
	domain.ToolJira:           extractJira,
	domain.ToolSlack:          extractSlack,
	domain.ToolGoogleCalendar: extractCalendar,
	domain.ToolConfluence:     extractConfluence,
}

// Extract builds one ActivityContext from a raw item. Pure: identical input
// always yields an identical context.
func Extract(tool domain.ToolType, raw domain.RawActivity, self string) domain.ActivityContext {
	fn, ok := extractors[tool]
	if !ok {
		fn = extractDefault
	}
	ctx := fn(raw, self)
	ctx.Source = tool
	if ctx.ID == "" {
		ctx.ID = fallbackID(tool, ctx)
	}
	if ctx.Edge == "" {
		ctx.Edge = edgeHint(raw)
	}
	return ctx
}

// ExtractAll normalizes every item in a payload.
func ExtractAll(payload domain.RawPayload, self string) []domain.ActivityContext {
	out := make([]domain.ActivityContext, 0, len(payload.Items))
	for _, item := range payload.Items {
		out = append(out, Extract(payload.Tool, item, self))
	}
	return out
}

func extractGitHub(raw domain.RawActivity, self string) domain.ActivityContext {
	ctx := domain.ActivityContext{
		ID:        str(raw, "id"),
		Title:     str(raw, "title"),
		Date:      timestamp(raw, "updated_at", "created_at"),
		Body:      cleanBody(str(raw, "body")),
		Labels:    strs(raw, "labels"),
		Container: str(raw, "repo"),
		State:     str(raw, "state"),
		Reactions: num(raw, "reactions"),
		Comments:  num(raw, "comments"),
	}

	// A review-specific identifier distinguishes a code review from a plain
	// commit or pull request.
	switch {
	case str(raw, "review_id") != "":
		ctx.SourceSubtype = "code_review"
	case has(raw, "pull_number") || has(raw, "additions"):
		ctx.SourceSubtype = "pull_request"
	default:
		ctx.SourceSubtype = "commit"
	}

	if has(raw, "additions") || has(raw, "deletions") || has(raw, "changed_files") {
		ctx.Scope = &domain.CodeScope{
			Additions:    num(raw, "additions"),
			Deletions:    num(raw, "deletions"),
			FilesChanged: num(raw, "changed_files"),
		}
	}

	author := str(raw, "author")
	ctx.People = people(author, strs(raw, "reviewers"))
	ctx.UserRole = role(self, author, strs(raw, "reviewers"))
	ctx.LinkedItems = strs(raw, "linked_issues")
	if lang := str(raw, "language"); lang != "" {
		ctx.Technologies = []string{lang}
	}
	return ctx
}

func extractGitLab(raw domain.RawActivity, self string) domain.ActivityContext {
	ctx := domain.ActivityContext{
		ID:        str(raw, "id"),
		Title:     str(raw, "title"),
		Date:      timestamp(raw, "updated_at", "created_at"),
		Body:      cleanBody(str(raw, "description")),
		Labels:    strs(raw, "labels"),
		Container: str(raw, "project"),
		State:     str(raw, "state"),
		Comments:  num(raw, "user_notes_count"),
	}

	if has(raw, "merge_request_iid") {
		ctx.SourceSubtype = "merge_request"
	} else {
		ctx.SourceSubtype = "commit"
	}

	if has(raw, "additions") || has(raw, "deletions") {
		ctx.Scope = &domain.CodeScope{
			Additions:    num(raw, "additions"),
			Deletions:    num(raw, "deletions"),
			FilesChanged: num(raw, "changed_files"),
		}
	}

	author := str(raw, "author")
	ctx.People = people(author, strs(raw, "reviewers"))
	ctx.UserRole = role(self, author, strs(raw, "reviewers"))
	ctx.LinkedItems = strs(raw, "linked_issues")
	return ctx
}

func extractJira(raw domain.RawActivity, self string) domain.ActivityContext {
	key := str(raw, "key")
	ctx := domain.ActivityContext{
		ID:            key,
		Title:         str(raw, "summary"),
		Date:          timestamp(raw, "updated", "created"),
		SourceSubtype: strings.ToLower(strOr(raw, "issuetype", "issue")),
		Body:          cleanBody(str(raw, "description")),
		Labels:        strs(raw, "labels"),
		Container:     str(raw, "project"),
		State:         str(raw, "status"),
		Comments:      num(raw, "comment_count"),
	}
	if key != "" {
		ctx.LinkedItems = append(ctx.LinkedItems, key)
	}
	assignee := str(raw, "assignee")
	reporter := str(raw, "reporter")
	ctx.People = people(assignee, []string{reporter})
	switch self {
	case assignee:
		ctx.UserRole = "assignee"
	case reporter:
		ctx.UserRole = "reporter"
	default:
		ctx.UserRole = "participant"
	}
	return ctx
}

func extractSlack(raw domain.RawActivity, self string) domain.ActivityContext {
	text := str(raw, "text")
	title := text
	if r := []rune(title); len(r) > 80 {
		title = string(r[:80])
	}
	ctx := domain.ActivityContext{
		ID:            str(raw, "ts"),
		Title:         title,
		Date:          timestamp(raw, "timestamp", "ts"),
		SourceSubtype: "thread",
		Body:          cleanBody(text),
		Container:     str(raw, "channel"),
		Reactions:     num(raw, "reactions"),
		Comments:      num(raw, "reply_count"),
	}
	author := str(raw, "user")
	ctx.People = people(author, strs(raw, "participants"))
	ctx.UserRole = role(self, author, strs(raw, "participants"))
	ctx.Sentiment = str(raw, "sentiment")
	return ctx
}

func extractCalendar(raw domain.RawActivity, self string) domain.ActivityContext {
	start := timestamp(raw, "start")
	end := timestamp(raw, "end")
	duration := 0
	if !start.IsZero() && end.After(start) {
		duration = int(end.Sub(start).Minutes())
	}

	title := str(raw, "summary")
	ctx := domain.ActivityContext{
		ID:            str(raw, "id"),
		Title:         title,
		Date:          start,
		SourceSubtype: "meeting",
		Container:     str(raw, "calendar"),
		DurationMin:   duration,
		IsRoutine:     boolField(raw, "recurring") || routineTitle(title),
	}
	organizer := str(raw, "organizer")
	ctx.People = people(organizer, strs(raw, "attendees"))
	if organizer == self {
		ctx.UserRole = "organizer"
	} else {
		ctx.UserRole = "attendee"
	}
	return ctx
}

func extractConfluence(raw domain.RawActivity, self string) domain.ActivityContext {
	ctx := domain.ActivityContext{
		ID:            str(raw, "id"),
		Title:         str(raw, "title"),
		Date:          timestamp(raw, "updated", "created"),
		SourceSubtype: "document",
		Body:          cleanBody(str(raw, "excerpt")),
		Labels:        strs(raw, "labels"),
		Container:     str(raw, "space"),
		Comments:      num(raw, "comment_count"),
	}
	author := str(raw, "author")
	ctx.People = people(author, strs(raw, "contributors"))
	ctx.UserRole = role(self, author, strs(raw, "contributors"))
	return ctx
}

// extractDefault covers low-signal tools: title, date, and people only.
func extractDefault(raw domain.RawActivity, self string) domain.ActivityContext {
	ctx := domain.ActivityContext{
		ID:            str(raw, "id"),
		Title:         strOr(raw, "title", strOr(raw, "name", "activity")),
		Date:          timestamp(raw, "updated_at", "date"),
		SourceSubtype: strOr(raw, "type", "item"),
	}
	author := str(raw, "author")
	ctx.People = people(author, strs(raw, "participants"))
	ctx.UserRole = role(self, author, strs(raw, "participants"))
	return ctx
}

// cleanBody runs the secret scanner, then truncates.
func cleanBody(body string) string {
	scrubbed, _ := ScrubSecrets(body)
	runes := []rune(scrubbed)
	if len(runes) > MaxBodyRunes {
		return string(runes[:MaxBodyRunes])
	}
	return scrubbed
}

var routineMarkers = []string{"standup", "stand-up", "daily", "weekly sync", "1:1", "1on1", "retro check-in"}

func routineTitle(title string) bool {
	lower := strings.ToLower(title)
	for _, marker := range routineMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func edgeHint(raw domain.RawActivity) domain.EdgeType {
	switch domain.EdgeType(str(raw, "edge_type")) {
	case domain.EdgePrimary:
		return domain.EdgePrimary
	case domain.EdgeOutcome:
		return domain.EdgeOutcome
	case domain.EdgeSupporting:
		return domain.EdgeSupporting
	case domain.EdgeContextual:
		return domain.EdgeContextual
	default:
		return domain.EdgeSupporting
	}
}

func role(self, author string, others []string) string {
	if self != "" && self == author {
		return "author"
	}
	for _, o := range others {
		if self != "" && self == o {
			return "reviewer"
		}
	}
	return "participant"
}

func people(primary string, rest []string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(rest)+1)
	for _, name := range append([]string{primary}, rest...) {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func fallbackID(tool domain.ToolType, ctx domain.ActivityContext) string {
	slug := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(ctx.Title), " ", "-"))
	if r := []rune(slug); len(r) > 40 {
		slug = string(r[:40])
	}
	return fmt.Sprintf("%s:%d:%s", tool, ctx.Date.Unix(), slug)
}

func str(raw domain.RawActivity, key string) string {
	if v, ok := raw[key].(string); ok {
		return v
	}
	return ""
}

func strOr(raw domain.RawActivity, key, fallback string) string {
	if v := str(raw, key); v != "" {
		return v
	}
	return fallback
}

func strs(raw domain.RawActivity, key string) []string {
	switch v := raw[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func num(raw domain.RawActivity, key string) int {
	switch v := raw[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func has(raw domain.RawActivity, key string) bool {
	_, ok := raw[key]
	return ok
}

func boolField(raw domain.RawActivity, key string) bool {
	v, _ := raw[key].(bool)
	return v
}

func timestamp(raw domain.RawActivity, keys ...string) time.Time {
	for _, key := range keys {
		switch v := raw[key].(type) {
		case time.Time:
			return v.UTC()
		case string:
			if ts, err := time.Parse(time.RFC3339, v); err == nil {
				return ts.UTC()
			}
		}
	}
	return time.Time{}
}
