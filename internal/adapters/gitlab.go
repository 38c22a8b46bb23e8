package adapters

import (
	"context"
	"fmt"

	"example.com/worklog/internal/domain"
)

// GitLab fetches merge requests the user authored or reviewed.
type GitLab struct {
	baseURL string
	client  restClient
}

// NewGitLab constructs the adapter.
func NewGitLab(baseURL string) *GitLab {
	return &GitLab{baseURL: baseURL, client: newRESTClient(domain.ToolGitLab)}
}

func (g *GitLab) Tool() domain.ToolType { return domain.ToolGitLab }

type gitlabMergeRequest struct {
	ID             int64    `json:"id"`
	IID            int64    `json:"iid"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	State          string   `json:"state"`
	UpdatedAt      string   `json:"updated_at"`
	Labels         []string `json:"labels"`
	UserNotesCount int      `json:"user_notes_count"`
	Author         struct {
		Username string `json:"username"`
	} `json:"author"`
	References struct {
		Full string `json:"full"`
	} `json:"references"`
}

// Fetch lists merge requests updated inside the range.
func (g *GitLab) Fetch(ctx context.Context, accessToken string, dateRange domain.DateRange) (domain.RawPayload, error) {
	endpoint := fmt.Sprintf("%s/merge_requests?scope=all&updated_after=%s&updated_before=%s",
		g.baseURL,
		dateRange.Start.Format("2006-01-02T15:04:05Z"),
		dateRange.End.Format("2006-01-02T15:04:05Z"))

	var items []gitlabMergeRequest
	if err := g.client.getJSON(ctx, endpoint, accessToken, &items); err != nil {
		return domain.RawPayload{}, err
	}

	payload := domain.RawPayload{Tool: domain.ToolGitLab}
	for _, mr := range items {
		payload.Items = append(payload.Items, domain.RawActivity{
			"id":                fmt.Sprintf("gl-%d", mr.ID),
			"merge_request_iid": mr.IID,
			"title":             mr.Title,
			"description":       mr.Description,
			"state":             mr.State,
			"updated_at":        mr.UpdatedAt,
			"labels":            mr.Labels,
			"user_notes_count":  mr.UserNotesCount,
			"author":            mr.Author.Username,
			"project":           mr.References.Full,
		})
	}
	return payload, nil
}
