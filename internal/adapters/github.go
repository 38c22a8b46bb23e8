package adapters

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"example.com/worklog/internal/domain"
)

// GitHub fetches the user's issue, pull-request, and review activity.
type GitHub struct {
	baseURL string
	client  restClient
}

// NewGitHub constructs the adapter.
func NewGitHub(baseURL string) *GitHub {
	return &GitHub{baseURL: baseURL, client: newRESTClient(domain.ToolGitHub)}
}

func (g *GitHub) Tool() domain.ToolType { return domain.ToolGitHub }

type githubSearchResponse struct {
	Items []struct {
		ID          int64  `json:"id"`
		Title       string `json:"title"`
		Body        string `json:"body"`
		State       string `json:"state"`
		UpdatedAt   string `json:"updated_at"`
		Comments    int    `json:"comments"`
		PullRequest *struct {
			MergedAt string `json:"merged_at"`
		} `json:"pull_request"`
		User struct {
			Login string `json:"login"`
		} `json:"user"`
		Labels []struct {
			Name string `json:"name"`
		} `json:"labels"`
		RepositoryURL string `json:"repository_url"`
		Reactions     struct {
			TotalCount int `json:"total_count"`
		} `json:"reactions"`
	} `json:"items"`
}

// Fetch searches for items the user was involved in during the range.
func (g *GitHub) Fetch(ctx context.Context, accessToken string, dateRange domain.DateRange) (domain.RawPayload, error) {
	query := fmt.Sprintf("involves:@me updated:%s..%s",
		dateRange.Start.Format("2006-01-02"), dateRange.End.Format("2006-01-02"))
	endpoint := fmt.Sprintf("%s/search/issues?q=%s&per_page=100", g.baseURL, url.QueryEscape(query))

	var resp githubSearchResponse
	if err := g.client.getJSON(ctx, endpoint, accessToken, &resp); err != nil {
		return domain.RawPayload{}, err
	}

	payload := domain.RawPayload{Tool: domain.ToolGitHub}
	for _, item := range resp.Items {
		labels := make([]string, 0, len(item.Labels))
		for _, label := range item.Labels {
			labels = append(labels, label.Name)
		}
		raw := domain.RawActivity{
			"id":         fmt.Sprintf("gh-%d", item.ID),
			"title":      item.Title,
			"body":       item.Body,
			"state":      item.State,
			"updated_at": item.UpdatedAt,
			"author":     item.User.Login,
			"labels":     labels,
			"comments":   item.Comments,
			"reactions":  item.Reactions.TotalCount,
			"repo":       repoFromURL(item.RepositoryURL),
		}
		if item.PullRequest != nil {
			raw["pull_number"] = item.ID
			if item.PullRequest.MergedAt != "" {
				raw["state"] = "merged"
			}
		}
		payload.Items = append(payload.Items, raw)
	}
	return payload, nil
}

func repoFromURL(repositoryURL string) string {
	parsed, err := url.Parse(repositoryURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(parsed.Path, "/repos/")
}
