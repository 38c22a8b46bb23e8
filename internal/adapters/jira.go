package adapters

import (
	"context"
	"fmt"
	"net/url"

	"example.com/worklog/internal/domain"
)

// Jira fetches issues the user worked on.
type Jira struct {
	baseURL string
	client  restClient
}

// NewJira constructs the adapter.
func NewJira(baseURL string) *Jira {
	return &Jira{baseURL: baseURL, client: newRESTClient(domain.ToolJira)}
}

func (j *Jira) Tool() domain.ToolType { return domain.ToolJira }

type jiraSearchResponse struct {
	Issues []struct {
		Key    string `json:"key"`
		Fields struct {
			Summary     string `json:"summary"`
			Description string `json:"description"`
			Updated     string `json:"updated"`
			Labels      []string `json:"labels"`
			Status      struct {
				Name string `json:"name"`
			} `json:"status"`
			IssueType struct {
				Name string `json:"name"`
			} `json:"issuetype"`
			Project struct {
				Key string `json:"key"`
			} `json:"project"`
			Assignee struct {
				DisplayName string `json:"displayName"`
			} `json:"assignee"`
			Reporter struct {
				DisplayName string `json:"displayName"`
			} `json:"reporter"`
			Comment struct {
				Total int `json:"total"`
			} `json:"comment"`
		} `json:"fields"`
	} `json:"issues"`
}

// Fetch runs a JQL search over the range.
func (j *Jira) Fetch(ctx context.Context, accessToken string, dateRange domain.DateRange) (domain.RawPayload, error) {
	jql := fmt.Sprintf(`assignee = currentUser() AND updated >= "%s" AND updated <= "%s"`,
		dateRange.Start.Format("2006-01-02"), dateRange.End.Format("2006-01-02"))
	endpoint := fmt.Sprintf("%s/rest/api/3/search?jql=%s&maxResults=100", j.baseURL, url.QueryEscape(jql))

	var resp jiraSearchResponse
	if err := j.client.getJSON(ctx, endpoint, accessToken, &resp); err != nil {
		return domain.RawPayload{}, err
	}

	payload := domain.RawPayload{Tool: domain.ToolJira}
	for _, issue := range resp.Issues {
		payload.Items = append(payload.Items, domain.RawActivity{
			"key":           issue.Key,
			"summary":       issue.Fields.Summary,
			"description":   issue.Fields.Description,
			"updated":       issue.Fields.Updated,
			"labels":        issue.Fields.Labels,
			"status":        issue.Fields.Status.Name,
			"issuetype":     issue.Fields.IssueType.Name,
			"project":       issue.Fields.Project.Key,
			"assignee":      issue.Fields.Assignee.DisplayName,
			"reporter":      issue.Fields.Reporter.DisplayName,
			"comment_count": issue.Fields.Comment.Total,
		})
	}
	return payload, nil
}
