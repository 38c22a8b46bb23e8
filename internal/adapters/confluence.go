package adapters

import (
	"context"
	"fmt"
	"net/url"

	"example.com/worklog/internal/domain"
)

// Confluence fetches pages the user recently contributed to.
type Confluence struct {
	baseURL string
	client  restClient
}

// NewConfluence constructs the adapter.
func NewConfluence(baseURL string) *Confluence {
	return &Confluence{baseURL: baseURL, client: newRESTClient(domain.ToolConfluence)}
}

func (c *Confluence) Tool() domain.ToolType { return domain.ToolConfluence }

type confluenceSearchResponse struct {
	Results []struct {
		Content struct {
			ID    string `json:"id"`
			Title string `json:"title"`
			Space struct {
				Key string `json:"key"`
			} `json:"space"`
			History struct {
				CreatedBy struct {
					DisplayName string `json:"displayName"`
				} `json:"createdBy"`
			} `json:"history"`
		} `json:"content"`
		Excerpt              string `json:"excerpt"`
		LastModified         string `json:"lastModified"`
		FriendlyLastModified string `json:"friendlyLastModified"`
	} `json:"results"`
}

// Fetch searches pages modified by the user within the range.
func (c *Confluence) Fetch(ctx context.Context, accessToken string, dateRange domain.DateRange) (domain.RawPayload, error) {
	cql := fmt.Sprintf(`contributor = currentUser() and lastModified >= "%s" and lastModified <= "%s"`,
		dateRange.Start.Format("2006-01-02"), dateRange.End.Format("2006-01-02"))
	endpoint := fmt.Sprintf("%s/rest/api/search?cql=%s&limit=50", c.baseURL, url.QueryEscape(cql))

	var resp confluenceSearchResponse
	if err := c.client.getJSON(ctx, endpoint, accessToken, &resp); err != nil {
		return domain.RawPayload{}, err
	}

	payload := domain.RawPayload{Tool: domain.ToolConfluence}
	for _, result := range resp.Results {
		payload.Items = append(payload.Items, domain.RawActivity{
			"id":      result.Content.ID,
			"title":   result.Content.Title,
			"excerpt": result.Excerpt,
			"space":   result.Content.Space.Key,
			"author":  result.Content.History.CreatedBy.DisplayName,
			"updated": result.LastModified,
		})
	}
	return payload, nil
}
