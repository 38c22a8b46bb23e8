package adapters

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"example.com/worklog/internal/domain"
)

// Calendar fetches the user's events from Google Calendar.
type Calendar struct {
	baseURL string
	client  restClient
}

// NewCalendar constructs the adapter.
func NewCalendar(baseURL string) *Calendar {
	return &Calendar{baseURL: baseURL, client: newRESTClient(domain.ToolGoogleCalendar)}
}

func (c *Calendar) Tool() domain.ToolType { return domain.ToolGoogleCalendar }

type calendarEventsResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Summary string `json:"summary"`
		Start   struct {
			DateTime string `json:"dateTime"`
		} `json:"start"`
		End struct {
			DateTime string `json:"dateTime"`
		} `json:"end"`
		Organizer struct {
			DisplayName string `json:"displayName"`
			Email       string `json:"email"`
		} `json:"organizer"`
		Attendees []struct {
			DisplayName string `json:"displayName"`
			Email       string `json:"email"`
		} `json:"attendees"`
		Recurrence       []string `json:"recurrence"`
		RecurringEventID string   `json:"recurringEventId"`
	} `json:"items"`
}

// Fetch lists primary-calendar events inside the range.
func (c *Calendar) Fetch(ctx context.Context, accessToken string, dateRange domain.DateRange) (domain.RawPayload, error) {
	endpoint := fmt.Sprintf("%s/calendars/primary/events?timeMin=%s&timeMax=%s&singleEvents=true",
		c.baseURL,
		url.QueryEscape(dateRange.Start.Format(time.RFC3339)),
		url.QueryEscape(dateRange.End.Format(time.RFC3339)))

	var resp calendarEventsResponse
	if err := c.client.getJSON(ctx, endpoint, accessToken, &resp); err != nil {
		return domain.RawPayload{}, err
	}

	payload := domain.RawPayload{Tool: domain.ToolGoogleCalendar}
	for _, event := range resp.Items {
		attendees := make([]string, 0, len(event.Attendees))
		for _, attendee := range event.Attendees {
			name := attendee.DisplayName
			if name == "" {
				name = attendee.Email
			}
			if name != "" {
				attendees = append(attendees, name)
			}
		}
		organizer := event.Organizer.DisplayName
		if organizer == "" {
			organizer = event.Organizer.Email
		}
		payload.Items = append(payload.Items, domain.RawActivity{
			"id":        event.ID,
			"summary":   event.Summary,
			"start":     event.Start.DateTime,
			"end":       event.End.DateTime,
			"organizer": organizer,
			"attendees": attendees,
			"recurring": len(event.Recurrence) > 0 || event.RecurringEventID != "",
		})
	}
	return payload, nil
}
