package calendar

import (
	"context"
	"fmt"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/calimport/internal/google"
	"github.com/teemow/calimport/internal/schedule"
)

// DefaultCalendarID is the signed-in user's primary calendar.
const DefaultCalendarID = "primary"

// Client wraps the Google Calendar service for one user's credentials.
type Client struct {
	svc *calendar.Service
}

// NewClient creates a Calendar client authenticated with creds.
// Extra options are applied after the HTTP client, so tests can point the
// client at a fake endpoint.
func NewClient(ctx context.Context, cfg google.OAuthConfig, creds google.Credentials, opts ...option.ClientOption) (*Client, error) {
	httpClient, err := google.HTTPClient(ctx, cfg.Config(), creds)
	if err != nil {
		return nil, err
	}

	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	return &Client{svc: svc}, nil
}

// InsertEvent creates ev on the given calendar. Times are sent in UTC.
func (c *Client) InsertEvent(ctx context.Context, calendarID string, ev schedule.CalendarEvent) (*EventSummary, error) {
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}

	event := &calendar.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start: &calendar.EventDateTime{
			DateTime: ev.Start.UTC().Format(time.RFC3339),
			TimeZone: "UTC",
		},
		End: &calendar.EventDateTime{
			DateTime: ev.End.UTC().Format(time.RFC3339),
			TimeZone: "UTC",
		},
	}

	created, err := c.svc.Events.Insert(calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	summary := toEventSummary(created)
	return &summary, nil
}

// CalendarName returns the display name of a calendar. It is used to confirm
// the target calendar is reachable before an import starts.
func (c *Client) CalendarName(ctx context.Context, calendarID string) (string, error) {
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}
	cal, err := c.svc.Calendars.Get(calendarID).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get calendar: %w", err)
	}
	return cal.Summary, nil
}
