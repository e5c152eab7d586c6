package calendar

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// Conservative defaults, well below Google's actual per-user quota.
const (
	googleRequestsPerSecond = 5.0
	googleBurstSize         = 10
)

// GoogleClient is a wrapper around the Google Calendar API service.
type GoogleClient struct {
	service *gcal.Service
	limiter *rate.Limiter
}

// NewGoogleClient creates a new Google Calendar API client using the
// provided authenticated HTTP client. Every API call waits on a token
// bucket so bursts from the engine stay under Google's quota.
func NewGoogleClient(ctx context.Context, httpClient *http.Client) (*GoogleClient, error) {
	service, err := gcal.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &GoogleClient{
		service: service,
		limiter: rate.NewLimiter(rate.Limit(googleRequestsPerSecond), googleBurstSize),
	}, nil
}

// InsertEvent inserts a new event into a calendar.
// Important: Sets sendUpdates="none" to prevent notifications.
func (c *GoogleClient) InsertEvent(ctx context.Context, calendarID string, event *Event) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	_, err := c.service.Events.Insert(calendarID, toGoogleEvent(event)).
		SendUpdates("none"). // Disable notifications
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	return nil
}

// ListEvents retrieves up to pageSize events from a calendar within the
// specified time window, ordered by start time.
// Important: Sets SingleEvents = true to expand recurring events.
func (c *GoogleClient) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time, pageSize int64) ([]Item, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	eventsList, err := c.service.Events.List(calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true). // Expand recurring events
		OrderBy("startTime").
		MaxResults(pageSize).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	items := make([]Item, 0, len(eventsList.Items))
	for _, ev := range eventsList.Items {
		item := Item{ID: ev.Id, Summary: ev.Summary}
		if ev.Start != nil {
			item.Start = ev.Start.DateTime
			if item.Start == "" {
				item.Start = ev.Start.Date
			}
		}
		items = append(items, item)
	}

	return items, nil
}

// DeleteEvent deletes an event from a calendar.
func (c *GoogleClient) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	err := c.service.Events.Delete(calendarID, eventID).
		SendUpdates("none"). // Disable notifications
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	return nil
}

// toGoogleEvent converts a normalized event descriptor to the Google
// Calendar wire representation. Both the RFC 3339 instant and the
// explicit timezone identifier are set, as the API requires.
func toGoogleEvent(event *Event) *gcal.Event {
	return &gcal.Event{
		Summary:     event.Summary,
		Location:    event.Location,
		Description: event.Description,
		ColorId:     event.ColorID,
		Start: &gcal.EventDateTime{
			DateTime: event.Start.Format(time.RFC3339),
			TimeZone: event.Timezone,
		},
		End: &gcal.EventDateTime{
			DateTime: event.End.Format(time.RFC3339),
			TimeZone: event.Timezone,
		},
	}
}
