package calendar

import (
	"context"
	"time"
)

// Event is the normalized event descriptor the engine produces and hands
// to a provider. Start and End are timezone-aware instants; Timezone is
// the IANA identifier carried alongside them because some providers want
// both forms.
type Event struct {
	Summary     string
	Location    string
	Description string
	ColorID     string
	Start       time.Time
	End         time.Time
	Timezone    string
}

// Item is the minimal view of an event already stored at the provider,
// as returned by ListEvents. Start is the provider's raw start value
// (date-time or date) and is only used for logging.
type Item struct {
	ID      string
	Summary string
	Start   string
}

// Client is a generic interface for calendar operations.
// Both the Google Calendar and CalDAV clients implement this interface.
// Implementations must surface rate-limit and not-found failures so that
// IsRateLimited and IsNotFound can classify them.
type Client interface {
	InsertEvent(ctx context.Context, calendarID string, event *Event) error
	ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time, pageSize int64) ([]Item, error)
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
}
