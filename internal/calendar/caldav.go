package calendar

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/emersion/go-ical"
)

// CalDAVClient is a calendar client for CalDAV servers (e.g. iCloud).
// calendarID values are calendar collection paths on the server.
type CalDAVClient struct {
	httpClient *http.Client
	username   string
	password   string
	serverURL  string
}

// NewCalDAVClient creates a new CalDAV calendar client.
// serverURL is the CalDAV server URL (e.g. "https://caldav.icloud.com");
// password should be an app-specific password where the provider uses them.
func NewCalDAVClient(serverURL, username, password string) *CalDAVClient {
	return &CalDAVClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		username:  username,
		password:  password,
		serverURL: serverURL,
	}
}

// makeRequest makes an authenticated HTTP request to the CalDAV server.
func (c *CalDAVClient) makeRequest(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	url := strings.TrimSuffix(c.serverURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}

	req.SetBasicAuth(c.username, c.password)
	if body != nil && method != http.MethodPut {
		req.Header.Set("Content-Type", "application/xml; charset=utf-8")
	}
	if method == http.MethodPut {
		req.Header.Set("Content-Type", "text/calendar; charset=utf-8")
	}
	req.Header.Set("Depth", "1")

	return c.httpClient.Do(req)
}

// statusError maps a CalDAV response status to the shared error kinds so
// the orchestrators can classify failures uniformly across providers.
func statusError(op string, code int) error {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("failed to %s: HTTP %d: %w", op, code, ErrUnauthorized)
	case http.StatusNotFound, http.StatusGone:
		return fmt.Errorf("failed to %s: HTTP %d: %w", op, code, ErrNotFound)
	case http.StatusTooManyRequests:
		return fmt.Errorf("failed to %s: HTTP %d: %w", op, code, ErrRateLimited)
	default:
		return fmt.Errorf("failed to %s: HTTP %d", op, code)
	}
}

// InsertEvent inserts a new event by PUTting an iCalendar object into the
// calendar collection.
func (c *CalDAVClient) InsertEvent(ctx context.Context, calendarID string, event *Event) error {
	uid := fmt.Sprintf("%d@sduisync", time.Now().UnixNano())

	cal, err := eventToICal(uid, event)
	if err != nil {
		return fmt.Errorf("failed to convert event: %w", err)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode iCalendar: %w", err)
	}

	resp, err := c.makeRequest(ctx, http.MethodPut, calendarID+uid+".ics", &buf)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent {
		return statusError("insert event", resp.StatusCode)
	}

	return nil
}

// ListEvents retrieves events from a calendar collection within the
// specified time window via a calendar-query REPORT. The returned item
// IDs are the object hrefs, which DeleteEvent accepts directly.
// CalDAV has no result cap to request, so pageSize only truncates the
// parsed response.
func (c *CalDAVClient) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time, pageSize int64) ([]Item, error) {
	queryBody := fmt.Sprintf(`<?xml version="1.0" encoding="utf-8" ?>
<C:calendar-query xmlns:D="DAV:" xmlns:C="urn:ietf:params:xml:ns:caldav">
  <D:prop>
    <D:getetag/>
    <C:calendar-data/>
  </D:prop>
  <C:filter>
    <C:comp-filter name="VCALENDAR">
      <C:comp-filter name="VEVENT">
        <C:time-range start="%s" end="%s"/>
      </C:comp-filter>
    </C:comp-filter>
  </C:filter>
</C:calendar-query>`, timeMin.UTC().Format("20060102T150405Z"), timeMax.UTC().Format("20060102T150405Z"))

	resp, err := c.makeRequest(ctx, "REPORT", calendarID, strings.NewReader(queryBody))
	if err != nil {
		return nil, fmt.Errorf("failed to query calendar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusMultiStatus {
		return nil, statusError("query calendar", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	objects, err := parseCalDAVResponse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse CalDAV response: %w", err)
	}

	var items []Item
	for _, obj := range objects {
		if pageSize > 0 && int64(len(items)) >= pageSize {
			break
		}

		cal, err := ical.NewDecoder(strings.NewReader(obj.data)).Decode()
		if err != nil {
			// Skip objects we cannot parse; the href is still usable.
			items = append(items, Item{ID: obj.href})
			continue
		}
		items = append(items, Item{
			ID:      obj.href,
			Summary: icalSummary(cal),
			Start:   icalStart(cal),
		})
	}

	return items, nil
}

// DeleteEvent deletes an event object. eventID is the object href as
// returned by ListEvents; bare object names are resolved against the
// calendar collection path.
func (c *CalDAVClient) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	path := eventID
	if !strings.HasPrefix(path, "/") {
		path = calendarID + eventID
	}

	resp, err := c.makeRequest(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return statusError("delete event", resp.StatusCode)
	}

	return nil
}

// calDAVObject is one href + calendar-data pair from a REPORT response.
type calDAVObject struct {
	href string
	data string
}

// parseCalDAVResponse parses a CalDAV REPORT response to extract the
// object hrefs and their iCalendar data.
func parseCalDAVResponse(body []byte) ([]calDAVObject, error) {
	type calendarData struct {
		Data string `xml:",chardata"`
	}

	type prop struct {
		CalendarData calendarData `xml:"calendar-data"`
	}

	type response struct {
		Href string `xml:"href"`
		Prop prop   `xml:"propstat>prop"`
	}

	type multistatus struct {
		XMLName   xml.Name   `xml:"multistatus"`
		Responses []response `xml:"response"`
	}

	var ms multistatus
	if err := xml.Unmarshal(body, &ms); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	var objects []calDAVObject
	for _, resp := range ms.Responses {
		if resp.Prop.CalendarData.Data != "" {
			objects = append(objects, calDAVObject{href: resp.Href, data: resp.Prop.CalendarData.Data})
		}
	}

	return objects, nil
}

// eventToICal converts a normalized event descriptor to an iCalendar
// object with a single VEVENT.
func eventToICal(uid string, event *Event) (*ical.Calendar, error) {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//sduisync//EN")

	vevent := ical.NewComponent(ical.CompEvent)
	cal.Children = append(cal.Children, vevent)

	vevent.Props.SetText(ical.PropUID, uid)
	if event.Summary != "" {
		vevent.Props.SetText(ical.PropSummary, event.Summary)
	}
	if event.Description != "" {
		vevent.Props.SetText(ical.PropDescription, event.Description)
	}
	if event.Location != "" {
		vevent.Props.SetText(ical.PropLocation, event.Location)
	}

	vevent.Props.SetDateTime(ical.PropDateTimeStart, event.Start)
	vevent.Props.SetDateTime(ical.PropDateTimeEnd, event.End)

	now := time.Now()
	vevent.Props.SetDateTime(ical.PropDateTimeStamp, now)
	vevent.Props.SetDateTime(ical.PropCreated, now)
	vevent.Props.SetDateTime(ical.PropLastModified, now)

	return cal, nil
}

func icalSummary(cal *ical.Calendar) string {
	for _, comp := range cal.Children {
		if comp.Name != ical.CompEvent {
			continue
		}
		if summary := comp.Props.Get(ical.PropSummary); summary != nil {
			return summary.Value
		}
	}
	return ""
}

func icalStart(cal *ical.Calendar) string {
	for _, comp := range cal.Children {
		if comp.Name != ical.CompEvent {
			continue
		}
		if dtstart := comp.Props.Get(ical.PropDateTimeStart); dtstart != nil {
			if t, err := dtstart.DateTime(nil); err == nil {
				return t.Format(time.RFC3339)
			}
		}
	}
	return ""
}
