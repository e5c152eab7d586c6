package sdui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the production SDUI API endpoint.
const DefaultBaseURL = "https://api.sdui.app"

// ErrNotAvailable is returned for any failure to obtain timetable data:
// missing configuration, transport errors, and provider rejections. The
// distinction is visible in the run log, not in the error kind, because
// the caller reacts the same way to all of them (abort the run).
var ErrNotAvailable = errors.New("sdui: timetable data not available")

// Logger is the subset of the run-state controller the client needs to
// record fetch progress into the polled run log.
type Logger interface {
	Logf(format string, args ...any)
}

// Client retrieves raw timetable data from the SDUI API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        Logger
}

// NewClient creates an SDUI API client. baseURL may be empty to use the
// production endpoint; tests point it at a local server.
func NewClient(baseURL string, log Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		log:     log,
	}
}

// normalizeToken ensures the Authorization value carries the Bearer
// scheme prefix. Tokens pasted from browser dev tools sometimes include
// it already, so the check is case-insensitive.
func normalizeToken(token string) string {
	if strings.HasPrefix(strings.ToLower(token), "bearer ") {
		return token
	}
	return "Bearer " + token
}

// FetchTimetable retrieves the raw timetable for the user over the given
// date range. All failures are logged and reported as ErrNotAvailable;
// retrying reads is left to the user since the run aborts cleanly.
func (c *Client) FetchTimetable(ctx context.Context, rng Range, token, userID string) (*Timetable, error) {
	if token == "" || userID == "" {
		c.log.Logf("SDUI token or user id not configured")
		return nil, ErrNotAvailable
	}

	url := fmt.Sprintf("%s/v1/timetables/users/%s/timetable?begins_at=%s&ends_at=%s",
		c.baseURL, userID, rng.Start.Format("2006-01-02"), rng.End.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.log.Logf("SDUI request error: %v", err)
		return nil, ErrNotAvailable
	}
	req.Header.Set("Authorization", normalizeToken(token))
	// The SDUI API rejects requests without a browser user agent.
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Logf("SDUI network error: %v", err)
		return nil, ErrNotAvailable
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.log.Logf("SDUI token expired or invalid (HTTP 401)")
		return nil, ErrNotAvailable
	case resp.StatusCode != http.StatusOK:
		c.log.Logf("SDUI fetch failed: HTTP %d", resp.StatusCode)
		return nil, ErrNotAvailable
	}

	var tt Timetable
	if err := json.NewDecoder(resp.Body).Decode(&tt); err != nil {
		c.log.Logf("SDUI response decode error: %v", err)
		return nil, ErrNotAvailable
	}

	return &tt, nil
}
