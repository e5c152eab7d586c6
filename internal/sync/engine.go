// Package sync implements the timetable synchronization engine: the
// single-flight sync and clear runs against the calendar provider, and
// the trigger/status operations the HTTP front end calls.
package sync

import (
	"context"
	"sync"
	"time"

	"sduisync/internal/config"
	"sduisync/internal/runstate"
	"sduisync/internal/sdui"

	"sduisync/internal/calendar"
)

// Fetcher retrieves raw timetable data for a date range.
// *sdui.Client implements this interface.
type Fetcher interface {
	FetchTimetable(ctx context.Context, rng sdui.Range, token, userID string) (*sdui.Timetable, error)
}

// Engine owns the run-state controller, a mutable copy of the engine
// configuration, and the collaborators every run needs. Triggered runs
// execute on their own goroutines; the trigger methods return
// immediately and progress is observed via Status.
type Engine struct {
	mu  sync.Mutex
	cfg config.Config
	loc *time.Location

	state   *runstate.Controller
	cal     calendar.Client
	fetcher Fetcher

	// sleep is replaceable in tests so backoff and throttling pauses
	// can be recorded instead of waited out.
	sleep func(time.Duration)
}

// NewEngine creates an engine around the given configuration and
// collaborators. The controller is shared with collaborators that
// report into the run log, such as the timetable fetcher. The
// configured timezone must be a valid IANA name.
func NewEngine(cfg *config.Config, state *runstate.Controller, cal calendar.Client, fetcher Fetcher) (*Engine, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	return &Engine{
		cfg:     *cfg,
		loc:     loc,
		state:   state,
		cal:     cal,
		fetcher: fetcher,
		sleep:   time.Sleep,
	}, nil
}

// GetConfig returns a read-only snapshot of the current configuration.
func (e *Engine) GetConfig() config.Config {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Update carries a partial configuration change. Nil fields are left
// unchanged.
type Update struct {
	Token      *string
	UserID     *string
	CalendarID *string
	SyncYear   *int
}

// UpdateConfig applies the non-nil fields of u to the configuration.
// A run that is already in flight keeps the snapshot it started with.
func (e *Engine) UpdateConfig(u Update) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if u.Token != nil {
		e.cfg.SDUIToken = *u.Token
	}
	if u.UserID != nil {
		e.cfg.SDUIUserID = *u.UserID
	}
	if u.CalendarID != nil {
		e.cfg.CalendarID = *u.CalendarID
	}
	if u.SyncYear != nil {
		e.cfg.SyncYear = *u.SyncYear
	}
}

// TriggerSync starts a sync run for the range in the background. It is
// a no-op if a run is already active.
func (e *Engine) TriggerSync(rng sdui.Range) {
	go e.runSync(rng)
}

// TriggerClear starts a clear run for the range in the background. It is
// a no-op if a run is already active.
func (e *Engine) TriggerClear(rng sdui.Range) {
	go e.runClear(rng)
}

// RequestStop asks the active run to stop at its next checkpoint.
// Returns false if no run is active.
func (e *Engine) RequestStop() bool {
	return e.state.RequestAbort()
}

// ClearLogs empties the run log buffer.
func (e *Engine) ClearLogs() {
	e.state.ClearLogs()
}

// Status returns the run log (oldest first) and the running flag.
func (e *Engine) Status() ([]string, bool) {
	return e.state.Observe()
}

// Location returns the engine's configured timezone location.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// DayRange returns the range covering a single day.
func DayRange(day time.Time) sdui.Range {
	return sdui.Range{Start: day, End: day}
}

// WeekRange returns the Monday-Sunday range of the given ISO week.
func WeekRange(year, week int, loc *time.Location) sdui.Range {
	// January 4 always falls in ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, loc)
	weekday := int(jan4.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday = 7
	}
	monday := jan4.AddDate(0, 0, -(weekday-1)+(week-1)*7)
	return sdui.Range{Start: monday, End: monday.AddDate(0, 0, 6)}
}
