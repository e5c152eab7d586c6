package sync

import (
	"context"
	"time"

	"sduisync/internal/calendar"
	"sduisync/internal/sdui"
)

const (
	// maxClearPasses bounds the repeated list+delete cycles so a
	// misbehaving provider cannot keep a run alive forever.
	maxClearPasses = 5

	// clearPageSize is the listing size per pass; events beyond it are
	// picked up by the next pass.
	clearPageSize = 250

	deletePause     = 150 * time.Millisecond
	rateLimitPause  = 2 * time.Second
	deleteMilestone = 10
)

// runClear executes one clear run: repeatedly list the events in the
// range and delete them, until a pass finds the calendar clean. A single
// list call may miss events (provider result caps, pagination shifting
// under deletion), so the cycle repeats up to maxClearPasses.
func (e *Engine) runClear(rng sdui.Range) {
	if !e.state.TryStart() {
		return
	}
	defer e.state.Finish()

	cfg := e.GetConfig()
	ctx := context.Background()

	// Whole-day bounds in the configured timezone.
	start := time.Date(rng.Start.Year(), rng.Start.Month(), rng.Start.Day(), 0, 0, 0, 0, e.loc)
	end := time.Date(rng.End.Year(), rng.End.Month(), rng.End.Day(), 23, 59, 59, 0, e.loc)

	e.state.Logf("Clearing events from %s to %s",
		start.Format("2006-01-02"), end.Format("2006-01-02"))

	deleted := 0
	aborted := false

passes:
	for pass := 1; pass <= maxClearPasses; pass++ {
		if e.state.Aborted() {
			aborted = true
			break
		}

		items, err := e.cal.ListEvents(ctx, cfg.CalendarID, start, end, clearPageSize)
		if err != nil {
			e.state.Logf("Error listing events: %v", err)
			break
		}
		if len(items) == 0 {
			e.state.Logf("Calendar clean, nothing left to delete")
			break
		}

		for _, item := range items {
			if e.state.Aborted() {
				aborted = true
				break passes
			}

			err := e.cal.DeleteEvent(ctx, cfg.CalendarID, item.ID)
			if err == nil {
				deleted++
				if deleted%deleteMilestone == 0 {
					e.state.Logf("Deleted %d events so far", deleted)
				}
				e.sleep(deletePause)
				continue
			}

			switch {
			case calendar.IsRateLimited(err):
				e.state.Logf("Rate limited while deleting, pausing %s", rateLimitPause)
				e.sleep(rateLimitPause)
			case calendar.IsNotFound(err):
				// Already gone; expected when passes overlap.
			default:
				e.state.Logf("Error deleting event %q: %v", item.Summary, err)
			}
		}
	}

	if aborted {
		e.state.Logf("Stopped by user")
	} else {
		e.state.Logf("Clear finished: %d events deleted", deleted)
	}
}
