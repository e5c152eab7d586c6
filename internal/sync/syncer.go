package sync

import (
	"context"
	"time"

	"sduisync/internal/calendar"
	"sduisync/internal/mapper"
	"sduisync/internal/sdui"
)

const (
	// maxInsertAttempts bounds retries per event; rate-limit retries
	// consume attempt slots too.
	maxInsertAttempts = 8

	// insertPause is the pause after each successful create, keeping
	// well under the provider's per-user write quota.
	insertPause = 200 * time.Millisecond
)

// runSync executes one sync run: fetch the timetable for the range, map
// it to event descriptors and create them one by one. Individual event
// failures never abort the run; only a fetch failure or an empty result
// ends it early.
func (e *Engine) runSync(rng sdui.Range) {
	if !e.state.TryStart() {
		return
	}
	defer e.state.Finish()

	cfg := e.GetConfig()
	ctx := context.Background()

	tt, err := e.fetcher.FetchTimetable(ctx, rng, cfg.SDUIToken, cfg.SDUIUserID)
	if err != nil {
		e.state.Logf("Sync aborted: timetable data not available")
		return
	}

	events := mapper.Map(tt, e.loc, cfg.Timezone)
	if len(events) == 0 {
		e.state.Logf("No events found for %s - %s",
			rng.Start.Format("2006-01-02"), rng.End.Format("2006-01-02"))
		return
	}

	e.state.Logf("Adding %d events to calendar %s", len(events), cfg.CalendarID)

	created := 0
	for i, ev := range events {
		if e.state.Aborted() {
			e.state.Logf("Stopped by user")
			break
		}

		for attempt := 1; attempt <= maxInsertAttempts; attempt++ {
			err := e.cal.InsertEvent(ctx, cfg.CalendarID, ev)
			if err == nil {
				created++
				e.state.Logf("Added %q (%d/%d)", ev.Summary, i+1, len(events))
				e.sleep(insertPause)
				break
			}

			if calendar.IsRateLimited(err) {
				backoff := time.Duration(1<<attempt) * time.Second
				e.state.Logf("Rate limited, pausing %s before retrying event %d", backoff, i+1)
				e.sleep(backoff)
				continue
			}

			e.state.Logf("Error adding event %d: %v", i+1, err)
			break
		}
	}

	e.state.Logf("Sync finished: %d events created", created)
}
