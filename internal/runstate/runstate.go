package runstate

import (
	"fmt"
	"sync"
	"time"
)

// LogCapacity is the maximum number of log lines kept. Older lines are
// evicted once the buffer is full.
const LogCapacity = 500

// Controller tracks the state of the single background run the engine
// allows at a time: a running flag, a cooperative abort flag, and a
// bounded log that the front end polls.
//
// All methods are safe for concurrent use.
type Controller struct {
	mu      sync.Mutex
	running bool
	abort   bool
	logs    []string

	// now is replaceable in tests for deterministic timestamps.
	now func() time.Time
}

// NewController creates an idle Controller with an empty log.
func NewController() *Controller {
	return &Controller{now: time.Now}
}

// TryStart attempts to mark a run as active. It returns false if a run
// is already in progress; otherwise it sets running, clears any stale
// abort request and returns true.
func (c *Controller) TryStart() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return false
	}
	c.running = true
	c.abort = false
	return true
}

// Finish marks the current run as done. Callers must invoke it on every
// exit path of a run, typically via defer.
func (c *Controller) Finish() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
}

// Running reports whether a run is currently active.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// RequestAbort asks the active run to stop at its next checkpoint.
// It returns false if no run is active. Repeated calls are harmless.
func (c *Controller) RequestAbort() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return false
	}
	c.abort = true
	return true
}

// Aborted reports whether an abort has been requested for the current run.
func (c *Controller) Aborted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.abort
}

// Logf appends a timestamped line to the run log, evicting the oldest
// line once the buffer exceeds LogCapacity.
func (c *Controller) Logf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	line := c.now().Format("15:04:05") + " " + fmt.Sprintf(format, args...)
	c.logs = append(c.logs, line)
	if len(c.logs) > LogCapacity {
		c.logs = c.logs[len(c.logs)-LogCapacity:]
	}
}

// Observe returns a copy of the log lines (oldest first) and the running
// flag, for status polling.
func (c *Controller) Observe() ([]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	logs := make([]string, len(c.logs))
	copy(logs, c.logs)
	return logs, c.running
}

// ClearLogs empties the log buffer.
func (c *Controller) ClearLogs() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logs = nil
}
