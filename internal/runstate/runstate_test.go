package runstate

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTryStartSingleFlight(t *testing.T) {
	c := NewController()

	if !c.TryStart() {
		t.Fatal("expected first TryStart to succeed")
	}
	if c.TryStart() {
		t.Error("expected second TryStart to fail while running")
	}

	c.Finish()
	if !c.TryStart() {
		t.Error("expected TryStart to succeed after Finish")
	}
}

func TestTryStartClearsStaleAbort(t *testing.T) {
	c := NewController()

	c.TryStart()
	c.RequestAbort()
	c.Finish()

	c.TryStart()
	if c.Aborted() {
		t.Error("expected abort flag to be cleared by TryStart")
	}
}

func TestRequestAbortNotRunning(t *testing.T) {
	c := NewController()

	if c.RequestAbort() {
		t.Error("expected RequestAbort to report false when idle")
	}

	c.TryStart()
	if !c.RequestAbort() {
		t.Error("expected RequestAbort to report true while running")
	}
	if !c.RequestAbort() {
		t.Error("expected repeated RequestAbort to remain true")
	}
	if !c.Aborted() {
		t.Error("expected Aborted after RequestAbort")
	}
}

func TestLogEviction(t *testing.T) {
	c := NewController()
	c.now = func() time.Time { return time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC) }

	for i := 0; i < LogCapacity+25; i++ {
		c.Logf("line %d", i)
	}

	logs, _ := c.Observe()
	if len(logs) != LogCapacity {
		t.Fatalf("expected %d lines, got %d", LogCapacity, len(logs))
	}
	if !strings.HasSuffix(logs[0], "line 25") {
		t.Errorf("expected oldest surviving line to be 'line 25', got %q", logs[0])
	}
	if !strings.HasSuffix(logs[len(logs)-1], fmt.Sprintf("line %d", LogCapacity+24)) {
		t.Errorf("unexpected newest line %q", logs[len(logs)-1])
	}
	if !strings.HasPrefix(logs[0], "09:30:00 ") {
		t.Errorf("expected timestamp prefix, got %q", logs[0])
	}
}

func TestClearLogs(t *testing.T) {
	c := NewController()
	c.Logf("one")
	c.Logf("two")

	c.ClearLogs()

	logs, running := c.Observe()
	if len(logs) != 0 {
		t.Errorf("expected empty log, got %d lines", len(logs))
	}
	if running {
		t.Error("expected running=false")
	}
}

func TestConcurrentTriggerAttempts(t *testing.T) {
	c := NewController()

	var wg sync.WaitGroup
	var mu sync.Mutex
	started := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.TryStart() {
				mu.Lock()
				started++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if started != 1 {
		t.Errorf("expected exactly one winner, got %d", started)
	}
}

func TestConcurrentLogAndObserve(t *testing.T) {
	c := NewController()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Logf("writer %d line %d", n, j)
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Observe()
			}
		}()
	}
	wg.Wait()

	logs, _ := c.Observe()
	if len(logs) != LogCapacity {
		t.Errorf("expected full buffer of %d, got %d", LogCapacity, len(logs))
	}
}
