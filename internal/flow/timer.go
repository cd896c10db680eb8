// Package flow provides the delayed-action timer used by the flow manager.
package flow

import (
	"log/slog"
	"sync"
	"time"

	"github.com/sesamtech/caseflow/internal/util"
)

// Timer schedules delayed actions. The flow manager uses it for the single
// delayed action the system has: erasing a completed flow's snapshot and
// firing the redirect after the completion delay.
type Timer interface {
	// ScheduleAfter schedules fn to run after delay and returns a timer ID.
	ScheduleAfter(delay time.Duration, fn func()) (string, error)

	// Cancel stops a scheduled function by ID.
	Cancel(id string) error
}

// SimpleTimer implements Timer on top of time.AfterFunc.
type SimpleTimer struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewSimpleTimer creates a SimpleTimer.
func NewSimpleTimer() *SimpleTimer {
	return &SimpleTimer{timers: make(map[string]*time.Timer)}
}

// ScheduleAfter schedules fn to run after delay.
func (t *SimpleTimer) ScheduleAfter(delay time.Duration, fn func()) (string, error) {
	id := util.GenerateRandomID("timer_", 8)
	slog.Debug("SimpleTimer.ScheduleAfter: scheduling", "id", id, "delay", delay)

	timer := time.AfterFunc(delay, func() {
		slog.Debug("SimpleTimer.ScheduleAfter: firing", "id", id)
		fn()
		t.mu.Lock()
		delete(t.timers, id)
		t.mu.Unlock()
	})

	t.mu.Lock()
	t.timers[id] = timer
	t.mu.Unlock()

	return id, nil
}

// Cancel stops a scheduled function. Canceling an unknown or already-fired
// timer is a no-op.
func (t *SimpleTimer) Cancel(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if timer, ok := t.timers[id]; ok {
		timer.Stop()
		delete(t.timers, id)
		slog.Debug("SimpleTimer.Cancel: canceled", "id", id)
	}
	return nil
}
