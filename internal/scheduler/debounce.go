// Package scheduler owns the debounced librarian trigger. Saving a fragment
// schedules a delayed continuity run keyed by story; another save for the
// same story before the delay elapses cancels and reschedules, so a burst of
// edits produces one run. The branch is captured at schedule time — a branch
// switch during the debounce window cannot redirect the run.
package scheduler

import (
	"context"
	"sync"
	"time"
)

const DefaultDelay = 2 * time.Second

// Runner is invoked once the debounce delay elapses without a newer save.
type Runner func(ctx context.Context, storyID, branchID string)

type pendingRun struct {
	timer    *time.Timer
	branchID string
}

type Debouncer struct {
	mu     sync.Mutex
	delay  time.Duration
	timers map[string]*pendingRun
	run    Runner
}

func NewDebouncer(delay time.Duration, run Runner) *Debouncer {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{
		delay:  delay,
		timers: make(map[string]*pendingRun),
		run:    run,
	}
}

// Schedule queues a run for the story, replacing any still-pending one. An
// in-flight run is not interrupted; the next cycle sees the newer state.
func (d *Debouncer) Schedule(storyID, branchID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if p, ok := d.timers[storyID]; ok {
		p.timer.Stop()
	}
	p := &pendingRun{branchID: branchID}
	p.timer = time.AfterFunc(d.delay, func() {
		d.fire(storyID)
	})
	d.timers[storyID] = p
}

func (d *Debouncer) fire(storyID string) {
	d.mu.Lock()
	p, ok := d.timers[storyID]
	delete(d.timers, storyID)
	d.mu.Unlock()
	if !ok {
		return
	}
	d.run(context.Background(), storyID, p.branchID)
}

// Cancel drops a pending run for the story, if any.
func (d *Debouncer) Cancel(storyID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.timers[storyID]; ok {
		p.timer.Stop()
		delete(d.timers, storyID)
	}
}

// Pending reports whether a run is currently queued for the story.
func (d *Debouncer) Pending(storyID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.timers[storyID]
	return ok
}
