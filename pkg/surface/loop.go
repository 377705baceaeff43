package surface

import (
	"sync"
	"time"
)

// Scheduler schedules fn to run once on the host's next animation frame.
// Browser hosts back this with requestAnimationFrame; desktop hosts with a
// timer. The loop reschedules itself after every frame.
type Scheduler func(fn func())

// TimerScheduler returns a Scheduler that fires after the given interval,
// approximating a fixed frame rate for hosts without a frame callback.
func TimerScheduler(interval time.Duration) Scheduler {
	return func(fn func()) {
		time.AfterFunc(interval, fn)
	}
}

// Loop drives a View: each frame it advances the idle spin, invokes the
// host's draw callback, and reschedules itself. Stop is idempotent and
// guarantees no further callbacks are issued once it returns, so a torn
// down host never sees a frame for a discarded grid.
type Loop struct {
	view    *View
	sched   Scheduler
	onFrame func()

	mu      sync.Mutex
	running bool
}

// NewLoop wires a view to a scheduler and a per-frame draw callback.
func NewLoop(view *View, sched Scheduler, onFrame func()) *Loop {
	return &Loop{view: view, sched: sched, onFrame: onFrame}
}

// Start begins issuing frames. Calling Start on a running loop is a no-op.
func (l *Loop) Start() {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return
	}
	l.running = true
	l.mu.Unlock()
	l.sched(l.step)
}

// Stop halts the loop; a frame already scheduled becomes a no-op.
func (l *Loop) Stop() {
	l.mu.Lock()
	l.running = false
	l.mu.Unlock()
}

// Running reports whether the loop is issuing frames.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *Loop) step() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()

	l.view.Advance()
	if l.onFrame != nil {
		l.onFrame()
	}

	l.mu.Lock()
	running := l.running
	l.mu.Unlock()
	if running {
		l.sched(l.step)
	}
}
