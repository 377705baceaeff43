package surface

import "testing"

// manualScheduler queues callbacks so tests can pump frames one at a time.
type manualScheduler struct {
	pending []func()
}

func (m *manualScheduler) schedule(fn func()) {
	m.pending = append(m.pending, fn)
}

func (m *manualScheduler) pump() bool {
	if len(m.pending) == 0 {
		return false
	}
	fn := m.pending[0]
	m.pending = m.pending[1:]
	fn()
	return true
}

func TestLoopAdvancesAndReschedules(t *testing.T) {
	view := NewView(peakBuffer(64, 10, 250))
	sched := &manualScheduler{}
	frames := 0

	loop := NewLoop(view, sched.schedule, func() { frames++ })
	loop.Start()

	before := view.Projection().Azimuth
	for i := 0; i < 5; i++ {
		if !sched.pump() {
			t.Fatalf("no frame scheduled before pump %d", i)
		}
	}

	if frames != 5 {
		t.Errorf("frames = %d, want 5", frames)
	}
	if view.Projection().Azimuth <= before {
		t.Error("loop frames must advance the idle spin")
	}
	if !loop.Running() {
		t.Error("loop should still be running")
	}
}

func TestLoopStopHaltsCallbacks(t *testing.T) {
	view := NewView(peakBuffer(64, 10, 250))
	sched := &manualScheduler{}
	frames := 0

	loop := NewLoop(view, sched.schedule, func() { frames++ })
	loop.Start()
	sched.pump()
	loop.Stop()

	// A frame already scheduled must become a no-op.
	for sched.pump() {
	}
	if frames != 1 {
		t.Errorf("frames after stop = %d, want 1", frames)
	}
	if loop.Running() {
		t.Error("Running() = true after Stop")
	}

	if len(sched.pending) != 0 {
		t.Errorf("%d callbacks still queued after drain", len(sched.pending))
	}
}

func TestLoopStartIsIdempotent(t *testing.T) {
	view := NewView(peakBuffer(64, 10, 250))
	sched := &manualScheduler{}
	frames := 0

	loop := NewLoop(view, sched.schedule, func() { frames++ })
	loop.Start()
	loop.Start()
	loop.Start()

	sched.pump()
	if frames != 1 {
		t.Errorf("frames = %d, want 1 (duplicate Start must not double-schedule)", frames)
	}
}

func TestLoopRestartsAfterStop(t *testing.T) {
	view := NewView(peakBuffer(64, 10, 250))
	sched := &manualScheduler{}
	frames := 0

	loop := NewLoop(view, sched.schedule, func() { frames++ })
	loop.Start()
	sched.pump()
	loop.Stop()
	for sched.pump() {
	}

	loop.Start()
	sched.pump()
	if frames != 2 {
		t.Errorf("frames = %d, want 2 after restart", frames)
	}
}
