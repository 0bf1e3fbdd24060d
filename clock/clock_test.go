package clock

import "testing"

func TestAdvanceRunsFixedStepsAtExpectedRate(t *testing.T) {
	l := NewLoop(1.0/60.0, 0.2, 5)
	l.Start()

	var ticks int
	fixed := func(dt float64) {
		ticks++
		if dt != 1.0/60.0 {
			t.Errorf("fixedUpdate dt = %v, want %v", dt, 1.0/60.0)
		}
	}
	var presented int
	present := func(delta, alpha float64) { presented++ }

	// One frame of exactly one fixed step.
	l.Advance(1.0/60.0, fixed, present)
	if ticks != 1 {
		t.Errorf("ticks = %d, want 1", ticks)
	}
	if presented != 1 {
		t.Errorf("presented = %d, want 1", presented)
	}
}

func TestAdvanceClampsSpiralOfDeath(t *testing.T) {
	l := NewLoop(1.0/60.0, 0.2, 5)
	l.Start()

	var ticks int
	l.Advance(10.0, func(dt float64) { ticks++ }, func(delta, alpha float64) {})

	// Clamped to 0.2s / (1/60s) = 12 steps available, but capped at 5.
	if ticks != 5 {
		t.Errorf("ticks = %d, want capped at 5", ticks)
	}
	if l.accumulator != 0 {
		t.Errorf("accumulator = %v, want 0 after overflow discard", l.accumulator)
	}
}

func TestAdvanceNoopWhenNotRunning(t *testing.T) {
	l := NewLoop(1.0/60.0, 0.2, 5)
	var ticks int
	l.Advance(1.0, func(dt float64) { ticks++ }, nil)
	if ticks != 0 {
		t.Errorf("ticks = %d, want 0 when stopped", ticks)
	}
}

func TestPauseResumeIdempotent(t *testing.T) {
	l := NewLoop(1.0/60.0, 0.2, 5)
	l.Start()
	l.Pause()
	l.Pause()
	if l.State() != Paused {
		t.Fatalf("state = %v, want Paused", l.State())
	}
	l.Resume()
	l.Resume()
	if l.State() != Running {
		t.Fatalf("state = %v, want Running", l.State())
	}
}

func TestSimulationTimeAdvancesByNDt(t *testing.T) {
	l := NewLoop(1.0/60.0, 0.2, 5)
	l.Start()
	for i := 0; i < 3; i++ {
		l.Advance(1.0/60.0, func(dt float64) {}, func(delta, alpha float64) {})
	}
	want := 3.0 / 60.0
	if diff := l.SimulationTimeSeconds() - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("SimulationTimeSeconds() = %v, want %v", l.SimulationTimeSeconds(), want)
	}
}
