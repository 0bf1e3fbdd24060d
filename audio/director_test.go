package audio

import (
	"testing"

	"github.com/zww/core/events"
)

type fakeSink struct {
	plays2D []string
	gain    float64
}

func (f *fakeSink) Play2D(id string, opts map[string]any) error {
	f.plays2D = append(f.plays2D, id)
	return nil
}
func (f *fakeSink) Play3D(id string, x, y, z float64, opts map[string]any) error { return nil }
func (f *fakeSink) Stop(id string) error                                         { return nil }
func (f *fakeSink) SetMasterGain(gain float64)                                   { f.gain = gain }

func TestWaveStartedTransitionsToCombat(t *testing.T) {
	bus := events.NewBus()
	sink := &fakeSink{}
	d := New(sink, 2.0, 0.5, 0.25, bus)

	bus.Publish(events.Event{Topic: events.WaveStarted})
	if d.State() != Combat {
		t.Errorf("state = %v, want Combat", d.State())
	}
}

func TestDwellGuardPreventsFlapping(t *testing.T) {
	bus := events.NewBus()
	sink := &fakeSink{}
	d := New(sink, 2.0, 0.5, 0.25, bus)

	bus.Publish(events.Event{Topic: events.WaveStarted})
	bus.Publish(events.Event{Topic: events.WaveEnded}) // immediate flap attempt
	if d.State() != Combat {
		t.Errorf("state = %v, want Combat to persist under dwell guard", d.State())
	}

	d.Update(2.1, 1.0)
	bus.Publish(events.Event{Topic: events.WaveEnded})
	if d.State() != Ambient {
		t.Errorf("state = %v, want Ambient after dwell elapsed", d.State())
	}
}

func TestTenseIsHighestPriorityAndRestores(t *testing.T) {
	bus := events.NewBus()
	sink := &fakeSink{}
	d := New(sink, 2.0, 0.5, 0.25, bus)
	bus.Publish(events.Event{Topic: events.WaveStarted})

	// Low health forces Tense immediately, bypassing the dwell guard.
	d.Update(0.01, 0.1)
	if d.State() != Tense {
		t.Fatalf("state = %v, want Tense", d.State())
	}

	// Recovering above the threshold restores the pre-tense state.
	d.Update(0.01, 0.9)
	if d.State() != Combat {
		t.Errorf("state = %v, want Combat restored after tense clears", d.State())
	}
}

func TestGameOverLatchesRegardlessOfDwell(t *testing.T) {
	bus := events.NewBus()
	sink := &fakeSink{}
	d := New(sink, 2.0, 0.5, 0.25, bus)
	bus.Publish(events.Event{Topic: events.WaveStarted})
	bus.Publish(events.Event{Topic: events.WaveGameOver})

	if d.State() != GameOver {
		t.Errorf("state = %v, want GameOver", d.State())
	}
}

func TestPauseResumeGain(t *testing.T) {
	sink := &fakeSink{}
	d := New(sink, 2.0, 0.5, 0.25, nil)
	d.Pause()
	if sink.gain != 0.5 {
		t.Errorf("gain after pause = %v, want 0.5", sink.gain)
	}
	d.Resume()
	if sink.gain != 1.0 {
		t.Errorf("gain after resume = %v, want 1.0", sink.gain)
	}
}

func TestEventCueDispatch(t *testing.T) {
	bus := events.NewBus()
	sink := &fakeSink{}
	New(sink, 2.0, 0.5, 0.25, bus)

	bus.Publish(events.Event{Topic: events.ZombieDied})
	if len(sink.plays2D) != 1 || sink.plays2D[0] != "zombie_death" {
		t.Errorf("plays2D = %v, want [zombie_death]", sink.plays2D)
	}
}
