// Package audio implements the Audio Director: it subscribes to the
// event bus and translates each named event into a 2D cue, a 3D
// positional cue, or a music state transition, and owns the background
// music state machine. A minimum dwell time per state guards against
// flapping between adjacent moods.
package audio

import (
	"log/slog"

	"github.com/zww/core/events"
	"github.com/zww/core/simerr"
)

// MusicState is one state of the background-music state machine.
type MusicState string

const (
	Menu     MusicState = "menu"
	Ambient  MusicState = "ambient"
	Combat   MusicState = "combat"
	Tense    MusicState = "tense"
	GameOver MusicState = "gameover"
)

// Sink is the host's audio playback contract. Every method may fail; a
// failure is swallowed by the Director as a missing-resource no-op and
// never propagates to the simulation.
type Sink interface {
	Play2D(id string, opts map[string]any) error
	Play3D(id string, x, y, z float64, opts map[string]any) error
	Stop(id string) error
	SetMasterGain(gain float64)
}

// eventCues maps each event-bus topic to the 2D sample id it triggers.
// Events that instead drive the music state machine (wave:started,
// wave:ended, wave:gameOver) are handled separately, not through this
// table.
var eventCues = map[events.Topic]string{
	events.PlayerDamaged:        "player_damaged",
	events.PlayerJumped:         "player_jump",
	events.PlayerLanded:         "player_land",
	events.WeaponFired:          "weapon_fire",
	events.WeaponEmptyClick:     "weapon_empty",
	events.WeaponReloadStarted:  "weapon_reload_start",
	events.WeaponReloadFinished: "weapon_reload_finish",
	events.WeaponSwitched:       "weapon_switch",
	events.ZombieSpawned:        "zombie_spawn",
	events.ZombieAttack:         "zombie_attack",
	events.ZombieDamaged:        "zombie_hit",
	events.ZombieDied:           "zombie_death",
}

// Director owns the music state machine, driven by the wave topics, and
// dispatches the topics listed in eventCues to sink cues; no other topic
// of the vocabulary plays a cue.
type Director struct {
	sink Sink

	state         MusicState
	preTenseState MusicState
	dwell         float64

	minDwell      float64
	pauseFraction float64
	tenseFraction float64

	paused    bool
	gain      float64
	priorGain float64
}

// New constructs a Director in the Menu state and subscribes it to every
// event-bus topic it reacts to.
func New(sink Sink, minDwell, pauseFraction, tenseFraction float64, bus *events.Bus) *Director {
	d := &Director{
		sink:          sink,
		state:         Menu,
		preTenseState: Ambient,
		minDwell:      minDwell,
		pauseFraction: pauseFraction,
		tenseFraction: tenseFraction,
		gain:          1.0,
		// The dwell guard protects established states, not the initial
		// menu state; starting satisfied lets the first transition
		// through immediately.
		dwell: minDwell,
	}
	if bus != nil {
		for topic := range eventCues {
			bus.Subscribe(topic, d.handleCue)
		}
		bus.Subscribe(events.WaveStarted, d.onWaveStarted)
		bus.Subscribe(events.WaveEnded, d.onWaveEnded)
		bus.Subscribe(events.WaveGameOver, d.onGameOver)
	}
	return d
}

// State returns the current music state.
func (d *Director) State() MusicState { return d.state }

func (d *Director) handleCue(ev events.Event) {
	sample, ok := eventCues[ev.Topic]
	if !ok || d.sink == nil {
		return
	}
	if pos, hasPos := ev.Data["position"]; hasPos {
		if p, ok := pos.([3]float64); ok {
			if err := d.sink.Play3D(sample, p[0], p[1], p[2], nil); err != nil {
				slog.Warn("audio: 3D cue dropped", "err", simerr.Wrap(simerr.ResourceMissing, "audio", sample, err))
			}
			return
		}
	}
	if err := d.sink.Play2D(sample, nil); err != nil {
		slog.Warn("audio: 2D cue dropped", "err", simerr.Wrap(simerr.ResourceMissing, "audio", sample, err))
	}
}

func (d *Director) onWaveStarted(events.Event) { d.transition(Combat) }
func (d *Director) onWaveEnded(events.Event)   { d.transition(Ambient) }
func (d *Director) onGameOver(events.Event)    { d.forceTransition(GameOver) }

// Update advances the dwell timer and evaluates the highest-priority
// transition: player health below tenseFraction forces Tense regardless
// of dwell; recovering above it restores whatever state preceded Tense.
func (d *Director) Update(dt float64, healthFraction float64) {
	d.dwell += dt

	tense := healthFraction > 0 && healthFraction < d.tenseFraction
	if tense {
		if d.state != Tense {
			d.preTenseState = d.state
		}
		d.forceTransition(Tense)
		return
	}
	if d.state == Tense {
		d.forceTransition(d.preTenseState)
	}
}

// transition moves to target, respecting the minimum-dwell flap guard.
func (d *Director) transition(target MusicState) {
	if d.state == target || d.dwell < d.minDwell {
		return
	}
	d.forceTransition(target)
}

// forceTransition moves to target immediately, bypassing the dwell guard
// (used for the highest-priority Tense transition and the latching
// GameOver transition).
func (d *Director) forceTransition(target MusicState) {
	if d.state == target {
		return
	}
	d.state = target
	d.dwell = 0
	if d.sink != nil {
		if err := d.sink.Play2D(string(target)+"_theme", nil); err != nil {
			slog.Warn("audio: music cue failed", "state", target, "err", err)
		}
	}
}

// Pause lowers the master gain to pauseFraction of its current value.
func (d *Director) Pause() {
	if d.paused {
		return
	}
	d.paused = true
	d.priorGain = d.gain
	d.setGain(d.gain * d.pauseFraction)
}

// Resume restores the gain captured at the last Pause.
func (d *Director) Resume() {
	if !d.paused {
		return
	}
	d.paused = false
	d.setGain(d.priorGain)
}

func (d *Director) setGain(g float64) {
	d.gain = g
	if d.sink != nil {
		d.sink.SetMasterGain(g)
	}
}

// Gain returns the current master gain fraction, for HUD/diagnostics.
func (d *Director) Gain() float64 { return d.gain }
