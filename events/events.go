// Package events implements the single orchestrator-owned event bus: a
// synchronous, subscription-ordered dispatcher keyed by named event
// types. Several independent listeners (Audio Director, telemetry, HUD)
// react to the same named events without ever holding a reference to the
// component that emitted them.
package events

import "log/slog"

// Topic is one of the named event-bus subjects.
type Topic string

const (
	PlayerDamaged Topic = "player:damaged"
	PlayerDied    Topic = "player:died"
	PlayerJumped  Topic = "player:jumped"
	PlayerLanded  Topic = "player:landed"

	WeaponFired          Topic = "weapon:fired"
	WeaponEmptyClick     Topic = "weapon:emptyClick"
	WeaponReloadStarted  Topic = "weapon:reloadStarted"
	WeaponReloadFinished Topic = "weapon:reloadFinished"
	WeaponSwitched       Topic = "weapon:switched"
	WeaponAmmoChanged    Topic = "weapon:ammoChanged"

	ZombieSpawned Topic = "zombie:spawned"
	ZombieAttack  Topic = "zombie:attack"
	ZombieDamaged Topic = "zombie:damaged"
	ZombieDied    Topic = "zombie:died"

	WavePrepStarted  Topic = "wave:prepStarted"
	WavePrepEnd      Topic = "wave:prepEnd"
	WaveStarted      Topic = "wave:started"
	WaveEnded        Topic = "wave:ended"
	WaveScoreChanged Topic = "wave:scoreChanged"
	WaveGameOver     Topic = "wave:gameOver"

	LODQualityChanged Topic = "lod:qualityChanged"
	LODPerfWarning    Topic = "lod:perfWarning"
)

// Event is a single published occurrence. Data carries topic-specific
// payload fields; handlers type-assert the fields they need.
type Event struct {
	Topic Topic
	Tick  int64
	Data  map[string]any
}

// Handler reacts to a published Event.
type Handler func(Event)

// Bus is the orchestrator-owned synchronous dispatcher. Zero value is
// ready to use.
type Bus struct {
	listeners map[Topic][]Handler
	emitting  map[Topic]bool
}

// NewBus constructs an empty Bus.
func NewBus() *Bus {
	return &Bus{listeners: make(map[Topic][]Handler)}
}

// Subscribe registers fn to be invoked, in registration order, whenever
// Publish is called for topic.
func (b *Bus) Subscribe(topic Topic, fn Handler) {
	if b.listeners == nil {
		b.listeners = make(map[Topic][]Handler)
	}
	b.listeners[topic] = append(b.listeners[topic], fn)
}

// Publish invokes every subscriber of ev.Topic synchronously, in
// subscription order. A handler that re-emits on its own subject during
// the same call stack is a design error and is logged, not recursed
// into, to avoid an emit cycle.
func (b *Bus) Publish(ev Event) {
	if b.emitting == nil {
		b.emitting = make(map[Topic]bool)
	}
	if b.emitting[ev.Topic] {
		slog.Warn("events: reentrant publish on same topic suppressed", "topic", ev.Topic)
		return
	}
	b.emitting[ev.Topic] = true
	defer func() { b.emitting[ev.Topic] = false }()

	for _, fn := range b.listeners[ev.Topic] {
		fn(ev)
	}
}
