// Package zombie implements the per-entity zombie state machine
// (idle/wandering/chasing/attacking/dying) and the population manager
// that owns the zombie collection, broad-phase queries, and raycast
// dispatch. All apparent asynchrony (attack cooldown, wander redirect,
// death linger) is a timer decremented against dt each tick; entities
// are addressed by a monotonic ID that stays stable across save/load.
package zombie

import (
	"math"

	"github.com/zww/core/events"
	"github.com/zww/core/vec3"
)

// Variant is the fixed archetype selecting a zombie's stats.
type Variant string

const (
	Walker  Variant = "walker"
	Runner  Variant = "runner"
	Brute   Variant = "brute"
	Crawler Variant = "crawler"
)

// State is the zombie's per-tick behavioral state.
type State int

const (
	Idle State = iota
	Wandering
	Chasing
	Attacking
	Dying
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Wandering:
		return "wandering"
	case Chasing:
		return "chasing"
	case Attacking:
		return "attacking"
	case Dying:
		return "dying"
	default:
		return "unknown"
	}
}

// ID is an opaque unique zombie identifier.
type ID uint64

// Stats holds variant-determined values fixed at spawn.
type Stats struct {
	MaxHealth float64
	Damage    float64
	Speed     float64
}

// Tunables bundles the behavior constants shared by every zombie,
// resolved once from config at manager construction.
type Tunables struct {
	DetectRadius         float64
	LoseInterestRadius   float64
	AttackRadius         float64
	AttackCooldown       float64
	WanderRadius         float64
	WanderRedirectPeriod float64
	WanderSpeedFraction  float64
	DeathLingerSeconds   float64
}

// Zombie is a single entity; fields are exported for the manager's direct
// mutation but external packages interact only through the manager.
type Zombie struct {
	ID        ID
	Variant   Variant
	Position  vec3.Vector3
	FacingYaw float64
	Health    float64
	MaxHealth float64
	Damage    float64
	Speed     float64
	State     State

	AttackCooldown       float64
	WanderRedirect       float64
	DeathLingerRemaining float64

	// JustAttacked is set for one tick whenever the attack cooldown fires,
	// for the controller's zombie-on-player damage application; the zombie
	// itself only emits the zombie:attack event.
	JustAttacked bool

	SpawnAnchor   vec3.Vector3
	WanderHeading float64

	diedEmitted bool

	tun Tunables
}

func newZombie(id ID, variant Variant, pos vec3.Vector3, stats Stats, tun Tunables) *Zombie {
	return &Zombie{
		ID:          id,
		Variant:     variant,
		Position:    pos,
		Health:      stats.MaxHealth,
		MaxHealth:   stats.MaxHealth,
		Damage:      stats.Damage,
		Speed:       stats.Speed,
		State:       Idle,
		SpawnAnchor: pos,
		tun:         tun,
	}
}

// TakeDamage decreases health by exactly n, clamped to >= 0. A non-dying
// zombie whose health reaches zero transitions to dying within the same
// call and emits zombie:died exactly once. Damage to an already-dying
// zombie is a no-op.
func (z *Zombie) TakeDamage(n float64, bus *events.Bus, tick int64) {
	if n <= 0 || z.State == Dying {
		return
	}
	z.Health -= n
	if z.Health < 0 {
		z.Health = 0
	}
	if bus != nil {
		bus.Publish(events.Event{Topic: events.ZombieDamaged, Tick: tick, Data: map[string]any{"id": z.ID, "amount": n}})
	}
	if z.Health <= 0 {
		z.enterDying(bus, tick)
	}
}

func (z *Zombie) enterDying(bus *events.Bus, tick int64) {
	if z.State == Dying {
		return
	}
	z.State = Dying
	z.DeathLingerRemaining = z.tun.DeathLingerSeconds
	if !z.diedEmitted {
		z.diedEmitted = true
		if bus != nil {
			bus.Publish(events.Event{Topic: events.ZombieDied, Tick: tick, Data: map[string]any{"id": z.ID}})
		}
	}
}

// Removed reports whether the zombie's death linger has fully elapsed and
// it is eligible for garbage collection.
func (z *Zombie) Removed() bool {
	return z.State == Dying && z.DeathLingerRemaining <= 0
}

// rng is a minimal deterministic source for wander heading jitter; the
// manager seeds each zombie's heading picks from its own RNG (see
// Manager.Rand) rather than a package-global source.
type rng interface {
	Float64() float64
}

// Update steps one tick of the zombie's state machine against the given
// player position; all distances are measured on the XZ plane.
func (z *Zombie) Update(dt float64, playerPos vec3.Vector3, r rng, bus *events.Bus, tick int64) {
	z.JustAttacked = false
	if z.State == Dying {
		z.DeathLingerRemaining -= dt
		if z.DeathLingerRemaining < 0 {
			z.DeathLingerRemaining = 0
		}
		return
	}

	d := z.Position.DistanceXZ(playerPos)

	z.transition(d)

	switch z.State {
	case Wandering:
		z.updateWandering(dt, r)
	case Chasing:
		z.updateChasing(dt, playerPos)
	case Attacking:
		z.updateAttacking(dt, playerPos, bus, tick)
	}
}

func (z *Zombie) transition(d float64) {
	switch z.State {
	case Idle:
		// Idle is a one-shot entry state: the first tick it is ever
		// evaluated on, it resolves immediately per the detect radius.
		// An idle zombie that spawns with the player already in range
		// goes straight to chasing, never through wandering.
		if d < z.tun.DetectRadius {
			z.State = Chasing
		} else {
			z.enterWandering()
		}
	case Wandering:
		if d < z.tun.DetectRadius {
			z.State = Chasing
		}
	case Chasing:
		if d < z.tun.AttackRadius {
			z.enterAttacking()
		} else if d > z.tun.LoseInterestRadius {
			z.enterWandering()
		}
	case Attacking:
		if d >= z.tun.AttackRadius {
			z.State = Chasing
		}
	}
}

func (z *Zombie) enterWandering() {
	z.State = Wandering
	z.WanderRedirect = z.tun.WanderRedirectPeriod
	z.WanderHeading = z.FacingYaw
}

func (z *Zombie) enterAttacking() {
	z.State = Attacking
	z.AttackCooldown = 0
}

func (z *Zombie) updateWandering(dt float64, r rng) {
	z.WanderRedirect -= dt
	outside := z.Position.DistanceXZ(z.SpawnAnchor) > z.tun.WanderRadius
	if z.WanderRedirect <= 0 || outside {
		if outside {
			toAnchor := z.SpawnAnchor.Sub(z.Position)
			z.WanderHeading = math.Atan2(toAnchor.X, toAnchor.Z)
		} else if r != nil {
			z.WanderHeading = r.Float64() * 2 * math.Pi
		}
		z.WanderRedirect = z.tun.WanderRedirectPeriod
	}
	z.FacingYaw = z.WanderHeading
	speed := z.Speed * z.tun.WanderSpeedFraction
	z.Position.X += math.Sin(z.WanderHeading) * speed * dt
	z.Position.Z += math.Cos(z.WanderHeading) * speed * dt
}

func (z *Zombie) updateChasing(dt float64, playerPos vec3.Vector3) {
	toPlayer := playerPos.Sub(z.Position)
	toPlayer.Y = 0
	dir := toPlayer.Normalize()
	if dir != (vec3.Vector3{}) {
		z.FacingYaw = math.Atan2(dir.X, dir.Z)
	}
	z.Position.X += dir.X * z.Speed * dt
	z.Position.Z += dir.Z * z.Speed * dt
}

func (z *Zombie) updateAttacking(dt float64, playerPos vec3.Vector3, bus *events.Bus, tick int64) {
	toPlayer := playerPos.Sub(z.Position)
	toPlayer.Y = 0
	if dir := toPlayer.Normalize(); dir != (vec3.Vector3{}) {
		z.FacingYaw = math.Atan2(dir.X, dir.Z)
	}

	z.AttackCooldown -= dt
	if z.AttackCooldown <= 0 {
		z.JustAttacked = true
		if bus != nil {
			bus.Publish(events.Event{Topic: events.ZombieAttack, Tick: tick, Data: map[string]any{"id": z.ID, "damage": z.Damage}})
		}
		z.AttackCooldown = z.tun.AttackCooldown
	}
}

// CanAttack reports whether the zombie landed a blow on this tick (its
// own attack cooldown fired while in range), for the controller's
// zombie-on-player attack check.
func (z *Zombie) CanAttack(playerPos vec3.Vector3) bool {
	return z.JustAttacked
}
