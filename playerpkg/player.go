// Package playerpkg implements the player entity: position/orientation,
// health, stamina, locomotion, and jump physics. The player is a single
// plain mutable struct owned by the controller; all mutation happens
// through its methods, which emit named events on the bus when an
// externally observable transition occurs.
package playerpkg

import (
	"math"

	"github.com/zww/core/events"
	"github.com/zww/core/vec3"
)

const halfPi = math.Pi / 2

// Player is the single authoritative player entity, owned exclusively by
// the Controller.
type Player struct {
	Position vec3.Vector3
	Yaw      float64
	Pitch    float64

	Health    float64
	MaxHealth float64

	Stamina       float64
	MaxStamina    float64
	SprintEnabled bool

	OnGround         bool
	VerticalVelocity float64

	died bool // latches player:died emission

	walkSpeed        float64
	sprintMultiplier float64
	staminaDrain     float64
	staminaRegen     float64
	reenableFraction float64
	pitchEpsilon     float64
	gravity          float64
	jumpHeight       float64

	sprintActive bool
}

// Options configures a new Player from resolved config values.
type Options struct {
	WalkSpeed              float64
	SprintMultiplier       float64
	MaxHealth              float64
	MaxStamina             float64
	StaminaDrainRate       float64
	StaminaRegenRate       float64
	SprintReenableFraction float64
	PitchClampEpsilon      float64
	Gravity                float64
	JumpHeight             float64
}

// New constructs a Player at full health/stamina, standing on the ground
// at the given position.
func New(pos vec3.Vector3, opts Options) *Player {
	return &Player{
		Position:         pos,
		Health:           opts.MaxHealth,
		MaxHealth:        opts.MaxHealth,
		Stamina:          opts.MaxStamina,
		MaxStamina:       opts.MaxStamina,
		SprintEnabled:    true,
		OnGround:         true,
		walkSpeed:        opts.WalkSpeed,
		sprintMultiplier: opts.SprintMultiplier,
		staminaDrain:     opts.StaminaDrainRate,
		staminaRegen:     opts.StaminaRegenRate,
		reenableFraction: opts.SprintReenableFraction,
		pitchEpsilon:     opts.PitchClampEpsilon,
		gravity:          opts.Gravity,
		jumpHeight:       opts.JumpHeight,
	}
}

// IsDead reports whether the player's health has reached zero.
func (p *Player) IsDead() bool { return p.Health <= 0 }

// Move translates position in the horizontal plane of the player's yaw
// frame by the given forward/strafe input, normalized so diagonal input
// does not exceed the configured speed.
func (p *Player) Move(inputX, inputZ, dt float64) {
	if inputX == 0 && inputZ == 0 {
		return
	}
	// Normalize diagonal input.
	mag := math.Hypot(inputX, inputZ)
	if mag > 1 {
		inputX /= mag
		inputZ /= mag
	}

	speed := p.walkSpeed
	if p.sprintActive {
		speed *= p.sprintMultiplier
	}

	sinYaw, cosYaw := math.Sin(p.Yaw), math.Cos(p.Yaw)
	// Forward is +Z in the yaw frame, strafe is +X.
	worldDX := inputX*cosYaw + inputZ*sinYaw
	worldDZ := -inputX*sinYaw + inputZ*cosYaw

	p.Position.X += worldDX * speed * dt
	p.Position.Z += worldDZ * speed * dt
}

// Rotate updates yaw (unbounded) and pitch (clamped to avoid gimbal lock
// at the poles).
func (p *Player) Rotate(deltaYaw, deltaPitch float64) {
	p.Yaw += deltaYaw
	p.Pitch += deltaPitch

	limit := halfPi - p.pitchEpsilon
	if p.Pitch > limit {
		p.Pitch = limit
	} else if p.Pitch < -limit {
		p.Pitch = -limit
	}
}

// Jump succeeds iff currently on ground; sets vertical velocity from the
// configured jump height/gravity and emits player:jumped.
func (p *Player) Jump(bus *events.Bus, tick int64) bool {
	if !p.OnGround {
		return false
	}
	p.VerticalVelocity = math.Sqrt(2 * p.gravity * p.jumpHeight)
	p.OnGround = false
	if bus != nil {
		bus.Publish(events.Event{Topic: events.PlayerJumped, Tick: tick})
	}
	return true
}

// Sprint requests sprint to become active or inactive. Actual activation
// additionally requires SprintEnabled and stamina > 0.
func (p *Player) Sprint(active bool) {
	if !active {
		p.sprintActive = false
		return
	}
	if p.SprintEnabled && p.Stamina > 0 {
		p.sprintActive = true
	}
}

// SprintActive reports whether sprint is currently in effect.
func (p *Player) SprintActive() bool { return p.sprintActive }

// TakeDamage decreases health by n, clamped to zero, emitting
// player:damaged and, on the health-reaching-zero transition,
// player:died exactly once.
func (p *Player) TakeDamage(n float64, bus *events.Bus, tick int64) {
	if n <= 0 {
		return
	}
	p.Health -= n
	if p.Health < 0 {
		p.Health = 0
	}
	if bus != nil {
		bus.Publish(events.Event{Topic: events.PlayerDamaged, Tick: tick, Data: map[string]any{"amount": n}})
	}
	if p.Health == 0 && !p.died {
		p.died = true
		if bus != nil {
			bus.Publish(events.Event{Topic: events.PlayerDied, Tick: tick})
		}
	}
}

// SyncDeathLatch aligns the one-shot player:died notification with the
// current health, for restoring a saved game of an already-dead player
// without re-emitting the event on the next TakeDamage.
func (p *Player) SyncDeathLatch() {
	p.died = p.Health <= 0
}

// Heal increases health by n, clamped to maxHealth.
func (p *Player) Heal(n float64) {
	if n <= 0 {
		return
	}
	p.Health += n
	if p.Health > p.MaxHealth {
		p.Health = p.MaxHealth
	}
}

// UpdatePhysics integrates vertical motion under gravity while airborne,
// snapping to groundY and emitting player:landed on the downward crossing.
func (p *Player) UpdatePhysics(dt, groundY float64, bus *events.Bus, tick int64) {
	if p.OnGround {
		return
	}
	p.VerticalVelocity -= p.gravity * dt
	p.Position.Y += p.VerticalVelocity * dt

	if p.Position.Y <= groundY && p.VerticalVelocity <= 0 {
		p.Position.Y = groundY
		p.VerticalVelocity = 0
		p.OnGround = true
		if bus != nil {
			bus.Publish(events.Event{Topic: events.PlayerLanded, Tick: tick})
		}
	}
}

// UpdateStamina drains or regenerates stamina depending on sprint state
// and applies the sprint hysteresis: SprintEnabled flips false the
// instant stamina hits zero, and only flips true again once stamina
// strictly exceeds the reenable fraction of max.
func (p *Player) UpdateStamina(dt float64) {
	if p.sprintActive {
		p.Stamina -= p.staminaDrain * dt
		// A residue below 1e-9 left by summing dt steps counts as empty.
		if p.Stamina <= 1e-9 {
			p.Stamina = 0
			p.sprintActive = false
			p.SprintEnabled = false
		}
	} else {
		p.Stamina += p.staminaRegen * dt
		if p.Stamina > p.MaxStamina {
			p.Stamina = p.MaxStamina
		}
	}

	if !p.SprintEnabled && p.Stamina > p.reenableFraction*p.MaxStamina {
		p.SprintEnabled = true
	}
}
