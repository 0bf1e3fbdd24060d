// Package controller implements the orchestrator: it wires every
// subsystem together, translates input into intents, and publishes HUD
// snapshots. One exported FixedUpdate per tick runs a fixed, numbered
// sequence of phases. No component here reaches into another's state
// directly; every cross-component effect is either a direct typed call
// made by this package or an event-bus publish.
package controller

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/zww/core/audio"
	"github.com/zww/core/camera"
	"github.com/zww/core/config"
	"github.com/zww/core/events"
	"github.com/zww/core/input"
	"github.com/zww/core/lod"
	"github.com/zww/core/physics"
	"github.com/zww/core/playerpkg"
	"github.com/zww/core/simerr"
	"github.com/zww/core/snapshot"
	"github.com/zww/core/telemetry"
	"github.com/zww/core/vec3"
	"github.com/zww/core/wave"
	"github.com/zww/core/weapon"
	"github.com/zww/core/zombie"
)

// perfWindowTicks is the rolling window PerfCollector averages over
// (10 seconds at a 60-tick fixed step).
const perfWindowTicks = 600

// eyeHeight is the first-person camera's offset above the player's feet.
// Purely presentational; not part of the persisted simulation state.
const eyeHeight = 1.6

// mouseRadiansPerUnit converts a raw pointer-delta unit and the
// configured sensitivity (1-100) into a rotation in radians.
const mouseRadiansPerUnit = 0.00025

// Controller owns the player, inventory, and wave state exclusively;
// the zombie manager exclusively owns the zombie collection. The
// Controller is the only component that touches more than one of these
// directly.
type Controller struct {
	cfg *config.Config
	bus *events.Bus

	Player    *playerpkg.Player
	Inventory *weapon.Inventory
	Zombies   *zombie.Manager
	Wave      *wave.Scheduler
	Probe     *physics.Probe
	Cam       *camera.Camera
	Audio     *audio.Director
	LOD       *lod.Controller
	Perf      *telemetry.PerfCollector

	stats zombie.StatsTable
	in    *input.State

	tick int64

	mouseSensitivity float64

	hudObservers []func(HUDState)
}

// Options configures a new Controller from resolved config and the
// reference host's static level data.
type Options struct {
	PlayerStart vec3.Vector3
	Obstacles   []physics.Obstacle
	SpawnPoints []vec3.Vector3
	Seed        int64
	AudioSink   audio.Sink
}

// New constructs a Controller wiring every subsystem from cfg, ready for
// StartGame.
func New(cfg *config.Config, bus *events.Bus, opts Options) *Controller {
	stats := zombie.StatsTable{}
	for _, v := range cfg.Zombies.Variants {
		stats[zombie.Variant(v.Name)] = zombie.Stats{MaxHealth: v.Health, Damage: v.Damage, Speed: v.Speed}
	}

	c := &Controller{
		cfg: cfg,
		bus: bus,

		Player: playerpkg.New(opts.PlayerStart, playerpkg.Options{
			WalkSpeed:              cfg.Player.WalkSpeed,
			SprintMultiplier:       cfg.Player.SprintMultiplier,
			MaxHealth:              cfg.Player.MaxHealth,
			MaxStamina:             cfg.Player.MaxStamina,
			StaminaDrainRate:       cfg.Player.StaminaDrainRate,
			StaminaRegenRate:       cfg.Player.StaminaRegenRate,
			SprintReenableFraction: cfg.Player.SprintReenableFraction,
			PitchClampEpsilon:      cfg.Player.PitchClampEpsilon,
			Gravity:                cfg.Physics.Gravity,
			JumpHeight:             cfg.Physics.JumpHeight,
		}),
		Inventory: weapon.NewInventory(),
		Zombies:   zombie.NewManager(zombieTunables(cfg), opts.Seed),
		Probe: physics.New(opts.Obstacles, physics.Options{
			GroundCheckDistance: cfg.Physics.GroundCheckDistance,
			PlayerRadius:        cfg.Physics.PlayerRadius,
			WallSlideFactor:     cfg.Physics.WallSlideFactor,
		}),
		Cam:              camera.New(eyeHeight),
		LOD:              lod.New(lodTunables(cfg)),
		Perf:             telemetry.NewPerfCollector(perfWindowTicks),
		stats:            stats,
		in:               input.New(),
		mouseSensitivity: cfg.Settings.MouseSensitivity,
	}

	c.Wave = wave.NewScheduler(waveTunables(cfg), opts.SpawnPoints, opts.Seed+1, bus)
	c.Audio = audio.New(opts.AudioSink, cfg.Audio.MinStateDwellSeconds, cfg.Audio.PauseGainFraction, cfg.Audio.TenseHealthFraction, bus)

	for i, def := range cfg.Weapons.Defs {
		if i >= len(c.Inventory.Slots) {
			break
		}
		c.Inventory.Equip(i, weaponDef(def))
	}

	return c
}

func zombieTunables(cfg *config.Config) zombie.Tunables {
	return zombie.Tunables{
		DetectRadius:         cfg.Zombies.DetectRadius,
		LoseInterestRadius:   cfg.Zombies.LoseInterestRadius,
		AttackRadius:         cfg.Zombies.AttackRadius,
		AttackCooldown:       cfg.Zombies.AttackCooldown,
		WanderRadius:         cfg.Zombies.WanderRadius,
		WanderRedirectPeriod: cfg.Zombies.WanderRedirectPeriod,
		WanderSpeedFraction:  cfg.Zombies.WanderSpeedFraction,
		DeathLingerSeconds:   cfg.Zombies.DeathLingerSeconds,
	}
}

func waveTunables(cfg *config.Config) wave.Tunables {
	return wave.Tunables{
		PreparationSeconds:         cfg.Wave.PreparationSeconds,
		SpawnIntervalSeconds:       cfg.Wave.SpawnIntervalSeconds,
		BaseZombies:                cfg.Wave.BaseZombies,
		ZombiesPerWave:             cfg.Wave.ZombiesPerWave,
		MinSpawnDistanceFromPlayer: cfg.Wave.MinSpawnDistanceFromPlayer,
		ScorePerKillPerWave:        cfg.Wave.ScorePerKillPerWave,
		WaveEndBonusPerWave:        cfg.Wave.WaveEndBonusPerWave,
	}
}

func lodTunables(cfg *config.Config) lod.Tunables {
	return lod.Tunables{
		TargetFrameSeconds:       cfg.LOD.TargetFrameSeconds,
		DowngradeFrameFactor:     cfg.LOD.DowngradeFrameFactor,
		UpgradeFrameFactor:       cfg.LOD.UpgradeFrameFactor,
		DowngradeFrameStreak:     cfg.LOD.DowngradeFrameStreak,
		DowngradeCooldownSeconds: cfg.LOD.DowngradeCooldownSeconds,
		UpgradeCooldownSeconds:   cfg.LOD.UpgradeCooldownSeconds,
		FarDistancesByLevel:      cfg.LOD.FarDistancesByLevel,
	}
}

func weaponDef(d config.WeaponDef) weapon.Def {
	return weapon.Def{
		Name:               d.Name,
		Type:               weapon.Type(d.Type),
		Damage:             d.Damage,
		FireRatePerSecond:  d.FireRatePerSecond,
		MagazineCapacity:   d.MagazineCapacity,
		ReserveCapacityMax: d.ReserveCapacityMax,
		ReloadSeconds:      d.ReloadSeconds,
		Range:              d.Range,
		Pellets:            d.Pellets,
		ConeSpreadRadians:  d.ConeSpreadRadians,
	}
}

// Input returns the shared input State the host pushes device events
// into each frame.
func (c *Controller) Input() *input.State { return c.in }

// Tick returns the current fixed-update tick counter.
func (c *Controller) Tick() int64 { return c.tick }

// StartGame resets the wave scheduler to wave 1 preparation. Player
// health/stamina/position are left as constructed by New; callers that
// want a full reset construct a fresh Controller instead.
func (c *Controller) StartGame() {
	c.Wave.StartGame(c.tick)
}

// zombieSpawner adapts zombie.Manager to the wave.Spawner projection,
// so the scheduler can place a zombie without seeing the rest of the
// population.
type zombieSpawner struct {
	mgr   *zombie.Manager
	stats zombie.StatsTable
	bus   *events.Bus
	tick  int64
}

func (s zombieSpawner) Spawn(pos vec3.Vector3, variant zombie.Variant) zombie.ID {
	return s.mgr.Spawn(pos, variant, s.stats[variant], s.bus, s.tick)
}

// FixedUpdate runs the Controller's numbered phase sequence for one
// fixed timestep. It is the fixedUpdate callback the host's clock.Loop
// invokes.
func (c *Controller) FixedUpdate(dt float64) {
	c.Perf.StartTick()

	// 1-2. Read input, translate to intents.
	c.Perf.StartPhase("input")
	c.applyLook()
	c.applyMovement(dt)
	c.applySprint()
	c.applyJump()
	c.applyWeaponIntents()

	// 3. Player physics against the static world.
	c.Perf.StartPhase("physics")
	groundY := c.Probe.CheckGround(c.Player.Position)
	c.Player.UpdatePhysics(dt, groundY, c.bus, c.tick)
	c.Player.UpdateStamina(dt)
	c.Inventory.UpdateReload(c.simTime(), c.bus, c.tick)

	// 4. Zombie Manager steps every entity against the player position.
	c.Perf.StartPhase("zombies")
	c.Zombies.Update(dt, c.Player.Position, c.bus, c.tick)

	// 5. Wave scheduler.
	c.Perf.StartPhase("wave")
	spawner := zombieSpawner{mgr: c.Zombies, stats: c.stats, bus: c.bus, tick: c.tick}
	c.Wave.Update(dt, c.Player.Position, playerProbe{c.Player}, spawner, c.tick)

	// 6. Zombie-on-player attack check.
	c.Perf.StartPhase("combat")
	c.applyZombieAttacks()

	// 7. Audio Director reacts to the event bus synchronously as events
	// are published above; it only needs the health-fraction poll here.
	c.Perf.StartPhase("audio")
	healthFraction := 0.0
	if c.Player.MaxHealth > 0 {
		healthFraction = c.Player.Health / c.Player.MaxHealth
	}
	c.Audio.Update(dt, healthFraction)

	// 8. Reset transient input edges.
	c.Perf.StartPhase("endframe")
	c.in.EndFrame()

	c.Perf.EndTick()
	c.tick++

	// 9. Publish the HUD projection to registered observers.
	if len(c.hudObservers) > 0 {
		hud := c.HUD()
		for _, fn := range c.hudObservers {
			fn(hud)
		}
	}
}

// playerProbe adapts *playerpkg.Player to wave.PlayerProbe.
type playerProbe struct{ p *playerpkg.Player }

func (p playerProbe) IsDead() bool { return p.p.IsDead() }

// simTime derives the monotonic simulation clock from tick count and
// the configured fixed step, for weapon fire-rate/reload deadlines. The
// Controller does not own clock.Loop (the host does); deriving the
// clock from ticks keeps weapon deadlines advancing deterministically
// with FixedUpdate regardless of who drives it.
func (c *Controller) simTime() float64 {
	return float64(c.tick) * c.cfg.Physics.FixedStep
}

func (c *Controller) applyLook() {
	dx, dy := c.in.PointerDelta()
	if dx == 0 && dy == 0 {
		return
	}
	scale := c.mouseSensitivity * mouseRadiansPerUnit
	c.Player.Rotate(-dx*scale, -dy*scale)
	c.Cam.SetOrientation(c.Player.Yaw, c.Player.Pitch)
}

func (c *Controller) applyMovement(dt float64) {
	x, z := c.in.Axis()
	before := c.Player.Position
	c.Player.Move(x, z, dt)
	desired := c.Player.Position.Sub(before)
	adjusted := c.Probe.ResolveHorizontal(before, desired)
	c.Player.Position = vec3.Vector3{X: before.X + adjusted.X, Y: c.Player.Position.Y, Z: before.Z + adjusted.Z}
	c.Cam.SetPosition(c.Player.Position)
}

func (c *Controller) applySprint() {
	c.Player.Sprint(c.in.WantsToSprint())
}

func (c *Controller) applyJump() {
	if c.in.WantsToJump() {
		c.Player.Jump(c.bus, c.tick)
	}
}

func (c *Controller) applyWeaponIntents() {
	origin, direction := c.Cam.AimRay()

	if c.in.WantsToFire() {
		result := c.Inventory.Fire(c.simTime(), origin, direction, c.worldQuery, c.bus, c.tick)
		if result.Success {
			for _, h := range result.Hits {
				c.Zombies.Damage(zombie.ID(h.ZombieID), result.Damage, c.bus, c.tick)
			}
		}
	}
	if c.in.WantsToReload() {
		c.Inventory.Reload(c.simTime(), c.bus, c.tick)
	}
	if c.in.WheelUp() {
		c.Inventory.CycleNext(c.bus, c.tick)
	}
	if c.in.WheelDown() {
		c.Inventory.CyclePrevious(c.bus, c.tick)
	}
	for n := 0; n < 4; n++ {
		if c.in.WantsSlot(n) {
			c.Inventory.SwitchToSlot(n, c.bus, c.tick)
		}
	}
}

// worldQuery adapts zombie.Manager.Raycast to weapon.WorldQuery.
func (c *Controller) worldQuery(origin, direction vec3.Vector3, maxRange float64) (weapon.Hit, bool) {
	hit, ok := c.Zombies.Raycast(zombie.Ray{Origin: origin, Direction: direction}, maxRange, c.cfg.Zombies.HitRadius)
	if !ok {
		return weapon.Hit{}, false
	}
	return weapon.Hit{ZombieID: uint64(hit.ID), Point: hit.Point}, true
}

// applyZombieAttacks applies zombie-on-player damage: any zombie that
// landed a blow this tick (its own attack cooldown fired while in
// range) damages the player exactly once.
func (c *Controller) applyZombieAttacks() {
	for _, z := range c.Zombies.Active() {
		if z.CanAttack(c.Player.Position) {
			c.Player.TakeDamage(z.Damage, c.bus, c.tick)
		}
	}
}

// PresentUpdate runs the variable-step presentation phase: it advances
// the LOD controller's frame-time sample (independent of fixedUpdate
// cadence) and keeps the camera glued to the player between fixed
// steps. It is the presentUpdate callback the host's clock.Loop invokes
// once per host frame.
func (c *Controller) PresentUpdate(delta float64) {
	c.Perf.RecordFrame()
	c.LOD.Update(delta, c.bus, c.tick)
	c.Cam.SetPosition(c.Player.Position)
}

// PerfStats returns the current rolling-window performance statistics,
// broken down by the phases FixedUpdate names.
func (c *Controller) PerfStats() telemetry.PerfStats {
	return c.Perf.Stats()
}

// Cull runs the LOD controller's per-frame frustum cull against the
// camera's current pose.
func (c *Controller) Cull(meshes []lod.Mesh, halfFOV, far float64) []lod.Mesh {
	origin, forward := c.Cam.AimRay()
	return lod.Cull(lod.Frustum{Origin: origin, Forward: forward, HalfFOV: halfFOV, Far: far}, meshes)
}

// Pause/Resume forward to the Audio Director's gain ducking; the
// host's clock.Loop separately halts tick advancement.
func (c *Controller) Pause()  { c.Audio.Pause() }
func (c *Controller) Resume() { c.Audio.Resume() }

// HUDState is the read-only projection published to UI observers each
// fixed update.
type HUDState struct {
	Health     float64
	MaxHealth  float64
	Stamina    float64
	MaxStamina float64

	CurrentWeaponName string
	CurrentWeaponSlot int
	CurrentAmmo       int
	ReserveAmmo       int
	MagazineSize      int
	IsReloading       bool

	CurrentWave         int
	ZombiesKilled       int
	TotalZombiesInWave  int
	IsPreparationPhase  bool
	PreparationTimeLeft float64

	Score int
}

// ObserveHUD registers fn to receive the HUDState published at the end
// of every FixedUpdate, in registration order. Observers are read-only
// consumers; the UI layer registers here instead of polling.
func (c *Controller) ObserveHUD(fn func(HUDState)) {
	c.hudObservers = append(c.hudObservers, fn)
}

// HUD builds the current HUDState; cheap enough to call every tick.
func (c *Controller) HUD() HUDState {
	h := HUDState{
		Health:              c.Player.Health,
		MaxHealth:           c.Player.MaxHealth,
		Stamina:             c.Player.Stamina,
		MaxStamina:          c.Player.MaxStamina,
		CurrentWave:         c.Wave.State.WaveIndex,
		ZombiesKilled:       c.Wave.State.ZombiesKilled,
		TotalZombiesInWave:  c.Wave.State.TotalZombiesInWave,
		IsPreparationPhase:  c.Wave.State.InPreparation,
		PreparationTimeLeft: c.Wave.State.PreparationSecondsLeft,
		Score:               c.Wave.State.Score,
	}
	if s := c.Inventory.Current(); s != nil {
		h.CurrentWeaponName = s.Def.Name
		h.CurrentWeaponSlot = c.Inventory.CurrentIndex
		h.CurrentAmmo = s.CurrentAmmo
		h.ReserveAmmo = s.ReserveAmmo
		h.MagazineSize = s.Def.MagazineCapacity
		h.IsReloading = s.Reloading
	}
	return h
}

// Snapshot produces the sole cross-boundary representation of the
// simulation, suitable for save/load and the remote persistence
// service.
func (c *Controller) Snapshot() snapshot.GameSnapshot {
	var invSnap snapshot.InventorySnapshot
	invSnap.CurrentIndex = c.Inventory.CurrentIndex
	for i, s := range c.Inventory.Slots {
		if s == nil {
			continue
		}
		invSnap.Slots[i] = &snapshot.WeaponSlotSnapshot{
			Name:        s.Def.Name,
			CurrentAmmo: s.CurrentAmmo,
			ReserveAmmo: s.ReserveAmmo,
		}
	}

	zs := c.Zombies.Snapshot()
	zombies := make([]snapshot.ZombieSnapshot, len(zs))
	for i, z := range zs {
		zombies[i] = snapshot.ZombieSnapshot{
			ID:       uint64(z.ID),
			Variant:  string(z.Variant),
			Position: z.Position,
			Health:   z.Health,
			State:    z.State.String(),
		}
	}

	return snapshot.GameSnapshot{
		Player: snapshot.PlayerSnapshot{
			Position:         c.Player.Position,
			Yaw:              c.Player.Yaw,
			Pitch:            c.Player.Pitch,
			Health:           c.Player.Health,
			MaxHealth:        c.Player.MaxHealth,
			Stamina:          c.Player.Stamina,
			MaxStamina:       c.Player.MaxStamina,
			SprintEnabled:    c.Player.SprintEnabled,
			OnGround:         c.Player.OnGround,
			VerticalVelocity: c.Player.VerticalVelocity,
		},
		Inventory: invSnap,
		Wave: snapshot.WaveSnapshot{
			WaveIndex:              c.Wave.State.WaveIndex,
			InPreparation:          c.Wave.State.InPreparation,
			PreparationSecondsLeft: c.Wave.State.PreparationSecondsLeft,
			TotalZombiesInWave:     c.Wave.State.TotalZombiesInWave,
			ZombiesSpawned:         c.Wave.State.ZombiesSpawned,
			ZombiesKilled:          c.Wave.State.ZombiesKilled,
			GameOver:               c.Wave.State.GameOver,
			GameOverReason:         string(c.Wave.State.GameOverReason),
		},
		Zombies:         zombies,
		Score:           c.Wave.State.Score,
		PlayTimeSeconds: c.Wave.State.PlayTimeSeconds,
		Timestamp:       time.Now().Unix(),
	}
}

// Restore replaces the live simulation state from a decoded snapshot.
// Callers should decode with snapshot.Decode first and only call
// Restore on success: the no-mutation-on-malformed-input guarantee
// lives in Decode, not here.
func (c *Controller) Restore(s snapshot.GameSnapshot) {
	c.Player.Position = s.Player.Position
	c.Player.Yaw = s.Player.Yaw
	c.Player.Pitch = s.Player.Pitch
	c.Player.Health = s.Player.Health
	c.Player.MaxHealth = s.Player.MaxHealth
	c.Player.Stamina = s.Player.Stamina
	c.Player.MaxStamina = s.Player.MaxStamina
	c.Player.SprintEnabled = s.Player.SprintEnabled
	c.Player.OnGround = s.Player.OnGround
	c.Player.VerticalVelocity = s.Player.VerticalVelocity
	c.Player.SyncDeathLatch()

	idx := s.Inventory.CurrentIndex
	if idx < 0 || idx >= len(c.Inventory.Slots) {
		slog.Warn("controller: restore reset current weapon slot",
			"err", simerr.New(simerr.InvariantViolation, "controller", fmt.Sprintf("currentIndex %d out of range", idx)))
		idx = 0
	}
	c.Inventory.CurrentIndex = idx
	for i, ws := range s.Inventory.Slots {
		if ws == nil || i >= len(c.Inventory.Slots) {
			continue
		}
		def, ok := c.cfg.WeaponByName(ws.Name)
		if !ok {
			continue
		}
		c.Inventory.Equip(i, weaponDef(def))
		slot := c.Inventory.Slots[i]
		slot.CurrentAmmo = ws.CurrentAmmo
		slot.ReserveAmmo = ws.ReserveAmmo
	}

	c.Wave.State.WaveIndex = s.Wave.WaveIndex
	c.Wave.State.InPreparation = s.Wave.InPreparation
	c.Wave.State.PreparationSecondsLeft = s.Wave.PreparationSecondsLeft
	c.Wave.State.TotalZombiesInWave = s.Wave.TotalZombiesInWave
	c.Wave.State.ZombiesSpawned = s.Wave.ZombiesSpawned
	c.Wave.State.ZombiesKilled = s.Wave.ZombiesKilled
	c.Wave.State.GameOver = s.Wave.GameOver
	c.Wave.State.GameOverReason = wave.Reason(s.Wave.GameOverReason)
	c.Wave.State.Score = s.Score
	c.Wave.State.PlayTimeSeconds = s.PlayTimeSeconds

	zs := make([]zombie.ZombieState, len(s.Zombies))
	for i, z := range s.Zombies {
		var st zombie.State
		switch z.State {
		case "wandering":
			st = zombie.Wandering
		case "chasing":
			st = zombie.Chasing
		case "attacking":
			st = zombie.Attacking
		case "dying":
			st = zombie.Dying
		default:
			st = zombie.Idle
		}
		zs[i] = zombie.ZombieState{
			ID:       zombie.ID(z.ID),
			Variant:  zombie.Variant(z.Variant),
			Position: z.Position,
			Health:   z.Health,
			State:    st,
		}
	}
	c.Zombies.Restore(zs, c.stats)
}
