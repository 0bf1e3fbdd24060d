// Package weapon implements the weapon inventory, fire/reload/switch
// state machine, and hitscan query. Weapons are a closed tagged variant
// (pistol/rifle/shotgun/melee) sharing one operation table rather than
// open subclassing. Fire-rate gating and reload completion are polled
// deadlines against simulation time (NextFireReady, ReloadDeadline), so
// they survive across variable numbers of ticks without timers or
// goroutines.
package weapon

import (
	"github.com/zww/core/events"
	"github.com/zww/core/vec3"
)

// Type is the closed set of weapon archetypes.
type Type string

const (
	Pistol  Type = "pistol"
	Rifle   Type = "rifle"
	Shotgun Type = "shotgun"
	Melee   Type = "melee"
)

// IsMelee reports whether t ignores ammo bookkeeping.
func (t Type) IsMelee() bool { return t == Melee }

// Def is a weapon's static definition.
type Def struct {
	Name               string
	Type               Type
	Damage             float64
	FireRatePerSecond  float64
	MagazineCapacity   int
	ReserveCapacityMax int
	ReloadSeconds      float64
	Range              float64
	Pellets            int
	ConeSpreadRadians  float64
}

// Slot is one inventory slot: a weapon's static definition plus its
// dynamic runtime state.
type Slot struct {
	Def Def

	CurrentAmmo       int
	ReserveAmmo       int
	Reloading         bool
	hasReloadDeadline bool
	ReloadDeadline    float64
	NextFireReady     float64
}

// NewSlot constructs a freshly-loaded Slot for def.
func NewSlot(def Def) *Slot {
	s := &Slot{Def: def}
	if !def.Type.IsMelee() {
		s.CurrentAmmo = def.MagazineCapacity
		s.ReserveAmmo = def.ReserveCapacityMax
	}
	return s
}

// Hit is a single resolved hitscan intersection.
type Hit struct {
	ZombieID uint64
	Point    vec3.Vector3
}

// FireResult is the outcome of a fire() call.
type FireResult struct {
	Success bool
	Damage  float64
	Hits    []Hit
}

// WorldQuery resolves a ray against the zombie broad phase. It is
// called once per sub-ray (shotguns fire multiple).
type WorldQuery func(origin, direction vec3.Vector3, maxRange float64) (Hit, bool)

// Inventory is the ordered sequence of up to four weapon slots with
// exactly one current index.
type Inventory struct {
	Slots        [4]*Slot
	CurrentIndex int
}

// NewInventory constructs an empty four-slot inventory.
func NewInventory() *Inventory {
	return &Inventory{}
}

// Equip places def into slot n (0-3), replacing any existing weapon
// there.
func (inv *Inventory) Equip(n int, def Def) {
	inv.Slots[n] = NewSlot(def)
}

// Current returns the currently selected slot, or nil if empty.
func (inv *Inventory) Current() *Slot {
	return inv.Slots[inv.CurrentIndex]
}

// Fire attempts to discharge the current weapon. Fails without mutation
// when reloading, out of ammo (non-melee), or the fire-rate deadline has
// not yet elapsed; only the out-of-ammo failure clicks, so holding the
// trigger through the rate gate stays silent. On success, decrements ammo
// (non-melee only) and advances nextFireReady (every weapon); performs the hit
// query via worldQuery, splitting across Def.Pellets sub-rays within
// ConeSpreadRadians for shotguns.
func (inv *Inventory) Fire(now float64, origin, direction vec3.Vector3, query WorldQuery, bus *events.Bus, tick int64) FireResult {
	s := inv.Current()
	if s == nil {
		return FireResult{Success: false}
	}

	if s.Reloading || now < s.NextFireReady {
		return FireResult{Success: false}
	}
	if !s.Def.Type.IsMelee() && s.CurrentAmmo == 0 {
		return inv.emptyClick(bus, tick)
	}

	if !s.Def.Type.IsMelee() {
		s.CurrentAmmo--
		if bus != nil {
			bus.Publish(events.Event{Topic: events.WeaponAmmoChanged, Tick: tick})
		}
	}
	s.NextFireReady = now + 1.0/s.Def.FireRatePerSecond

	pellets := s.Def.Pellets
	if pellets < 1 {
		pellets = 1
	}

	var hits []Hit
	perPelletDamage := s.Def.Damage
	if s.Def.Type == Shotgun && pellets > 1 {
		perPelletDamage = s.Def.Damage / float64(pellets)
	}

	for i := 0; i < pellets; i++ {
		dir := direction
		if pellets > 1 {
			dir = spreadDirection(direction, s.Def.ConeSpreadRadians, i, pellets)
		}
		if query == nil {
			continue
		}
		if hit, ok := query(origin, dir, s.Def.Range); ok {
			hits = append(hits, hit)
		}
	}

	if bus != nil {
		bus.Publish(events.Event{Topic: events.WeaponFired, Tick: tick, Data: map[string]any{"slot": inv.CurrentIndex}})
	}

	return FireResult{Success: true, Damage: perPelletDamage, Hits: hits}
}

// emptyClick handles a fire attempt on an empty magazine, emitting weapon:emptyClick and
// returning an unsuccessful result without mutating ammo.
func (inv *Inventory) emptyClick(bus *events.Bus, tick int64) FireResult {
	if bus != nil {
		bus.Publish(events.Event{Topic: events.WeaponEmptyClick, Tick: tick, Data: map[string]any{"slot": inv.CurrentIndex}})
	}
	return FireResult{Success: false}
}

// spreadDirection nudges direction by a deterministic fraction of the cone
// spread for sub-ray i of n, fanning evenly across the cone.
func spreadDirection(direction vec3.Vector3, spread float64, i, n int) vec3.Vector3 {
	if n <= 1 || spread == 0 {
		return direction
	}
	frac := (float64(i)/float64(n-1))*2 - 1 // -1..1
	offset := frac * spread
	// Simple yaw-plane fan around the vertical axis; sufficient for a
	// hitscan cone approximation without a full basis rotation.
	return vec3.Vector3{
		X: direction.X + offset*direction.Z,
		Y: direction.Y,
		Z: direction.Z - offset*direction.X,
	}.Normalize()
}

// Reload begins reloading the current weapon. Succeeds iff not already
// reloading, the weapon is non-melee, the magazine is not full, and
// reserve ammo is available.
func (inv *Inventory) Reload(now float64, bus *events.Bus, tick int64) bool {
	s := inv.Current()
	if s == nil || s.Reloading || s.Def.Type.IsMelee() {
		return false
	}
	if s.CurrentAmmo >= s.Def.MagazineCapacity || s.ReserveAmmo <= 0 {
		return false
	}
	s.Reloading = true
	s.hasReloadDeadline = true
	s.ReloadDeadline = now + s.Def.ReloadSeconds
	if bus != nil {
		bus.Publish(events.Event{Topic: events.WeaponReloadStarted, Tick: tick, Data: map[string]any{"slot": inv.CurrentIndex}})
	}
	return true
}

// UpdateReload checks the current weapon's reload deadline against now,
// completing the reload (transferring ammo from reserve to magazine) and
// emitting weapon:reloadFinished when it elapses.
func (inv *Inventory) UpdateReload(now float64, bus *events.Bus, tick int64) {
	for _, s := range inv.Slots {
		if s == nil || !s.Reloading || !s.hasReloadDeadline {
			continue
		}
		if now < s.ReloadDeadline {
			continue
		}
		transfer := s.Def.MagazineCapacity - s.CurrentAmmo
		if transfer > s.ReserveAmmo {
			transfer = s.ReserveAmmo
		}
		s.CurrentAmmo += transfer
		s.ReserveAmmo -= transfer
		s.Reloading = false
		s.hasReloadDeadline = false
		if bus != nil {
			bus.Publish(events.Event{Topic: events.WeaponReloadFinished, Tick: tick})
			bus.Publish(events.Event{Topic: events.WeaponAmmoChanged, Tick: tick})
		}
	}
}

// CycleNext steps currentIndex forward modulo inventory length, skipping
// empty slots.
func (inv *Inventory) CycleNext(bus *events.Bus, tick int64) {
	inv.cycle(1, bus, tick)
}

// CyclePrevious steps currentIndex backward modulo inventory length,
// skipping empty slots.
func (inv *Inventory) CyclePrevious(bus *events.Bus, tick int64) {
	inv.cycle(-1, bus, tick)
}

func (inv *Inventory) cycle(dir int, bus *events.Bus, tick int64) {
	n := len(inv.Slots)
	start := inv.CurrentIndex
	idx := start
	for i := 0; i < n; i++ {
		idx = ((idx+dir)%n + n) % n
		if inv.Slots[idx] != nil {
			if idx == start {
				return // only one weapon equipped, nothing to switch to
			}
			inv.cancelReloadOnSwitch(start)
			inv.CurrentIndex = idx
			if bus != nil {
				bus.Publish(events.Event{Topic: events.WeaponSwitched, Tick: tick, Data: map[string]any{"slot": idx}})
			}
			return
		}
	}
}

// SwitchToSlot switches to slot n if it holds a weapon and differs from
// the current index, cancelling any in-flight reload on the *previous*
// weapon (ammo unchanged).
func (inv *Inventory) SwitchToSlot(n int, bus *events.Bus, tick int64) bool {
	if n < 0 || n >= len(inv.Slots) || inv.Slots[n] == nil || n == inv.CurrentIndex {
		return false
	}
	inv.cancelReloadOnSwitch(inv.CurrentIndex)
	inv.CurrentIndex = n
	if bus != nil {
		bus.Publish(events.Event{Topic: events.WeaponSwitched, Tick: tick, Data: map[string]any{"slot": n}})
	}
	return true
}

func (inv *Inventory) cancelReloadOnSwitch(idx int) {
	s := inv.Slots[idx]
	if s == nil || !s.Reloading {
		return
	}
	s.Reloading = false
	s.hasReloadDeadline = false
}
