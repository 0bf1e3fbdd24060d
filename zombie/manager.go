package zombie

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/zww/core/events"
	"github.com/zww/core/simerr"
	"github.com/zww/core/vec3"
)

// Ray is a hitscan query ray.
type Ray struct {
	Origin, Direction vec3.Vector3
}

// RaycastHit is the nearest intersection found by Manager.Raycast.
type RaycastHit struct {
	ID    ID
	Point vec3.Vector3
}

// Manager owns the keyed zombie collection: spawn/despawn, broad-phase
// queries, and raycast dispatch. No other component holds a zombie
// pointer; everything outside this package refers to zombies by ID.
type Manager struct {
	zombies map[ID]*Zombie
	nextID  ID
	tun     Tunables
	rnd     *rand.Rand
}

// NewManager constructs an empty Manager. seed controls the deterministic
// RNG used for wander headings; variant rolls and spawn point selection
// belong to the wave scheduler.
func NewManager(tun Tunables, seed int64) *Manager {
	return &Manager{
		zombies: make(map[ID]*Zombie),
		nextID:  1,
		tun:     tun,
		rnd:     rand.New(rand.NewSource(seed)),
	}
}

// StatsTable maps a Variant to its spawn-time archetype stats.
type StatsTable map[Variant]Stats

// Spawn creates a zombie of the given variant at position, emitting
// zombie:spawned. Variant selection is the caller's concern; the wave
// scheduler owns the weighted distribution.
func (m *Manager) Spawn(position vec3.Vector3, variant Variant, stats Stats, bus *events.Bus, tick int64) ID {
	id := m.nextID
	m.nextID++

	z := newZombie(id, variant, position, stats, m.tun)
	m.zombies[id] = z

	if bus != nil {
		bus.Publish(events.Event{Topic: events.ZombieSpawned, Tick: tick, Data: map[string]any{"id": id, "variant": variant}})
	}
	return id
}

// Rand exposes the manager's deterministic RNG, the stream that drives
// zombie wander-heading jitter.
func (m *Manager) Rand() *rand.Rand { return m.rnd }

// Update steps every zombie's state machine against playerPos, then GCs
// any whose death linger has fully elapsed. A panicking per-entity update
// is isolated by a deferred recover around each entity's step: the
// offending zombie is removed and the tick proceeds.
func (m *Manager) Update(dt float64, playerPos vec3.Vector3, bus *events.Bus, tick int64) {
	var toRemove []ID
	for id, z := range m.zombies {
		if m.stepOne(z, dt, playerPos, bus, tick) {
			toRemove = append(toRemove, id)
			continue
		}
		if z.Removed() {
			toRemove = append(toRemove, id)
		}
	}
	for _, id := range toRemove {
		delete(m.zombies, id)
	}
}

// stepOne runs one zombie's Update, recovering from a panic by reporting
// the fault and marking the entity for removal.
func (m *Manager) stepOne(z *Zombie, dt float64, playerPos vec3.Vector3, bus *events.Bus, tick int64) (faulted bool) {
	defer func() {
		if r := recover(); r != nil {
			faulted = true
			var id ID
			if z != nil {
				id = z.ID
			}
			slog.Warn("zombie: removing faulted entity",
				"err", simerr.New(simerr.EntityFault, "zombie-manager", fmt.Sprintf("id %d: %v", id, r)))
		}
	}()
	z.Update(dt, playerPos, m.rnd, bus, tick)
	return false
}

// Damage applies n damage to the zombie with the given id, if present.
func (m *Manager) Damage(id ID, n float64, bus *events.Bus, tick int64) {
	if z, ok := m.zombies[id]; ok {
		z.TakeDamage(n, bus, tick)
	}
}

// Get returns the zombie with the given id, if present.
func (m *Manager) Get(id ID) (*Zombie, bool) {
	z, ok := m.zombies[id]
	return z, ok
}

// Count returns the number of zombies currently tracked (including those
// lingering in the dying state).
func (m *Manager) Count() int { return len(m.zombies) }

// Active returns all zombies not in the dying state, for callers (e.g.
// the controller's zombie-on-player attack check) that need live entities.
func (m *Manager) Active() []*Zombie {
	out := make([]*Zombie, 0, len(m.zombies))
	for _, z := range m.zombies {
		if z.State != Dying {
			out = append(out, z)
		}
	}
	return out
}

// InRange returns the ids of all non-dying zombies within radius r of
// pos, measured on the XZ plane.
func (m *Manager) InRange(pos vec3.Vector3, r float64) []ID {
	var out []ID
	rSq := r * r
	for id, z := range m.zombies {
		if z.State == Dying {
			continue
		}
		dx := z.Position.X - pos.X
		dz := z.Position.Z - pos.Z
		if dx*dx+dz*dz <= rSq {
			out = append(out, id)
		}
	}
	return out
}

// Closest returns the id of the nearest non-dying zombie to pos, if any.
func (m *Manager) Closest(pos vec3.Vector3) (ID, bool) {
	var best ID
	bestDist := math.Inf(1)
	found := false
	for id, z := range m.zombies {
		if z.State == Dying {
			continue
		}
		d := z.Position.DistanceXZ(pos)
		if d < bestDist {
			bestDist = d
			best = id
			found = true
		}
	}
	return best, found
}

// Raycast performs a broad-phase hitscan: the nearest non-dying zombie
// whose position lies within hitRadius of the ray, up to maxRange along
// the ray direction. Dying zombies are skipped, as in every other
// broad-phase query.
func (m *Manager) Raycast(ray Ray, maxRange, hitRadius float64) (RaycastHit, bool) {
	dir := ray.Direction.Normalize()
	best := math.Inf(1)
	var bestHit RaycastHit
	found := false

	for id, z := range m.zombies {
		if z.State == Dying {
			continue
		}
		toZombie := z.Position.Sub(ray.Origin)
		proj := toZombie.X*dir.X + toZombie.Y*dir.Y + toZombie.Z*dir.Z
		if proj < 0 || proj > maxRange {
			continue
		}
		closest := ray.Origin.Add(dir.Scale(proj))
		if closest.Distance(z.Position) > hitRadius {
			continue
		}
		if proj < best {
			best = proj
			bestHit = RaycastHit{ID: id, Point: closest}
			found = true
		}
	}
	return bestHit, found
}

// ZombieState is the read-only public state of one zombie, used by the
// snapshot codec and HUD observers.
type ZombieState struct {
	ID       ID
	Variant  Variant
	Position vec3.Vector3
	Health   float64
	State    State
}

// Snapshot returns the public state of every tracked zombie.
func (m *Manager) Snapshot() []ZombieState {
	out := make([]ZombieState, 0, len(m.zombies))
	for _, z := range m.zombies {
		out = append(out, ZombieState{ID: z.ID, Variant: z.Variant, Position: z.Position, Health: z.Health, State: z.State})
	}
	return out
}

// Restore replaces the zombie collection with the given list, rebuilding
// each entity's full runtime state from its public snapshot fields. The
// fields not carried by ZombieState (timers, facing, spawn anchor) reset
// to their state-appropriate defaults, matching a freshly transitioned
// entity. The monotonic id counter resumes above the highest restored
// id, preserving id stability across save/load.
func (m *Manager) Restore(list []ZombieState, stats StatsTable) {
	m.zombies = make(map[ID]*Zombie, len(list))
	var maxID ID
	for _, zs := range list {
		st := stats[zs.Variant]
		z := newZombie(zs.ID, zs.Variant, zs.Position, st, m.tun)
		z.Health = zs.Health
		z.State = zs.State
		if zs.State == Dying {
			z.DeathLingerRemaining = m.tun.DeathLingerSeconds
		}
		if zs.State == Wandering {
			z.WanderRedirect = m.tun.WanderRedirectPeriod
		}
		m.zombies[zs.ID] = z
		if zs.ID > maxID {
			maxID = zs.ID
		}
	}
	if maxID >= m.nextID {
		m.nextID = maxID + 1
	}
}
