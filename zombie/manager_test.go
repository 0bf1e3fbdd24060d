package zombie

import (
	"testing"

	"github.com/zww/core/events"
	"github.com/zww/core/vec3"
)

func testManager() *Manager {
	return NewManager(testTunables(), 42)
}

func TestSpawnAssignsStableIncreasingIDs(t *testing.T) {
	m := testManager()
	bus := events.NewBus()
	id1 := m.Spawn(vec3.Vector3{}, Walker, testStats(), bus, 0)
	id2 := m.Spawn(vec3.Vector3{X: 1}, Runner, testStats(), bus, 0)
	if id1 == id2 {
		t.Fatalf("ids collided: %v == %v", id1, id2)
	}
	if m.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", m.Count())
	}
}

func TestSpawnEmitsZombieSpawned(t *testing.T) {
	m := testManager()
	bus := events.NewBus()
	var spawned int
	bus.Subscribe(events.ZombieSpawned, func(events.Event) { spawned++ })
	m.Spawn(vec3.Vector3{}, Walker, testStats(), bus, 0)
	if spawned != 1 {
		t.Fatalf("spawned events = %d, want 1", spawned)
	}
}

// Update removes a zombie once its death linger
// has fully elapsed, and leaves live zombies tracked.
func TestUpdateGCsExpiredZombies(t *testing.T) {
	m := testManager()
	bus := events.NewBus()
	id := m.Spawn(vec3.Vector3{}, Walker, testStats(), bus, 0)
	m.Damage(id, 10000, bus, 0)
	z, _ := m.Get(id)
	if z.State != Dying {
		t.Fatalf("state = %v, want Dying", z.State)
	}

	far := vec3.Vector3{X: 10000}
	linger := testTunables().DeathLingerSeconds
	steps := int(linger/0.1) + 2
	for i := 0; i < steps; i++ {
		m.Update(0.1, far, bus, int64(i))
	}
	if _, ok := m.Get(id); ok {
		t.Fatalf("expected zombie %v to be garbage collected after linger", id)
	}
	if m.Count() != 0 {
		t.Fatalf("Count() = %d, want 0", m.Count())
	}
}

// A per-entity panic during Update is isolated: the tick continues and
// the offending entity is removed, but other zombies still update
// normally.
func TestPanickingEntityIsIsolated(t *testing.T) {
	m := testManager()
	bus := events.NewBus()
	good := m.Spawn(vec3.Vector3{}, Walker, testStats(), bus, 0)
	bad := m.Spawn(vec3.Vector3{X: 5}, Runner, testStats(), bus, 0)

	// Simulate a corrupted entity (e.g. a construction bug) by nil-ing its
	// pointer directly; Update will panic on the nil dereference and
	// stepOne's recover must isolate it.
	m.zombies[bad] = nil

	far := vec3.Vector3{X: 10000}
	m.Update(0.1, far, bus, 0)

	if _, ok := m.Get(bad); ok {
		t.Fatalf("panicking entity %v was not removed", bad)
	}
	if _, ok := m.Get(good); !ok {
		t.Fatalf("healthy entity %v was incorrectly removed", good)
	}
}

func TestInRangeAndClosestAndRaycast(t *testing.T) {
	m := testManager()
	bus := events.NewBus()
	near := m.Spawn(vec3.Vector3{X: 1}, Walker, testStats(), bus, 0)
	far := m.Spawn(vec3.Vector3{X: 50}, Walker, testStats(), bus, 0)

	inRange := m.InRange(vec3.Vector3{}, 5)
	if len(inRange) != 1 || inRange[0] != near {
		t.Fatalf("InRange = %v, want [%v]", inRange, near)
	}

	closest, ok := m.Closest(vec3.Vector3{})
	if !ok || closest != near {
		t.Fatalf("Closest = %v,%v, want %v,true", closest, ok, near)
	}

	ray := Ray{Origin: vec3.Vector3{}, Direction: vec3.Vector3{X: 1}}
	hit, ok := m.Raycast(ray, 10, 0.5)
	if !ok || hit.ID != near {
		t.Fatalf("Raycast = %+v,%v, want id=%v", hit, ok, near)
	}

	_, ok = m.Raycast(ray, 0.5, 0.5)
	if ok {
		t.Fatalf("expected no hit within maxRange=0.5 (nearest zombie is at x=1)")
	}
	_ = far
}

// Dying zombies are excluded from every broad-phase query (InRange,
// Closest, Raycast).
func TestDyingZombiesExcludedFromQueries(t *testing.T) {
	m := testManager()
	bus := events.NewBus()
	id := m.Spawn(vec3.Vector3{X: 1}, Walker, testStats(), bus, 0)
	m.Damage(id, 10000, bus, 0)

	if got := m.InRange(vec3.Vector3{}, 5); len(got) != 0 {
		t.Errorf("InRange = %v, want empty (dying excluded)", got)
	}
	if _, ok := m.Closest(vec3.Vector3{}); ok {
		t.Errorf("Closest found a dying zombie")
	}
	ray := Ray{Origin: vec3.Vector3{}, Direction: vec3.Vector3{X: 1}}
	if _, ok := m.Raycast(ray, 10, 0.5); ok {
		t.Errorf("Raycast hit a dying zombie")
	}
}

// Snapshot/Restore round-trips public state and
// preserves id stability, including resuming the id counter above the
// highest restored id.
func TestSnapshotRestoreRoundTrip(t *testing.T) {
	m := testManager()
	bus := events.NewBus()
	id1 := m.Spawn(vec3.Vector3{X: 1}, Walker, testStats(), bus, 0)
	id2 := m.Spawn(vec3.Vector3{X: 2}, Runner, testStats(), bus, 0)
	m.Damage(id2, 5, bus, 0)

	snap := m.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("snapshot len = %d, want 2", len(snap))
	}

	stats := StatsTable{Walker: testStats(), Runner: testStats()}
	m2 := testManager()
	m2.Restore(snap, stats)

	if m2.Count() != 2 {
		t.Fatalf("restored count = %d, want 2", m2.Count())
	}
	z1, ok := m2.Get(id1)
	if !ok || z1.Position.X != 1 {
		t.Fatalf("restored zombie %v = %+v", id1, z1)
	}
	z2, ok := m2.Get(id2)
	if !ok || z2.Health != testStats().MaxHealth-5 {
		t.Fatalf("restored zombie %v health = %v, want %v", id2, z2.Health, testStats().MaxHealth-5)
	}

	newID := m2.Spawn(vec3.Vector3{}, Walker, testStats(), bus, 0)
	if newID <= id2 {
		t.Fatalf("new id %v did not resume above restored max %v", newID, id2)
	}
}
