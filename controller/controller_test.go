package controller

import (
	"math"
	"testing"

	"github.com/zww/core/config"
	"github.com/zww/core/events"
	"github.com/zww/core/vec3"
	"github.com/zww/core/zombie"
)

func newTestController(t *testing.T) (*Controller, *events.Bus) {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	bus := events.NewBus()
	ctrl := New(cfg, bus, Options{
		SpawnPoints: []vec3.Vector3{{Z: 25}},
		Seed:        1,
	})
	ctrl.StartGame()
	return ctrl, bus
}

// Four pistol shots kill a walker standing 1.8 units in front of the
// player, the killing shot adds 100*waveIndex to score, and the corpse
// lingers until removed.
func TestScenarioFirstShotKillsWalker(t *testing.T) {
	ctrl, bus := newTestController(t)
	ctrl.Wave.State.InPreparation = false

	const standoff = 1.8
	zombiePos := vec3.Vector3{Z: standoff}
	id := ctrl.Zombies.Spawn(zombiePos, zombie.Walker, ctrl.stats[zombie.Walker], bus, ctrl.Tick())

	// Aim the camera's ray exactly through the zombie's position despite
	// the eye-height offset above the player's feet.
	pitch := math.Atan2(-eyeHeight, standoff)
	ctrl.Cam.SetOrientation(0, pitch)

	var healthAfterHit []float64
	bus.Subscribe(events.ZombieDamaged, func(events.Event) {
		if z, ok := ctrl.Zombies.Get(id); ok {
			healthAfterHit = append(healthAfterHit, z.Health)
		}
	})

	for i := 0; i < 300 && len(healthAfterHit) < 4; i++ {
		ctrl.Input().PressFire()
		ctrl.FixedUpdate(ctrl.cfg.Physics.FixedStep)
	}

	want := []float64{75, 50, 25, 0}
	if len(healthAfterHit) != len(want) {
		t.Fatalf("got %d hits, want %d: %v", len(healthAfterHit), len(want), healthAfterHit)
	}
	for i, w := range want {
		if healthAfterHit[i] != w {
			t.Errorf("shot %d: health = %v, want %v", i+1, healthAfterHit[i], w)
		}
	}

	z, ok := ctrl.Zombies.Get(id)
	if !ok || z.State != zombie.Dying {
		t.Fatalf("expected zombie dying after the 4th shot, got %v (present=%v)", z.State, ok)
	}
	if ctrl.Wave.State.Score != 100 {
		t.Errorf("score = %d, want 100", ctrl.Wave.State.Score)
	}

	// Linger: still present just before 5s, gone just after.
	ctrl.Zombies.Update(4.9, ctrl.Player.Position, bus, ctrl.Tick())
	if _, ok := ctrl.Zombies.Get(id); !ok {
		t.Fatal("zombie removed before its death linger elapsed")
	}
	ctrl.Zombies.Update(0.2, ctrl.Player.Position, bus, ctrl.Tick())
	if _, ok := ctrl.Zombies.Get(id); ok {
		t.Error("zombie not removed after its death linger elapsed")
	}
}

// Once the player dies, gameOver latches and ten more
// fixed updates mutate neither score nor spawn counters.
func TestScenarioGameOverLatch(t *testing.T) {
	ctrl, _ := newTestController(t)
	ctrl.Wave.State.InPreparation = false
	ctrl.Player.Health = 5

	ctrl.Player.TakeDamage(15, nil, ctrl.Tick())
	if !ctrl.Player.IsDead() {
		t.Fatal("expected player dead after takeDamage")
	}

	ctrl.FixedUpdate(ctrl.cfg.Physics.FixedStep)
	if !ctrl.Wave.State.GameOver {
		t.Fatal("expected wave gameOver after player death")
	}

	scoreBefore := ctrl.Wave.State.Score
	spawnedBefore := ctrl.Wave.State.ZombiesSpawned
	for i := 0; i < 10; i++ {
		ctrl.FixedUpdate(ctrl.cfg.Physics.FixedStep)
	}
	if ctrl.Wave.State.Score != scoreBefore {
		t.Errorf("score mutated after game-over latch: %d -> %d", scoreBefore, ctrl.Wave.State.Score)
	}
	if ctrl.Wave.State.ZombiesSpawned != spawnedBefore {
		t.Error("spawns occurred after game-over latch")
	}
}

// HUD reflects the currently equipped weapon's magazine/reserve state.
func TestHUDReflectsCurrentWeapon(t *testing.T) {
	ctrl, _ := newTestController(t)
	hud := ctrl.HUD()
	if hud.CurrentWeaponName != "pistol" {
		t.Errorf("CurrentWeaponName = %q, want %q", hud.CurrentWeaponName, "pistol")
	}
	if hud.CurrentAmmo != hud.MagazineSize {
		t.Errorf("CurrentAmmo = %d, want full magazine %d", hud.CurrentAmmo, hud.MagazineSize)
	}
}

// Registered HUD observers receive the published state at the end of
// every fixed update.
func TestObserveHUDPublishesEachTick(t *testing.T) {
	ctrl, _ := newTestController(t)
	var seen []HUDState
	ctrl.ObserveHUD(func(h HUDState) { seen = append(seen, h) })

	for i := 0; i < 3; i++ {
		ctrl.FixedUpdate(ctrl.cfg.Physics.FixedStep)
	}
	if len(seen) != 3 {
		t.Fatalf("observer invoked %d times, want 3", len(seen))
	}
	if seen[0].MaxHealth != ctrl.Player.MaxHealth {
		t.Errorf("published MaxHealth = %v, want %v", seen[0].MaxHealth, ctrl.Player.MaxHealth)
	}
}

// Restoring a Snapshot into a fresh Controller reproduces the player's
// position and health and the zombie count.
func TestSnapshotRestoreRoundTrip(t *testing.T) {
	ctrl, bus := newTestController(t)
	ctrl.Wave.State.InPreparation = false
	ctrl.Player.Position = vec3.Vector3{X: 1.2345, Z: -3.14159}
	ctrl.Player.TakeDamage(26.5, nil, ctrl.Tick())
	ctrl.Zombies.Spawn(vec3.Vector3{X: 5, Z: 5}, zombie.Runner, ctrl.stats[zombie.Runner], bus, ctrl.Tick())

	snap := ctrl.Snapshot()

	fresh := New(ctrl.cfg, events.NewBus(), Options{SpawnPoints: []vec3.Vector3{{Z: 25}}, Seed: 1})
	fresh.Restore(snap)

	if fresh.Player.Position != snap.Player.Position {
		t.Errorf("restored position = %v, want %v", fresh.Player.Position, snap.Player.Position)
	}
	if fresh.Player.Health != ctrl.Player.Health {
		t.Errorf("restored health = %v, want %v", fresh.Player.Health, ctrl.Player.Health)
	}
	if len(fresh.Zombies.Snapshot()) != len(ctrl.Zombies.Snapshot()) {
		t.Errorf("restored zombie count = %d, want %d", len(fresh.Zombies.Snapshot()), len(ctrl.Zombies.Snapshot()))
	}
}
