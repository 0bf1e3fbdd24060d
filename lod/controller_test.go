package lod

import (
	"testing"

	"github.com/zww/core/events"
	"github.com/zww/core/vec3"
)

func testTunables() Tunables {
	return Tunables{
		TargetFrameSeconds:       1.0 / 60.0,
		DowngradeFrameFactor:     1.5,
		UpgradeFrameFactor:       0.7,
		DowngradeFrameStreak:     30,
		DowngradeCooldownSeconds: 3.0,
		UpgradeCooldownSeconds:   5.0,
		FarDistancesByLevel: [3][3]float64{
			{20, 40, 80},
			{30, 60, 120},
			{50, 100, 200},
		},
	}
}

func TestStartsAtHigh(t *testing.T) {
	c := New(testTunables())
	if c.Level() != High {
		t.Errorf("initial level = %v, want High", c.Level())
	}
}

func TestDowngradeAfterSustainedSlowFrames(t *testing.T) {
	bus := events.NewBus()
	var warned bool
	bus.Subscribe(events.LODPerfWarning, func(events.Event) { warned = true })
	c := New(testTunables())

	slowFrame := (1.0 / 60.0) * 2.0 // well above the 1.5x downgrade factor
	for i := 0; i < 29; i++ {
		c.Update(slowFrame, bus, int64(i))
		if c.Level() != High {
			t.Fatalf("downgraded early at frame %d", i)
		}
	}
	c.Update(slowFrame, bus, 29)
	if c.Level() != Medium {
		t.Fatalf("level = %v after 30 slow frames, want Medium", c.Level())
	}
	if !warned {
		t.Error("expected lod:perfWarning on downgrade")
	}
}

func TestDowngradeCooldownBlocksImmediateSecondStep(t *testing.T) {
	bus := events.NewBus()
	c := New(testTunables())
	slowFrame := (1.0 / 60.0) * 2.0
	for i := 0; i < 30; i++ {
		c.Update(slowFrame, bus, int64(i))
	}
	if c.Level() != Medium {
		t.Fatalf("level = %v, want Medium", c.Level())
	}
	for i := 0; i < 30; i++ {
		c.Update(slowFrame, bus, int64(30+i))
	}
	if c.Level() != Medium {
		t.Errorf("level = %v, downgraded again during cooldown", c.Level())
	}
}

func TestUpgradeAfterFastFrames(t *testing.T) {
	bus := events.NewBus()
	c := New(testTunables())
	c.level = Low

	fastFrame := (1.0 / 60.0) * 0.5
	c.Update(fastFrame, bus, 0)
	if c.Level() != Medium {
		t.Fatalf("level = %v after fast frame, want Medium", c.Level())
	}
}

func TestFrustumContainsSphereInsideCone(t *testing.T) {
	f := Frustum{
		Origin:  vec3.Vector3{},
		Forward: vec3.Vector3{Z: 1},
		HalfFOV: 0.5,
		Far:     100,
	}
	if !f.ContainsSphere(vec3.Vector3{Z: 10}, 1) {
		t.Error("expected sphere directly ahead to be visible")
	}
	if f.ContainsSphere(vec3.Vector3{Z: -10}, 1) {
		t.Error("expected sphere directly behind to be culled")
	}
	if f.ContainsSphere(vec3.Vector3{Z: 1000}, 1) {
		t.Error("expected far sphere beyond Far clip to be culled")
	}
}

func TestCullFiltersOutOfFrustum(t *testing.T) {
	f := Frustum{Forward: vec3.Vector3{Z: 1}, HalfFOV: 0.3, Far: 50}
	meshes := []Mesh{
		{Center: vec3.Vector3{Z: 10}, Radius: 1},
		{Center: vec3.Vector3{Z: -10}, Radius: 1},
	}
	visible := Cull(f, meshes)
	if len(visible) != 1 {
		t.Fatalf("len(visible) = %d, want 1", len(visible))
	}
}
