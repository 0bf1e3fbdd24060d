package weapon

import (
	"testing"

	"github.com/zww/core/events"
	"github.com/zww/core/vec3"
)

func pistolDef() Def {
	return Def{
		Name: "pistol", Type: Pistol, Damage: 25, FireRatePerSecond: 4,
		MagazineCapacity: 15, ReserveCapacityMax: 90, ReloadSeconds: 1.5, Range: 50,
	}
}

func fullInventory() *Inventory {
	inv := NewInventory()
	inv.Equip(0, pistolDef())
	inv.Equip(1, Def{Name: "rifle", Type: Rifle, Damage: 18, FireRatePerSecond: 9, MagazineCapacity: 30, ReserveCapacityMax: 180, ReloadSeconds: 2, Range: 80})
	inv.Equip(2, Def{Name: "shotgun", Type: Shotgun, Damage: 12, FireRatePerSecond: 1.2, MagazineCapacity: 6, ReserveCapacityMax: 36, ReloadSeconds: 2.5, Range: 20, Pellets: 8, ConeSpreadRadians: 0.15})
	inv.Equip(3, Def{Name: "machete", Type: Melee, Damage: 40, FireRatePerSecond: 2, Range: 2.2})
	return inv
}

// An empty magazine makes Fire fail with ammo unchanged, regardless of
// reserve.
func TestEmptyMagazineFireFails(t *testing.T) {
	inv := NewInventory()
	inv.Equip(0, pistolDef())
	s := inv.Current()
	s.CurrentAmmo = 0
	s.ReserveAmmo = 90

	res := inv.Fire(0, vec3.Vector3{}, vec3.Vector3{Z: 1}, nil, nil, 0)
	if res.Success {
		t.Error("Fire() succeeded with empty magazine")
	}
	if s.CurrentAmmo != 0 {
		t.Errorf("CurrentAmmo = %d, want unchanged at 0", s.CurrentAmmo)
	}
}

// Reload conserves total ammo: the transfer never mints or destroys
// rounds, and the magazine never exceeds capacity.
func TestReloadConservation(t *testing.T) {
	inv := NewInventory()
	inv.Equip(0, pistolDef())
	s := inv.Current()
	s.CurrentAmmo = 5
	s.ReserveAmmo = 20

	before := s.CurrentAmmo + s.ReserveAmmo
	bus := events.NewBus()
	var finished int
	bus.Subscribe(events.WeaponReloadFinished, func(events.Event) { finished++ })

	if !inv.Reload(0, bus, 0) {
		t.Fatal("Reload() did not start")
	}
	inv.UpdateReload(1.49, bus, 0)
	if !s.Reloading {
		t.Fatal("reload completed early")
	}
	inv.UpdateReload(1.5, bus, 0)

	if s.Reloading {
		t.Error("reload did not complete at deadline")
	}
	if s.CurrentAmmo != 15 || s.ReserveAmmo != 10 {
		t.Errorf("after reload ammo=(%d,%d), want (15,10)", s.CurrentAmmo, s.ReserveAmmo)
	}
	after := s.CurrentAmmo + s.ReserveAmmo
	if after != before {
		t.Errorf("ammo conservation violated: before=%d after=%d", before, after)
	}
	if s.CurrentAmmo > s.Def.MagazineCapacity {
		t.Errorf("CurrentAmmo %d exceeds capacity %d", s.CurrentAmmo, s.Def.MagazineCapacity)
	}
	if finished != 1 {
		t.Errorf("weapon:reloadFinished published %d times, want exactly 1", finished)
	}
}

// Cycling next a whole number of inventory lengths returns to the
// starting slot.
func TestCyclingReturnsToStart(t *testing.T) {
	inv := fullInventory()
	start := inv.CurrentIndex
	n := len(inv.Slots)
	for i := 0; i < n*3; i++ {
		inv.CycleNext(nil, 0)
	}
	if inv.CurrentIndex != start {
		t.Errorf("CurrentIndex = %d after n*3 cycles, want %d", inv.CurrentIndex, start)
	}
}

func TestSwitchCancelsReload(t *testing.T) {
	inv := fullInventory()
	bus := events.NewBus()
	inv.Reload(0, bus, 0)
	s0 := inv.Slots[0]
	ammoBefore := s0.CurrentAmmo

	inv.SwitchToSlot(1, bus, 0)

	if s0.Reloading {
		t.Error("reload not cancelled by weapon switch")
	}
	if s0.CurrentAmmo != ammoBefore {
		t.Errorf("ammo changed by switch-cancelled reload: %d != %d", s0.CurrentAmmo, ammoBefore)
	}
}

func TestMeleeIgnoresAmmo(t *testing.T) {
	inv := fullInventory()
	inv.SwitchToSlot(3, nil, 0)
	res := inv.Fire(0, vec3.Vector3{}, vec3.Vector3{Z: 1}, func(o, d vec3.Vector3, r float64) (Hit, bool) {
		return Hit{}, false
	}, nil, 0)
	if !res.Success {
		t.Error("melee Fire() failed, want success regardless of ammo")
	}
}
