package config

import "testing"

func TestLoadEmbeddedDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") returned error: %v", err)
	}

	if cfg.Physics.MaxFixedStepsPerFrame != 5 {
		t.Errorf("MaxFixedStepsPerFrame = %d, want 5", cfg.Physics.MaxFixedStepsPerFrame)
	}
	if cfg.Wave.BaseZombies != 10 || cfg.Wave.ZombiesPerWave != 5 {
		t.Errorf("wave formula inputs = (%d,%d), want (10,5)", cfg.Wave.BaseZombies, cfg.Wave.ZombiesPerWave)
	}
	if cfg.Settings.StorageKey != "zww_settings" {
		t.Errorf("Settings.StorageKey = %q, want %q", cfg.Settings.StorageKey, "zww_settings")
	}
}

func TestWeaponByName(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") returned error: %v", err)
	}

	tests := []struct {
		name   string
		wantOK bool
	}{
		{"pistol", true},
		{"rifle", true},
		{"shotgun", true},
		{"machete", true},
		{"bazooka", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := cfg.WeaponByName(tc.name)
			if ok != tc.wantOK {
				t.Errorf("WeaponByName(%q) ok = %v, want %v", tc.name, ok, tc.wantOK)
			}
		})
	}
}

func TestDerivedValues(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") returned error: %v", err)
	}
	want := cfg.Zombies.DetectRadius * cfg.Zombies.DetectRadius
	if cfg.Derived.DetectRadiusSq != want {
		t.Errorf("Derived.DetectRadiusSq = %v, want %v", cfg.Derived.DetectRadiusSq, want)
	}
}

func TestCfgPanicsBeforeInit(t *testing.T) {
	global = nil
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("Cfg() did not panic before Init()")
		}
	}()
	Cfg()
}
