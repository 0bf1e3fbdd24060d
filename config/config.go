// Package config provides configuration loading and access for the
// simulation core, following the embed-defaults-plus-override pattern used
// throughout this codebase: an embedded YAML baseline merged with an
// optional user file.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen   ScreenConfig   `yaml:"screen"`
	Physics  PhysicsConfig  `yaml:"physics"`
	Player   PlayerConfig   `yaml:"player"`
	Weapons  WeaponsConfig  `yaml:"weapons"`
	Zombies  ZombiesConfig  `yaml:"zombies"`
	Wave     WaveConfig     `yaml:"wave"`
	Audio    AudioConfig    `yaml:"audio"`
	LOD      LODConfig      `yaml:"lod"`
	Settings SettingsConfig `yaml:"settings"`

	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display/window settings for the reference host.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// PhysicsConfig holds fixed-timestep and collision-probe parameters.
type PhysicsConfig struct {
	FixedStep             float64 `yaml:"fixed_step"`
	MaxFrameDelta         float64 `yaml:"max_frame_delta"`
	MaxFixedStepsPerFrame int     `yaml:"max_fixed_steps_per_frame"`
	Gravity               float64 `yaml:"gravity"`
	JumpHeight            float64 `yaml:"jump_height"`
	GroundCheckDistance   float64 `yaml:"ground_check_distance"`
	PlayerRadius          float64 `yaml:"player_radius"`
	WallSlideFactor       float64 `yaml:"wall_slide_factor"`
}

// PlayerConfig holds player locomotion/stamina parameters.
type PlayerConfig struct {
	WalkSpeed              float64 `yaml:"walk_speed"`
	SprintMultiplier       float64 `yaml:"sprint_multiplier"`
	MaxHealth              float64 `yaml:"max_health"`
	MaxStamina             float64 `yaml:"max_stamina"`
	StaminaDrainRate       float64 `yaml:"stamina_drain_rate"`
	StaminaRegenRate       float64 `yaml:"stamina_regen_rate"`
	SprintReenableFraction float64 `yaml:"sprint_reenable_fraction"`
	PitchClampEpsilon      float64 `yaml:"pitch_clamp_epsilon"`
}

// WeaponDef is one weapon's static parameters.
type WeaponDef struct {
	Name               string  `yaml:"name"`
	Type               string  `yaml:"type"` // pistol | rifle | shotgun | melee
	Damage             float64 `yaml:"damage"`
	FireRatePerSecond  float64 `yaml:"fire_rate_per_second"`
	MagazineCapacity   int     `yaml:"magazine_capacity"`
	ReserveCapacityMax int     `yaml:"reserve_capacity_max"`
	ReloadSeconds      float64 `yaml:"reload_seconds"`
	Range              float64 `yaml:"range"`
	Pellets            int     `yaml:"pellets"` // shotgun sub-rays
	ConeSpreadRadians  float64 `yaml:"cone_spread_radians"`
}

// WeaponsConfig holds the closed set of weapon definitions.
type WeaponsConfig struct {
	Defs []WeaponDef `yaml:"defs"`
}

// ZombieVariantDef is one zombie archetype's static parameters.
type ZombieVariantDef struct {
	Name   string  `yaml:"name"`
	Health float64 `yaml:"health"`
	Damage float64 `yaml:"damage"`
	Speed  float64 `yaml:"speed"`
}

// ZombiesConfig holds zombie behavior parameters.
type ZombiesConfig struct {
	Variants             []ZombieVariantDef `yaml:"variants"`
	DetectRadius         float64            `yaml:"detect_radius"`
	LoseInterestRadius   float64            `yaml:"lose_interest_radius"`
	AttackRadius         float64            `yaml:"attack_radius"`
	AttackCooldown       float64            `yaml:"attack_cooldown"`
	WanderRadius         float64            `yaml:"wander_radius"`
	WanderRedirectPeriod float64            `yaml:"wander_redirect_period"`
	WanderSpeedFraction  float64            `yaml:"wander_speed_fraction"`
	DeathLingerSeconds   float64            `yaml:"death_linger_seconds"`
	HitRadius            float64            `yaml:"hit_radius"`
}

// WaveConfig holds wave-scheduler parameters.
type WaveConfig struct {
	PreparationSeconds         float64 `yaml:"preparation_seconds"`
	SpawnIntervalSeconds       float64 `yaml:"spawn_interval_seconds"`
	BaseZombies                int     `yaml:"base_zombies"`
	ZombiesPerWave             int     `yaml:"zombies_per_wave"`
	MinSpawnDistanceFromPlayer float64 `yaml:"min_spawn_distance_from_player"`
	ScorePerKillPerWave        int     `yaml:"score_per_kill_per_wave"`
	WaveEndBonusPerWave        int     `yaml:"wave_end_bonus_per_wave"`
}

// AudioConfig holds the Audio Director's dwell/gain parameters.
type AudioConfig struct {
	MinStateDwellSeconds float64 `yaml:"min_state_dwell_seconds"`
	PauseGainFraction    float64 `yaml:"pause_gain_fraction"`
	TenseHealthFraction  float64 `yaml:"tense_health_fraction"`
}

// LODConfig holds adaptive quality controller parameters.
type LODConfig struct {
	TargetFrameSeconds       float64       `yaml:"target_frame_seconds"`
	DowngradeFrameFactor     float64       `yaml:"downgrade_frame_factor"`
	UpgradeFrameFactor       float64       `yaml:"upgrade_frame_factor"`
	DowngradeFrameStreak     int           `yaml:"downgrade_frame_streak"`
	DowngradeCooldownSeconds float64       `yaml:"downgrade_cooldown_seconds"`
	UpgradeCooldownSeconds   float64       `yaml:"upgrade_cooldown_seconds"`
	FarDistancesByLevel      [3][3]float64 `yaml:"far_distances_by_level"`
}

// SettingsConfig holds defaults for the persisted-settings KV blob.
type SettingsConfig struct {
	StorageKey       string  `yaml:"storage_key"`
	MouseSensitivity float64 `yaml:"mouse_sensitivity"`
	MasterVolume     float64 `yaml:"master_volume"`
	MusicVolume      float64 `yaml:"music_volume"`
	SFXVolume        float64 `yaml:"sfx_volume"`
}

// DerivedConfig holds values computed once after load.
type DerivedConfig struct {
	DetectRadiusSq       float64
	LoseInterestRadiusSq float64
	AttackRadiusSq       float64
}

var global *Config

// Init loads configuration from the given path, or uses embedded defaults
// if path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded
// defaults. If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()
	return cfg, nil
}

func (c *Config) computeDerived() {
	c.Derived.DetectRadiusSq = c.Zombies.DetectRadius * c.Zombies.DetectRadius
	c.Derived.LoseInterestRadiusSq = c.Zombies.LoseInterestRadius * c.Zombies.LoseInterestRadius
	c.Derived.AttackRadiusSq = c.Zombies.AttackRadius * c.Zombies.AttackRadius
}

// WeaponByName looks up a weapon definition by its configured name.
func (c *Config) WeaponByName(name string) (WeaponDef, bool) {
	for _, w := range c.Weapons.Defs {
		if w.Name == name {
			return w, true
		}
	}
	return WeaponDef{}, false
}

// VariantByName looks up a zombie variant definition by its configured name.
func (c *Config) VariantByName(name string) (ZombieVariantDef, bool) {
	for _, v := range c.Zombies.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return ZombieVariantDef{}, false
}
