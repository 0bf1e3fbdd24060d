// Package settings implements the persisted user settings: a
// stringly-typed JSON blob stored under a single key in a host-provided
// KV store, holding mouse sensitivity and the three volume sliders. The
// embedded config supplies the baseline for first runs; the stored blob
// overrides it thereafter.
package settings

import (
	"encoding/json"

	"github.com/zww/core/config"
	"github.com/zww/core/simerr"
)

// KVStore is the host's persisted key/value contract. Implementations
// are expected to be a thin wrapper over an OS preferences file, a
// browser localStorage shim, or similar.
type KVStore interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// Settings is the decoded shape of the persisted blob.
type Settings struct {
	MouseSensitivity float64 `json:"mouseSensitivity"`
	MasterVolume     float64 `json:"masterVolume"`
	MusicVolume      float64 `json:"musicVolume"`
	SFXVolume        float64 `json:"sfxVolume"`
}

// clamped enforces the declared bounds: mouse sensitivity in [1,100],
// the three volumes in [0,100].
func (s Settings) clamped() Settings {
	s.MouseSensitivity = clamp(s.MouseSensitivity, 1, 100)
	s.MasterVolume = clamp(s.MasterVolume, 0, 100)
	s.MusicVolume = clamp(s.MusicVolume, 0, 100)
	s.SFXVolume = clamp(s.SFXVolume, 0, 100)
	return s
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Defaults returns the settings baseline from the embedded config, for use
// when the KV store has nothing stored yet.
func Defaults(cfg *config.Config) Settings {
	return Settings{
		MouseSensitivity: cfg.Settings.MouseSensitivity,
		MasterVolume:     cfg.Settings.MasterVolume,
		MusicVolume:      cfg.Settings.MusicVolume,
		SFXVolume:        cfg.Settings.SFXVolume,
	}
}

// Load reads and decodes the settings blob from store under cfg's
// configured storage key. A missing key (first run) returns the resolved
// config defaults rather than an error. A malformed stored blob is a
// SchemaViolation; callers that want to tolerate it should fall back to
// Defaults themselves.
func Load(store KVStore, cfg *config.Config) (Settings, error) {
	raw, ok := store.Get(cfg.Settings.StorageKey)
	if !ok {
		return Defaults(cfg), nil
	}
	var s Settings
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return Settings{}, simerr.Wrap(simerr.SchemaViolation, "settings", cfg.Settings.StorageKey, err)
	}
	return s.clamped(), nil
}

// Save clamps s to its declared ranges and persists it to store under
// cfg's configured storage key.
func Save(store KVStore, cfg *config.Config, s Settings) error {
	data, err := json.Marshal(s.clamped())
	if err != nil {
		return simerr.Wrap(simerr.HostFault, "settings", "encoding settings", err)
	}
	if err := store.Set(cfg.Settings.StorageKey, string(data)); err != nil {
		return simerr.Wrap(simerr.HostFault, "settings", "writing to KV store", err)
	}
	return nil
}
