package settings

import (
	"testing"

	"github.com/zww/core/config"
	"github.com/zww/core/simerr"
)

type fakeStore struct {
	data map[string]string
}

func newFakeStore() *fakeStore { return &fakeStore{data: make(map[string]string)} }

func (f *fakeStore) Get(key string) (string, bool) {
	v, ok := f.data[key]
	return v, ok
}

func (f *fakeStore) Set(key, value string) error {
	f.data[key] = value
	return nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	return cfg
}

func TestLoadMissingKeyReturnsDefaults(t *testing.T) {
	cfg := testConfig(t)
	store := newFakeStore()

	got, err := Load(store, cfg)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != Defaults(cfg) {
		t.Errorf("Load on empty store = %+v, want defaults %+v", got, Defaults(cfg))
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	store := newFakeStore()

	in := Settings{MouseSensitivity: 42, MasterVolume: 80, MusicVolume: 50, SFXVolume: 65}
	if err := Save(store, cfg, in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := Load(store, cfg)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out != in {
		t.Errorf("round-tripped settings = %+v, want %+v", out, in)
	}
}

func TestSaveClampsOutOfRangeValues(t *testing.T) {
	cfg := testConfig(t)
	store := newFakeStore()

	if err := Save(store, cfg, Settings{MouseSensitivity: 500, MasterVolume: -10, MusicVolume: 200, SFXVolume: 0}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := Load(store, cfg)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Settings{MouseSensitivity: 100, MasterVolume: 0, MusicVolume: 100, SFXVolume: 0}
	if out != want {
		t.Errorf("clamped settings = %+v, want %+v", out, want)
	}
}

func TestLoadMalformedBlobIsSchemaViolation(t *testing.T) {
	cfg := testConfig(t)
	store := newFakeStore()
	store.data[cfg.Settings.StorageKey] = "{not json"

	_, err := Load(store, cfg)
	if err == nil {
		t.Fatal("expected error decoding malformed settings blob")
	}
	var simErr *simerr.Error
	if !asSimErr(err, &simErr) {
		t.Fatalf("error is not a *simerr.Error: %v", err)
	}
	if simErr.Kind != simerr.SchemaViolation {
		t.Errorf("Kind = %v, want SchemaViolation", simErr.Kind)
	}
}

func asSimErr(err error, out **simerr.Error) bool {
	se, ok := err.(*simerr.Error)
	if ok {
		*out = se
	}
	return ok
}
