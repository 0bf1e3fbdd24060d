// Package snapshot implements the snapshot codec: encoding and decoding
// the full simulation state to/from the sole cross-boundary
// representation used for save/load and the remote persistence service.
// Decode walks a generic map instead of calling json.Unmarshal into the
// target struct directly, so a malformed field can be reported by its
// exact schema path without ever touching a caller-owned value; decode
// only ever returns a fresh GameSnapshot or an error.
package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/zww/core/simerr"
	"github.com/zww/core/vec3"
)

// PlayerSnapshot is the player portion of GameSnapshot.
type PlayerSnapshot struct {
	Position         vec3.Vector3 `json:"position"`
	Yaw              float64      `json:"yaw"`
	Pitch            float64      `json:"pitch"`
	Health           float64      `json:"health"`
	MaxHealth        float64      `json:"maxHealth"`
	Stamina          float64      `json:"stamina"`
	MaxStamina       float64      `json:"maxStamina"`
	SprintEnabled    bool         `json:"sprintEnabled"`
	OnGround         bool         `json:"onGround"`
	VerticalVelocity float64      `json:"verticalVelocity"`
}

// WeaponSlotSnapshot is one inventory slot: weapon identity plus the
// two dynamic ammo counters. Reload timers are runtime-only and are not
// persisted.
type WeaponSlotSnapshot struct {
	Name        string `json:"name"`
	CurrentAmmo int    `json:"currentAmmo"`
	ReserveAmmo int    `json:"reserveAmmo"`
}

// InventorySnapshot is the ordered weapon slots plus the selected index.
// A nil entry in Slots represents an empty slot.
type InventorySnapshot struct {
	Slots        [4]*WeaponSlotSnapshot `json:"slots"`
	CurrentIndex int                    `json:"currentIndex"`
}

// WaveSnapshot is the wave scheduler's counters and flags.
type WaveSnapshot struct {
	WaveIndex              int     `json:"waveIndex"`
	InPreparation          bool    `json:"inPreparation"`
	PreparationSecondsLeft float64 `json:"preparationSecondsLeft"`
	TotalZombiesInWave     int     `json:"totalZombiesInWave"`
	ZombiesSpawned         int     `json:"zombiesSpawned"`
	ZombiesKilled          int     `json:"zombiesKilled"`
	GameOver               bool    `json:"gameOver"`
	GameOverReason         string  `json:"gameOverReason"`
}

// ZombieSnapshot is one zombie's public state.
type ZombieSnapshot struct {
	ID       uint64       `json:"id"`
	Variant  string       `json:"variant"`
	Position vec3.Vector3 `json:"position"`
	Health   float64      `json:"health"`
	State    string       `json:"state"`
}

// GameSnapshot is the aggregate, language-neutral value that is the
// only cross-boundary representation of the simulation.
type GameSnapshot struct {
	Player          PlayerSnapshot    `json:"player"`
	Inventory       InventorySnapshot `json:"inventory"`
	Wave            WaveSnapshot      `json:"wave"`
	Zombies         []ZombieSnapshot  `json:"zombies"`
	Score           int               `json:"score"`
	PlayTimeSeconds float64           `json:"playTimeSeconds"`
	Timestamp       int64             `json:"timestamp"`
}

// Encode marshals s to indented JSON, rounding every spatial real to
// exactly 3 fractional digits. Quantization happens at encode time only;
// the rounded form is never carried back into the live simulation.
func Encode(s GameSnapshot) ([]byte, error) {
	q := s
	q.Player.Position = s.Player.Position.Quantized()
	q.Zombies = make([]ZombieSnapshot, len(s.Zombies))
	for i, z := range s.Zombies {
		q.Zombies[i] = z
		q.Zombies[i].Position = z.Position.Quantized()
	}
	data, err := json.MarshalIndent(q, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode: %w", err)
	}
	return data, nil
}

// Decode parses data into a fresh GameSnapshot. It is total over the
// declared schema: any field with the wrong shape or type yields a
// *simerr.Error of kind SchemaViolation naming the offending field path.
// On error the returned GameSnapshot is the zero value; no caller state
// is ever touched since Decode only ever constructs a new value.
func Decode(data []byte) (GameSnapshot, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return GameSnapshot{}, simerr.Wrap(simerr.SchemaViolation, "snapshot", "root", err)
	}

	d := &decoder{}
	var out GameSnapshot

	playerObj := d.object(raw, "player")
	if d.err == nil {
		out.Player = d.decodePlayer(playerObj)
	}
	invObj := d.object(raw, "inventory")
	if d.err == nil {
		out.Inventory = d.decodeInventory(invObj)
	}
	waveObj := d.object(raw, "wave")
	if d.err == nil {
		out.Wave = d.decodeWave(waveObj)
	}
	zombiesArr := d.array(raw, "zombies")
	if d.err == nil {
		out.Zombies = d.decodeZombies(zombiesArr)
	}
	if d.err == nil {
		out.Score = d.int(raw, "score")
	}
	if d.err == nil {
		out.PlayTimeSeconds = d.float(raw, "playTimeSeconds")
	}
	if d.err == nil {
		out.Timestamp = int64(d.float(raw, "timestamp"))
	}

	if d.err != nil {
		return GameSnapshot{}, d.err
	}
	return out, nil
}

// decoder accumulates the first schema error encountered, with a path
// prefix so nested lookups can report e.g. "zombies[2].variant".
type decoder struct {
	path string
	err  error
}

func (d *decoder) fail(path, detail string) {
	if d.err == nil {
		d.err = simerr.New(simerr.SchemaViolation, "snapshot", path+": "+detail)
	}
}

func (d *decoder) fullPath(field string) string {
	if d.path == "" {
		return field
	}
	return d.path + "." + field
}

func (d *decoder) object(m map[string]any, field string) map[string]any {
	if d.err != nil {
		return nil
	}
	v, ok := m[field]
	if !ok {
		d.fail(d.fullPath(field), "missing field")
		return nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		d.fail(d.fullPath(field), "expected object")
		return nil
	}
	return obj
}

func (d *decoder) array(m map[string]any, field string) []any {
	if d.err != nil {
		return nil
	}
	v, ok := m[field]
	if !ok {
		d.fail(d.fullPath(field), "missing field")
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		d.fail(d.fullPath(field), "expected array")
		return nil
	}
	return arr
}

func (d *decoder) float(m map[string]any, field string) float64 {
	if d.err != nil {
		return 0
	}
	v, ok := m[field]
	if !ok {
		d.fail(d.fullPath(field), "missing field")
		return 0
	}
	f, ok := v.(float64)
	if !ok {
		d.fail(d.fullPath(field), "expected number")
		return 0
	}
	return f
}

func (d *decoder) int(m map[string]any, field string) int {
	return int(d.float(m, field))
}

func (d *decoder) boolean(m map[string]any, field string) bool {
	if d.err != nil {
		return false
	}
	v, ok := m[field]
	if !ok {
		d.fail(d.fullPath(field), "missing field")
		return false
	}
	b, ok := v.(bool)
	if !ok {
		d.fail(d.fullPath(field), "expected boolean")
		return false
	}
	return b
}

func (d *decoder) str(m map[string]any, field string) string {
	if d.err != nil {
		return ""
	}
	v, ok := m[field]
	if !ok {
		d.fail(d.fullPath(field), "missing field")
		return ""
	}
	s, ok := v.(string)
	if !ok {
		d.fail(d.fullPath(field), "expected string")
		return ""
	}
	return s
}

func (d *decoder) vector(m map[string]any, field string) vec3.Vector3 {
	obj := d.object(m, field)
	if d.err != nil {
		return vec3.Vector3{}
	}
	saved := d.path
	d.path = d.fullPath(field)
	v := vec3.Vector3{X: d.float(obj, "x"), Y: d.float(obj, "y"), Z: d.float(obj, "z")}
	d.path = saved
	return v
}

func (d *decoder) decodePlayer(m map[string]any) PlayerSnapshot {
	saved := d.path
	d.path = "player"
	defer func() { d.path = saved }()
	if m == nil {
		return PlayerSnapshot{}
	}
	return PlayerSnapshot{
		Position:         d.vector(m, "position"),
		Yaw:              d.float(m, "yaw"),
		Pitch:            d.float(m, "pitch"),
		Health:           d.float(m, "health"),
		MaxHealth:        d.float(m, "maxHealth"),
		Stamina:          d.float(m, "stamina"),
		MaxStamina:       d.float(m, "maxStamina"),
		SprintEnabled:    d.boolean(m, "sprintEnabled"),
		OnGround:         d.boolean(m, "onGround"),
		VerticalVelocity: d.float(m, "verticalVelocity"),
	}
}

func (d *decoder) decodeInventory(m map[string]any) InventorySnapshot {
	saved := d.path
	d.path = "inventory"
	defer func() { d.path = saved }()
	if m == nil {
		return InventorySnapshot{}
	}
	var inv InventorySnapshot
	inv.CurrentIndex = d.int(m, "currentIndex")

	slotsField, ok := m["slots"]
	if !ok {
		d.fail(d.fullPath("slots"), "missing field")
		return inv
	}
	slotsArr, ok := slotsField.([]any)
	if !ok {
		d.fail(d.fullPath("slots"), "expected array")
		return inv
	}
	for i, raw := range slotsArr {
		if i >= len(inv.Slots) {
			break
		}
		if raw == nil {
			continue
		}
		slotPath := fmt.Sprintf("slots[%d]", i)
		obj, ok := raw.(map[string]any)
		if !ok {
			d.fail(d.fullPath(slotPath), "expected object or null")
			return inv
		}
		savedPath := d.path
		d.path = d.fullPath(slotPath)
		slot := &WeaponSlotSnapshot{
			Name:        d.str(obj, "name"),
			CurrentAmmo: d.int(obj, "currentAmmo"),
			ReserveAmmo: d.int(obj, "reserveAmmo"),
		}
		d.path = savedPath
		if d.err != nil {
			return inv
		}
		inv.Slots[i] = slot
	}
	return inv
}

func (d *decoder) decodeWave(m map[string]any) WaveSnapshot {
	saved := d.path
	d.path = "wave"
	defer func() { d.path = saved }()
	if m == nil {
		return WaveSnapshot{}
	}
	return WaveSnapshot{
		WaveIndex:              d.int(m, "waveIndex"),
		InPreparation:          d.boolean(m, "inPreparation"),
		PreparationSecondsLeft: d.float(m, "preparationSecondsLeft"),
		TotalZombiesInWave:     d.int(m, "totalZombiesInWave"),
		ZombiesSpawned:         d.int(m, "zombiesSpawned"),
		ZombiesKilled:          d.int(m, "zombiesKilled"),
		GameOver:               d.boolean(m, "gameOver"),
		GameOverReason:         d.str(m, "gameOverReason"),
	}
}

func (d *decoder) decodeZombies(arr []any) []ZombieSnapshot {
	if d.err != nil {
		return nil
	}
	out := make([]ZombieSnapshot, 0, len(arr))
	for i, raw := range arr {
		if d.err != nil {
			return nil
		}
		path := fmt.Sprintf("zombies[%d]", i)
		obj, ok := raw.(map[string]any)
		if !ok {
			d.fail(path, "expected object")
			return nil
		}
		saved := d.path
		d.path = path
		z := ZombieSnapshot{
			ID:       uint64(d.float(obj, "id")),
			Variant:  d.str(obj, "variant"),
			Position: d.vector(obj, "position"),
			Health:   d.float(obj, "health"),
			State:    d.str(obj, "state"),
		}
		d.path = saved
		if d.err != nil {
			return nil
		}
		out = append(out, z)
	}
	return out
}
