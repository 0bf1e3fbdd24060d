// Package telemetry provides windowed run statistics and per-tick
// performance timing, exported to CSV via gocarina/gocsv. The counters
// cover what a run actually produces: kills, spawns, damage, shots,
// score, and wave progression.
package telemetry

import (
	"log/slog"
)

// WindowStats holds aggregated run statistics for one reporting window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	ZombiesAlive int `csv:"zombies_alive"`
	WaveIndex    int `csv:"wave_index"`

	ZombiesSpawned int `csv:"zombies_spawned"`
	ZombiesKilled  int `csv:"zombies_killed"`

	ShotsFired int     `csv:"shots_fired"`
	ShotsHit   int     `csv:"shots_hit"`
	HitRate    float64 `csv:"hit_rate"`

	DamageDealt float64 `csv:"damage_dealt"`
	DamageTaken float64 `csv:"damage_taken"`

	Score           int `csv:"score"`
	PlayerHealthPct int `csv:"player_health_pct"`
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("zombies_alive", s.ZombiesAlive),
		slog.Int("wave_index", s.WaveIndex),
		slog.Int("zombies_spawned", s.ZombiesSpawned),
		slog.Int("zombies_killed", s.ZombiesKilled),
		slog.Int("shots_fired", s.ShotsFired),
		slog.Int("shots_hit", s.ShotsHit),
		slog.Float64("hit_rate", s.HitRate),
		slog.Float64("damage_dealt", s.DamageDealt),
		slog.Float64("damage_taken", s.DamageTaken),
		slog.Int("score", s.Score),
		slog.Int("player_health_pct", s.PlayerHealthPct),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window_stats", s)
}
