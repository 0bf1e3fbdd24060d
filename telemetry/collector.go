package telemetry

// Collector accumulates run events within fixed-duration windows and
// produces a WindowStats per window; Flush resets the counters for the
// next window.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float32

	windowStartTick int32

	zombiesSpawned int
	zombiesKilled  int
	shotsFired     int
	shotsHit       int
	damageDealt    float64
	damageTaken    float64
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds.
// dt: seconds per tick (used for tick-to-time conversion).
func NewCollector(windowDurationSec float64, dt float32) *Collector {
	ticksPerWindow := int32(windowDurationSec / float64(dt))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}
	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordShotFired records a weapon:fired event.
func (c *Collector) RecordShotFired() { c.shotsFired++ }

// RecordShotHit records a successful hitscan resolution.
func (c *Collector) RecordShotHit() { c.shotsHit++ }

// RecordZombieSpawned records a zombie:spawned event.
func (c *Collector) RecordZombieSpawned() { c.zombiesSpawned++ }

// RecordZombieKilled records a zombie:died event.
func (c *Collector) RecordZombieKilled() { c.zombiesKilled++ }

// RecordDamageDealt records damage applied to a zombie.
func (c *Collector) RecordDamageDealt(n float64) { c.damageDealt += n }

// RecordDamageTaken records damage applied to the player.
func (c *Collector) RecordDamageTaken(n float64) { c.damageTaken += n }

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, zombiesAlive, waveIndex, score, playerHealthPct int) WindowStats {
	var hitRate float64
	if c.shotsFired > 0 {
		hitRate = float64(c.shotsHit) / float64(c.shotsFired)
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),

		ZombiesAlive: zombiesAlive,
		WaveIndex:    waveIndex,

		ZombiesSpawned: c.zombiesSpawned,
		ZombiesKilled:  c.zombiesKilled,

		ShotsFired: c.shotsFired,
		ShotsHit:   c.shotsHit,
		HitRate:    hitRate,

		DamageDealt: c.damageDealt,
		DamageTaken: c.damageTaken,

		Score:           score,
		PlayerHealthPct: playerHealthPct,
	}

	c.windowStartTick = currentTick
	c.zombiesSpawned = 0
	c.zombiesKilled = 0
	c.shotsFired = 0
	c.shotsHit = 0
	c.damageDealt = 0
	c.damageTaken = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
