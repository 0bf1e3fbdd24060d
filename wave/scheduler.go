// Package wave implements the wave scheduler: preparation/active phase
// alternation, spawn cadence, zombie-variant distribution, the score
// ledger, and the game-over latch. The scheduler receives only a
// read-only PlayerProbe and a narrow Spawner projection, never the
// player or the zombie manager themselves.
package wave

import (
	"math/rand"

	"github.com/zww/core/events"
	"github.com/zww/core/vec3"
	"github.com/zww/core/zombie"
)

// Reason identifies why the game ended.
type Reason string

// ReasonPlayerDeath ends the game when the player's health reaches zero.
const ReasonPlayerDeath Reason = "player_death"

// State is the wave scheduler's public, serializable state.
type State struct {
	WaveIndex              int
	InPreparation          bool
	PreparationSecondsLeft float64

	TotalZombiesInWave int
	ZombiesSpawned     int
	ZombiesKilled      int

	Score           int
	PlayTimeSeconds float64

	GameOver       bool
	GameOverReason Reason
}

// Tunables bundles wave-pacing and scoring constants resolved from config.
type Tunables struct {
	PreparationSeconds         float64
	SpawnIntervalSeconds       float64
	BaseZombies                int
	ZombiesPerWave             int
	MinSpawnDistanceFromPlayer float64
	ScorePerKillPerWave        int
	WaveEndBonusPerWave        int
}

// PlayerProbe is the minimal read-only projection of the player the
// scheduler needs: whether the game should end.
type PlayerProbe interface {
	IsDead() bool
}

// Spawner is the minimal projection of the zombie manager the scheduler
// needs to place a new zombie; it does not see the rest of the
// population.
type Spawner interface {
	Spawn(position vec3.Vector3, variant zombie.Variant) zombie.ID
}

// Scheduler owns WaveState and drives the preparation/active state
// machine.
type Scheduler struct {
	State State

	tun         Tunables
	spawnPoints []vec3.Vector3
	rnd         *rand.Rand
	bus         *events.Bus

	spawnTimer float64
}

// NewScheduler constructs a Scheduler over the given static spawn-point
// candidates. bus is retained so the scheduler can subscribe itself to
// zombie:died for scoring and publish its own events from Update.
func NewScheduler(tun Tunables, spawnPoints []vec3.Vector3, seed int64, bus *events.Bus) *Scheduler {
	s := &Scheduler{
		tun:         tun,
		spawnPoints: spawnPoints,
		rnd:         rand.New(rand.NewSource(seed)),
		bus:         bus,
	}
	if bus != nil {
		bus.Subscribe(events.ZombieDied, s.handleZombieDied)
	}
	return s
}

// totalForWave returns the wave's population from the configured
// base/per-wave constants (10 + 5*wave at defaults).
func (s *Scheduler) totalForWave(wave int) int {
	return s.tun.BaseZombies + s.tun.ZombiesPerWave*wave
}

// StartGame resets all counters and enters preparation for wave 1.
func (s *Scheduler) StartGame(tick int64) {
	s.State = State{
		WaveIndex:              1,
		InPreparation:          true,
		PreparationSecondsLeft: s.tun.PreparationSeconds,
		TotalZombiesInWave:     s.totalForWave(1),
	}
	s.spawnTimer = 0
	s.publish(events.WavePrepStarted, tick, nil)
}

func (s *Scheduler) publish(topic events.Topic, tick int64, data map[string]any) {
	if s.bus != nil {
		s.bus.Publish(events.Event{Topic: topic, Tick: tick, Data: data})
	}
}

// handleZombieDied is the bus subscription that credits each kill
// during an active wave at the per-kill rate times the wave index. No
// score accrues during preparation or after game-over.
func (s *Scheduler) handleZombieDied(ev events.Event) {
	if s.State.GameOver || s.State.InPreparation {
		return
	}
	s.State.ZombiesKilled++
	s.State.Score += s.tun.ScorePerKillPerWave * s.State.WaveIndex
	s.publish(events.WaveScoreChanged, ev.Tick, map[string]any{"score": s.State.Score})
}

// Update advances the scheduler by dt: play-time accrual, the
// game-over latch check, the preparation countdown, and (while active)
// spawn pacing and the wave-end transition.
func (s *Scheduler) Update(dt float64, playerPos vec3.Vector3, player PlayerProbe, spawner Spawner, tick int64) {
	if s.State.GameOver {
		return
	}

	s.State.PlayTimeSeconds += dt

	if player != nil && player.IsDead() {
		s.State.GameOver = true
		s.State.GameOverReason = ReasonPlayerDeath
		s.publish(events.WaveGameOver, tick, map[string]any{
			"reason": s.State.GameOverReason,
			"score":  s.State.Score,
		})
		return
	}

	if s.State.InPreparation {
		s.State.PreparationSecondsLeft -= dt
		if s.State.PreparationSecondsLeft <= 0 {
			s.State.PreparationSecondsLeft = 0
			s.State.InPreparation = false
			s.spawnTimer = 0
			s.publish(events.WavePrepEnd, tick, nil)
			s.publish(events.WaveStarted, tick, map[string]any{"wave": s.State.WaveIndex})
		}
		return
	}

	s.spawnTimer += dt
	for s.spawnTimer >= s.tun.SpawnIntervalSeconds && s.State.ZombiesSpawned < s.State.TotalZombiesInWave {
		point := s.choosePoint(playerPos)
		variant := s.chooseVariant()
		if spawner != nil {
			spawner.Spawn(point, variant)
		}
		s.spawnTimer -= s.tun.SpawnIntervalSeconds
		s.State.ZombiesSpawned++
	}

	if s.State.ZombiesKilled >= s.State.TotalZombiesInWave {
		bonus := s.tun.WaveEndBonusPerWave * s.State.WaveIndex
		s.State.Score += bonus
		s.publish(events.WaveScoreChanged, tick, map[string]any{"score": s.State.Score})
		s.publish(events.WaveEnded, tick, map[string]any{"wave": s.State.WaveIndex, "bonus": bonus})

		s.State.WaveIndex++
		s.State.TotalZombiesInWave = s.totalForWave(s.State.WaveIndex)
		s.State.ZombiesSpawned = 0
		s.State.ZombiesKilled = 0
		s.State.InPreparation = true
		s.State.PreparationSecondsLeft = s.tun.PreparationSeconds
		s.publish(events.WavePrepStarted, tick, map[string]any{"wave": s.State.WaveIndex})
	}
}

// choosePoint picks a spawn point at least MinSpawnDistanceFromPlayer
// away, uniformly at random; falls back to uniform over all candidates
// if none qualify.
func (s *Scheduler) choosePoint(playerPos vec3.Vector3) vec3.Vector3 {
	if len(s.spawnPoints) == 0 {
		return vec3.Zero
	}
	candidates := make([]vec3.Vector3, 0, len(s.spawnPoints))
	for _, p := range s.spawnPoints {
		if p.DistanceXZ(playerPos) >= s.tun.MinSpawnDistanceFromPlayer {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		candidates = s.spawnPoints
	}
	return candidates[s.rnd.Intn(len(candidates))]
}

// chooseVariant rolls a zombie variant from the wave-banded weight
// table: early waves are mostly walkers, later waves shift weight
// toward runners, crawlers, and brutes.
func (s *Scheduler) chooseVariant() zombie.Variant {
	w := s.State.WaveIndex
	var walker, runner, crawler float64
	switch {
	case w <= 4:
		walker, runner, crawler = 0.60, 0.25, 0.10
	case w <= 9:
		walker, runner, crawler = 0.40, 0.30, 0.20
	default:
		walker, runner, crawler = 0.30, 0.30, 0.20
	}

	r := s.rnd.Float64()
	switch {
	case r < walker:
		return zombie.Walker
	case r < walker+runner:
		return zombie.Runner
	case r < walker+runner+crawler:
		return zombie.Crawler
	default:
		return zombie.Brute
	}
}
