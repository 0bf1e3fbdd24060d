// Command zombiesim is the reference host binary: it loads config, wires
// a Controller, and drives it from either a raylib window (input, 3D
// scene, audio) or a headless loop with neither. The simulation core
// behaves identically in both modes since it has no render/audio
// dependency of its own.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/zww/core/clock"
	"github.com/zww/core/config"
	"github.com/zww/core/controller"
	"github.com/zww/core/events"
	"github.com/zww/core/lod"
	"github.com/zww/core/physics"
	"github.com/zww/core/settings"
	"github.com/zww/core/telemetry"
	"github.com/zww/core/vec3"
	"github.com/zww/core/zombie"
)

var (
	headless     = flag.Bool("headless", false, "Run without a window, input, or audio device")
	configPath   = flag.String("config", "", "Path to a YAML config overlay (embedded defaults used if empty)")
	snapshotDir  = flag.String("snapshot-dir", "", "Directory to write telemetry/perf CSVs and config.yaml (disabled if empty)")
	seed         = flag.Int64("seed", 1, "Deterministic RNG seed for zombie spawns and wander jitter")
	maxTicks     = flag.Int("max-ticks", 0, "Stop after N fixed ticks (0 = run forever, useful with -headless)")
	statsWindow  = flag.Float64("stats-window-seconds", 5.0, "Simulation-time width of each telemetry window")
	settingsPath = flag.String("settings", "zombiesim_settings.json", "Path to the persisted user-settings store")
)

// Options selects which host loop drives the simulation.
type Options struct {
	Headless bool
}

const (
	worldHalfExtent = 60.0
	cullHalfFOV     = 0.9 // radians, matches the 70-degree render FOV with margin
)

func main() {
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		slog.Error("zombiesim: config load failed", "err", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	applyUserSettings(cfg)

	out, err := telemetry.NewOutputManager(*snapshotDir)
	if err != nil {
		slog.Error("zombiesim: output manager init failed", "err", err)
		os.Exit(1)
	}
	if out != nil {
		defer out.Close()
		if err := out.WriteConfig(cfg); err != nil {
			slog.Warn("zombiesim: writing config.yaml failed", "err", err)
		}
	}

	opts := Options{Headless: *headless}

	if opts.Headless {
		runHeadless(cfg, out)
		return
	}
	runWindowed(cfg, out)
}

// buildLevel constructs the static arena the reference host uses for
// every run: a bounded square floor ringed by wall obstacles, with spawn
// points distributed along its perimeter.
func buildLevel() ([]physics.Obstacle, []vec3.Vector3) {
	const wallThickness = 1.0
	const wallHeight = 4.0

	obstacles := []physics.Obstacle{
		{Min: vec3.Vector3{X: -worldHalfExtent, Y: -1, Z: -worldHalfExtent}, Max: vec3.Vector3{X: worldHalfExtent, Y: 0, Z: worldHalfExtent}},
		{Min: vec3.Vector3{X: -worldHalfExtent, Y: 0, Z: -worldHalfExtent}, Max: vec3.Vector3{X: worldHalfExtent, Y: wallHeight, Z: -worldHalfExtent + wallThickness}},
		{Min: vec3.Vector3{X: -worldHalfExtent, Y: 0, Z: worldHalfExtent - wallThickness}, Max: vec3.Vector3{X: worldHalfExtent, Y: wallHeight, Z: worldHalfExtent}},
		{Min: vec3.Vector3{X: -worldHalfExtent, Y: 0, Z: -worldHalfExtent}, Max: vec3.Vector3{X: -worldHalfExtent + wallThickness, Y: wallHeight, Z: worldHalfExtent}},
		{Min: vec3.Vector3{X: worldHalfExtent - wallThickness, Y: 0, Z: -worldHalfExtent}, Max: vec3.Vector3{X: worldHalfExtent, Y: wallHeight, Z: worldHalfExtent}},
	}

	spawnPoints := []vec3.Vector3{
		{X: -worldHalfExtent + 5, Z: -worldHalfExtent + 5},
		{X: worldHalfExtent - 5, Z: -worldHalfExtent + 5},
		{X: -worldHalfExtent + 5, Z: worldHalfExtent - 5},
		{X: worldHalfExtent - 5, Z: worldHalfExtent - 5},
		{X: 0, Z: -worldHalfExtent + 5},
		{X: 0, Z: worldHalfExtent - 5},
		{X: -worldHalfExtent + 5, Z: 0},
		{X: worldHalfExtent - 5, Z: 0},
	}
	return obstacles, spawnPoints
}

// noopSink discards every audio call; used in headless mode where no
// device exists.
type noopSink struct{}

func (noopSink) Play2D(string, map[string]any) error                            { return nil }
func (noopSink) Play3D(string, float64, float64, float64, map[string]any) error { return nil }
func (noopSink) Stop(string) error                                              { return nil }
func (noopSink) SetMasterGain(float64)                                          {}

func newController(cfg *config.Config, bus *events.Bus, sink audio3D, obstacles []physics.Obstacle, spawnPoints []vec3.Vector3) *controller.Controller {
	c := controller.New(cfg, bus, controller.Options{
		PlayerStart: vec3.Vector3{X: 0, Y: 0, Z: 0},
		Obstacles:   obstacles,
		SpawnPoints: spawnPoints,
		Seed:        *seed,
		AudioSink:   sink,
	})
	c.StartGame()
	return c
}

// audio3D is the host's local name for the audio.Sink contract, avoiding
// an import of the audio package here (the Controller already owns its
// Audio Director; the host only ever constructs a Sink implementation).
type audio3D interface {
	Play2D(id string, opts map[string]any) error
	Play3D(id string, x, y, z float64, opts map[string]any) error
	Stop(id string) error
	SetMasterGain(gain float64)
}

// statsTracker wires a telemetry.Collector to the event bus so that run
// stats accumulate from the same published events the Audio Director and
// HUD react to.
type statsTracker struct {
	collector *telemetry.Collector
	out       *telemetry.OutputManager
}

func newStatsTracker(cfg *config.Config, bus *events.Bus, out *telemetry.OutputManager) *statsTracker {
	t := &statsTracker{
		collector: telemetry.NewCollector(*statsWindow, float32(cfg.Physics.FixedStep)),
		out:       out,
	}
	bus.Subscribe(events.WeaponFired, func(events.Event) { t.collector.RecordShotFired() })
	bus.Subscribe(events.ZombieDamaged, func(ev events.Event) {
		t.collector.RecordShotHit()
		if amount, ok := ev.Data["amount"].(float64); ok {
			t.collector.RecordDamageDealt(amount)
		}
	})
	bus.Subscribe(events.ZombieSpawned, func(events.Event) { t.collector.RecordZombieSpawned() })
	bus.Subscribe(events.ZombieDied, func(events.Event) { t.collector.RecordZombieKilled() })
	bus.Subscribe(events.PlayerDamaged, func(ev events.Event) {
		if amount, ok := ev.Data["amount"].(float64); ok {
			t.collector.RecordDamageTaken(amount)
		}
	})
	return t
}

// maybeFlush writes an aggregated WindowStats record, and the controller's
// current PerfStats, once the collector's window has elapsed.
func (t *statsTracker) maybeFlush(tick int64, ctrl *controller.Controller) {
	if t.out == nil {
		return
	}
	if !t.collector.ShouldFlush(int32(tick)) {
		return
	}
	hud := ctrl.HUD()
	zombiesAlive := hud.TotalZombiesInWave - hud.ZombiesKilled
	if zombiesAlive < 0 {
		zombiesAlive = 0
	}
	healthPct := 0
	if hud.MaxHealth > 0 {
		healthPct = int(hud.Health / hud.MaxHealth * 100)
	}
	stats := t.collector.Flush(int32(tick), zombiesAlive, hud.CurrentWave, hud.Score, healthPct)
	if err := t.out.WriteTelemetry(stats); err != nil {
		slog.Warn("zombiesim: telemetry write failed", "err", err)
	}
	if err := t.out.WritePerf(ctrl.PerfStats(), int32(tick)); err != nil {
		slog.Warn("zombiesim: perf write failed", "err", err)
	}
}

func runHeadless(cfg *config.Config, out *telemetry.OutputManager) {
	bus := events.NewBus()
	obstacles, spawnPoints := buildLevel()
	ctrl := newController(cfg, bus, noopSink{}, obstacles, spawnPoints)
	stats := newStatsTracker(cfg, bus, out)

	loop := clock.NewLoop(cfg.Physics.FixedStep, cfg.Physics.MaxFrameDelta, cfg.Physics.MaxFixedStepsPerFrame)
	loop.Start()

	tick := int64(0)
	for *maxTicks == 0 || int(tick) < *maxTicks {
		loop.Advance(cfg.Physics.FixedStep, func(dt float64) {
			ctrl.FixedUpdate(dt)
			tick = ctrl.Tick()
			stats.maybeFlush(tick, ctrl)
		}, func(delta, alpha float64) {
			ctrl.PresentUpdate(delta)
		})
	}
}

func runWindowed(cfg *config.Config, out *telemetry.OutputManager) {
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Zombie Wave Walker")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))
	rl.InitAudioDevice()
	defer rl.CloseAudioDevice()
	rl.DisableCursor()

	bus := events.NewBus()
	sink := &raylibSink{}
	sink.SetMasterGain(cfg.Settings.MasterVolume / 100)
	obstacles, spawnPoints := buildLevel()
	ctrl := newController(cfg, bus, sink, obstacles, spawnPoints)
	stats := newStatsTracker(cfg, bus, out)

	loop := clock.NewLoop(cfg.Physics.FixedStep, cfg.Physics.MaxFrameDelta, cfg.Physics.MaxFixedStepsPerFrame)
	loop.Start()

	lastFrame := time.Now()
	var tick int64
	for !rl.WindowShouldClose() && (*maxTicks == 0 || int(tick) < *maxTicks) {
		now := time.Now()
		delta := now.Sub(lastFrame).Seconds()
		lastFrame = now

		pollInput(ctrl)

		if rl.IsKeyPressed(rl.KeyP) {
			togglePause(ctrl)
		}

		loop.Advance(delta, func(dt float64) {
			ctrl.FixedUpdate(dt)
			tick = ctrl.Tick()
			stats.maybeFlush(tick, ctrl)
		}, func(delta, alpha float64) {
			ctrl.PresentUpdate(delta)
		})

		drawScene(ctrl, obstacles)
	}
}

var paused bool

func togglePause(ctrl *controller.Controller) {
	paused = !paused
	if paused {
		ctrl.Pause()
	} else {
		ctrl.Resume()
	}
}

// pollInput feeds the frame's device events into the shared input.State
// the Controller reads from each fixed update.
func pollInput(ctrl *controller.Controller) {
	in := ctrl.Input()

	var x, z float64
	if rl.IsKeyDown(rl.KeyW) {
		z++
	}
	if rl.IsKeyDown(rl.KeyS) {
		z--
	}
	if rl.IsKeyDown(rl.KeyD) {
		x++
	}
	if rl.IsKeyDown(rl.KeyA) {
		x--
	}
	in.SetAxis(x, z)

	mouseDelta := rl.GetMouseDelta()
	in.AddPointerDelta(float64(mouseDelta.X), float64(mouseDelta.Y))

	wheel := rl.GetMouseWheelMove()
	if wheel != 0 {
		in.AddWheelDelta(float64(wheel))
	}

	if rl.IsMouseButtonDown(rl.MouseLeftButton) {
		in.PressFire()
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		in.PressJump()
	}
	if rl.IsKeyPressed(rl.KeyR) {
		in.PressReload()
	}
	in.SetSprintHeld(rl.IsKeyDown(rl.KeyLeftShift))

	for n, key := range []int32{rl.KeyOne, rl.KeyTwo, rl.KeyThree, rl.KeyFour} {
		if rl.IsKeyPressed(key) {
			in.PressSlot(n)
		}
	}
}

// drawScene submits the current frame's 3D scene and HUD overlay. The
// geometry is primitive placeholder content (cubes and boxes); the real
// asset pipeline is a pluggable concern out of the simulation core's
// scope, but the camera pose and frustum cull are the live ones.
func drawScene(ctrl *controller.Controller, obstacles []physics.Obstacle) {
	rl.BeginDrawing()
	rl.ClearBackground(rl.NewColor(20, 20, 28, 255))

	eye := ctrl.Cam.EyePosition()
	fwd := ctrl.Cam.Forward()
	cam := rl.Camera3D{
		Position:   rl.NewVector3(float32(eye.X), float32(eye.Y), float32(eye.Z)),
		Target:     rl.NewVector3(float32(eye.X+fwd.X), float32(eye.Y+fwd.Y), float32(eye.Z+fwd.Z)),
		Up:         rl.NewVector3(0, 1, 0),
		Fovy:       70,
		Projection: rl.CameraPerspective,
	}

	rl.BeginMode3D(cam)
	rl.DrawGrid(int32(worldHalfExtent/5)*2, 5.0)

	far := ctrl.LOD.FarDistances()[2]
	for _, m := range ctrl.Cull(sceneMeshes(ctrl, obstacles), cullHalfFOV, far) {
		drawMesh(m)
	}
	rl.EndMode3D()

	drawHUD(ctrl)
	rl.EndDrawing()
}

// sceneMeshes projects the live simulation into the cull pass's bounding
// spheres: one per zombie, one per static obstacle.
func sceneMeshes(ctrl *controller.Controller, obstacles []physics.Obstacle) []lod.Mesh {
	zs := ctrl.Zombies.Snapshot()
	meshes := make([]lod.Mesh, 0, len(zs)+len(obstacles))
	for _, z := range zs {
		center := z.Position
		center.Y += 0.9
		meshes = append(meshes, lod.Mesh{Center: center, Radius: 1.0, Handle: z})
	}
	for _, o := range obstacles {
		center := o.Min.Add(o.Max).Scale(0.5)
		radius := o.Max.Sub(o.Min).Length() / 2
		meshes = append(meshes, lod.Mesh{Center: center, Radius: radius, Handle: o})
	}
	return meshes
}

func drawMesh(m lod.Mesh) {
	switch h := m.Handle.(type) {
	case zombie.ZombieState:
		color := rl.Maroon
		switch {
		case h.State == zombie.Dying:
			color = rl.DarkGray
		case h.Variant == zombie.Runner:
			color = rl.Orange
		case h.Variant == zombie.Brute:
			color = rl.DarkPurple
		case h.Variant == zombie.Crawler:
			color = rl.Brown
		}
		rl.DrawCube(rl.NewVector3(float32(h.Position.X), float32(h.Position.Y)+0.9, float32(h.Position.Z)), 0.8, 1.8, 0.8, color)
	case physics.Obstacle:
		center := h.Min.Add(h.Max).Scale(0.5)
		size := h.Max.Sub(h.Min)
		rl.DrawCubeWires(rl.NewVector3(float32(center.X), float32(center.Y), float32(center.Z)),
			float32(size.X), float32(size.Y), float32(size.Z), rl.Gray)
	}
}

// applyUserSettings overlays the persisted user settings (sensitivity and
// volumes) onto the resolved config before any subsystem reads it. An
// unreadable store falls back to the config defaults.
func applyUserSettings(cfg *config.Config) {
	store := fileKV{path: *settingsPath}
	s, err := settings.Load(store, cfg)
	if err != nil {
		slog.Warn("zombiesim: stored settings unreadable, using defaults", "err", err)
		s = settings.Defaults(cfg)
	}
	cfg.Settings.MouseSensitivity = s.MouseSensitivity
	cfg.Settings.MasterVolume = s.MasterVolume
	cfg.Settings.MusicVolume = s.MusicVolume
	cfg.Settings.SFXVolume = s.SFXVolume
}

// fileKV is a minimal file-backed settings.KVStore: one JSON object per
// file, one entry per key.
type fileKV struct{ path string }

func (f fileKV) Get(key string) (string, bool) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return "", false
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return "", false
	}
	v, ok := m[key]
	return v, ok
}

func (f fileKV) Set(key, value string) error {
	m := map[string]string{}
	if data, err := os.ReadFile(f.path); err == nil {
		if err := json.Unmarshal(data, &m); err != nil {
			m = map[string]string{}
		}
	}
	m[key] = value
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0644)
}

func drawHUD(ctrl *controller.Controller) {
	hud := ctrl.HUD()
	rl.DrawText(fmt.Sprintf("HP %.0f/%.0f", hud.Health, hud.MaxHealth), 20, 20, 20, rl.White)
	rl.DrawText(fmt.Sprintf("Stamina %.0f/%.0f", hud.Stamina, hud.MaxStamina), 20, 44, 20, rl.White)
	rl.DrawText(fmt.Sprintf("%s %d/%d (+%d)", hud.CurrentWeaponName, hud.CurrentAmmo, hud.MagazineSize, hud.ReserveAmmo), 20, 68, 20, rl.White)
	if hud.IsReloading {
		rl.DrawText("Reloading...", 20, 92, 20, rl.Yellow)
	}
	wave := fmt.Sprintf("Wave %d  Killed %d/%d  Score %d", hud.CurrentWave, hud.ZombiesKilled, hud.TotalZombiesInWave, hud.Score)
	rl.DrawText(wave, 20, 116, 20, rl.White)
	if hud.IsPreparationPhase {
		rl.DrawText(fmt.Sprintf("Next wave in %.1fs", hud.PreparationTimeLeft), 20, 140, 20, rl.Green)
	}

	drawPauseOverlay(ctrl)
}

// drawPauseOverlay is the one raygui surface in this binary: a button
// driving the pause/resume transition.
func drawPauseOverlay(ctrl *controller.Controller) {
	if !paused {
		return
	}
	w, h := rl.GetScreenWidth(), rl.GetScreenHeight()
	rl.DrawRectangle(int32(w/2-100), int32(h/2-40), 200, 80, rl.NewColor(0, 0, 0, 180))
	rl.DrawText("Paused", int32(w/2-40), int32(h/2-35), 20, rl.White)
	if gui.Button(rl.Rectangle{X: float32(w/2 - 70), Y: float32(h/2 - 5), Width: 140, Height: 30}, "Resume") {
		togglePause(ctrl)
	}
}

// raylibSink implements the host's audio.Sink contract over raylib's
// audio device. Samples are expected to be preloaded into sounds by the
// host's asset pipeline; an unrecognized id is a silent no-op rather
// than a fault since missing audio assets must never stall the
// simulation.
type raylibSink struct {
	sounds map[string]rl.Sound
}

func (s *raylibSink) Play2D(id string, opts map[string]any) error {
	if snd, ok := s.lookup(id); ok {
		rl.PlaySound(snd)
	}
	return nil
}

func (s *raylibSink) Play3D(id string, x, y, z float64, opts map[string]any) error {
	// Positional attenuation is left to a full scene-graph mixer; the
	// reference host plays the cue at full volume as a simplification.
	return s.Play2D(id, opts)
}

func (s *raylibSink) Stop(id string) error {
	if snd, ok := s.lookup(id); ok {
		rl.StopSound(snd)
	}
	return nil
}

func (s *raylibSink) SetMasterGain(gain float64) {
	rl.SetMasterVolume(float32(gain))
}

func (s *raylibSink) lookup(id string) (rl.Sound, bool) {
	if s.sounds == nil {
		return rl.Sound{}, false
	}
	snd, ok := s.sounds[id]
	return snd, ok
}
