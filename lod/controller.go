// Package lod implements the adaptive level-of-detail / performance
// controller: a rolling frame-time sampler with asymmetric hysteresis
// that steps a 3-level quality setting up or down, plus an independent
// per-frame view-frustum cull. The rolling average is computed with
// gonum/stat over the sample window.
package lod

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/zww/core/events"
	"github.com/zww/core/vec3"
)

// Level is one of the three quality tiers.
type Level int

const (
	Low Level = iota
	Medium
	High
)

func (l Level) String() string {
	switch l {
	case Low:
		return "low"
	case Medium:
		return "medium"
	case High:
		return "high"
	default:
		return "unknown"
	}
}

// pixelRatioCapByLevel governs the render resolution cap at each tier.
var pixelRatioCapByLevel = [3]float64{0.6, 0.8, 1.0}

// Tunables bundles the sampler/hysteresis parameters resolved from config.
type Tunables struct {
	TargetFrameSeconds       float64
	DowngradeFrameFactor     float64
	UpgradeFrameFactor       float64
	DowngradeFrameStreak     int
	DowngradeCooldownSeconds float64
	UpgradeCooldownSeconds   float64
	// FarDistancesByLevel[level] is the {near,mid,far} culling-LOD
	// distance triple in effect at that quality level.
	FarDistancesByLevel [3][3]float64
}

// Controller samples frame time, maintains a rolling average via
// gonum/stat, and adaptively steps Level with independent
// downgrade/upgrade cooldowns to prevent oscillation.
type Controller struct {
	tun Tunables

	samples    []float64
	maxSamples int

	level             Level
	downgradeStreak   int
	downgradeCooldown float64
	upgradeCooldown   float64
}

// New constructs a Controller starting at High quality with an empty
// sample window sized to DowngradeFrameStreak (30 frames, half a second
// at the 60 fps target, by default).
func New(tun Tunables) *Controller {
	maxSamples := tun.DowngradeFrameStreak
	if maxSamples < 1 {
		maxSamples = 30
	}
	return &Controller{
		tun:        tun,
		maxSamples: maxSamples,
		level:      High,
	}
}

// recordFrame appends dt to the rolling window, evicting the oldest
// sample once the window is full.
func (c *Controller) recordFrame(dt float64) {
	c.samples = append(c.samples, dt)
	if len(c.samples) > c.maxSamples {
		c.samples = c.samples[1:]
	}
}

// avgFrameSeconds returns the rolling mean frame time via gonum/stat,
// or zero if no samples have been recorded yet.
func (c *Controller) avgFrameSeconds() float64 {
	if len(c.samples) == 0 {
		return 0
	}
	return stat.Mean(c.samples, nil)
}

// Update records one frame's measured duration and evaluates the
// downgrade/upgrade hysteresis. Downgrade requires DowngradeFrameStreak
// consecutive frames with rolling-average frame time above
// DowngradeFrameFactor*target; upgrade requires the rolling average to
// drop below UpgradeFrameFactor*target. Each direction has its own
// cooldown so a single recovered frame cannot immediately re-trigger a
// change.
func (c *Controller) Update(dt float64, bus *events.Bus, tick int64) {
	c.recordFrame(dt)
	avg := c.avgFrameSeconds()

	if c.downgradeCooldown > 0 {
		c.downgradeCooldown -= dt
	}
	if c.upgradeCooldown > 0 {
		c.upgradeCooldown -= dt
	}

	if avg > c.tun.TargetFrameSeconds*c.tun.DowngradeFrameFactor {
		c.downgradeStreak++
	} else {
		c.downgradeStreak = 0
	}

	switch {
	case c.downgradeStreak >= c.tun.DowngradeFrameStreak && c.downgradeCooldown <= 0 && c.level > Low:
		c.level--
		c.downgradeCooldown = c.tun.DowngradeCooldownSeconds
		c.downgradeStreak = 0
		c.publish(bus, tick, true)
	case avg < c.tun.TargetFrameSeconds*c.tun.UpgradeFrameFactor && c.upgradeCooldown <= 0 && c.level < High:
		c.level++
		c.upgradeCooldown = c.tun.UpgradeCooldownSeconds
		c.publish(bus, tick, false)
	}
}

func (c *Controller) publish(bus *events.Bus, tick int64, warn bool) {
	if bus == nil {
		return
	}
	bus.Publish(events.Event{Topic: events.LODQualityChanged, Tick: tick, Data: map[string]any{"level": c.level.String()}})
	if warn {
		bus.Publish(events.Event{Topic: events.LODPerfWarning, Tick: tick, Data: map[string]any{"level": c.level.String()}})
	}
}

// Level returns the current quality tier.
func (c *Controller) Level() Level { return c.level }

// FarDistances returns the {near,mid,far} culling distance triple for the
// current quality level.
func (c *Controller) FarDistances() [3]float64 {
	return c.tun.FarDistancesByLevel[c.level]
}

// PixelRatioCap returns the render-resolution cap for the current level.
func (c *Controller) PixelRatioCap() float64 {
	return pixelRatioCapByLevel[c.level]
}

// Metrics is the read-only diagnostic surface exposed for the HUD.
type Metrics struct {
	Level           Level
	AvgFrameSeconds float64
	FPS             float64
	PixelRatioCap   float64
	FarDistances    [3]float64
}

// Metrics returns a snapshot of the controller's current measurements.
func (c *Controller) Metrics() Metrics {
	avg := c.avgFrameSeconds()
	fps := 0.0
	if avg > 0 {
		fps = 1.0 / avg
	}
	return Metrics{
		Level:           c.level,
		AvgFrameSeconds: avg,
		FPS:             fps,
		PixelRatioCap:   c.PixelRatioCap(),
		FarDistances:    c.FarDistances(),
	}
}

// Frustum is a simple cone-shaped view volume (origin, forward direction,
// half field-of-view, and far clip) used for the independent per-frame
// culling pass.
type Frustum struct {
	Origin  vec3.Vector3
	Forward vec3.Vector3 // must be a unit vector
	HalfFOV float64      // radians
	Far     float64
}

// ContainsSphere reports whether a world-space bounding sphere at center
// with the given radius is at least partially within the frustum: within
// the far clip distance and within the half-FOV cone once the sphere's
// own angular radius is accounted for.
func (f Frustum) ContainsSphere(center vec3.Vector3, radius float64) bool {
	toCenter := center.Sub(f.Origin)
	dist := toCenter.Length()
	if dist-radius > f.Far {
		return false
	}
	if dist <= radius {
		return true
	}
	dir := toCenter.Scale(1 / dist)
	cosAngle := dir.X*f.Forward.X + dir.Y*f.Forward.Y + dir.Z*f.Forward.Z
	if cosAngle > 1 {
		cosAngle = 1
	} else if cosAngle < -1 {
		cosAngle = -1
	}
	angle := math.Acos(cosAngle)
	angularRadius := math.Asin(math.Min(1, radius/dist))
	return angle-angularRadius <= f.HalfFOV
}

// Mesh is the minimal scene-graph projection the cull pass needs: a
// world-space bounding sphere and an opaque handle the renderer owns.
type Mesh struct {
	Center vec3.Vector3
	Radius float64
	Handle any
}

// Cull returns the subset of meshes whose bounding sphere intersects
// the frustum. Culling runs every frame regardless of the quality-level
// stepping above.
func Cull(frustum Frustum, meshes []Mesh) []Mesh {
	visible := make([]Mesh, 0, len(meshes))
	for _, m := range meshes {
		if frustum.ContainsSphere(m.Center, m.Radius) {
			visible = append(visible, m)
		}
	}
	return visible
}
