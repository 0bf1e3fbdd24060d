// Package physics implements the narrow synchronous probe over the static
// world mesh set: ground detection and wall collision resolution. The
// probe only ever sees static obstacles; dynamic entities (zombies, the
// player) are excluded by construction.
package physics

import "github.com/zww/core/vec3"

// Obstacle is a static, axis-aligned bounding box obstacle in world space.
// The probe's world is a set of these meshes; it never tests against
// dynamic entities (zombies, the player).
type Obstacle struct {
	Min, Max vec3.Vector3
}

// contains reports whether p lies within the obstacle's bounds.
func (o Obstacle) contains(p vec3.Vector3) bool {
	return p.X >= o.Min.X && p.X <= o.Max.X &&
		p.Y >= o.Min.Y && p.Y <= o.Max.Y &&
		p.Z >= o.Min.Z && p.Z <= o.Max.Z
}

// topY returns the obstacle's top surface height if (x,z) falls within
// its footprint, else ok=false.
func (o Obstacle) topY(x, z float64) (y float64, ok bool) {
	if x >= o.Min.X && x <= o.Max.X && z >= o.Min.Z && z <= o.Max.Z {
		return o.Max.Y, true
	}
	return 0, false
}

// Probe holds the static occlusion set the simulation resolves player
// motion against.
type Probe struct {
	obstacles           []Obstacle
	groundCheckDistance float64
	playerRadius        float64
	wallSlideFactor     float64
}

// Options configures probe distances from resolved config values.
type Options struct {
	GroundCheckDistance float64
	PlayerRadius        float64
	WallSlideFactor     float64
}

// New constructs a Probe over the given static obstacle set.
func New(obstacles []Obstacle, opts Options) *Probe {
	return &Probe{
		obstacles:           obstacles,
		groundCheckDistance: opts.GroundCheckDistance,
		playerRadius:        opts.PlayerRadius,
		wallSlideFactor:     opts.WallSlideFactor,
	}
}

// defaultGroundY is the default ground plane height when no obstacle
// surface is found within range.
const defaultGroundY = 0.0

// CheckGround casts a downward ray from pos and returns the top surface Y
// if a surface lies within GroundCheckDistance of the player's feet, else
// the default ground plane.
func (p *Probe) CheckGround(pos vec3.Vector3) float64 {
	best := defaultGroundY
	found := false
	for _, o := range p.obstacles {
		surfaceY, ok := o.topY(pos.X, pos.Z)
		if !ok || surfaceY > pos.Y {
			continue
		}
		if pos.Y-surfaceY > p.groundCheckDistance {
			continue
		}
		if !found || surfaceY > best {
			best = surfaceY
			found = true
		}
	}
	if !found {
		return defaultGroundY
	}
	return best
}

// ResolveHorizontal adjusts a desired horizontal displacement against the
// static obstacle set: if the target point pos+desired lies within
// PlayerRadius of an obstacle's footprint (see penetrates), the
// displacement is projected onto the wall plane (slide) and scaled by
// WallSlideFactor; the y component is zeroed. Only the target point is
// tested; there is no look-ahead beyond the desired displacement.
func (p *Probe) ResolveHorizontal(pos vec3.Vector3, desired vec3.Vector3) vec3.Vector3 {
	desired.Y = 0
	target := pos.Add(desired)

	for _, o := range p.obstacles {
		if !p.penetrates(target, o) {
			continue
		}
		// Slide: zero whichever axis penetrates, keep the other.
		slid := desired
		probeX := vec3.Vector3{X: pos.X + desired.X, Y: pos.Y, Z: pos.Z}
		probeZ := vec3.Vector3{X: pos.X, Y: pos.Y, Z: pos.Z + desired.Z}
		if p.penetrates(probeX, o) {
			slid.X = 0
		}
		if p.penetrates(probeZ, o) {
			slid.Z = 0
		}
		slid = slid.Scale(p.wallSlideFactor)
		slid.Y = 0
		return slid
	}
	return desired
}

// penetrates reports whether a point within PlayerRadius of pos would
// overlap obstacle o.
func (p *Probe) penetrates(pos vec3.Vector3, o Obstacle) bool {
	expanded := Obstacle{
		Min: vec3.Vector3{X: o.Min.X - p.playerRadius, Y: o.Min.Y, Z: o.Min.Z - p.playerRadius},
		Max: vec3.Vector3{X: o.Max.X + p.playerRadius, Y: o.Max.Y, Z: o.Max.Z + p.playerRadius},
	}
	return expanded.contains(pos)
}

// IsPositionValid samples four cardinal directions at PlayerRadius from
// pos and reports true iff none penetrates an obstacle.
func (p *Probe) IsPositionValid(pos vec3.Vector3) bool {
	offsets := []vec3.Vector3{
		{X: p.playerRadius},
		{X: -p.playerRadius},
		{Z: p.playerRadius},
		{Z: -p.playerRadius},
	}
	for _, off := range offsets {
		sample := pos.Add(off)
		for _, o := range p.obstacles {
			if o.contains(sample) {
				return false
			}
		}
	}
	return true
}
