// Package camera provides the first-person view: a yaw/pitch
// orientation anchored to the player's position that exposes an aim ray
// for weapon hitscan and raycast resolution, and a forward vector the
// LOD controller's view frustum is built from. The camera holds no
// simulation state of its own.
package camera

import (
	"math"

	"github.com/zww/core/vec3"
)

const (
	// MinPitch/MaxPitch bound vertical look to just short of straight up
	// or down, preventing gimbal-lock artifacts in the derived forward
	// vector.
	MinPitch = -math.Pi/2 + 0.01
	MaxPitch = math.Pi/2 - 0.01
)

// Camera tracks the player's eye position and look orientation and
// derives the forward/right basis vectors and aim ray from it every
// tick; it holds no simulation state of its own.
type Camera struct {
	EyeHeight float64

	position vec3.Vector3
	yaw      float64
	pitch    float64
}

// New creates a camera at the origin, looking down +Z, with the given
// eye-height offset above the tracked player position.
func New(eyeHeight float64) *Camera {
	return &Camera{EyeHeight: eyeHeight}
}

// SetOrientation sets yaw (radians, 0 = +Z, positive = turning toward
// +X) and pitch (radians, clamped to [MinPitch, MaxPitch]).
func (c *Camera) SetOrientation(yaw, pitch float64) {
	c.yaw = wrapAngle(yaw)
	c.pitch = clamp(pitch, MinPitch, MaxPitch)
}

// Rotate adds dYaw/dPitch to the current orientation, clamping pitch.
func (c *Camera) Rotate(dYaw, dPitch float64) {
	c.SetOrientation(c.yaw+dYaw, c.pitch+dPitch)
}

// SetPosition places the camera's eye above the player's feet position
// at feet.Y + EyeHeight.
func (c *Camera) SetPosition(feet vec3.Vector3) {
	c.position = vec3.Vector3{X: feet.X, Y: feet.Y + c.EyeHeight, Z: feet.Z}
}

// Yaw returns the current yaw in radians.
func (c *Camera) Yaw() float64 { return c.yaw }

// Pitch returns the current pitch in radians.
func (c *Camera) Pitch() float64 { return c.pitch }

// EyePosition returns the camera's world-space eye position.
func (c *Camera) EyePosition() vec3.Vector3 { return c.position }

// Forward returns the unit forward direction derived from yaw/pitch.
// Yaw 0 with pitch 0 points down +Z, matching the zombie package's
// math.Atan2(dx, dz) facing convention.
func (c *Camera) Forward() vec3.Vector3 {
	cosPitch := math.Cos(c.pitch)
	return vec3.Vector3{
		X: math.Sin(c.yaw) * cosPitch,
		Y: math.Sin(c.pitch),
		Z: math.Cos(c.yaw) * cosPitch,
	}
}

// Right returns the unit right direction (perpendicular to Forward on
// the horizontal plane).
func (c *Camera) Right() vec3.Vector3 {
	return vec3.Vector3{
		X: math.Sin(c.yaw + math.Pi/2),
		Z: math.Cos(c.yaw + math.Pi/2),
	}
}

// AimRay returns the eye-space ray used for weapon hitscan resolution
// and zombie raycast queries.
func (c *Camera) AimRay() (origin, direction vec3.Vector3) {
	return c.position, c.Forward()
}

// wrapAngle normalizes an angle to (-pi, pi], matching the zombie
// package's atan2-derived heading convention.
func wrapAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// clamp restricts a value to a range.
func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
