// Package input aggregates per-frame device events into the per-tick
// query surface the Controller reads from. The host pushes edges
// and deltas via the setter methods; the Controller reads via the query
// methods once per fixed update, then calls EndFrame to reset transients.
package input

// State aggregates device input for one tick.
type State struct {
	axisX, axisZ         float64 // strafe, forward/back
	pointerDX, pointerDY float64
	wheelDelta           float64

	fireEdge, jumpEdge, reloadEdge bool
	slotEdge                       [4]bool
	wheelUpEdge, wheelDownEdge     bool

	sprintHeld bool
}

// New constructs an empty input State.
func New() *State {
	return &State{}
}

// SetAxis sets the per-tick movement axis (x: strafe, z: forward/back).
func (s *State) SetAxis(x, z float64) {
	s.axisX, s.axisZ = x, z
}

// Axis returns the current movement axis.
func (s *State) Axis() (x, z float64) {
	return s.axisX, s.axisZ
}

// AddPointerDelta accumulates raw pointer motion since the last EndFrame.
func (s *State) AddPointerDelta(dx, dy float64) {
	s.pointerDX += dx
	s.pointerDY += dy
}

// PointerDelta returns the accumulated pointer delta for this tick.
func (s *State) PointerDelta() (dx, dy float64) {
	return s.pointerDX, s.pointerDY
}

// AddWheelDelta accumulates wheel motion, setting edge predicates for the
// direction of travel.
func (s *State) AddWheelDelta(delta float64) {
	s.wheelDelta += delta
	if delta > 0 {
		s.wheelUpEdge = true
	} else if delta < 0 {
		s.wheelDownEdge = true
	}
}

// PressFire marks a fire-button edge for this tick.
func (s *State) PressFire() { s.fireEdge = true }

// PressJump marks a jump-button edge for this tick.
func (s *State) PressJump() { s.jumpEdge = true }

// PressReload marks a reload-button edge for this tick.
func (s *State) PressReload() { s.reloadEdge = true }

// PressSlot marks a weapon-slot-select edge for slot n (0-3).
func (s *State) PressSlot(n int) {
	if n >= 0 && n < len(s.slotEdge) {
		s.slotEdge[n] = true
	}
}

// SetSprintHeld sets the level-triggered sprint-request predicate.
func (s *State) SetSprintHeld(held bool) { s.sprintHeld = held }

// WantsToFire reports whether fire was pressed this tick.
func (s *State) WantsToFire() bool { return s.fireEdge }

// WantsToJump reports whether jump was pressed this tick.
func (s *State) WantsToJump() bool { return s.jumpEdge }

// WantsToReload reports whether reload was pressed this tick.
func (s *State) WantsToReload() bool { return s.reloadEdge }

// WantsToSprint is the level predicate for sustained sprint input.
func (s *State) WantsToSprint() bool { return s.sprintHeld }

// WantsSlot reports whether slot n (0-3) was selected this tick.
func (s *State) WantsSlot(n int) bool {
	if n < 0 || n >= len(s.slotEdge) {
		return false
	}
	return s.slotEdge[n]
}

// WheelUp / WheelDown report wheel-cycle edges this tick.
func (s *State) WheelUp() bool   { return s.wheelUpEdge }
func (s *State) WheelDown() bool { return s.wheelDownEdge }

// EndFrame resets all transient edges and the pointer/wheel accumulators
// while leaving level-triggered state (sprintHeld) intact. Called once by
// the Controller after each fixedUpdate.
func (s *State) EndFrame() {
	s.pointerDX, s.pointerDY = 0, 0
	s.wheelDelta = 0
	s.fireEdge, s.jumpEdge, s.reloadEdge = false, false, false
	s.wheelUpEdge, s.wheelDownEdge = false, false
	for i := range s.slotEdge {
		s.slotEdge[i] = false
	}
}
