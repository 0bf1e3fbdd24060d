package input

import "testing"

func TestEndFrameResetsEdgesButKeepsHeld(t *testing.T) {
	s := New()
	s.PressFire()
	s.PressJump()
	s.PressSlot(2)
	s.AddPointerDelta(3, 4)
	s.AddWheelDelta(1)
	s.SetSprintHeld(true)

	if !s.WantsToFire() || !s.WantsToJump() || !s.WantsSlot(2) || !s.WheelUp() {
		t.Fatal("edges not set before EndFrame")
	}

	s.EndFrame()

	if s.WantsToFire() || s.WantsToJump() || s.WantsSlot(2) || s.WheelUp() || s.WheelDown() {
		t.Error("edges not cleared by EndFrame")
	}
	dx, dy := s.PointerDelta()
	if dx != 0 || dy != 0 {
		t.Errorf("pointer delta = (%v,%v), want (0,0) after EndFrame", dx, dy)
	}
	if !s.WantsToSprint() {
		t.Error("held sprint input cleared by EndFrame, want preserved")
	}
}

func TestPointerDeltaAccumulates(t *testing.T) {
	s := New()
	s.AddPointerDelta(1, 2)
	s.AddPointerDelta(3, -1)
	dx, dy := s.PointerDelta()
	if dx != 4 || dy != 1 {
		t.Errorf("PointerDelta() = (%v,%v), want (4,1)", dx, dy)
	}
}

func TestSlotEdgeIndependentPerSlot(t *testing.T) {
	s := New()
	s.PressSlot(1)
	if s.WantsSlot(0) || !s.WantsSlot(1) || s.WantsSlot(2) || s.WantsSlot(3) {
		t.Error("slot edges not independent")
	}
}
