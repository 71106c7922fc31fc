package input

import (
	"testing"
	"time"
)

func TestTracker_KeyDownUp(t *testing.T) {
	tests := []struct {
		code    Code
		control Control
	}{
		{KeyW, PitchForward},
		{KeyS, PitchBack},
		{KeyA, RollLeft},
		{KeyD, RollRight},
		{KeyQ, YawLeft},
		{KeyE, YawRight},
		{KeyR, Accelerate},
		{KeyF, Decelerate},
		{KeySpace, Reset},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			tr := NewTracker()
			tr.OnKeyDown(tt.code)
			if !tr.Flags().Has(tt.control) {
				t.Errorf("OnKeyDown(%s) did not set %s", tt.code, tt.control)
			}
			if tr.Flags() != FlagsOf(tt.control) {
				t.Errorf("OnKeyDown(%s) flags = %s, expected only %s", tt.code, tr.Flags(), tt.control)
			}

			tr.OnKeyUp(tt.code)
			if tr.Flags() != 0 {
				t.Errorf("OnKeyUp(%s) left flags %s", tt.code, tr.Flags())
			}
		})
	}
}

func TestTracker_RepeatIsIdempotent(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < 5; i++ {
		tr.OnKeyDown(KeyR)
	}
	if tr.Flags() != FlagsOf(Accelerate) {
		t.Errorf("flags after repeats = %s, expected accelerate", tr.Flags())
	}

	tr.OnKeyUp(KeyR)
	tr.OnKeyUp(KeyR)
	if tr.Flags() != 0 {
		t.Errorf("flags after repeated release = %s, expected none", tr.Flags())
	}
}

func TestTracker_UnknownCodesIgnored(t *testing.T) {
	tr := NewTracker()
	tr.OnKeyDown(KeyW)
	tr.OnKeyDown("KeyZ")
	tr.OnKeyUp("Escape")

	if tr.Flags() != FlagsOf(PitchForward) {
		t.Errorf("flags = %s, expected pitch_forward", tr.Flags())
	}
	if tr.Recognizes("KeyZ") {
		t.Error("KeyZ should not be recognised")
	}
	if !tr.Recognizes(KeySpace) {
		t.Error("Space should be recognised")
	}
}

func TestTracker_Apply(t *testing.T) {
	tr := NewTracker()
	tr.Apply(KeyEvent{Kind: KeyDown, Code: KeyA})
	tr.Apply(KeyEvent{Kind: KeyDown, Code: KeyQ})
	tr.Apply(KeyEvent{Kind: KeyUp, Code: KeyA})

	if tr.Flags() != FlagsOf(YawLeft) {
		t.Errorf("flags = %s, expected yaw_left", tr.Flags())
	}

	tr.ReleaseAll()
	if tr.Flags() != 0 {
		t.Errorf("ReleaseAll() left %s", tr.Flags())
	}
}

func TestTracker_CustomBindings(t *testing.T) {
	bindings := map[Code]Control{"ArrowUp": PitchForward}
	tr := NewTrackerWithBindings(bindings)
	bindings["ArrowDown"] = PitchBack // must not leak into the tracker

	tr.OnKeyDown("ArrowDown")
	tr.OnKeyDown(KeyW)
	if tr.Flags() != 0 {
		t.Errorf("flags = %s, expected none", tr.Flags())
	}
	tr.OnKeyDown("ArrowUp")
	if !tr.Flags().Has(PitchForward) {
		t.Error("ArrowUp should set pitch_forward")
	}
}

func TestControlFlags_String(t *testing.T) {
	if got := ControlFlags(0).String(); got != "none" {
		t.Errorf("String() = %q, expected none", got)
	}
	if got := FlagsOf(Accelerate, RollLeft).String(); got != "roll_left+accelerate" {
		t.Errorf("String() = %q", got)
	}
}

func TestControlsAreDistinct(t *testing.T) {
	all := Controls()
	if len(all) != 9 {
		t.Fatalf("Controls() returned %d controls, expected 9", len(all))
	}
	var f ControlFlags
	for _, c := range all {
		if f.Has(c) {
			t.Fatalf("control %s shares a bit", c)
		}
		f = f.With(c)
	}
	if Control(42).String() != "unknown" {
		t.Error("out of range control should be unknown")
	}
}

func TestHoldLatch(t *testing.T) {
	start := time.Unix(1000, 0)
	latch := NewHoldLatch(150 * time.Millisecond)

	events := latch.Press(KeyW, start)
	if len(events) != 1 || events[0] != (KeyEvent{Kind: KeyDown, Code: KeyW}) {
		t.Fatalf("first Press() = %v, expected one KeyDown", events)
	}

	// A repeat inside the window extends the hold without a new event.
	if events := latch.Press(KeyW, start.Add(100*time.Millisecond)); events != nil {
		t.Errorf("repeat Press() = %v, expected nil", events)
	}
	latch.Press(KeyA, start.Add(100*time.Millisecond))

	if events := latch.Expire(start.Add(200 * time.Millisecond)); len(events) != 0 {
		t.Errorf("Expire() before deadline = %v, expected none", events)
	}
	if !latch.Held(KeyW) {
		t.Error("KeyW should still be held")
	}

	events = latch.Expire(start.Add(250 * time.Millisecond))
	expected := []KeyEvent{{Kind: KeyUp, Code: KeyA}, {Kind: KeyUp, Code: KeyW}}
	if len(events) != len(expected) {
		t.Fatalf("Expire() = %v, expected %v", events, expected)
	}
	for i := range expected {
		if events[i] != expected[i] {
			t.Errorf("Expire()[%d] = %v, expected %v", i, events[i], expected[i])
		}
	}
	if latch.Held(KeyW) {
		t.Error("KeyW should be released")
	}
}
