package input

import "strings"

// ControlFlags is the set of held controls, one bit per Control.
type ControlFlags uint16

// Has reports whether c is held.
func (f ControlFlags) Has(c Control) bool {
	return f&(1<<c) != 0
}

// With returns f with c set.
func (f ControlFlags) With(c Control) ControlFlags {
	return f | 1<<c
}

// Without returns f with c cleared.
func (f ControlFlags) Without(c Control) ControlFlags {
	return f &^ (1 << c)
}

// FlagsOf builds a flag set from the given controls.
func FlagsOf(controls ...Control) ControlFlags {
	var f ControlFlags
	for _, c := range controls {
		f = f.With(c)
	}
	return f
}

func (f ControlFlags) String() string {
	var held []string
	for _, c := range Controls() {
		if f.Has(c) {
			held = append(held, c.String())
		}
	}
	if len(held) == 0 {
		return "none"
	}
	return strings.Join(held, "+")
}

// Tracker holds the current control flags. It is not safe for concurrent use;
// callers confine it to the simulation's update goroutine.
type Tracker struct {
	bindings map[Code]Control
	flags    ControlFlags
}

// NewTracker returns a Tracker using DefaultBindings.
func NewTracker() *Tracker {
	return NewTrackerWithBindings(DefaultBindings)
}

// NewTrackerWithBindings returns a Tracker using custom key bindings.
func NewTrackerWithBindings(bindings map[Code]Control) *Tracker {
	b := make(map[Code]Control, len(bindings))
	for code, c := range bindings {
		b[code] = c
	}
	return &Tracker{bindings: b}
}

// OnKeyDown sets the flag bound to code. Unknown codes are ignored.
func (t *Tracker) OnKeyDown(code Code) {
	if c, ok := t.bindings[code]; ok {
		t.flags = t.flags.With(c)
	}
}

// OnKeyUp clears the flag bound to code. Unknown codes are ignored.
func (t *Tracker) OnKeyUp(code Code) {
	if c, ok := t.bindings[code]; ok {
		t.flags = t.flags.Without(c)
	}
}

// Apply dispatches a KeyEvent to OnKeyDown or OnKeyUp.
func (t *Tracker) Apply(ev KeyEvent) {
	if ev.Kind == KeyUp {
		t.OnKeyUp(ev.Code)
		return
	}
	t.OnKeyDown(ev.Code)
}

// Flags returns the current flag set.
func (t *Tracker) Flags() ControlFlags {
	return t.flags
}

// Recognizes reports whether code is bound to a control.
func (t *Tracker) Recognizes(code Code) bool {
	_, ok := t.bindings[code]
	return ok
}

// ReleaseAll clears every flag.
func (t *Tracker) ReleaseAll() {
	t.flags = 0
}
