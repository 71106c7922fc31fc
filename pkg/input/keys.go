// Package input turns discrete key events into the persistent control flags
// consumed by the flight integrator.
package input

// Code identifies a physical key using DOM KeyboardEvent.code names.
type Code string

// Recognised key codes.
const (
	KeyW     Code = "KeyW"
	KeyS     Code = "KeyS"
	KeyA     Code = "KeyA"
	KeyD     Code = "KeyD"
	KeyQ     Code = "KeyQ"
	KeyE     Code = "KeyE"
	KeyR     Code = "KeyR"
	KeyF     Code = "KeyF"
	KeySpace Code = "Space"
)

// Control is one of the nine named control flags.
type Control uint8

const (
	PitchForward Control = iota
	PitchBack
	RollLeft
	RollRight
	YawLeft
	YawRight
	Accelerate
	Decelerate
	Reset

	numControls
)

var controlNames = [numControls]string{
	PitchForward: "pitch_forward",
	PitchBack:    "pitch_back",
	RollLeft:     "roll_left",
	RollRight:    "roll_right",
	YawLeft:      "yaw_left",
	YawRight:     "yaw_right",
	Accelerate:   "accelerate",
	Decelerate:   "decelerate",
	Reset:        "reset",
}

func (c Control) String() string {
	if c < numControls {
		return controlNames[c]
	}
	return "unknown"
}

// Controls lists every control in declaration order.
func Controls() []Control {
	out := make([]Control, numControls)
	for i := range out {
		out[i] = Control(i)
	}
	return out
}

// DefaultBindings maps each key code to its control.
var DefaultBindings = map[Code]Control{
	KeyW:     PitchForward,
	KeyS:     PitchBack,
	KeyA:     RollLeft,
	KeyD:     RollRight,
	KeyQ:     YawLeft,
	KeyE:     YawRight,
	KeyR:     Accelerate,
	KeyF:     Decelerate,
	KeySpace: Reset,
}

// EventKind distinguishes presses from releases.
type EventKind uint8

const (
	KeyDown EventKind = iota
	KeyUp
)

func (k EventKind) String() string {
	if k == KeyUp {
		return "up"
	}
	return "down"
}

// KeyEvent is a single press or release.
type KeyEvent struct {
	Kind EventKind
	Code Code
}
