package engo

import (
	"context"
	"slices"

	"github.com/EngoEngine/ecs"
	"github.com/EngoEngine/engo"

	"github.com/opd-ai/go-flightsim/pkg/input"
	"github.com/opd-ai/go-flightsim/pkg/logging"
)

// Button names registered with engo.Input besides the flight keys, which are
// registered under their input.Code.
const (
	ButtonQuit    = "quit"
	ButtonZoomIn  = "zoomIn"
	ButtonZoomOut = "zoomOut"
)

var codeKeys = map[input.Code]engo.Key{
	input.KeyW:     engo.KeyW,
	input.KeyS:     engo.KeyS,
	input.KeyA:     engo.KeyA,
	input.KeyD:     engo.KeyD,
	input.KeyQ:     engo.KeyQ,
	input.KeyE:     engo.KeyE,
	input.KeyR:     engo.KeyR,
	input.KeyF:     engo.KeyF,
	input.KeySpace: engo.KeySpace,
}

// InputSystem turns engo's polled button state into key events for the
// simulation. Only transitions are forwarded.
type InputSystem struct {
	submit func(input.KeyEvent) bool
	quit   func()
	logger *logging.Logger

	codes []input.Code
	held  map[input.Code]bool
	// down reports whether a key is currently held; defaults to engo.Input.
	down func(input.Code) bool
}

// NewInputSystem creates a new input system
func NewInputSystem(submit func(input.KeyEvent) bool, quit func(), logger *logging.Logger) *InputSystem {
	if logger == nil {
		logger = logging.NewLogger()
	}
	codes := make([]input.Code, 0, len(codeKeys))
	for code := range codeKeys {
		codes = append(codes, code)
	}
	slices.Sort(codes)

	return &InputSystem{
		submit: submit,
		quit:   quit,
		logger: logger,
		codes:  codes,
		held:   make(map[input.Code]bool),
		down: func(code input.Code) bool {
			return engo.Input.Button(string(code)).Down()
		},
	}
}

// Remove satisfies the ecs.System interface
func (is *InputSystem) Remove(basic ecs.BasicEntity) {}

// Update forwards key transitions since the previous frame.
func (is *InputSystem) Update(dt float32) {
	if is.quit != nil && engo.Input != nil && engo.Input.Button(ButtonQuit).JustPressed() {
		is.quit()
	}
	for _, ev := range is.poll() {
		if !is.submit(ev) {
			is.logger.Warn(context.Background(), "key event dropped",
				"code", string(ev.Code), "kind", ev.Kind.String())
		}
	}
}

// poll returns the presses and releases since the last call, in code order.
func (is *InputSystem) poll() []input.KeyEvent {
	var events []input.KeyEvent
	for _, code := range is.codes {
		now := is.down(code)
		if now == is.held[code] {
			continue
		}
		is.held[code] = now
		kind := input.KeyUp
		if now {
			kind = input.KeyDown
		}
		events = append(events, input.KeyEvent{Kind: kind, Code: code})
	}
	return events
}

// SetupInputBindings registers the flight keys and the window controls.
func SetupInputBindings() {
	for code, key := range codeKeys {
		engo.Input.RegisterButton(string(code), key)
	}
	engo.Input.RegisterButton(ButtonQuit, engo.KeyEscape)
	engo.Input.RegisterButton(ButtonZoomIn, engo.KeyEquals)
	engo.Input.RegisterButton(ButtonZoomOut, engo.KeyDash)
}
