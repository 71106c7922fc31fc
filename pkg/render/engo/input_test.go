package engo

import (
	"io"
	"testing"

	"github.com/opd-ai/go-flightsim/pkg/engine"
	"github.com/opd-ai/go-flightsim/pkg/input"
	"github.com/opd-ai/go-flightsim/pkg/logging"
	"github.com/opd-ai/go-flightsim/pkg/terrain"
)

func quietLogger() *logging.Logger {
	return logging.New(logging.Options{Writer: io.Discard})
}

type fakeKeyboard map[input.Code]bool

func (k fakeKeyboard) down(code input.Code) bool { return k[code] }

func TestInputSystem_ForwardsTransitionsOnly(t *testing.T) {
	var got []input.KeyEvent
	is := NewInputSystem(func(ev input.KeyEvent) bool {
		got = append(got, ev)
		return true
	}, nil, quietLogger())

	kb := fakeKeyboard{}
	is.down = kb.down

	kb[input.KeyW] = true
	is.Update(0.016)
	is.Update(0.016) // still held
	kb[input.KeyW] = false
	is.Update(0.016)

	want := []input.KeyEvent{
		{Kind: input.KeyDown, Code: input.KeyW},
		{Kind: input.KeyUp, Code: input.KeyW},
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestInputSystem_SimultaneousKeysInCodeOrder(t *testing.T) {
	is := NewInputSystem(func(input.KeyEvent) bool { return true }, nil, quietLogger())
	kb := fakeKeyboard{input.KeySpace: true, input.KeyA: true, input.KeyW: true}
	is.down = kb.down

	events := is.poll()
	codes := []input.Code{input.KeyA, input.KeyW, input.KeySpace}
	if len(events) != len(codes) {
		t.Fatalf("Expected %d events, got %v", len(codes), events)
	}
	for i, code := range codes {
		if events[i].Code != code || events[i].Kind != input.KeyDown {
			t.Errorf("event %d: expected KeyDown %s, got %v", i, code, events[i])
		}
	}
}

func TestInputSystem_DrivesSimulation(t *testing.T) {
	sim := engine.NewSimulation(engine.Options{Terrain: terrain.Flat(0), Logger: quietLogger()})
	sim.MarkLoaded()

	is := NewInputSystem(sim.SubmitKey, nil, quietLogger())
	kb := fakeKeyboard{input.KeyR: true, input.KeyQ: true}
	is.down = kb.down

	is.Update(0.016)
	f := sim.Advance(0.1)
	if !f.Flags.Has(input.Accelerate) || !f.Flags.Has(input.YawLeft) {
		t.Errorf("Expected accelerate and yaw-left flags, got %v", f.Flags)
	}

	kb[input.KeyR] = false
	is.Update(0.016)
	f = sim.Advance(0.1)
	if f.Flags.Has(input.Accelerate) || !f.Flags.Has(input.YawLeft) {
		t.Errorf("Expected only yaw-left after release, got %v", f.Flags)
	}
}

func TestInputSystem_BindsEveryFlightKey(t *testing.T) {
	is := NewInputSystem(func(input.KeyEvent) bool { return true }, nil, quietLogger())
	for code := range input.DefaultBindings {
		if _, ok := codeKeys[code]; !ok {
			t.Errorf("no engo key bound for %s", code)
		}
	}
	if len(is.codes) != len(input.DefaultBindings) {
		t.Errorf("Expected %d polled codes, got %d", len(input.DefaultBindings), len(is.codes))
	}
}
