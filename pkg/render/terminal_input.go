package render

import (
	"context"
	"sync"
	"time"
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/opd-ai/go-flightsim/pkg/input"
	"github.com/opd-ai/go-flightsim/pkg/logging"
)

// expireInterval is how often held keys are checked for release.
const expireInterval = 20 * time.Millisecond

var runeCodes = map[rune]input.Code{
	'w': input.KeyW,
	's': input.KeyS,
	'a': input.KeyA,
	'd': input.KeyD,
	'q': input.KeyQ,
	'e': input.KeyE,
	'r': input.KeyR,
	'f': input.KeyF,
	' ': input.KeySpace,
}

// KeyCode maps a typed rune to a key code. Letters are case-insensitive.
func KeyCode(r rune) (input.Code, bool) {
	code, ok := runeCodes[unicode.ToLower(r)]
	return code, ok
}

// KeyPump reads terminal key events and forwards them to the simulation as
// presses and releases. Terminals report presses only, so releases are
// synthesised by a HoldLatch.
type KeyPump struct {
	screen tcell.Screen
	submit func(input.KeyEvent) bool
	onQuit func()
	logger *logging.Logger
	now    func() time.Time

	mu    sync.Mutex
	latch *input.HoldLatch
}

// NewKeyPump creates a pump. submit receives every key event; onQuit runs
// when Escape or Ctrl-C is pressed.
func NewKeyPump(screen tcell.Screen, holdWindow time.Duration, submit func(input.KeyEvent) bool, onQuit func(), logger *logging.Logger) *KeyPump {
	if logger == nil {
		logger = logging.NewLogger()
	}
	if onQuit == nil {
		onQuit = func() {}
	}
	return &KeyPump{
		screen: screen,
		submit: submit,
		onQuit: onQuit,
		logger: logger,
		now:    time.Now,
		latch:  input.NewHoldLatch(holdWindow),
	}
}

// HandleEvent processes one terminal event.
func (p *KeyPump) HandleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		p.screen.Sync()
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			p.onQuit()
		case tcell.KeyRune:
			code, ok := KeyCode(ev.Rune())
			if !ok {
				return
			}
			p.mu.Lock()
			events := p.latch.Press(code, p.now())
			p.mu.Unlock()
			p.forward(events)
		}
	}
}

// Expire releases every key whose hold window has elapsed.
func (p *KeyPump) Expire() {
	p.mu.Lock()
	events := p.latch.Expire(p.now())
	p.mu.Unlock()
	p.forward(events)
}

func (p *KeyPump) forward(events []input.KeyEvent) {
	for _, ev := range events {
		if !p.submit(ev) {
			p.logger.Warn(context.Background(), "key event dropped",
				"code", string(ev.Code), "kind", ev.Kind.String())
		}
	}
}

// Run pumps events until ctx is cancelled or the screen is finalised.
func (p *KeyPump) Run(ctx context.Context) error {
	events := make(chan tcell.Event)
	go func() {
		defer close(events)
		for {
			ev := p.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(expireInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			p.HandleEvent(ev)
		case <-ticker.C:
			p.Expire()
		}
	}
}
