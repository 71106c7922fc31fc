package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/go-flightsim/pkg/event"
	"github.com/opd-ai/go-flightsim/pkg/logging"
)

// ErrAlreadyRunning is returned by Run when the loop is already running.
var ErrAlreadyRunning = errors.New("engine: loop already running")

// DefaultTickInterval is a 60 Hz frame.
const DefaultTickInterval = time.Second / 60

// Renderer draws frames. Calls arrive on the loop goroutine.
type Renderer interface {
	Clear()
	RenderFrame(Frame)
	Present()
}

// Observer is notified after every rendered frame.
type Observer func(ctx context.Context, f Frame)

// Loop advances a Simulation at a fixed rate and hands each frame to a Renderer.
type Loop struct {
	sim      *Simulation
	renderer Renderer
	interval time.Duration
	logger   *logging.Logger

	running   atomic.Bool
	lastFrame atomic.Int64

	mu        sync.Mutex
	observers []Observer
}

// NewLoop creates a loop. A non-positive interval selects DefaultTickInterval.
func NewLoop(sim *Simulation, renderer Renderer, interval time.Duration, logger *logging.Logger) *Loop {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	if logger == nil {
		logger = logging.NewLogger()
	}
	return &Loop{
		sim:      sim,
		renderer: renderer,
		interval: interval,
		logger:   logger,
	}
}

// Observe registers fn to run after each frame.
func (l *Loop) Observe(fn Observer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, fn)
}

// Running reports whether Run is in progress.
func (l *Loop) Running() bool {
	return l.running.Load()
}

// LastFrameAt returns the wall time of the most recent Step, or the zero time.
func (l *Loop) LastFrameAt() time.Time {
	ns := l.lastFrame.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Run ticks until ctx is done. Cancellation is a clean stop and returns nil.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer l.running.Store(false)

	ctx = logging.WithCorrelationID(ctx, l.sim.SessionID)
	l.logger.Info(ctx, "simulation started", "interval", l.interval.String())
	l.sim.EventBus.Publish(event.NewLifecycleEvent(event.SimulationStarted, l, l.sim.SessionID, ""))

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			reason := context.Cause(ctx).Error()
			l.logger.Info(ctx, "simulation stopped", "reason", reason, "ticks", l.sim.Snapshot().Tick)
			l.sim.EventBus.Publish(event.NewLifecycleEvent(event.SimulationStopped, l, l.sim.SessionID, reason))
			return nil
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			l.Step(ctx, dt)
		}
	}
}

// Step advances and renders a single frame.
func (l *Loop) Step(ctx context.Context, dt float64) Frame {
	f := l.sim.Advance(dt)
	l.lastFrame.Store(time.Now().UnixNano())
	if l.renderer != nil {
		l.renderer.Clear()
		l.renderer.RenderFrame(f)
		l.renderer.Present()
	}

	l.mu.Lock()
	observers := l.observers
	l.mu.Unlock()
	for _, fn := range observers {
		fn(ctx, f)
	}
	return f
}
