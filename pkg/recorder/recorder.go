package recorder

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/sony/gobreaker"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/opd-ai/go-flightsim/pkg/engine"
	"github.com/opd-ai/go-flightsim/pkg/event"
	"github.com/opd-ai/go-flightsim/pkg/flight"
	"github.com/opd-ai/go-flightsim/pkg/logging"
)

const defaultFlushEvery = 60

// Options configures a Recorder.
type Options struct {
	SessionID   string
	Params      flight.Params
	MaxFailures uint32
	OpenTimeout time.Duration
	// FlushEvery is the number of records per compressed block. Write errors
	// surface at block boundaries.
	FlushEvery int
	Logger     *logging.Logger
	EventBus   *event.Bus
	// OnDrop is called for every frame that could not be written.
	OnDrop func()
}

// Recorder appends integrated frames to a recording. It is safe for
// concurrent use.
type Recorder struct {
	SessionID string

	mu         sync.Mutex
	closer     io.Closer
	zw         *zstd.Encoder
	enc        *msgpack.Encoder
	guard      *writeGuard
	logger     *logging.Logger
	onDrop     func()
	flushEvery int
	pending    int
	lastTick   uint64
	closed     bool

	written uint64
	dropped uint64
}

// Create opens path for writing and starts a recording.
func Create(path string, opts Options) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording: %w", err)
	}
	r, err := New(f, opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// New starts a recording on w and writes the header.
func New(w io.Writer, opts Options) (*Recorder, error) {
	if opts.SessionID == "" {
		opts.SessionID = logging.GenerateCorrelationID()
	}
	if opts.Params == (flight.Params{}) {
		opts.Params = flight.DefaultParams()
	}
	if opts.MaxFailures == 0 {
		opts.MaxFailures = 5
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = 30 * time.Second
	}
	if opts.FlushEvery <= 0 {
		opts.FlushEvery = defaultFlushEvery
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewLogger()
	}

	zw, err := zstd.NewWriter(w, zstd.WithEncoderConcurrency(1), zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd writer: %w", err)
	}

	r := &Recorder{
		SessionID:  opts.SessionID,
		zw:         zw,
		enc:        msgpack.NewEncoder(zw),
		logger:     opts.Logger,
		onDrop:     opts.OnDrop,
		flushEvery: opts.FlushEvery,
	}

	bus := opts.EventBus
	r.guard = newWriteGuard("flight-recorder", opts.MaxFailures, opts.OpenTimeout, opts.Logger,
		func(from, to gobreaker.State) {
			if bus != nil && to == gobreaker.StateOpen {
				bus.Publish(event.NewRecorderEvent(r, from.String(), to.String()))
			}
		})

	header := Header{
		Version:   FormatVersion,
		SessionID: opts.SessionID,
		StartedAt: time.Now().UTC(),
		Params:    opts.Params,
	}
	if err := r.enc.Encode(&header); err != nil {
		zw.Close()
		return nil, fmt.Errorf("failed to write recording header: %w", err)
	}
	return r, nil
}

// Record appends one frame. Frames that did not advance the simulation are
// skipped. While the breaker is open the frame is dropped and the breaker
// error is returned.
func (r *Recorder) Record(ctx context.Context, f engine.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRecorderClosed
	}
	if f.Tick == 0 || f.Tick <= r.lastTick {
		return nil
	}
	r.lastTick = f.Tick

	rec := RecordFromFrame(f)
	err := r.guard.Execute(ctx, func() error {
		if err := r.enc.Encode(&rec); err != nil {
			return err
		}
		r.pending++
		if r.pending >= r.flushEvery {
			r.pending = 0
			return r.zw.Flush()
		}
		return nil
	})
	if err != nil {
		r.dropped++
		if r.onDrop != nil {
			r.onDrop()
		}
		return fmt.Errorf("failed to record tick %d: %w", f.Tick, err)
	}
	r.written++
	return nil
}

// Observe adapts Record to engine.Observer. Errors are logged, never fatal.
func (r *Recorder) Observe(ctx context.Context, f engine.Frame) {
	if err := r.Record(ctx, f); err != nil {
		r.logger.Debug(ctx, "frame not recorded", "tick", f.Tick, "error", err)
	}
}

// State returns the write breaker state: closed, half-open or open.
func (r *Recorder) State() string {
	return r.guard.State()
}

// Stats returns the number of records written and dropped.
func (r *Recorder) Stats() (written, dropped uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written, r.dropped
}

// Close flushes the compressed stream and closes the underlying file, if any.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	err := r.zw.Close()
	if r.closer != nil {
		if cerr := r.closer.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return fmt.Errorf("failed to close recording: %w", err)
	}
	return nil
}
