package recorder

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/opd-ai/go-flightsim/pkg/flight"
	"github.com/opd-ai/go-flightsim/pkg/input"
	"github.com/opd-ai/go-flightsim/pkg/terrain"
)

// Reader iterates over a recording.
type Reader struct {
	Header Header

	zr     *zstd.Decoder
	dec    *msgpack.Decoder
	closer io.Closer
}

// Open opens a recording file.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording: %w", err)
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// NewReader reads and validates the header from r.
func NewReader(r io.Reader) (*Reader, error) {
	zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}

	rd := &Reader{zr: zr, dec: msgpack.NewDecoder(zr)}
	if err := rd.dec.Decode(&rd.Header); err != nil {
		zr.Close()
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: no complete header: %w", ErrTruncated, err)
		}
		return nil, fmt.Errorf("failed to read recording header: %w", err)
	}
	if rd.Header.Version != FormatVersion {
		zr.Close()
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, rd.Header.Version)
	}
	return rd, nil
}

// Next returns the next record, io.EOF at the clean end of the recording, or
// ErrTruncated when the stream stops mid-frame.
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		switch {
		case errors.Is(err, io.ErrUnexpectedEOF):
			return Record{}, fmt.Errorf("%w: %w", ErrTruncated, err)
		case errors.Is(err, io.EOF):
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("failed to read record: %w", err)
	}
	return rec, nil
}

// Close releases the decoder and the underlying file, if any.
func (r *Reader) Close() error {
	r.zr.Close()
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// ReplayResult summarises a replay.
type ReplayResult struct {
	Header  Header
	Records int
	// Gaps counts ticks missing from the recording, e.g. dropped while the
	// write breaker was open. Deviation after a gap is expected.
	Gaps int
	// MaxDeviation is the largest distance between a recorded position and the
	// replayed one.
	MaxDeviation float64
	Final        flight.AircraftState
	Telemetry    flight.Telemetry
}

// Replay feeds every recorded input through a fresh integrator over field and
// compares the result with the recorded state.
func Replay(r *Reader, field terrain.Field) (ReplayResult, error) {
	res := ReplayResult{Header: r.Header}
	in := flight.NewIntegrator(r.Header.Params, field)

	var lastTick uint64
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, err
		}

		if lastTick != 0 && rec.Tick != lastTick+1 {
			res.Gaps++
		}
		lastTick = rec.Tick

		out := in.Step(input.ControlFlags(rec.Flags), rec.DeltaTime)
		res.Records++
		res.MaxDeviation = math.Max(res.MaxDeviation, out.State.Position.Sub(rec.Position).Len())
	}

	res.Final = in.State()
	res.Telemetry = res.Final.Telemetry()
	return res, nil
}
