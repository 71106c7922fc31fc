// Package recorder persists simulation frames as a zstd-compressed msgpack
// stream and replays them through a fresh integrator.
//
// A recording is one header followed by one record per integrated tick:
//
//	zstd( msgpack(Header) msgpack(Record) msgpack(Record) ... )
package recorder

import (
	"errors"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/opd-ai/go-flightsim/pkg/engine"
	"github.com/opd-ai/go-flightsim/pkg/flight"
)

// FormatVersion is written into every header.
const FormatVersion = 1

var (
	// ErrRecorderClosed is returned when recording into a closed recorder.
	ErrRecorderClosed = errors.New("recorder: closed")
	// ErrUnsupportedVersion is returned for recordings from an unknown format.
	ErrUnsupportedVersion = errors.New("recorder: unsupported format version")
	// ErrTruncated is returned when a recording ends mid-stream, e.g. when the
	// recording process was killed before Close.
	ErrTruncated = errors.New("recorder: recording is truncated")
)

// Header opens every recording.
type Header struct {
	Version   int           `msgpack:"version"`
	SessionID string        `msgpack:"session_id"`
	StartedAt time.Time     `msgpack:"started_at"`
	Params    flight.Params `msgpack:"params"`
}

// Record is one integrated tick: the inputs that drove it and the resulting state.
type Record struct {
	Tick      uint64           `msgpack:"tick"`
	DeltaTime float64          `msgpack:"dt"`
	Flags     uint16           `msgpack:"flags"`
	Reset     bool             `msgpack:"reset,omitempty"`
	Position  mgl64.Vec3       `msgpack:"pos"`
	Speed     float64          `msgpack:"speed"`
	Pitch     float64          `msgpack:"pitch"`
	Roll      float64          `msgpack:"roll"`
	Yaw       float64          `msgpack:"yaw"`
	Telemetry flight.Telemetry `msgpack:"telemetry"`
}

// RecordFromFrame captures the replayable part of a frame.
func RecordFromFrame(f engine.Frame) Record {
	return Record{
		Tick:      f.Tick,
		DeltaTime: f.DeltaTime,
		Flags:     uint16(f.Flags),
		Reset:     f.Mode == flight.ModeReset,
		Position:  f.State.Position,
		Speed:     f.State.Speed,
		Pitch:     f.State.Pitch,
		Roll:      f.State.Roll,
		Yaw:       f.State.Yaw,
		Telemetry: f.Telemetry,
	}
}
