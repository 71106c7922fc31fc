// Package render contains the front-ends that draw simulation frames.
package render

import (
	"context"

	"github.com/opd-ai/go-flightsim/pkg/engine"
	"github.com/opd-ai/go-flightsim/pkg/logging"
)

// NullRenderer implements engine.Renderer by logging each call at debug level.
// It backs headless runs.
type NullRenderer struct {
	logger *logging.Logger
	frames uint64
}

// NewNullRenderer creates a NullRenderer. A nil logger selects the default.
func NewNullRenderer(logger *logging.Logger) *NullRenderer {
	if logger == nil {
		logger = logging.NewLogger()
	}
	return &NullRenderer{logger: logger}
}

// Clear implements engine.Renderer.
func (d *NullRenderer) Clear() {
	d.logger.Debug(context.Background(), "Clear called")
}

// RenderFrame implements engine.Renderer.
func (d *NullRenderer) RenderFrame(f engine.Frame) {
	d.frames++
	d.logger.Debug(context.Background(), "RenderFrame called",
		"tick", f.Tick,
		"mode", f.Mode.String(),
		"speed", f.Telemetry.Speed,
		"altitude", f.Telemetry.Altitude,
		"heading", f.Telemetry.Heading,
	)
}

// Present implements engine.Renderer.
func (d *NullRenderer) Present() {
	d.logger.Debug(context.Background(), "Present called")
}

// Frames returns the number of frames rendered.
func (d *NullRenderer) Frames() uint64 {
	return d.frames
}

var _ engine.Renderer = (*NullRenderer)(nil)
