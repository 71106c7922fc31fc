// cmd/flightreplay/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/opd-ai/go-flightsim/pkg/config"
	"github.com/opd-ai/go-flightsim/pkg/logging"
	"github.com/opd-ai/go-flightsim/pkg/recorder"
)

// ErrDiverged is returned when a replay drifts further than -tolerance.
var ErrDiverged = errors.New("replay diverged from recording")

func main() {
	in := flag.String("in", "", "Recording to replay")
	configPath := flag.String("config", "", "Configuration the flight was recorded with (for terrain)")
	tolerance := flag.Float64("tolerance", 1e-6, "Largest acceptable position deviation")
	flag.Parse()

	logger := logging.NewLogger()
	ctx := context.Background()

	if *in == "" {
		logger.Error(ctx, "No recording given", errors.New("missing -in"))
		os.Exit(2)
	}

	res, err := replay(*in, *configPath, *tolerance)
	if err != nil {
		logger.Error(ctx, "Replay failed", err, "recording", *in)
		os.Exit(1)
	}

	ctx = logging.WithCorrelationID(ctx, res.Header.SessionID)
	logger.Info(ctx, "Replay complete",
		"recording", *in,
		"records", res.Records,
		"gaps", res.Gaps,
		"max_deviation", res.MaxDeviation,
		"speed", res.Telemetry.Speed,
		"altitude", res.Telemetry.Altitude,
		"heading", res.Telemetry.Heading,
	)
}

// replay re-flies the recording at path over the terrain configured in
// configPath and checks it against tolerance. Deviation is only enforced for
// recordings without gaps.
func replay(path, configPath string, tolerance float64) (recorder.ReplayResult, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return recorder.ReplayResult{}, err
	}

	r, err := recorder.Open(path)
	if err != nil {
		return recorder.ReplayResult{}, err
	}
	defer r.Close()

	res, err := recorder.Replay(r, cfg.TerrainField())
	if err != nil {
		return res, err
	}
	if res.Gaps == 0 && res.MaxDeviation > tolerance {
		return res, fmt.Errorf("%w: %.6f > %.6f", ErrDiverged, res.MaxDeviation, tolerance)
	}
	return res, nil
}
