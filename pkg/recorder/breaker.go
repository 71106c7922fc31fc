package recorder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/opd-ai/go-flightsim/pkg/logging"
)

// writeGuard runs recorder writes through a circuit breaker. A failing disk
// trips the breaker so the frame loop stops paying for doomed writes; frames
// arriving while it is open are dropped.
type writeGuard struct {
	breaker *gobreaker.CircuitBreaker
	logger  *logging.Logger
}

// newWriteGuard trips after maxFailures consecutive write errors and probes
// again after openTimeout. onChange runs inside the breaker's lock and must
// not call back into the guard.
func newWriteGuard(name string, maxFailures uint32, openTimeout time.Duration, logger *logging.Logger, onChange func(from, to gobreaker.State)) *writeGuard {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn(context.Background(), "recorder circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
			if onChange != nil {
				onChange(from, to)
			}
		},
	}

	return &writeGuard{
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

// Execute runs op unless the breaker is open.
func (g *writeGuard) Execute(ctx context.Context, op func() error) error {
	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, op()
	})
	if err != nil {
		g.logger.LogWithContext(ctx, slog.LevelDebug, "recorder write rejected",
			"error", err,
			"state", g.breaker.State().String(),
		)
		return fmt.Errorf("circuit breaker: %w", err)
	}
	return nil
}

// State returns the breaker state name: closed, half-open or open.
func (g *writeGuard) State() string {
	return g.breaker.State().String()
}
