// Package health serves the simulator's /health and /ready endpoints.
// /health answers as long as the process can serve HTTP; /ready aggregates
// the registered checks (frame loop freshness, recorder breaker, memory).
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/sync/errgroup"
)

// Status values reported in response bodies.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusAlive     = "alive"
)

// DefaultReadyTimeout bounds one /ready evaluation.
const DefaultReadyTimeout = 2 * time.Second

// HealthCheck is one readiness condition.
type HealthCheck interface {
	Name() string
	Check(ctx context.Context) error
}

// Result is the outcome of a single check.
type Result struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Report is the /ready response body.
type Report struct {
	Status string            `json:"status"`
	Checks map[string]Result `json:"checks"`
}

// Ready reports whether every check passed.
func (r Report) Ready() bool { return r.Status == StatusHealthy }

// HealthChecker holds the readiness checks of one process.
type HealthChecker struct {
	mu      sync.RWMutex
	checks  []HealthCheck
	timeout time.Duration
}

// NewHealthChecker creates a checker with no checks; it is ready until one is
// added.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{timeout: DefaultReadyTimeout}
}

// AddCheck registers check, replacing any check of the same name.
func (hc *HealthChecker) AddCheck(check HealthCheck) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	for i, c := range hc.checks {
		if c.Name() == check.Name() {
			hc.checks[i] = check
			return
		}
	}
	hc.checks = append(hc.checks, check)
}

// Names lists the registered checks in registration order.
func (hc *HealthChecker) Names() []string {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	names := make([]string, len(hc.checks))
	for i, c := range hc.checks {
		names[i] = c.Name()
	}
	return names
}

// Evaluate runs every check concurrently and aggregates the results. A check
// that outlives ctx is reported with ctx's error.
func (hc *HealthChecker) Evaluate(ctx context.Context) Report {
	hc.mu.RLock()
	checks := slices.Clone(hc.checks)
	hc.mu.RUnlock()

	results := make([]Result, len(checks))
	var g errgroup.Group
	for i, c := range checks {
		g.Go(func() error {
			results[i] = runCheck(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Status: StatusHealthy, Checks: make(map[string]Result, len(checks))}
	for i, c := range checks {
		report.Checks[c.Name()] = results[i]
		if results[i].Status != StatusHealthy {
			report.Status = StatusUnhealthy
		}
	}
	return report
}

func runCheck(ctx context.Context, c HealthCheck) Result {
	done := make(chan error, 1)
	go func() { done <- c.Check(ctx) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = fmt.Errorf("check timed out: %w", ctx.Err())
	}
	if err != nil {
		return Result{Status: StatusUnhealthy, Message: err.Error()}
	}
	return Result{Status: StatusHealthy}
}

// Register mounts /health (liveness) and /ready (readiness) on mux.
func (hc *HealthChecker) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", hc.serveLive)
	mux.HandleFunc("/ready", hc.serveReady)
}

func (hc *HealthChecker) serveLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": StatusAlive})
}

func (hc *HealthChecker) serveReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), hc.timeout)
	defer cancel()

	report := hc.Evaluate(ctx)
	code := http.StatusOK
	if !report.Ready() {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, report)
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// SimulationHealthCheck fails when the frame loop is not running or its
// frames have gone stale.
type SimulationHealthCheck struct {
	running    func() bool
	lastFrame  func() time.Time
	staleAfter time.Duration
	now        func() time.Time
}

// NewSimulationHealthCheck creates a health check that fails when the loop is
// stopped or has not produced a frame within staleAfter.
func NewSimulationHealthCheck(running func() bool, lastFrame func() time.Time, staleAfter time.Duration) *SimulationHealthCheck {
	return &SimulationHealthCheck{
		running:    running,
		lastFrame:  lastFrame,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

func (s *SimulationHealthCheck) Name() string { return "simulation" }

func (s *SimulationHealthCheck) Check(ctx context.Context) error {
	if !s.running() {
		return fmt.Errorf("simulation loop is not running")
	}
	last := s.lastFrame()
	if last.IsZero() {
		return fmt.Errorf("simulation has not produced a frame")
	}
	if age := s.now().Sub(last); age > s.staleAfter {
		return fmt.Errorf("last frame is %s old, limit %s", age.Round(time.Millisecond), s.staleAfter)
	}
	return nil
}

// RecorderHealthCheck fails while the recorder's write breaker is open, i.e.
// while frames are being dropped.
type RecorderHealthCheck struct {
	breakerState func() string
}

// NewRecorderHealthCheck wraps a breaker state source such as
// recorder.Recorder.State.
func NewRecorderHealthCheck(breakerState func() string) *RecorderHealthCheck {
	return &RecorderHealthCheck{breakerState: breakerState}
}

func (r *RecorderHealthCheck) Name() string { return "recorder" }

func (r *RecorderHealthCheck) Check(ctx context.Context) error {
	if r.breakerState() == gobreaker.StateOpen.String() {
		return fmt.Errorf("recorder breaker open, frames are being dropped")
	}
	return nil
}

// MemoryHealthCheck fails when the heap grows past a limit.
type MemoryHealthCheck struct {
	limitMB int64
	usageMB func() int64
}

// NewMemoryHealthCheck checks usageMB (normally CurrentMemoryMB) against
// limitMB.
func NewMemoryHealthCheck(limitMB int64, usageMB func() int64) *MemoryHealthCheck {
	return &MemoryHealthCheck{limitMB: limitMB, usageMB: usageMB}
}

func (m *MemoryHealthCheck) Name() string { return "memory" }

func (m *MemoryHealthCheck) Check(ctx context.Context) error {
	if used := m.usageMB(); used > m.limitMB {
		return fmt.Errorf("heap at %dMB, limit %dMB", used, m.limitMB)
	}
	return nil
}

// CurrentMemoryMB reports the heap currently allocated, in megabytes.
func CurrentMemoryMB() int64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return int64(m.Alloc >> 20)
}
