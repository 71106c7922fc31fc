package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// flightClock stands in for the frame loop: a running flag, the time of the
// last frame and the wall clock the simulation check compares against.
type flightClock struct {
	mu        sync.Mutex
	running   bool
	lastFrame time.Time
	now       time.Time
}

func (c *flightClock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *flightClock) LastFrameAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastFrame
}

func (c *flightClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// frame records a frame at the current time.
func (c *flightClock) frame() {
	c.mu.Lock()
	c.lastFrame = c.now
	c.mu.Unlock()
}

func (c *flightClock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type breakerState struct {
	mu    sync.Mutex
	state string
}

func (b *breakerState) get() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *breakerState) set(s string) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}

// wired builds the checker the way cmd/flightsim does and returns its mux.
func wired(clock *flightClock, breaker *breakerState) (*HealthChecker, *http.ServeMux) {
	sim := NewSimulationHealthCheck(clock.Running, clock.LastFrameAt, 2*time.Second)
	sim.now = clock.Now

	hc := NewHealthChecker()
	hc.AddCheck(sim)
	hc.AddCheck(NewRecorderHealthCheck(breaker.get))
	hc.AddCheck(NewMemoryHealthCheck(1<<20, CurrentMemoryMB))

	mux := http.NewServeMux()
	hc.Register(mux)
	return hc, mux
}

func getReady(t *testing.T, mux *http.ServeMux) (int, Report) {
	t.Helper()
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/ready", nil))

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, expected application/json", ct)
	}
	var report Report
	if err := json.NewDecoder(w.Body).Decode(&report); err != nil {
		t.Fatalf("Failed to decode /ready body: %v", err)
	}
	return w.Code, report
}

func TestReady_FlipsWhenSimulationGoesStale(t *testing.T) {
	clock := &flightClock{running: true, now: time.Unix(5000, 0)}
	clock.frame()
	_, mux := wired(clock, &breakerState{state: "closed"})

	steps := []struct {
		name  string
		setup func()
		code  int
	}{
		{"fresh frame", func() { clock.advance(100 * time.Millisecond) }, http.StatusOK},
		{"frames stall", func() { clock.advance(3 * time.Second) }, http.StatusServiceUnavailable},
		{"frames resume", clock.frame, http.StatusOK},
		{"loop stops", func() { clock.mu.Lock(); clock.running = false; clock.mu.Unlock() }, http.StatusServiceUnavailable},
	}

	for _, step := range steps {
		step.setup()
		code, report := getReady(t, mux)
		if code != step.code {
			t.Errorf("%s: /ready = %d, expected %d (%+v)", step.name, code, step.code, report.Checks)
		}
		sim := report.Checks["simulation"]
		if (step.code == http.StatusOK) != (sim.Status == StatusHealthy) {
			t.Errorf("%s: simulation check = %+v", step.name, sim)
		}
		if sim.Status == StatusUnhealthy && sim.Message == "" {
			t.Errorf("%s: unhealthy simulation check carries no message", step.name)
		}
		if report.Checks["recorder"].Status != StatusHealthy {
			t.Errorf("%s: recorder check = %+v, expected healthy", step.name, report.Checks["recorder"])
		}
	}
}

func TestReady_FollowsRecorderBreaker(t *testing.T) {
	clock := &flightClock{running: true, now: time.Unix(5000, 0)}
	clock.frame()
	breaker := &breakerState{state: "closed"}
	_, mux := wired(clock, breaker)

	tests := []struct {
		state string
		code  int
	}{
		{"closed", http.StatusOK},
		{"open", http.StatusServiceUnavailable},
		{"half-open", http.StatusOK},
		{"closed", http.StatusOK},
	}

	for _, tt := range tests {
		breaker.set(tt.state)
		code, report := getReady(t, mux)
		if code != tt.code {
			t.Errorf("breaker %s: /ready = %d, expected %d", tt.state, code, tt.code)
		}
		if report.Checks["simulation"].Status != StatusHealthy {
			t.Errorf("breaker %s: simulation check = %+v, expected healthy", tt.state, report.Checks["simulation"])
		}
	}
}

func TestHealth_AliveWhileNotReady(t *testing.T) {
	clock := &flightClock{now: time.Unix(5000, 0)} // loop never started
	_, mux := wired(clock, &breakerState{state: "open"})

	if code, _ := getReady(t, mux); code != http.StatusServiceUnavailable {
		t.Fatalf("/ready = %d, expected %d", code, http.StatusServiceUnavailable)
	}

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("/health = %d, expected %d", w.Code, http.StatusOK)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode /health body: %v", err)
	}
	if body["status"] != StatusAlive {
		t.Errorf("/health status = %q, expected %q", body["status"], StatusAlive)
	}
}

// hungCheck never returns on its own.
type hungCheck struct{ release chan struct{} }

func (h hungCheck) Name() string { return "hung" }

func (h hungCheck) Check(ctx context.Context) error {
	<-h.release
	return nil
}

func TestReady_HungCheckTimesOut(t *testing.T) {
	clock := &flightClock{running: true, now: time.Unix(5000, 0)}
	clock.frame()
	hc, mux := wired(clock, &breakerState{state: "closed"})
	hc.timeout = 20 * time.Millisecond

	release := make(chan struct{})
	defer close(release)
	hc.AddCheck(hungCheck{release: release})

	start := time.Now()
	code, report := getReady(t, mux)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("/ready took %v with a hung check", elapsed)
	}
	if code != http.StatusServiceUnavailable {
		t.Errorf("/ready = %d, expected %d", code, http.StatusServiceUnavailable)
	}
	if report.Checks["hung"].Status != StatusUnhealthy {
		t.Errorf("hung check = %+v, expected unhealthy", report.Checks["hung"])
	}
	if report.Checks["simulation"].Status != StatusHealthy {
		t.Errorf("simulation check = %+v, expected healthy", report.Checks["simulation"])
	}
}

func TestAddCheck_ReplacesByName(t *testing.T) {
	hc := NewHealthChecker()
	hc.AddCheck(NewMemoryHealthCheck(1, func() int64 { return 10 }))
	hc.AddCheck(NewRecorderHealthCheck(func() string { return "closed" }))
	hc.AddCheck(NewMemoryHealthCheck(100, func() int64 { return 10 }))

	names := hc.Names()
	if len(names) != 2 || names[0] != "memory" || names[1] != "recorder" {
		t.Errorf("Names() = %v, expected [memory recorder]", names)
	}
	if report := hc.Evaluate(context.Background()); !report.Ready() {
		t.Errorf("Evaluate() = %+v, expected the replacement memory check to pass", report)
	}
}

func TestSimulationHealthCheck(t *testing.T) {
	now := time.Unix(5000, 0)
	tests := []struct {
		name      string
		running   bool
		lastFrame time.Time
		wantErr   bool
	}{
		{"fresh frames", true, now.Add(-100 * time.Millisecond), false},
		{"at the limit", true, now.Add(-2 * time.Second), false},
		{"loop stopped", false, now, true},
		{"no frame yet", true, time.Time{}, true},
		{"stale frame", true, now.Add(-3 * time.Second), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := NewSimulationHealthCheck(
				func() bool { return tt.running },
				func() time.Time { return tt.lastFrame },
				2*time.Second,
			)
			check.now = func() time.Time { return now }

			if err := check.Check(context.Background()); (err != nil) != tt.wantErr {
				t.Errorf("Check() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMemoryHealthCheck(t *testing.T) {
	tests := []struct {
		name    string
		usedMB  int64
		wantErr bool
	}{
		{"below limit", 50, false},
		{"at limit", 100, false},
		{"over limit", 150, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := NewMemoryHealthCheck(100, func() int64 { return tt.usedMB })
			if err := check.Check(context.Background()); (err != nil) != tt.wantErr {
				t.Errorf("Check() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
