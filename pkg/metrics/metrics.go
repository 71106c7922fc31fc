// Package metrics exports flight telemetry and simulation counters to Prometheus.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opd-ai/go-flightsim/pkg/engine"
	"github.com/opd-ai/go-flightsim/pkg/event"
)

const namespace = "flightsim"

// Collector owns a private registry so several simulations (or tests) never
// collide on the global one.
type Collector struct {
	registry *prometheus.Registry

	mu       sync.Mutex
	lastTick uint64

	ticks         prometheus.Counter
	speed         prometheus.Gauge
	altitude      prometheus.Gauge
	heading       prometheus.Gauge
	attitude      *prometheus.GaugeVec
	frameDelta    prometheus.Histogram
	events        *prometheus.CounterVec
	droppedFrames prometheus.Counter
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// NewCollector creates and registers every metric.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Total number of integrated simulation ticks.",
		}),
		speed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "speed",
			Help:      "Current airspeed in km/h.",
		}),
		altitude: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "altitude",
			Help:      "Current altitude in world units, floored.",
		}),
		heading: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "heading_degrees",
			Help:      "Current travel bearing in degrees.",
		}),
		attitude: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "attitude_radians",
			Help:      "Current pitch, roll and yaw angles.",
		}, []string{"axis"}),
		frameDelta: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_delta_seconds",
			Help:      "Clamped delta time passed to the integrator.",
			Buckets:   []float64{0.004, 0.008, 0.016, 0.017, 0.033, 0.05, 0.1},
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Simulation events by type.",
		}, []string{"type"}),
		droppedFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recorder_dropped_frames_total",
			Help:      "Frames the flight recorder could not persist.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"path", "method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "method"}),
	}

	c.registry.MustRegister(
		c.ticks, c.speed, c.altitude, c.heading, c.attitude, c.frameDelta,
		c.events, c.droppedFrames, c.httpRequests, c.httpDuration,
		collectors.NewGoCollector(),
	)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveFrame records one frame. It has the engine.Observer signature.
// Frames repeated before the simulation is loaded do not count as ticks.
func (c *Collector) ObserveFrame(_ context.Context, f engine.Frame) {
	c.mu.Lock()
	if f.Tick > c.lastTick {
		c.ticks.Add(float64(f.Tick - c.lastTick))
		c.lastTick = f.Tick
	}
	c.mu.Unlock()

	c.speed.Set(f.State.Speed)
	c.altitude.Set(f.State.Altitude)
	c.heading.Set(f.State.Heading)
	c.attitude.WithLabelValues("pitch").Set(f.State.Pitch)
	c.attitude.WithLabelValues("roll").Set(f.State.Roll)
	c.attitude.WithLabelValues("yaw").Set(f.State.Yaw)
	c.frameDelta.Observe(f.DeltaTime)
}

// Subscribe counts every simulation event published on bus and returns the
// subscriptions so callers can cancel them.
func (c *Collector) Subscribe(bus *event.Bus) []*event.Subscription {
	subs := make([]*event.Subscription, 0, len(event.Types())+1)
	for _, t := range event.Types() {
		counter := c.events.WithLabelValues(string(t))
		subs = append(subs, bus.Subscribe(t, func(event.Event) { counter.Inc() }))
	}
	return subs
}

// RecordDroppedFrame counts a frame the recorder discarded.
func (c *Collector) RecordDroppedFrame() {
	c.droppedFrames.Inc()
}

// Handler returns the Prometheus metrics HTTP handler.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		path := normalizeRoute(r.URL.Path)
		c.httpRequests.WithLabelValues(path, r.Method, strconv.Itoa(rw.statusCode)).Inc()
		c.httpDuration.WithLabelValues(path, r.Method).Observe(time.Since(start).Seconds())
	})
}

// normalizeRoute keeps label cardinality bounded.
func normalizeRoute(path string) string {
	switch path {
	case "/metrics", "/health", "/ready":
		return path
	default:
		return "other"
	}
}
