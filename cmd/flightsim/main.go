// cmd/flightsim/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/EngoEngine/engo"
	"github.com/gdamore/tcell/v2"
	"golang.org/x/sync/errgroup"

	"github.com/opd-ai/go-flightsim/pkg/config"
	"github.com/opd-ai/go-flightsim/pkg/engine"
	"github.com/opd-ai/go-flightsim/pkg/health"
	"github.com/opd-ai/go-flightsim/pkg/logging"
	"github.com/opd-ai/go-flightsim/pkg/metrics"
	"github.com/opd-ai/go-flightsim/pkg/recorder"
	"github.com/opd-ai/go-flightsim/pkg/render"
	engorender "github.com/opd-ai/go-flightsim/pkg/render/engo"
)

// Front-ends selectable with -renderer.
const (
	rendererTerminal = "terminal"
	rendererEngo     = "engo"
	rendererHeadless = "headless"
)

const (
	memoryLimitMB   = 512
	shutdownTimeout = 5 * time.Second
	// terminalLogFile receives logs while tcell owns the terminal.
	terminalLogFile = "flightsim.log"
	// terminalScale is world units per terminal column.
	terminalScale = 25.0
)

type options struct {
	renderer   string
	width      int
	height     int
	fullscreen bool
}

func main() {
	configPath := flag.String("config", "flightsim.json", "Path to configuration file")
	createDefault := flag.Bool("default", false, "Write the default configuration file and exit")
	rendererName := flag.String("renderer", rendererTerminal, "Front-end: terminal, engo or headless")
	recordPath := flag.String("record", "", "Write a flight recording to this file (overrides config)")
	duration := flag.Duration("duration", 0, "Stop after this long; 0 runs until interrupted")
	width := flag.Int("width", 1024, "Window width (engo only)")
	height := flag.Int("height", 768, "Window height (engo only)")
	fullscreen := flag.Bool("fullscreen", false, "Run fullscreen (engo only)")
	flag.Parse()

	logger := logging.NewLogger()
	ctx := context.Background()

	if *createDefault {
		if err := config.Default().Save(*configPath); err != nil {
			logger.Error(ctx, "Failed to create default configuration", err, "config_path", *configPath)
			os.Exit(1)
		}
		logger.Info(ctx, "Created default configuration file", "config_path", *configPath)
		return
	}

	cfg, err := loadConfig(ctx, *configPath, logger)
	if err != nil {
		logger.Error(ctx, "Failed to load configuration", err, "config_path", *configPath)
		os.Exit(1)
	}
	if *recordPath != "" {
		cfg.Recorder.Path = *recordPath
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *duration)
		defer cancel()
	}

	opts := options{renderer: *rendererName, width: *width, height: *height, fullscreen: *fullscreen}
	if err := run(ctx, cfg, opts); err != nil {
		logger.Error(context.Background(), "Flight simulator failed", err)
		os.Exit(1)
	}
}

// loadConfig reads path, falling back to defaults plus environment overrides
// when the file does not exist.
func loadConfig(ctx context.Context, path string, logger *logging.Logger) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Info(ctx, "Configuration file not found, using default configuration", "config_path", path)
		return config.Load("")
	}
	return config.Load(path)
}

// run flies one session until ctx is done or the pilot quits.
func run(ctx context.Context, cfg *config.Config, opts options) error {
	logOpts := logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	}
	if opts.renderer == rendererTerminal && logOpts.File == "" {
		logOpts.File = terminalLogFile
	}
	logger := logging.New(logOpts)
	defer logger.Close()

	ctx, quit := context.WithCancel(ctx)
	defer quit()

	sim := engine.NewSimulation(engine.Options{
		Params:       cfg.FlightParams(),
		Terrain:      cfg.TerrainField(),
		MaxDeltaTime: cfg.Loop.MaxDeltaTime,
		KeyBuffer:    cfg.Loop.KeyBuffer,
		Logger:       logger,
	})
	ctx = logging.WithCorrelationID(ctx, sim.SessionID)

	collector := metrics.NewCollector()
	collector.Subscribe(sim.EventBus)

	var rec *recorder.Recorder
	if cfg.Recorder.Path != "" {
		var err error
		rec, err = recorder.Create(cfg.Recorder.Path, recorder.Options{
			SessionID:   sim.SessionID,
			Params:      sim.Params(),
			MaxFailures: cfg.Recorder.MaxFailures,
			OpenTimeout: cfg.Recorder.OpenTimeout,
			Logger:      logger,
			EventBus:    sim.EventBus,
			OnDrop:      collector.RecordDroppedFrame,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := rec.Close(); err != nil {
				logger.Error(ctx, "Failed to close recording", err)
			}
			written, dropped := rec.Stats()
			logger.Info(ctx, "Recording closed", "path", cfg.Recorder.Path, "written", written, "dropped", dropped)
		}()
	}

	g, gctx := errgroup.WithContext(ctx)

	var (
		loop    *engine.Loop
		running func() bool
		fly     func() error
	)
	switch opts.renderer {
	case rendererHeadless:
		loop = engine.NewLoop(sim, render.NewNullRenderer(logger), cfg.TickInterval(), logger)
		running = loop.Running
		sim.MarkLoaded()
		fly = func() error { return loop.Run(gctx) }

	case rendererTerminal:
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("failed to create terminal screen: %w", err)
		}
		if err := screen.Init(); err != nil {
			return fmt.Errorf("failed to initialise terminal screen: %w", err)
		}
		defer screen.Fini()
		screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorReset).Foreground(tcell.ColorReset))
		screen.Clear()

		tr := render.NewTerminalRenderer(screen, sim.Terrain(), sim.Params().MaxRadius, terminalScale)
		loop = engine.NewLoop(sim, tr, cfg.TickInterval(), logger)
		running = loop.Running
		pump := render.NewKeyPump(screen, cfg.Terminal.HoldWindow, sim.SubmitKey, quit, logger)
		g.Go(func() error { return pump.Run(gctx) })
		sim.MarkLoaded()
		fly = func() error { return loop.Run(gctx) }

	case rendererEngo:
		scene := engorender.NewFlightScene(gctx, sim, logger, quit)
		loop = scene.Loop()
		running = scene.Active
		g.Go(func() error {
			<-gctx.Done()
			engo.Exit()
			return nil
		})
		// engo must own the main goroutine; MarkLoaded happens in Setup.
		fly = func() error {
			engo.Run(engo.RunOptions{
				Title:      "Go Flight Sim",
				Width:      opts.width,
				Height:     opts.height,
				Fullscreen: opts.fullscreen,
				VSync:      true,
			}, scene)
			return nil
		}

	default:
		return fmt.Errorf("unknown renderer %q", opts.renderer)
	}

	loop.Observe(collector.ObserveFrame)
	if rec != nil {
		loop.Observe(rec.Observe)
	}

	checker := health.NewHealthChecker()
	checker.AddCheck(health.NewSimulationHealthCheck(running, loop.LastFrameAt, cfg.Metrics.StaleAfter))
	checker.AddCheck(health.NewMemoryHealthCheck(memoryLimitMB, health.CurrentMemoryMB))
	if rec != nil {
		checker.AddCheck(health.NewRecorderHealthCheck(rec.State))
	}
	if cfg.Metrics.Enabled {
		serveHTTP(gctx, g, cfg.Metrics.Address, checker, collector, logger)
	}

	logger.Info(ctx, "Flight simulator starting",
		"renderer", opts.renderer,
		"session_id", sim.SessionID,
		"recording", cfg.Recorder.Path,
	)

	err := fly()
	quit()
	if werr := g.Wait(); err == nil {
		err = werr
	}

	f := sim.Snapshot()
	logger.Info(ctx, "Flight ended",
		"ticks", f.Tick,
		"speed", f.Telemetry.Speed,
		"altitude", f.Telemetry.Altitude,
		"heading", f.Telemetry.Heading,
	)
	return err
}

// serveHTTP exposes /metrics, /health and /ready until ctx is done.
func serveHTTP(ctx context.Context, g *errgroup.Group, addr string, checker *health.HealthChecker, collector *metrics.Collector, logger *logging.Logger) {
	mux := http.NewServeMux()
	checker.Register(mux)
	mux.Handle("/metrics", collector.Handler())

	server := &http.Server{
		Addr:         addr,
		Handler:      collector.Middleware(mux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		logger.Info(ctx, "Starting metrics and health server", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
}
