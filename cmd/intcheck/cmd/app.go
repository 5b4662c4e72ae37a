package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/psantana5/intcheck/internal/config"
	"github.com/psantana5/intcheck/internal/console"
	"github.com/psantana5/intcheck/internal/intmath"
	"github.com/psantana5/intcheck/internal/liveness"
	"github.com/psantana5/intcheck/internal/monitor"
	"github.com/psantana5/intcheck/internal/report"
	"github.com/psantana5/intcheck/internal/timer"
	"github.com/psantana5/intcheck/pkg/api"
	"github.com/psantana5/intcheck/pkg/logging"
	"github.com/psantana5/intcheck/pkg/metrics"
	"github.com/psantana5/intcheck/pkg/ratelimit"
	"github.com/psantana5/intcheck/pkg/shutdown"
)

const shutdownTimeout = 10 * time.Second

// demo holds every component of one run
type demo struct {
	cfg    *config.Config
	runID  string
	logger *logging.Logger

	registry  *liveness.Registry
	pending   *monitor.PendingCheck
	history   *report.History
	collector *metrics.Collector
	monitor   *monitor.Monitor
	timer     *timer.Recurring
	keys      *console.Handler
	limiter   *ratelimit.Limiter
	server    *http.Server

	tasks    *intmath.Tasks
	shutdown *shutdown.Manager
	wg       sync.WaitGroup
}

// newDemo wires the components. Console output goes to out; logs go to
// stderr and optionally a file.
func newDemo(cfg *config.Config, out io.Writer) (*demo, error) {
	durations, err := cfg.Durations()
	if err != nil {
		return nil, err
	}

	d := &demo{cfg: cfg, runID: uuid.NewString()}

	level := logging.ParseLevel(cfg.Log.Level)
	if cfg.Log.File != "" {
		d.logger, err = logging.NewFileLogger(os.Stderr, cfg.Log.File, level, cfg.Log.JSON)
		if err != nil {
			return nil, err
		}
	} else {
		d.logger = logging.NewLogger(os.Stderr, level, cfg.Log.JSON)
	}
	d.logger = d.logger.WithField("run_id", d.runID)

	if d.registry, err = liveness.NewRegistry(cfg.Workers); err != nil {
		return nil, err
	}
	d.pending = &monitor.PendingCheck{}
	d.history = report.NewHistory(cfg.Monitor.History)
	sink := report.Tee(report.NewConsole(out), d.history)

	d.collector = metrics.NewCollector(metrics.Options{HostMetrics: true, RuntimeMetrics: true})
	d.collector.InitWorkers(cfg.Workers)

	d.monitor, err = monitor.New(monitor.Config{
		Registry:     d.registry,
		Pending:      d.pending,
		Sink:         sink,
		PollInterval: durations.PollInterval,
		Recorder:     d.collector,
		Logger:       d.logger,
	})
	if err != nil {
		return nil, err
	}

	d.timer, err = timer.New("status", durations.Period, d.pending.RaiserFor(monitor.OriginTimer), timer.RaiseOnTick, d.logger)
	if err != nil {
		return nil, err
	}

	keys := console.Keys{Status: cfg.StatusKey(), Restart: cfg.RestartKey()}
	if d.keys, err = console.NewHandler(keys, d.pending.RaiserFor(monitor.OriginKeyboard), sink, d.logger); err != nil {
		return nil, err
	}
	d.keys.OnRestart(d.collector.RestartRequested)

	d.shutdown = shutdown.New(shutdownTimeout, d.logger)
	return d, nil
}

// buildServer creates the operator HTTP endpoint. It needs the workers, so
// it runs after they are started.
func (d *demo) buildServer() error {
	if d.cfg.HTTP.RateLimit > 0 {
		d.limiter = ratelimit.NewLimiter(d.cfg.HTTP.RateLimit, d.cfg.HTTP.Burst)
	}

	workers := make([]api.Worker, 0, len(d.tasks.Workers))
	for _, w := range d.tasks.Workers {
		workers = append(workers, w)
	}
	handler, err := api.NewHandler(api.Options{
		RunID:     d.runID,
		Monitor:   d.monitor,
		Workers:   workers,
		History:   d.history,
		Check:     d.pending.RaiserFor(monitor.OriginHTTP),
		OnRestart: d.collector.RestartRequested,
		Metrics:   d.collector.Handler(),
		Limiter:   d.limiter,
		Logger:    d.logger,
	})
	if err != nil {
		return err
	}

	d.server = &http.Server{
		Addr:              d.cfg.HTTP.Listen,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return nil
}

// workerConfig returns the configuration for worker id. Only worker 0 is
// ever given a fault.
func (d *demo) workerConfig(interval time.Duration) func(id int) intmath.WorkerConfig {
	return func(id int) intmath.WorkerConfig {
		wc := intmath.WorkerConfig{
			Operands:    d.cfg.Operands,
			Interval:    interval,
			Cooperative: d.cfg.Worker.Cooperative,
			Recorder:    d.collector,
			Logger:      d.logger,
		}
		if id == 0 && d.cfg.Worker.FaultAfter > 0 {
			wc.Fault = intmath.CorruptOnce(d.cfg.Worker.FaultAfter)
		}
		return wc
	}
}

// start launches the workers, the monitor, the timer and the optional HTTP
// endpoint. Everything stops when ctx is done; call stop to wait for it.
func (d *demo) start(ctx context.Context) error {
	durations, err := d.cfg.Durations()
	if err != nil {
		return err
	}

	d.tasks, err = intmath.StartTasks(ctx, d.registry, d.workerConfig(durations.WorkerInterval))
	if err != nil {
		return err
	}
	if d.cfg.HTTP.Listen != "" {
		if err := d.buildServer(); err != nil {
			return err
		}
	}

	d.shutdown.Register("workers", shutdown.WaitFor(d.tasks.Wait))
	d.shutdown.Register("monitor", shutdown.WaitFor(d.wg.Wait))

	d.wg.Add(2)
	go func() {
		defer d.wg.Done()
		if err := d.monitor.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("monitor stopped", logging.Fields{"error": err.Error()})
		}
	}()
	go func() {
		defer d.wg.Done()
		if err := d.timer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Error("timer stopped", logging.Fields{"error": err.Error()})
		}
	}()

	if d.server != nil {
		d.shutdown.Register("http", shutdown.StopHTTPServer(d.server))
		go func() {
			d.logger.Info("HTTP endpoint listening", logging.Fields{"addr": d.server.Addr})
			if err := d.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				d.logger.Error("HTTP endpoint failed", logging.Fields{"error": err.Error()})
			}
		}()
	}
	if d.limiter != nil {
		go d.cleanupLimiter(ctx)
	}

	d.logger.Info("demo started", logging.Fields{
		"workers":  d.cfg.Workers,
		"period":   durations.Period.String(),
		"expected": d.cfg.Operands.Expected(),
	})
	return nil
}

func (d *demo) cleanupLimiter(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := d.limiter.Cleanup(5 * time.Minute); n > 0 {
				d.logger.Debug("rate limiter entries expired", logging.Fields{"count": n})
			}
		}
	}
}

// stop waits for every component to return. ctx passed to start must
// already be done.
func (d *demo) stop() error {
	err := d.shutdown.Shutdown()
	if closeErr := d.logger.Close(); closeErr != nil {
		err = errors.Join(err, closeErr)
	}
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// writeSummary prints the recorded checks as a table or JSON
func (d *demo) writeSummary(w io.Writer) error {
	checks := d.history.Recent(0)
	if IsJSONOutput() {
		return report.WriteJSON(w, d.runID, checks, d.history.Summary())
	}
	return report.WriteTable(w, checks, d.history.Summary())
}
