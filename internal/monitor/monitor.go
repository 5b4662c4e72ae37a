package monitor

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/psantana5/intcheck/internal/liveness"
	"github.com/psantana5/intcheck/internal/report"
	"github.com/psantana5/intcheck/pkg/logging"
)

// DefaultPollInterval bounds how long a raised request waits before the
// monitor notices it.
const DefaultPollInterval = 50 * time.Millisecond

// Recorder receives check outcomes. pkg/metrics implements it.
type Recorder interface {
	CheckCompleted(number uint64, passed bool, origins []string)
}

type nopRecorder struct{}

func (nopRecorder) CheckCompleted(uint64, bool, []string) {}

// Config configures a Monitor
type Config struct {
	Registry     *liveness.Registry
	Pending      *PendingCheck
	Sink         report.Sink
	PollInterval time.Duration
	Recorder     Recorder
	Logger       *logging.Logger
}

// Monitor waits for check requests and sweeps the registry for each one.
//
// Idle: poll the pending flag every PollInterval.
// Checking: take the flag, sweep, bump the counter, report one line.
type Monitor struct {
	registry *liveness.Registry
	pending  *PendingCheck
	sink     report.Sink
	poll     time.Duration
	recorder Recorder
	logger   *logging.Logger

	count atomic.Uint64
	last  atomic.Pointer[report.Check]
}

// New creates a monitor. Registry, Pending and Sink are required.
func New(cfg Config) (*Monitor, error) {
	if cfg.Registry == nil || cfg.Pending == nil || cfg.Sink == nil {
		return nil, errors.New("monitor: registry, pending flag and sink are required")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Recorder == nil {
		cfg.Recorder = nopRecorder{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	return &Monitor{
		registry: cfg.Registry,
		pending:  cfg.Pending,
		sink:     cfg.Sink,
		poll:     cfg.PollInterval,
		recorder: cfg.Recorder,
		logger:   cfg.Logger.Component("monitor"),
	}, nil
}

// Run polls until ctx is done. A check in progress always completes.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("monitor started", logging.Fields{"poll_interval": m.poll.String()})

	ticker := time.NewTicker(m.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("monitor stopped", logging.Fields{"checks": m.Count()})
			return ctx.Err()
		case <-ticker.C:
			m.Poll()
		}
	}
}

// Poll performs one idle step: if a request is pending, run the check.
func (m *Monitor) Poll() (report.Check, bool) {
	origins, ok := m.pending.Take()
	if !ok {
		return report.Check{}, false
	}
	return m.check(origins), true
}

func (m *Monitor) check(origins Origin) report.Check {
	snap := m.registry.SweepDetail()

	c := report.Check{
		Number:  m.count.Add(1),
		Passed:  snap.AllAlive,
		Missing: snap.Missing,
		Origins: origins.Names(),
		At:      time.Now(),
	}
	m.last.Store(&c)

	m.sink.Report(c)
	m.recorder.CheckCompleted(c.Number, c.Passed, c.Origins)
	c.LogSummary(m.logger)
	return c
}

// Count returns how many checks have been performed
func (m *Monitor) Count() uint64 {
	return m.count.Load()
}

// Last returns the most recent check, if any
func (m *Monitor) Last() (report.Check, bool) {
	c := m.last.Load()
	if c == nil {
		return report.Check{}, false
	}
	return *c, true
}
