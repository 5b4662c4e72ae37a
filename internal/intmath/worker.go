package intmath

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/psantana5/intcheck/internal/liveness"
	"github.com/psantana5/intcheck/pkg/logging"
)

// Fault may replace the value computed on a given iteration (1-based).
// It exists to exercise the latched failure path.
type Fault func(iteration uint64, value int64) int64

// CorruptOnce returns a Fault that flips the result of iteration n only.
func CorruptOnce(n uint64) Fault {
	return func(iteration uint64, value int64) int64 {
		if iteration == n {
			return value + 1
		}
		return value
	}
}

// Recorder receives worker events. pkg/metrics implements it.
type Recorder interface {
	WorkerIteration(id int)
	WorkerSignal(id int)
	WorkerLatched(id int)
}

type nopRecorder struct{}

func (nopRecorder) WorkerIteration(int) {}
func (nopRecorder) WorkerSignal(int)    {}
func (nopRecorder) WorkerLatched(int)   {}

// WorkerConfig configures a single worker
type WorkerConfig struct {
	Operands Operands

	// Interval paces iterations. Zero runs a tight loop that yields to the
	// scheduler after every iteration.
	Interval time.Duration

	// Cooperative yields between the two halves of the calculation.
	Cooperative bool

	Fault    Fault
	Recorder Recorder
	Logger   *logging.Logger
}

// Worker repeatedly evaluates the calculation and checks in on its slot
// while every result has matched. The first mismatch latches: the worker
// keeps running but never checks in again.
type Worker struct {
	slot     *liveness.Slot
	ops      Operands
	expected int64
	interval time.Duration
	coop     bool
	fault    Fault
	recorder Recorder
	logger   *logging.Logger

	iterations atomic.Uint64
	latched    atomic.Bool
}

// NewWorker creates a worker bound to slot
func NewWorker(slot *liveness.Slot, cfg WorkerConfig) (*Worker, error) {
	if err := cfg.Operands.Validate(); err != nil {
		return nil, err
	}
	if cfg.Recorder == nil {
		cfg.Recorder = nopRecorder{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	return &Worker{
		slot:     slot,
		ops:      cfg.Operands,
		expected: cfg.Operands.Expected(),
		interval: cfg.Interval,
		coop:     cfg.Cooperative,
		fault:    cfg.Fault,
		recorder: cfg.Recorder,
		logger:   cfg.Logger.Component("intmath").WithField("worker", slot.ID()),
	}, nil
}

// ID returns the worker's slot id
func (w *Worker) ID() int { return w.slot.ID() }

// Iterations returns how many calculations have completed
func (w *Worker) Iterations() uint64 { return w.iterations.Load() }

// Latched reports whether the worker has seen a wrong result
func (w *Worker) Latched() bool { return w.latched.Load() }

// compute evaluates the formula in two halves so that partial results live
// across a possible context switch.
func (w *Worker) compute(iteration uint64) int64 {
	value := w.ops.C1
	value += w.ops.C2

	if w.coop {
		runtime.Gosched()
	}

	value *= w.ops.C3
	value /= w.ops.C4

	if w.fault != nil {
		value = w.fault(iteration, value)
	}
	return value
}

// Step runs one iteration and reports whether the worker checked in.
func (w *Worker) Step() bool {
	iteration := w.iterations.Add(1)
	value := w.compute(iteration)
	w.recorder.WorkerIteration(w.ID())

	if value != w.expected && !w.latched.Swap(true) {
		w.logger.Error("calculation mismatch, worker will stop checking in", logging.Fields{
			"iteration": iteration,
			"got":       value,
			"expected":  w.expected,
		})
		w.recorder.WorkerLatched(w.ID())
	}

	if w.latched.Load() {
		return false
	}

	w.slot.Signal()
	w.recorder.WorkerSignal(w.ID())
	return true
}

// Run iterates until ctx is done. An iteration in progress always finishes.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Debug("worker started", logging.Fields{"expected": w.expected})

	var pace *time.Ticker
	if w.interval > 0 {
		pace = time.NewTicker(w.interval)
		defer pace.Stop()
	}

	for {
		w.Step()
		if !w.pause(ctx, pace) {
			break
		}
	}

	w.logger.Debug("worker stopped", logging.Fields{"iterations": w.Iterations(), "latched": w.Latched()})
}

// pause waits for the next iteration slot and reports whether to continue.
func (w *Worker) pause(ctx context.Context, pace *time.Ticker) bool {
	if pace == nil {
		runtime.Gosched()
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-pace.C:
		return true
	}
}

// Tasks is a running set of workers
type Tasks struct {
	Workers []*Worker
	wg      sync.WaitGroup
}

// StartTasks creates one worker per registry slot and runs each in its own
// goroutine. newConfig supplies the configuration for worker id.
func StartTasks(ctx context.Context, registry *liveness.Registry, newConfig func(id int) WorkerConfig) (*Tasks, error) {
	workers := make([]*Worker, 0, registry.Len())
	for id := 0; id < registry.Len(); id++ {
		slot, err := registry.Slot(id)
		if err != nil {
			return nil, err
		}
		w, err := NewWorker(slot, newConfig(id))
		if err != nil {
			return nil, err
		}
		workers = append(workers, w)
	}

	t := &Tasks{Workers: workers}
	for _, w := range workers {
		t.wg.Add(1)
		go func(w *Worker) {
			defer t.wg.Done()
			w.Run(ctx)
		}(w)
	}
	return t, nil
}

// Wait blocks until every worker has returned
func (t *Tasks) Wait() {
	t.wg.Wait()
}
