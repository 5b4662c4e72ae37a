package intmath

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/psantana5/intcheck/internal/liveness"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRecorder struct {
	mu         sync.Mutex
	iterations map[int]int
	signals    map[int]int
	latched    map[int]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{
		iterations: map[int]int{},
		signals:    map[int]int{},
		latched:    map[int]int{},
	}
}

func (r *countingRecorder) WorkerIteration(id int) { r.mu.Lock(); r.iterations[id]++; r.mu.Unlock() }
func (r *countingRecorder) WorkerSignal(id int)    { r.mu.Lock(); r.signals[id]++; r.mu.Unlock() }
func (r *countingRecorder) WorkerLatched(id int)   { r.mu.Lock(); r.latched[id]++; r.mu.Unlock() }

func newWorker(t *testing.T, cfg WorkerConfig) (*Worker, *liveness.Registry) {
	t.Helper()
	reg, err := liveness.NewRegistry(1)
	require.NoError(t, err)
	slot, err := reg.Slot(0)
	require.NoError(t, err)
	w, err := NewWorker(slot, cfg)
	require.NoError(t, err)
	return w, reg
}

func TestDefaultOperands_Expected(t *testing.T) {
	// (123 + 234567) * -3 = -704070; -704070 / 7 = -100581.43, truncated.
	assert.Equal(t, int64(-100581), DefaultOperands.Expected())
}

func TestExpected_TruncatesTowardZero(t *testing.T) {
	assert.Equal(t, int64(-2), Operands{C1: 3, C2: 4, C3: -1, C4: 3}.Expected())
	assert.Equal(t, int64(2), Operands{C1: 3, C2: 4, C3: 1, C4: 3}.Expected())
}

func TestOperands_ZeroDivisor(t *testing.T) {
	err := Operands{C1: 1, C2: 1, C3: 1, C4: 0}.Validate()
	assert.True(t, errors.Is(err, ErrInvalidOperands))

	reg, _ := liveness.NewRegistry(1)
	slot, _ := reg.Slot(0)
	_, err = NewWorker(slot, WorkerConfig{Operands: Operands{C4: 0}})
	assert.True(t, errors.Is(err, ErrInvalidOperands))
}

func TestStep_SignalsOnCorrectResult(t *testing.T) {
	rec := newCountingRecorder()
	w, reg := newWorker(t, WorkerConfig{Operands: DefaultOperands, Recorder: rec})

	for check := 0; check < 5; check++ {
		assert.True(t, w.Step())
		assert.True(t, reg.Sweep(), "check %d", check)
	}
	assert.Equal(t, uint64(5), w.Iterations())
	assert.False(t, w.Latched())
	assert.Equal(t, 5, rec.signals[0])
}

func TestStep_CooperativeYieldGivesSameResult(t *testing.T) {
	w, reg := newWorker(t, WorkerConfig{Operands: DefaultOperands, Cooperative: true})

	assert.True(t, w.Step())
	assert.True(t, reg.Sweep())
}

func TestStep_MismatchLatchesForever(t *testing.T) {
	rec := newCountingRecorder()
	w, reg := newWorker(t, WorkerConfig{
		Operands: DefaultOperands,
		Fault:    CorruptOnce(3),
		Recorder: rec,
	})

	assert.True(t, w.Step())
	assert.True(t, w.Step())
	assert.True(t, reg.Sweep())

	// Iteration 3 is corrupted; every later iteration computes correctly
	// but the worker must still never check in again.
	assert.False(t, w.Step())
	assert.True(t, w.Latched())
	for i := 0; i < 10; i++ {
		assert.False(t, w.Step())
		assert.False(t, reg.Sweep())
	}
	assert.Equal(t, 1, rec.latched[0])
	assert.Equal(t, 2, rec.signals[0])
	assert.Equal(t, 13, rec.iterations[0])
}

func TestRun_StopsOnCancel(t *testing.T) {
	for _, interval := range []time.Duration{0, time.Millisecond} {
		w, reg := newWorker(t, WorkerConfig{Operands: DefaultOperands, Interval: interval})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			w.Run(ctx)
			close(done)
		}()

		require.Eventually(t, func() bool { return w.Iterations() > 2 }, time.Second, time.Millisecond)
		cancel()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatalf("worker with interval %v did not stop", interval)
		}
		assert.True(t, reg.Sweep())
	}
}

func TestStartTasks_OneWorkerPerSlot(t *testing.T) {
	reg, err := liveness.NewRegistry(3)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	tasks, err := StartTasks(ctx, reg, func(id int) WorkerConfig {
		return WorkerConfig{Operands: DefaultOperands, Interval: time.Millisecond}
	})
	require.NoError(t, err)
	require.Len(t, tasks.Workers, 3)

	require.Eventually(t, func() bool {
		for _, w := range tasks.Workers {
			if w.Iterations() == 0 {
				return false
			}
		}
		return true
	}, time.Second, time.Millisecond)

	assert.True(t, reg.Sweep())
	cancel()
	tasks.Wait()
}

func TestStartTasks_InvalidOperands(t *testing.T) {
	reg, _ := liveness.NewRegistry(1)
	_, err := StartTasks(context.Background(), reg, func(int) WorkerConfig {
		return WorkerConfig{}
	})
	assert.True(t, errors.Is(err, ErrInvalidOperands))
}
