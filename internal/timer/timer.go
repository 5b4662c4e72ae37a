package timer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/psantana5/intcheck/pkg/logging"
)

// Flag is the only thing a timer callback can touch. Implementations must
// return immediately; monitor.Raiser satisfies it.
type Flag interface {
	Raise()
}

// Context is handed to a callback on every tick. It carries no channel,
// lock or writer, so a callback written against it has nothing to block on.
type Context struct {
	flag Flag
	tick uint64
}

// Raise sets the flag the timer was created with
func (c Context) Raise() { c.flag.Raise() }

// Tick is the 1-based number of this expiry
func (c Context) Tick() uint64 { return c.tick }

// Callback runs on the timer goroutine for each expiry.
type Callback func(Context)

// RaiseOnTick is the default callback: request a check on every expiry.
func RaiseOnTick(c Context) { c.Raise() }

// Recurring is an auto-reload software timer. It is created stopped and
// runs from Run until its context ends.
type Recurring struct {
	name     string
	period   time.Duration
	flag     Flag
	callback Callback
	logger   *logging.Logger

	ticks   atomic.Uint64
	running atomic.Bool
}

// New creates a recurring timer that is not yet running
func New(name string, period time.Duration, flag Flag, callback Callback, logger *logging.Logger) (*Recurring, error) {
	if period <= 0 {
		return nil, fmt.Errorf("timer %q: period must be positive, got %v", name, period)
	}
	if flag == nil {
		return nil, fmt.Errorf("timer %q: flag is required", name)
	}
	if callback == nil {
		callback = RaiseOnTick
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Recurring{
		name:     name,
		period:   period,
		flag:     flag,
		callback: callback,
		logger:   logger.Component("timer").WithField("timer", name),
	}, nil
}

// ErrAlreadyRunning is returned when Run is called on a running timer.
var ErrAlreadyRunning = errors.New("timer: already running")

// Run fires the callback every period until ctx is done.
func (r *Recurring) Run(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer r.running.Store(false)

	r.logger.Info("timer started", logging.Fields{"period": r.period.String()})

	ticker := time.NewTicker(r.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("timer stopped", logging.Fields{"ticks": r.Ticks()})
			return ctx.Err()
		case <-ticker.C:
			r.callback(Context{flag: r.flag, tick: r.ticks.Add(1)})
		}
	}
}

// Ticks returns how many times the timer has expired
func (r *Recurring) Ticks() uint64 {
	return r.ticks.Load()
}

// Period returns the reload period
func (r *Recurring) Period() time.Duration {
	return r.period
}
