package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/psantana5/intcheck/internal/report"
	"github.com/psantana5/intcheck/pkg/logging"
)

// Keys are the recognised single-character commands
type Keys struct {
	Status  rune
	Restart rune
}

// DefaultKeys are 's' for status and 'r' for restart
var DefaultKeys = Keys{Status: 's', Restart: 'r'}

// Action is what a key press did
type Action int

const (
	ActionIgnored Action = iota
	ActionStatusRequested
	ActionRestartUnsupported
)

// Raiser requests a status check; monitor.Raiser satisfies it.
type Raiser interface {
	Raise()
}

// Handler turns key presses into check requests. It has no access to the
// workers, so a restart request can only be acknowledged.
type Handler struct {
	keys      Keys
	status    Raiser
	sink      report.Sink
	logger    *logging.Logger
	onRestart func()
}

// NewHandler creates a key handler
func NewHandler(keys Keys, status Raiser, sink report.Sink, logger *logging.Logger) (*Handler, error) {
	if keys.Status == keys.Restart {
		return nil, fmt.Errorf("console: status and restart keys must differ, both are %q", keys.Status)
	}
	if status == nil || sink == nil {
		return nil, errors.New("console: raiser and sink are required")
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handler{
		keys:      keys,
		status:    status,
		sink:      sink,
		logger:    logger.Component("console"),
		onRestart: func() {},
	}, nil
}

// OnRestart sets a hook called for each restart request, e.g. to count it.
func (h *Handler) OnRestart(fn func()) {
	if fn != nil {
		h.onRestart = fn
	}
}

// Banner prints the startup banner naming both keys
func (h *Handler) Banner() {
	h.sink.Banner(h.keys.Status, h.keys.Restart)
}

// Handle processes a single key press
func (h *Handler) Handle(key rune) Action {
	switch key {
	case h.keys.Status:
		h.sink.Notice("Manual status check requested...")
		h.status.Raise()
		return ActionStatusRequested

	case h.keys.Restart:
		h.sink.Notice(
			"Restarting integer math tasks...",
			"Note: Task restart requires system reset in this demo.",
			"",
		)
		h.logger.Warn("restart requested but not supported at runtime")
		h.onRestart()
		return ActionRestartUnsupported

	default:
		return ActionIgnored
	}
}

// Listen reads runes from r and handles each one until EOF or ctx is done.
// A blocked read is not interrupted by ctx; Listen returns after the next
// rune arrives.
func (h *Handler) Listen(ctx context.Context, r io.Reader) error {
	reader := bufio.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		key, _, err := reader.ReadRune()
		if err != nil {
			if errors.Is(err, io.EOF) {
				h.logger.Debug("input closed")
				return nil
			}
			return fmt.Errorf("failed to read key: %w", err)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		h.Handle(key)
	}
}
