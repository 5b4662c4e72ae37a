package report

import (
	"fmt"
	"io"
	"sync"
)

// Sink receives everything the demo prints.
type Sink interface {
	Banner(statusKey, restartKey rune)
	Notice(lines ...string)
	Report(c Check)
}

// Console writes to an io.Writer. Writes are serialized so lines from the
// monitor and the key handler never interleave.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole creates a console sink
func NewConsole(w io.Writer) *Console {
	return &Console{out: w}
}

func (c *Console) Banner(statusKey, restartKey rune) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "\nStarting the integer math demo. Press '%c' to display status, '%c' to restart tasks.\n\n",
		statusKey, restartKey)
}

func (c *Console) Notice(lines ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out)
	for _, line := range lines {
		fmt.Fprintln(c.out, line)
	}
}

func (c *Console) Report(check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, check.Line())
}

type tee []Sink

// Tee fans every call out to all sinks in order
func Tee(sinks ...Sink) Sink {
	return tee(sinks)
}

func (t tee) Banner(statusKey, restartKey rune) {
	for _, s := range t {
		s.Banner(statusKey, restartKey)
	}
}

func (t tee) Notice(lines ...string) {
	for _, s := range t {
		s.Notice(lines...)
	}
}

func (t tee) Report(c Check) {
	for _, s := range t {
		s.Report(c)
	}
}
