package report

import (
	"sync"
	"sync/atomic"
)

// History keeps the last N checks (ring buffer) plus lifetime totals.
// It is a Sink so it can sit next to the console in a Tee.
type History struct {
	checks  []Check
	maxSize int
	mu      sync.RWMutex

	total  atomic.Uint64
	passed atomic.Uint64
	failed atomic.Uint64
}

// Summary is a point-in-time view of the lifetime totals
type Summary struct {
	Total  uint64 `json:"total"`
	Passed uint64 `json:"passed"`
	Failed uint64 `json:"failed"`
}

// NewHistory creates a history holding at most maxSize checks
func NewHistory(maxSize int) *History {
	if maxSize < 1 {
		maxSize = 1
	}
	return &History{
		checks:  make([]Check, 0, maxSize),
		maxSize: maxSize,
	}
}

func (h *History) Banner(rune, rune) {}

func (h *History) Notice(...string) {}

// Report records a check, dropping the oldest when full
func (h *History) Report(c Check) {
	h.total.Add(1)
	if c.Passed {
		h.passed.Add(1)
	} else {
		h.failed.Add(1)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.checks) >= h.maxSize {
		h.checks = h.checks[1:]
	}
	h.checks = append(h.checks, c)
}

// Recent returns up to n checks, newest first. n <= 0 means all.
func (h *History) Recent(n int) []Check {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n <= 0 || n > len(h.checks) {
		n = len(h.checks)
	}
	out := make([]Check, n)
	for i := 0; i < n; i++ {
		out[i] = h.checks[len(h.checks)-1-i]
	}
	return out
}

// Len returns how many checks are retained
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.checks)
}

// Summary returns lifetime totals, including checks already evicted
func (h *History) Summary() Summary {
	return Summary{
		Total:  h.total.Load(),
		Passed: h.passed.Load(),
		Failed: h.failed.Load(),
	}
}
