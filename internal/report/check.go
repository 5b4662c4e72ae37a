package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/psantana5/intcheck/pkg/logging"
)

// Check is the immutable outcome of one status check. Set once, never change.
type Check struct {
	Number  uint64    `json:"number"`
	Passed  bool      `json:"passed"`
	Missing []int     `json:"missing_workers,omitempty"`
	Origins []string  `json:"origins,omitempty"`
	At      time.Time `json:"at"`
}

// Result returns PASS or FAIL
func (c Check) Result() string {
	if c.Passed {
		return "PASS"
	}
	return "FAIL"
}

// Line is the console line for this check. The leading text is only a
// label; nothing parses it.
func (c Check) Line() string {
	if c.Passed {
		return fmt.Sprintf("Message received from integer task - Status check #%d: PASS", c.Number)
	}
	return fmt.Sprintf("Message received from monitor timer - Status check #%d: FAIL - Error detected!", c.Number)
}

// LogSummary writes a one-line summary with the fields ops grep for.
func (c Check) LogSummary(logger *logging.Logger) {
	fields := logging.Fields{
		"check":   c.Number,
		"result":  c.Result(),
		"origins": strings.Join(c.Origins, ","),
	}
	if c.Passed {
		logger.Info("status check", fields)
		return
	}
	fields["missing_workers"] = fmt.Sprint(c.Missing)
	logger.Warn("status check", fields)
}
