package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
)

// WriteTable renders checks as a table followed by a totals line
func WriteTable(w io.Writer, checks []Check, summary Summary) error {
	if len(checks) == 0 {
		_, err := fmt.Fprintln(w, "No status checks recorded")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header("Check", "Result", "Origin", "Missing", "Time")

	for _, c := range checks {
		missing := "-"
		if len(c.Missing) > 0 {
			missing = strings.Trim(fmt.Sprint(c.Missing), "[]")
		}
		origin := "-"
		if len(c.Origins) > 0 {
			origin = strings.Join(c.Origins, ",")
		}
		if err := table.Append(
			fmt.Sprintf("#%d", c.Number),
			c.Result(),
			origin,
			missing,
			c.At.Format(time.TimeOnly),
		); err != nil {
			return fmt.Errorf("failed to append check #%d: %w", c.Number, err)
		}
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	_, err := fmt.Fprintf(w, "\nTotal checks: %d (passed %d, failed %d)\n", summary.Total, summary.Passed, summary.Failed)
	return err
}

// Export is the JSON document written by WriteJSON
type Export struct {
	RunID   string  `json:"run_id,omitempty"`
	Summary Summary `json:"summary"`
	Checks  []Check `json:"checks"`
}

// WriteJSON writes checks and totals as indented JSON
func WriteJSON(w io.Writer, runID string, checks []Check, summary Summary) error {
	if checks == nil {
		checks = []Check{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Export{RunID: runID, Summary: summary, Checks: checks}); err != nil {
		return fmt.Errorf("failed to encode checks: %w", err)
	}
	return nil
}
