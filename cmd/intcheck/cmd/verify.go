package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	verifyChecks  uint64
	verifyTimeout time.Duration
)

// ErrVerifyFailed is returned when any status check reported FAIL
var ErrVerifyFailed = errors.New("status check failed")

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Run until N timer checks complete and report the result",
	Long: `Runs the demo without console input until the monitor has performed the
requested number of status checks, then prints the summary. Exits non-zero
if any check failed or the checks did not complete in time.`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().Uint64Var(&verifyChecks, "checks", 3, "number of status checks to wait for")
	verifyCmd.Flags().DurationVar(&verifyTimeout, "timeout", time.Minute, "give up after this long")
}

func runVerify(cmd *cobra.Command, args []string) error {
	if verifyChecks == 0 {
		return errors.New("--checks must be at least 1")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	d, err := newDemo(cfg, out)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if err := d.start(ctx); err != nil {
		cancel()
		return errors.Join(err, d.stop())
	}

	durations, _ := cfg.Durations()
	completed := d.waitForChecks(ctx, verifyChecks, durations.PollInterval, verifyTimeout)

	cancel()
	if err := d.stop(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	if err := d.writeSummary(out); err != nil {
		return err
	}

	if !completed {
		return fmt.Errorf("only %d of %d status checks completed within %s", d.monitor.Count(), verifyChecks, verifyTimeout)
	}
	if summary := d.history.Summary(); summary.Failed > 0 {
		return fmt.Errorf("%w: %d of %d checks", ErrVerifyFailed, summary.Failed, summary.Total)
	}
	return nil
}

// waitForChecks blocks until the monitor has performed n checks or timeout
// elapses. It reports whether n checks completed.
func (d *demo) waitForChecks(ctx context.Context, n uint64, every, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for d.monitor.Count() < n {
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return false
		case <-ticker.C:
		}
	}
	return true
}
