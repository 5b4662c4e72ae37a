package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/psantana5/intcheck/pkg/logging"
	"github.com/psantana5/intcheck/pkg/shutdown"
	"github.com/spf13/cobra"
)

var showMetrics bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the demo until interrupted",
	Long: `Starts the integer math tasks, the status check timer and the monitor.
Type the status key (default 's') and Enter to request a check, or the
restart key (default 'r') to see the restart notice. Stop with Ctrl+C.`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&showMetrics, "metrics", false, "print the intcheck metrics on exit")
}

func runDemo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	d, err := newDemo(cfg, out)
	if err != nil {
		return err
	}

	ctx, cancel := shutdown.NotifyContext(context.Background())
	defer cancel()

	d.keys.Banner()
	if err := d.start(ctx); err != nil {
		cancel()
		return errors.Join(err, d.stop())
	}

	go func() {
		if err := d.keys.Listen(ctx, os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Warn("console input stopped", logging.Fields{"error": err.Error()})
		}
	}()

	<-ctx.Done()
	if err := d.stop(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	if err := d.writeSummary(out); err != nil {
		return err
	}
	if showMetrics {
		fmt.Fprintln(out)
		return d.collector.WriteText(out, "intcheck_")
	}
	return nil
}
