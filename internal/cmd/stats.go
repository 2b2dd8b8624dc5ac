package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/photocore/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show or bump the usage counters",
	Long: `Show the usage counters (photos edited, filter count, active users).

Counters live in the SQLite database given by --stats-db; without one
only the defaults are shown.`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().String("increment", "", "Counter to increment before printing")
	statsCmd.Flags().Int64("delta", 1, "Amount to add with --increment")
}

func runStats(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	svc, cleanup, err := newService()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signalContext()
	defer stop()

	if name, _ := cmd.Flags().GetString("increment"); name != "" {
		delta, _ := cmd.Flags().GetInt64("delta")
		v, err := svc.Increment(ctx, name, delta)
		if err != nil {
			return fmt.Errorf("failed to increment %s: %w", name, err)
		}
		logger.Debug("Counter incremented", "counter", name, "value", v)
	}

	snap, err := svc.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read counters: %w", err)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COUNTER\tVALUE")
	for _, name := range stats.Names(snap) {
		fmt.Fprintf(tw, "%s\t%d\n", name, snap[name])
	}
	return tw.Flush()
}
