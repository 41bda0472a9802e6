package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gigcal/gigcal/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "sync",
	Short:   "Reconcile the calendar against the sheet once",
	Long: `Run one full reconciliation:

  1. Compact and date-sort the active sheet
  2. Build the desired event set for the reconciliation window
  3. Write canonical venues and identities back into the sheet
  4. Diff against the calendar's tagged events
  5. Create, update, and delete events to match

With --dry-run every step is computed and reported but nothing is written,
to the calendar or the sheet.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		summary, err := a.reconciler(a.cfg.LogFile).Run(dryRun)
		if err != nil {
			return err
		}
		printSummary(summary)
		if summary != nil && !dryRun {
			fmt.Fprintf(os.Stdout, "%s Calendar in sync\n", ui.RenderPass("✓"))
		}
		return nil
	},
}

func init() {
	syncCmd.Flags().Bool("dry-run", false, "Report planned changes without writing anything")
	rootCmd.AddCommand(syncCmd)
}
