package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gigcal/gigcal/internal/engine"
	"github.com/gigcal/gigcal/internal/logging"
	"github.com/gigcal/gigcal/internal/purge"
	"github.com/gigcal/gigcal/internal/ui"
)

var purgeCmd = &cobra.Command{
	Use:     "purge",
	GroupID: "advanced",
	Short:   "Delete every future event gigcal created",
	Long: `Delete all tagged events between today and the horizon. Only events
carrying a gigcal identity marker are touched; anything else on the
calendar is left alone.

Deletions are paced and capped per invocation to stay under calendar API
rate limits; if a pass stops at the batch cap, run purge again to continue.
Progress is durable, so repeated invocations always move forward.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		batch, _ := cmd.Flags().GetInt("batch")
		force, _ := cmd.Flags().GetBool("force")

		if !force {
			return fmt.Errorf("purge is destructive; re-run with --force to confirm")
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		p := &purge.Purger{
			Calendar:     a.cal,
			State:        a.state,
			Lock:         a.lock,
			Loc:          a.loc,
			HorizonYears: a.cfg.HorizonYears,
			LockWait:     a.cfg.LockWait,
			BatchLimit:   batch,
			Pause:        200 * time.Millisecond,
			Backoff:      engine.DefaultBackoff(),
			Logger:       logging.New("[purge] ", a.cfg.LogFile),
		}

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		res, err := p.Run(ctx)
		if err != nil {
			return err
		}
		if res == nil {
			fmt.Println("Another run holds the lock; nothing done")
			return nil
		}
		if res.Done {
			fmt.Printf("%s Purge complete: %d events deleted\n", ui.RenderPass("✓"), res.Deleted)
		} else {
			fmt.Printf("%s Purge paused at batch cap: %d deleted, %d remaining\n",
				ui.RenderWarn("⚠"), res.Deleted, res.Remaining)
			fmt.Println("Run purge again to continue")
		}
		return nil
	},
}

func init() {
	purgeCmd.Flags().Int("batch", 50, "Maximum deletions per invocation")
	purgeCmd.Flags().Bool("force", false, "Confirm the destructive purge")
	rootCmd.AddCommand(purgeCmd)
}
