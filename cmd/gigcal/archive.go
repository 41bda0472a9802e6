package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gigcal/gigcal/internal/ui"
)

var archiveCmd = &cobra.Command{
	Use:     "archive",
	GroupID: "sync",
	Short:   "Move past show rows to the archive sheet",
	Long: `Move every row dated before today from the active sheet to the end of
the archive sheet, then re-sort both. Rows keep their full contents,
including ratings and notes. The daemon runs this automatically before its
daily reconciliation.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		mover, err := a.mover(a.cfg.LogFile)
		if err != nil {
			return err
		}
		moved, err := mover.Run()
		if err != nil {
			return err
		}
		if moved == 0 {
			fmt.Println("Nothing to archive")
			return nil
		}
		fmt.Printf("%s Archived %d rows\n", ui.RenderPass("✓"), moved)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(archiveCmd)
}
