package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gigcal/gigcal/internal/config"
	"github.com/gigcal/gigcal/internal/state"
	"github.com/gigcal/gigcal/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "sync",
	Short:   "Show the most recent run summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		st, err := state.Open(cfg.StateDB)
		if err != nil {
			return err
		}
		defer st.Close()

		summary, err := st.LastSummary()
		if err != nil {
			return err
		}
		if summary == "" {
			fmt.Printf("%s No runs recorded yet\n", ui.RenderWarn("⚠"))
			fmt.Println("Run 'gigcal sync' to reconcile")
			return nil
		}
		fmt.Println(summary)

		if cursor, ok, err := st.PurgeCursor(); err == nil && ok {
			fmt.Printf("\n%s Purge in progress: %d events deleted so far\n",
				ui.RenderAccent("→"), cursor)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
