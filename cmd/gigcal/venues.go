package main

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/gigcal/gigcal/internal/config"
	"github.com/gigcal/gigcal/internal/ui"
	"github.com/gigcal/gigcal/internal/venues"
)

var venuesCmd = &cobra.Command{
	Use:     "venues",
	GroupID: "advanced",
	Short:   "Inspect and edit the venue resolution table",
}

var venuesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List canonical venues, aliases, and match rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		table, _, err := loadVenueTable()
		if err != nil {
			return err
		}

		fmt.Printf("%s Venues\n", ui.RenderAccent("■"))
		for _, name := range table.CanonicalNames() {
			fmt.Printf("  %s\n", name)
		}

		if len(table.Aliases) > 0 {
			fmt.Printf("\n%s Aliases\n", ui.RenderAccent("■"))
			aliases := make([]string, 0, len(table.Aliases))
			for alias := range table.Aliases {
				aliases = append(aliases, alias)
			}
			sort.Strings(aliases)
			for _, alias := range aliases {
				fmt.Printf("  %s -> %s\n", alias, table.Aliases[alias])
			}
		}

		if len(table.Rules) > 0 {
			fmt.Printf("\n%s Rules (evaluated in order)\n", ui.RenderAccent("■"))
			for i, r := range table.Rules {
				fmt.Printf("  %d. /%s/ -> %s\n", i+1, r.Pattern, r.Canonical)
			}
		}
		return nil
	},
}

var venuesMapCmd = &cobra.Command{
	Use:   "map [alias]",
	Short: "Interactively map an alias to a canonical venue",
	Long: `Add an alias to the venue table so future sheet rows using it resolve
to the canonical name. The alias may be given as an argument or entered
interactively.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		table, path, err := loadVenueTable()
		if err != nil {
			return err
		}
		names := table.CanonicalNames()
		if len(names) == 0 {
			return fmt.Errorf("venue table %s has no canonical venues to map to", path)
		}

		var alias, canonical string
		if len(args) == 1 {
			alias = args[0]
		}

		fields := []huh.Field{}
		if alias == "" {
			fields = append(fields, huh.NewInput().
				Title("Alias").
				Description("The venue string as it appears in the sheet").
				Value(&alias))
		}
		options := make([]huh.Option[string], 0, len(names))
		for _, name := range names {
			options = append(options, huh.NewOption(name, name))
		}
		fields = append(fields, huh.NewSelect[string]().
			Title("Canonical venue").
			Options(options...).
			Value(&canonical))

		if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
			return err
		}

		if err := table.AddAlias(alias, canonical); err != nil {
			return err
		}
		if err := table.Save(path); err != nil {
			return err
		}
		fmt.Printf("%s %q now resolves to %q\n", ui.RenderPass("✓"), alias, canonical)
		return nil
	},
}

func loadVenueTable() (*venues.Table, string, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, "", err
	}
	table, err := venues.LoadTable(cfg.VenueTable)
	if err != nil {
		return nil, "", err
	}
	return table, cfg.VenueTable, nil
}

func init() {
	venuesCmd.AddCommand(venuesListCmd)
	venuesCmd.AddCommand(venuesMapCmd)
	rootCmd.AddCommand(venuesCmd)
}
