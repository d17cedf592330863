package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var tiersCmd = &cobra.Command{
	Use:   "tiers",
	Short: "Muestra el catálogo de tiers efectivo",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		catalog, err := cfg.LoadCatalog()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tBASE PRICE\tFEATURES")
		for _, t := range catalog.List() {
			name := t.Name
			if name == cfg.DefaultTier {
				name += " (default)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", name, t.BasePrice, strings.Join(t.Features, ","))
		}
		return w.Flush()
	},
}
