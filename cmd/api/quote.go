package main

import (
	"fmt"
	"time"

	"content-gate/internal/domain/pricing"
	"content-gate/internal/platform/money"

	"github.com/spf13/cobra"
)

var quoteFlags struct {
	base   string
	demand float64
	age    time.Duration
}

// quoteCmd cotiza offline, sin store: útil para revisar multiplicadores.
var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Calcula el precio para un base price, demanda y antigüedad",
	Example: `  content-gate quote --base 10.00 --demand 1 --age 2h
  content-gate quote --base 9.99 --age 72h --currency eur`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		base, err := money.ParseMajor(quoteFlags.base, cfg.Currency)
		if err != nil {
			return fmt.Errorf("--base: %w", err)
		}

		now := time.Now().UTC()
		q := pricing.ComputeQuote(pricing.ContentSignal{
			ContentID:   "cli",
			BasePrice:   base,
			DemandScore: quoteFlags.demand,
			PublishedAt: now.Add(-quoteFlags.age),
		}, now)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "base:       %s\n", q.BasePrice)
		fmt.Fprintf(out, "demand:     %.2f (+%s)\n", q.DemandScore, q.DemandMultiplier.String())
		fmt.Fprintf(out, "freshness:  %s (+%s)\n", q.Age, q.FreshnessMultiplier.String())
		fmt.Fprintf(out, "price:      %s\n", q.Price)
		return nil
	},
}

func init() {
	f := quoteCmd.Flags()
	f.StringVar(&quoteFlags.base, "base", "", "Base price en unidades mayores (ej: 10.00)")
	f.Float64Var(&quoteFlags.demand, "demand", 0, "Demand score (se acota a [0,1])")
	f.DurationVar(&quoteFlags.age, "age", 30*24*time.Hour, "Antigüedad del contenido")
	_ = quoteCmd.MarkFlagRequired("base")
}
