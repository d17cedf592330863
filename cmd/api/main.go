// @title Content Gate API
// @version 1.0
// @description Acceso por tiers, precio dinámico por contenido y ledger de revenue.
// @BasePath /
package main

import (
	"fmt"
	"os"

	"content-gate/internal/platform/config"

	"github.com/spf13/cobra"
)

var (
	// Version se fija en build (-ldflags)
	Version = "0.1.0"

	tiersFile string
	currency  string
)

var rootCmd = &cobra.Command{
	Use:          "content-gate",
	Short:        "Acceso por tiers y precio dinámico para contenido",
	Version:      Version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&tiersFile, "tiers-file", "", "Catálogo de tiers YAML (default: TIERS_FILE o catálogo incluido)")
	rootCmd.PersistentFlags().StringVar(&currency, "currency", "", "Moneda por defecto (default: CURRENCY o usd)")

	rootCmd.AddCommand(serveCmd, tiersCmd, quoteCmd)
}

// loadConfig aplica los flags globales sobre el entorno.
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if err := cfg.LoadFromEnv(os.Getenv); err != nil {
		return nil, err
	}
	if tiersFile != "" {
		cfg.TiersFile = tiersFile
	}
	if currency != "" {
		cfg.Currency = currency
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
