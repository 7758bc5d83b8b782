package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mantradev/mantra/internal/config"
	"github.com/mantradev/mantra/internal/seed"
	"github.com/mantradev/mantra/internal/store"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the starter catalog into the store",
	Long: `seed applies a YAML catalog of pool lines and protected templates.
It is idempotent: existing lines are left untouched and templates that
already exist are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.NewSQLiteStore(config.AppConfig.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		sum, err := seed.Run(st, seedFile)
		if err != nil {
			return err
		}
		fmt.Printf("Seeded %d lines and %d templates (%d templates already present)\n",
			sum.Lines, sum.Templates, sum.SkippedTemplates)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "seeds/catalog.yaml", "catalog file to load")
	rootCmd.AddCommand(seedCmd)
}
