// Package cli wires the mantra commands.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/mantradev/mantra/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "mantra",
	Short: "Tiered affirmation session engine",
	Long: `mantra resolves guided affirmation sessions through a cost ladder of
exact templates, pooled assembly and paid generation, and serves the
synthesized audio from a content-addressed cache.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.LoadConfig()
	},
}

func Execute() error {
	return rootCmd.Execute()
}
