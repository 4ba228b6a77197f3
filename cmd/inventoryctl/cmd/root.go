package cmd

import (
	"github.com/spf13/cobra"

	"github.com/inventory-ds/inventory-ds/internal/app"
)

var rootCmd = &cobra.Command{
	Use:           "inventoryctl",
	Short:         "Operational commands for the inventory service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func loadConfig() (*app.Config, error) {
	return app.LoadConfig()
}
