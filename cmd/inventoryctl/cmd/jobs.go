package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inventory-ds/inventory-ds/jobs"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage background jobs",
}

var triggerThreshold int

var jobsTriggerCmd = &cobra.Command{
	Use:   "trigger-low-stock",
	Short: "Enqueue an immediate low-stock scan",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client := jobs.NewClient(cfg.AsynqRedis())
		defer client.Close()

		info, err := client.EnqueueLowStockScan(cmd.Context(), triggerThreshold)
		if err != nil {
			return fmt.Errorf("enqueue low stock scan: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.AddCommand(jobsTriggerCmd)
	jobsTriggerCmd.Flags().IntVar(&triggerThreshold, "threshold", 0, "stock threshold, 0 uses the worker default")
}
