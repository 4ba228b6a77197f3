package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/inventory-ds/inventory-ds/internal/app"
	"github.com/inventory-ds/inventory-ds/internal/inventory"
	"github.com/inventory-ds/inventory-ds/internal/platform/db"
	"github.com/inventory-ds/inventory-ds/internal/rbac"
	"github.com/inventory-ds/inventory-ds/internal/shared"
)

var (
	seedUsername string
	seedPassword string
)

var seedOwnerCmd = &cobra.Command{
	Use:   "seed-owner",
	Short: "Create the first Owner account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedPassword == "" {
			return errors.New("--password is required")
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := app.NewLogger(cfg)
		pool, err := db.New(cmd.Context(), cfg.Postgres())
		if err != nil {
			return err
		}
		defer pool.Close()

		service := inventory.NewService(inventory.NewRepository(pool), logger, inventory.ServiceConfig{
			LowStockThreshold: cfg.LowStockThreshold,
			BcryptCost:        cfg.BcryptCost,
		})
		user, err := service.AddUser(cmd.Context(), bootstrapActor(), inventory.NewUser{
			Username: seedUsername,
			Password: seedPassword,
			Role:     string(rbac.RoleOwner),
		})
		if errors.Is(err, shared.ErrDuplicateUsername) {
			logger.Info("owner already present", slog.String("username", seedUsername))
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created owner %q with id %d\n", user.Username, user.ID)
		return nil
	},
}

// bootstrapActor is the system actor with Owner rights; its audit entries carry no user.
func bootstrapActor() rbac.Principal {
	p := rbac.System()
	p.Role = rbac.RoleOwner
	return p
}

func init() {
	rootCmd.AddCommand(seedOwnerCmd)
	seedOwnerCmd.Flags().StringVar(&seedUsername, "username", "owner", "owner username")
	seedOwnerCmd.Flags().StringVar(&seedPassword, "password", "", "owner password")
}
