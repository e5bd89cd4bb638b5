package cmd

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Alturino/checkout/internal/auth"
	"github.com/Alturino/checkout/internal/config"
	"github.com/Alturino/checkout/internal/constants"
)

func newTokenCommand() *cobra.Command {
	var (
		configName string
		userID     string
		role       string
		ttl        time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token signed with the configured secret key",
		RunE: func(cmd *cobra.Command, args []string) error {
			id := uuid.New()
			if userID != "" {
				parsed, err := uuid.Parse(userID)
				if err != nil {
					return fmt.Errorf("failed parsing user-id=%s with error=%w", userID, err)
				}
				id = parsed
			}
			if role != constants.RoleCustomer && role != constants.RoleAdmin {
				return fmt.Errorf("unknown role=%s", role)
			}

			cfg := config.InitConfig(cmd.Context(), configName)
			token, err := auth.NewToken(id, role, cfg.Application.SecretKey, ttl)
			if err != nil {
				return fmt.Errorf("failed issuing token with error=%w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&configName, "config", constants.AppOrderService, "config file name under ./env")
	cmd.Flags().StringVar(&userID, "user-id", "", "subject of the token, random when empty")
	cmd.Flags().StringVar(&role, "role", constants.RoleCustomer, "customer or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
