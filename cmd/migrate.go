package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Alturino/checkout/internal/config"
	"github.com/Alturino/checkout/internal/constants"
	"github.com/Alturino/checkout/internal/infra"
)

func newMigrateCommand() *cobra.Command {
	var configName string
	cmd := &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(infra.MigrateUp), string(infra.MigrateDown)},
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cmd.Context()
			cfg := config.InitConfig(c, configName)
			return infra.Migrate(c, cfg.Database, infra.MigrateDirection(args[0]))
		},
	}
	cmd.Flags().StringVar(&configName, "config", constants.AppOrderService, "config file name under ./env")
	return cmd
}
