package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	cartCmd "github.com/Alturino/checkout/cart/cmd"
	"github.com/Alturino/checkout/internal/constants"
	orderCmd "github.com/Alturino/checkout/order/cmd"
)

func Start() {
	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str(constants.KeyAppName, constants.AppCheckout).
		Str(constants.KeyTag, "main Start").
		Logger()

	logger.Info().Msg("adding listener for SIGINT and SIGTERM")
	c, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info().Msg("added listener for SIGINT and SIGTERM")

	c = logger.WithContext(c)

	rootCmd := &cobra.Command{Use: constants.AppCheckout}
	commands := []*cobra.Command{
		{
			Use:   "cart",
			Short: "Run cart service",
			Run: func(cmd *cobra.Command, args []string) {
				cartCmd.RunCartService(cmd.Context())
			},
		},
		{
			Use:   "order",
			Short: "Run order service",
			Run: func(cmd *cobra.Command, args []string) {
				orderCmd.RunOrderService(cmd.Context())
			},
		},
		{
			Use:   "events",
			Short: "Tail order events published by the order service",
			Run: func(cmd *cobra.Command, args []string) {
				orderCmd.RunOrderEventListener(cmd.Context())
			},
		},
		newMigrateCommand(),
		newTokenCommand(),
	}
	rootCmd.AddCommand(commands...)
	if err := rootCmd.ExecuteContext(c); err != nil {
		logger.Fatal().Err(err).Msgf("error when executing command=%s", err.Error())
	}
}
