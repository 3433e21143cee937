package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/zonarhotels/liftselfie/internal/config"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "liftselfie",
		Short: "Hotel lift selfie kiosk backend",
		Long: `Lift Selfie runs the backend for an in-lift photo kiosk.

A guest taps their room card, consents to participate, three photos are
captured on a countdown, and a branded polaroid is composed and sent to
the guest's phone or email.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			logLevel := config.LogLevel()
			logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
			slog.SetDefault(logger)
		},
	}

	// Add subcommands
	cmd.AddCommand(newServeCmd())

	return cmd
}
