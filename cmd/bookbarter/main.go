package main

import (
	stdLog "log"
	"os"
	"time"

	"github.com/Astemirdum/bookbarter/bookbarter/app"
	"github.com/Astemirdum/bookbarter/bookbarter/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

func newConfig() *config.Config {
	return config.NewConfig(
		config.WithLogLevel(zapcore.DebugLevel),
		config.WithWriteTimeout(time.Minute),
	)
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		stdLog.Fatal("load envs from .env ", err)
	}

	root := &cobra.Command{
		Use:          "bookbarter",
		Short:        "Peer-to-peer book listing and exchange API",
		SilenceUsage: true,
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API and the events consumer",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return app.Run(newConfig())
			},
		},
		&cobra.Command{
			Use:       "migrate [up|down|status]",
			Short:     "Apply or inspect database migrations",
			Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
			ValidArgs: []string{"up", "down", "status"},
			RunE: func(cmd *cobra.Command, args []string) error {
				return app.Migrate(newConfig(), args[0])
			},
		},
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
