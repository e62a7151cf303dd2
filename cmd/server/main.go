package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"patrol_tracker/internal/config"
	"patrol_tracker/internal/logger"
)

func main() {
	var cfg config.Config

	rootCmd := &cobra.Command{
		Use:           "patrol",
		Short:         "Guard duty and patrol verification server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg = config.Load()
			logger.Setup(logger.Options{File: cfg.LogFile, Level: cfg.LogLevel})
		},
	}

	rootCmd.AddCommand(
		setupServeCommand(&cfg),
		setupSweepCommand(&cfg),
		setupMigrateCommand(&cfg),
	)

	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}
