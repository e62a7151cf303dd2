package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"patrol_tracker/internal/config"
)

func setupSweepCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Deactivate assignments older than the duty period",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), *cfg, false)
			if err != nil {
				return err
			}
			defer a.close()

			expired, err := a.assignments.SweepExpired(cmd.Context())
			if err != nil {
				return err
			}
			for _, e := range expired {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", e.GuardName, e.RouteName, e.ServedText)
			}
			logrus.WithField("expired", len(expired)).Info("Duty sweep finished")
			return nil
		},
	}
}

func setupMigrateCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.OpenDB(*cfg); err != nil {
				return err
			}
			logrus.Info("Schema is up to date")
			return nil
		},
	}
}
