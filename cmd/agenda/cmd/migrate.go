package cmd

import (
	"fmt"

	"github.com/Togather-Foundation/agenda/internal/storage/postgres"
	"github.com/spf13/cobra"
)

func newMigrateCommand(global *globalFlags) *cobra.Command {
	var migrationsPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long: `Apply or roll back the users and events schema.

Migrations are embedded in the binary. Pass --path to read them from a
directory instead (useful while writing a new migration).

Examples:
  agenda migrate up
  agenda migrate down --steps 1
  agenda migrate version`,
	}
	cmd.PersistentFlags().StringVar(&migrationsPath, "path", "", "migrations directory (default: embedded)")

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			databaseURL, err := global.databaseURL()
			if err != nil {
				return err
			}
			if err := postgres.MigrateUp(databaseURL, migrationsPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps <= 0 {
				return fmt.Errorf("--steps must be > 0")
			}
			databaseURL, err := global.databaseURL()
			if err != nil {
				return err
			}
			if err := postgres.MigrateDown(databaseURL, migrationsPath, steps); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s)\n", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			databaseURL, err := global.databaseURL()
			if err != nil {
				return err
			}
			v, dirty, err := postgres.MigrationVersion(databaseURL, migrationsPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", v, dirty)
			return nil
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}

func (f *globalFlags) databaseURL() (string, error) {
	cfg, err := f.loadConfig()
	if err != nil {
		return "", fmt.Errorf("config error: %w", err)
	}
	return cfg.Database.URL, nil
}
