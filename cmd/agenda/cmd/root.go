package cmd

import (
	"fmt"
	"os"

	"github.com/Togather-Foundation/agenda/internal/config"
	"github.com/spf13/cobra"
)

// globalFlags are shared by every subcommand and override the loaded config.
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

// Execute runs the root command. It is called once by main.main.
func Execute() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}
	serve := newServeCommand(flags)

	root := &cobra.Command{
		Use:   "agenda",
		Short: "agenda - personal calendar API server",
		Long: `agenda is a personal calendar API server backed by PostgreSQL.

Clients log in with a Firebase uid and email, then create, list, update and
delete the events on their calendar. Running agenda without a subcommand
starts the server.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve.RunE(cmd, args)
		},
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file path (optional, uses env vars by default)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error) (default: info)")
	root.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "log format (json, console) (default: json)")

	// serve's own flags are also accepted on the bare root invocation.
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve)
	root.AddCommand(newMigrateCommand(flags))
	root.AddCommand(newVersionCommand())
	root.AddCommand(newHealthcheckCommand())
	root.AddCommand(newTokenCommand(flags))
	root.AddCommand(newLoadtestCommand())
	return root
}

func (f *globalFlags) loadConfig() (config.Config, error) {
	cfg, err := config.LoadFile(f.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	if f.logFormat != "" {
		cfg.Logging.Format = f.logFormat
	}
	return cfg, nil
}
