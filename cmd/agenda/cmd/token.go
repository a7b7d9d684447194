package cmd

import (
	"errors"
	"fmt"

	"github.com/Togather-Foundation/agenda/internal/auth"
	"github.com/spf13/cobra"
)

func newTokenCommand(global *globalFlags) *cobra.Command {
	var (
		userID   int64
		username string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for a user",
		Long: `Sign a JWT for an existing user with the configured JWT_SECRET, for
calling the events routes by hand when AUTH_REQUIRED is enabled.

Example:
  curl -H "Authorization: Bearer $(agenda token --user-id 1 --username jane)" \
    "http://localhost:8080/events?userId=1"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := global.loadConfig()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if cfg.Auth.JWTSecret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			token, err := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.Issuer).
				Generate(userID, username)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user-id", 0, "user id to put in the subject claim")
	cmd.Flags().StringVar(&username, "username", "", "username claim")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}
