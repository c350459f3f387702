package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/contravault/internal/auth"
)

func tokenCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API bearer token for a user id",
		Long: `Issue a signed session token for --user (default: config user).
Use it as "Authorization: Bearer <token>" against the HTTP API.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			issuer, err := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
			if err != nil {
				return err
			}
			user := userFlag
			if user == "" {
				user = cfg.User
			}
			token, expires, err := issuer.Issue(user, email)
			if err != nil {
				return err
			}
			if jsonOutput {
				return emit(cmd.OutOrStdout(), "", map[string]any{"token": token, "userId": user, "expiresAt": expires})
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expires.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	return cmd
}
