package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/smartinbox/internal/config"
	"github.com/teemow/smartinbox/internal/session"
)

func newAuthURLCmd() *cobra.Command {
	var clientID string

	cmd := &cobra.Command{
		Use:   "auth-url",
		Short: "Print the Google sign-in URL",
		Long: `Print the Google sign-in URL for the implicit OAuth flow.

After signing in, the browser is redirected to auth.redirect_uri with the
access token in the URL fragment (#access_token=...). Pass that token to
other commands with --token or SMARTINBOX_AUTH_ACCESS_TOKEN.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := appConfig
			if clientID != "" {
				cfg.Auth.ClientID = clientID
			}
			if err := config.ValidateAuth(cfg); err != nil {
				return err
			}

			url, err := session.AuthURL(authConfig(cfg))
			if err != nil {
				return fmt.Errorf("failed to build sign-in URL: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), url)
			return err
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "Google OAuth client ID (overrides auth.client_id)")
	return cmd
}
