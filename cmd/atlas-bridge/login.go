package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLoginCmd(opts *rootOptions, d deps) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in once to check the configured credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := wireApp(cmd, opts, d)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := runWithSpinner(cmd.Context(), cmd.ErrOrStderr(), "Signing in...", a.auth.EnsureLoggedIn); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("✓ Logged in to %s as %s", a.cfg.BaseURL, a.cfg.Credentials.Email)))
			return err
		},
	}
}
