// Package main mints bearer tokens for the lecture API's write endpoints.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aura-lectures/backend/config"
	"github.com/aura-lectures/backend/internal/auth"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		subject string
		role    string
		hours   int
	)
	cmd := &cobra.Command{
		Use:           "token",
		Short:         "Mint a signed API token using JWT_SECRET",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.JWT.Secret == "" {
				return errors.New("JWT_SECRET is not set; auth is disabled and no token is needed")
			}
			if hours <= 0 {
				hours = cfg.JWT.ExpireHours
			}
			token, err := auth.NewTokenService(cfg.JWT.Secret, hours).Generate(strings.TrimSpace(subject), role)
			if err != nil {
				return fmt.Errorf("generate token for role %q: %w", role, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "Who the token is for")
	cmd.Flags().StringVarP(&role, "role", "r", auth.RoleEditor, "Role: editor or admin")
	cmd.Flags().IntVar(&hours, "hours", 0, "Lifetime in hours (default JWT_EXPIRE_HOURS)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
