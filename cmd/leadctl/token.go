package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/octobees/leads-extractor/internal/auth"
	"github.com/octobees/leads-extractor/internal/config"
)

type tokenFlags struct {
	subject string
	role    string
	ttl     time.Duration
}

func newTokenCmd() *cobra.Command {
	var f tokenFlags
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ttl := cfg.TokenTTL
			if f.ttl > 0 {
				ttl = f.ttl
			}
			token, err := auth.NewJWTManager(cfg.JWTSecret, ttl).GenerateToken(f.subject, f.role)
			if err != nil {
				return fmt.Errorf("mint token: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}

	cmd.Flags().StringVar(&f.subject, "subject", "", "client the token is issued to")
	cmd.Flags().StringVar(&f.role, "role", auth.RoleClient, "role granted: client or admin")
	cmd.Flags().DurationVar(&f.ttl, "ttl", 0, "token lifetime (defaults to JWT_TTL)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
