package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"wgnst/config"
	"wgnst/internal/auth"
	"wgnst/internal/logs"
	"wgnst/internal/secrets"
	"wgnst/internal/vpn/wireguard"
	"wgnst/server"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "wgnst",
		Short:         "WireGuard peer provisioning with one-shot config links",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runServe,
	}
	root.AddCommand(
		&cobra.Command{Use: "serve", Short: "Run the HTTP server", RunE: runServe},
		&cobra.Command{Use: "migrate", Short: "Create or update the database schema", RunE: runMigrate},
		&cobra.Command{Use: "keygen", Short: "Print a new WireGuard key pair as JSON", RunE: runKeygen},
		tokenCmd(),
		jwtCmd(),
	)
	return root
}

func runServe(_ *cobra.Command, _ []string) error {
	wireguard.MustCheckRandom()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	app := &server.App{}
	if err := app.Initialize(cfg); err != nil {
		return err
	}
	return app.Run()
}

func runMigrate(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Database.Driver == "" {
		return fmt.Errorf("database.driver is not set")
	}
	if _, _, err := server.OpenStore(cfg); err != nil {
		return err
	}
	logs.Logger.Info("migrate: schema is up to date")
	return nil
}

func runKeygen(cmd *cobra.Command, _ []string) error {
	kp, err := wireguard.GenerateKeypair()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(kp)
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "token", Short: "Manage API tokens for the management API"}

	var name, subject string
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Issue a new API token (printed once)",
		RunE: func(c *cobra.Command, _ []string) error {
			svc, err := tokenService()
			if err != nil {
				return err
			}
			raw, t, err := svc.Issue(context.Background(), name, subject)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "key_id: %s\ntoken:  %s\n", t.KeyID, raw)
			return nil
		},
	}
	issue.Flags().StringVar(&name, "name", "", "token label")
	issue.Flags().StringVar(&subject, "subject", "owner", "subject recorded in audit logs")
	_ = issue.MarkFlagRequired("name")

	revoke := &cobra.Command{
		Use:   "revoke <key-id>",
		Short: "Revoke an API token by key id",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			svc, err := tokenService()
			if err != nil {
				return err
			}
			return svc.Revoke(context.Background(), args[0])
		},
	}
	cmd.AddCommand(issue, revoke)
	return cmd
}

// API-токены храним только в БД: в in-memory режиме они бы пропали с процессом.
func tokenService() (*secrets.Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if cfg.Database.Driver == "" {
		return nil, fmt.Errorf("database.driver is not set: tokens need persistent storage")
	}
	store, _, err := server.OpenStore(cfg)
	if err != nil {
		return nil, err
	}
	return secrets.New(store), nil
}

func jwtCmd() *cobra.Command {
	var subject string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "jwt",
		Short: "Sign a bearer JWT with auth.jwt_secret",
		RunE: func(c *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			tok, err := auth.IssueJWT(cfg.Auth.JWTSecret, subject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "owner", "sub claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
