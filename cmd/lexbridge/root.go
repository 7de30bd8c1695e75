package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"lexbridge/internal/infra/config"
	"lexbridge/internal/infra/logger"
)

// rootOpts are flags shared by all subcommands.
type rootOpts struct {
	configPath string
	baseURL    string
	token      string
}

func newRootCmd() *cobra.Command {
	opts := &rootOpts{}

	cmd := &cobra.Command{
		Use:          "lexbridge",
		Short:        "Streaming chat client for the legal-operations workspace",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath(), "path to config file")
	cmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "BFF base URL (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.token, "token", "", "bearer token (overrides config)")

	cmd.AddCommand(
		newChatCmd(opts),
		newSessionsCmd(opts),
		newPlaybooksCmd(opts),
		newMatterCmd(opts),
	)
	return cmd
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "lexbridge.yaml"
	}
	return filepath.Join(home, ".lexbridge", "config.yaml")
}

// loadEnv resolves config, logger and bearer token from flags + config file.
func loadEnv(opts *rootOpts) (*config.Config, *slog.Logger, func() error, string, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, nil, nil, "", err
	}
	if opts.baseURL != "" {
		cfg.BFF.BaseURL = opts.baseURL
	}
	if opts.token != "" {
		cfg.BFF.Token = opts.token
		cfg.BFF.TokenFile = ""
	}

	log, closer, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, nil, nil, "", err
	}

	token, err := cfg.BFF.BearerToken()
	if err != nil {
		closer()
		return nil, nil, nil, "", err
	}
	if token == "" {
		closer()
		return nil, nil, nil, "", fmt.Errorf("no bearer token configured (set bff.token, bff.token_file, or --token)")
	}

	return cfg, log, closer, token, nil
}
