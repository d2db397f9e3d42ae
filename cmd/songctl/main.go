// Command songctl is the operator CLI: migrations, credit adjustments, job
// maintenance and catalog checks.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"songdrop/internal/adapter/repo"
	"songdrop/internal/infra"
)

var Version = "dev"

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "songctl",
		Short:         "Operator tooling for the song service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(creditsCmd())
	rootCmd.AddCommand(jobsCmd())
	rootCmd.AddCommand(catalogCmd())
	rootCmd.AddCommand(webhookCmd())
	return rootCmd
}

// env is what database backed subcommands share.
type env struct {
	cfg    *infra.Config
	logger infra.Logger
	store  *repo.Store
	close  func()
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := infra.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger := infra.NewLogger(cfg.AppEnv, "songctl").Level(zerolog.WarnLevel)
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return &env{
		cfg:    cfg,
		logger: logger,
		store:  repo.NewStore(infra.NewSQLRunner(pool, logger)),
		close:  pool.Close,
	}, nil
}
