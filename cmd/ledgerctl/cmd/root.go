// Package cmd provides the ledgerctl commands.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/SscSPs/club_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/club_ledger/internal/core/ports/services"
	"github.com/SscSPs/club_ledger/internal/core/services"
	"github.com/SscSPs/club_ledger/internal/middleware"
	"github.com/SscSPs/club_ledger/internal/platform/config"
	"github.com/SscSPs/club_ledger/internal/repositories"
	"github.com/spf13/cobra"
)

var (
	debug   bool
	actorID string
)

var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Operate the club ledger from the command line",
	Long: `ledgerctl works directly against the configured ledger store
(STORAGE_DRIVER and friends, read from the environment or .env).

Example:
  ledgerctl seed accounts.yaml
  ledgerctl transfer --from <bank-id> --to <cash-id> --amount 200
  ledgerctl verify`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logLevel := slog.LevelInfo
		if debug {
			logLevel = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	},
}

// Execute runs the root command. It is called once by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&actorID, "actor", domain.SystemActor, "actor recorded on ledger entries")

	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(transferCmd)
	rootCmd.AddCommand(verifyCmd)
}

// openServices loads configuration and wires the services against the configured store.
// The returned context carries the CLI logger so services log through it.
func openServices(ctx context.Context) (context.Context, *portssvc.ServiceContainer, func(), error) {
	logger := slog.Default()
	cfg, err := config.LoadConfig()
	if err != nil {
		return ctx, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	repos, closeStore, err := repositories.Open(ctx, cfg, logger)
	if err != nil {
		return ctx, nil, nil, fmt.Errorf("failed to open %s storage: %w", cfg.StorageDriver, err)
	}
	ctx = middleware.WithLogger(ctx, logger.With(slog.String("actor_id", actorID)))
	return ctx, services.NewServiceContainer(cfg, repos), closeStore, nil
}
