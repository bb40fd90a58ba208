package cmd

import (
	"fmt"
	"log/slog"

	"github.com/SscSPs/club_ledger/internal/platform/seed"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed <file.yaml>",
	Short: "Create bank, cash and category accounts from a YAML file",
	Long: `Create the accounts listed in a seed file. Accounts that already
exist (same kind and name, ignoring case) are skipped, so seeding twice is safe.`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	file, err := seed.LoadFile(args[0])
	if err != nil {
		return err
	}

	ctx, svc, closeStore, err := openServices(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	res, err := seed.Apply(ctx, svc.Account, file, actorID, slog.Default())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created: %d\n", len(res.Created))
	for _, name := range res.Created {
		fmt.Fprintf(out, "  + %s\n", name)
	}
	fmt.Fprintf(out, "Skipped: %d\n", len(res.Skipped))
	for _, name := range res.Skipped {
		fmt.Fprintf(out, "  = %s\n", name)
	}
	return nil
}
