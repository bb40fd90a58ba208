package cmd

import (
	"fmt"

	"github.com/SscSPs/club_ledger/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	transferFrom        string
	transferTo          string
	transferAmount      string
	transferDescription string
)

var transferCmd = &cobra.Command{
	Use:   "transfer",
	Short: "Move money between two accounts",
	Example: `  ledgerctl transfer --from 7f1c... --to 2b9e... --amount 250.00 --description "cash float"`,
	RunE: runTransfer,
}

func init() {
	transferCmd.Flags().StringVar(&transferFrom, "from", "", "source account ID")
	transferCmd.Flags().StringVar(&transferTo, "to", "", "destination account ID")
	transferCmd.Flags().StringVar(&transferAmount, "amount", "", "positive amount to move")
	transferCmd.Flags().StringVar(&transferDescription, "description", "", "free-text note for both ledger entries")
	_ = transferCmd.MarkFlagRequired("from")
	_ = transferCmd.MarkFlagRequired("to")
	_ = transferCmd.MarkFlagRequired("amount")
}

func runTransfer(cmd *cobra.Command, args []string) error {
	amount, err := decimal.NewFromString(transferAmount)
	if err != nil {
		return fmt.Errorf("invalid --amount %q: %w", transferAmount, err)
	}

	ctx, svc, closeStore, err := openServices(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	res, err := svc.Transfer.TransferBetweenAccounts(ctx, dto.TransferRequest{
		FromAccountID: transferFrom,
		ToAccountID:   transferTo,
		Amount:        amount,
		Description:   transferDescription,
	}, actorID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Transfer %s\n", res.TransferID)
	fmt.Fprintf(out, "  %s -> %s: %s\n", res.FromAccountID, res.ToAccountID, res.Amount.StringFixed(2))
	fmt.Fprintf(out, "  %s balance: %s\n", res.FromAccountID, res.FromBalance.StringFixed(2))
	fmt.Fprintf(out, "  %s balance: %s\n", res.ToAccountID, res.ToBalance.StringFixed(2))
	return nil
}
