package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/SscSPs/club_ledger/internal/core/domain"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [account-id...]",
	Short: "Check that stored balances match their ledgers",
	Long: `Recompute each account's balance from its ledger entries and compare it
with the stored balance. With no arguments every account, inactive ones
included, is checked. Exits non-zero if any account is inconsistent.`,
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx, svc, closeStore, err := openServices(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	ids := args
	if len(ids) == 0 {
		accounts, err := svc.Account.ListAccounts(ctx, domain.AccountFilter{IncludeInactive: true})
		if err != nil {
			return err
		}
		for _, acc := range accounts {
			ids = append(ids, acc.AccountID)
		}
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ACCOUNT\tSTORED\tLEDGER\tENTRIES\tOK")
	bad := 0
	for _, id := range ids {
		v, err := svc.Account.VerifyAccountBalance(ctx, id)
		if err != nil {
			return err
		}
		if !v.Consistent {
			bad++
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%t\n", v.AccountID, v.StoredBalance.StringFixed(2), v.LedgerTotal.StringFixed(2), v.EntryCount, v.Consistent)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if bad > 0 {
		return fmt.Errorf("%d of %d accounts are inconsistent", bad, len(ids))
	}
	return nil
}
