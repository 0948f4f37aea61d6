package commands

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bookport-dev/bookport/internal/model"
	"github.com/bookport-dev/bookport/internal/numeric"
	"github.com/bookport-dev/bookport/internal/store"
)

func newAccountsCommand(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List the chart of accounts with balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnvironment(*cfgPath)
			if err != nil {
				return err
			}
			defer env.close()

			return printAccounts(cmd.Context(), cmd.OutOrStdout(), env.store)
		},
	}
	return cmd
}

func printAccounts(ctx context.Context, w io.Writer, st store.Reader) error {
	accounts, err := st.Accounts(ctx)
	if err != nil {
		return fmt.Errorf("reading accounts: %w", err)
	}
	txns, err := st.Transactions(ctx, false)
	if err != nil {
		return fmt.Errorf("reading transactions: %w", err)
	}

	balances := make(map[string]numeric.Numeric)
	for _, txn := range txns {
		for _, sp := range txn.Splits {
			sum, ok := balances[sp.AccountUID]
			if !ok {
				sum = numeric.Zero
			}
			balances[sp.AccountUID] = sum.Add(sp.Quantity)
		}
	}

	sort.Slice(accounts, func(i, j int) bool { return accounts[i].FullName < accounts[j].FullName })
	for _, a := range accounts {
		if a.IsRoot() {
			continue
		}
		bal, ok := balances[a.UID]
		if !ok {
			bal = numeric.Zero
		}
		depth := strings.Count(a.FullName, model.FullNameSeparator)
		fmt.Fprintf(w, "%s%-*s %12s %s\n",
			strings.Repeat("  ", depth),
			40-2*depth, a.Name,
			bal.Decimal().StringFixed(2), a.CommodityCode)
	}
	return nil
}
