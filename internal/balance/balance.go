// Package balance enforces the double-entry invariant: within a
// transaction, split values must sum to zero for every currency
// involved. Residuals are absorbed by per-currency imbalance accounts.
package balance

import (
	"fmt"
	"sort"

	"github.com/bookport-dev/bookport/internal/guid"
	"github.com/bookport-dev/bookport/internal/model"
	"github.com/bookport-dev/bookport/internal/numeric"
)

// ImbalancePrefix prefixes the display name of auto-created imbalance
// accounts ("Imbalance-USD").
const ImbalancePrefix = "Imbalance-"

// AccountName returns the imbalance account name for a currency code.
func AccountName(currencyCode string) string {
	return ImbalancePrefix + currencyCode
}

// Resolver returns the UID of the imbalance account for a currency,
// creating it on demand (one per currency, parented at ROOT).
type Resolver func(currencyCode string) (string, error)

// Transaction appends corrective splits to txn until its values sum to
// zero per currency. Splits are grouped by the commodity of the account
// they post to; currencyOf maps an account UID to its commodity code
// (falling back to the transaction's own currency when unknown).
func Transaction(txn *model.Transaction, currencyOf func(accountUID string) string, resolve Resolver) error {
	sums := txn.ValueSumsByCurrency(func(accountUID string) string {
		if code := currencyOf(accountUID); code != "" {
			return code
		}
		return txn.CommodityCode
	})

	codes := make([]string, 0, len(sums))
	for code, sum := range sums {
		if !sum.IsZero() {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)

	for _, code := range codes {
		accountUID, err := resolve(code)
		if err != nil {
			return fmt.Errorf("resolving imbalance account for %s: %w", code, err)
		}
		residual := sums[code].Neg()
		txn.Splits = append(txn.Splits, model.Split{
			UID:            guid.New(),
			TransactionUID: txn.UID,
			AccountUID:     accountUID,
			Type:           splitType(residual),
			Value:          residual,
			Quantity:       residual,
			ReconcileState: model.ReconcileNo,
		})
	}
	return nil
}

// Negative values are credits in this dialect.
func splitType(v numeric.Numeric) model.SplitType {
	if v.Sign() < 0 {
		return model.SplitTypeCredit
	}
	return model.SplitTypeDebit
}
