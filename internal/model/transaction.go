package model

import (
	"time"

	"github.com/bookport-dev/bookport/internal/numeric"
)

// SplitType is the sign convention of a split.
type SplitType string

const (
	SplitTypeDebit  SplitType = "DEBIT"
	SplitTypeCredit SplitType = "CREDIT"
)

// Reconciliation states as written in the wire format.
const (
	ReconcileNo      = "n"
	ReconcileCleared = "c"
	ReconcileYes     = "y"
	ReconcileFrozen  = "f"
	ReconcileVoided  = "v"
)

// Split is one leg of a transaction, posted to exactly one account.
// Value is denominated in the transaction's commodity, Quantity in the
// owning account's commodity; they differ only for multi-currency or
// stock transactions.
type Split struct {
	UID            string
	TransactionUID string
	Memo           string
	Action         string
	AccountUID     string
	Type           SplitType
	Value          numeric.Numeric
	Quantity       numeric.Numeric
	ReconcileState string
	ReconcileDate  time.Time
}

// Transaction is a dated double-entry with an ordered list of splits.
type Transaction struct {
	UID                string
	Description        string
	Notes              string
	PostedAt           time.Time
	CreatedAt          time.Time
	CommodityUID       string
	CommodityNamespace string
	CommodityCode      string
	Template           bool
	ScheduledActionUID string
	Splits             []Split
}

// ValueSumsByCurrency returns the signed value sums keyed by the
// currency of the account each split is posted to. Lookup maps an
// account UID to its commodity code.
func (t Transaction) ValueSumsByCurrency(currencyOf func(accountUID string) string) map[string]numeric.Numeric {
	sums := make(map[string]numeric.Numeric)
	for _, s := range t.Splits {
		code := currencyOf(s.AccountUID)
		sum, ok := sums[code]
		if !ok {
			sum = numeric.Zero
		}
		sums[code] = sum.Add(s.Value)
	}
	return sums
}
