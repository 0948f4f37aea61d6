package model

import "github.com/bookport-dev/bookport/internal/numeric"

// BudgetAmount is the planned amount for one account in one budget
// period.
type BudgetAmount struct {
	AccountUID string
	PeriodNum  int
	Amount     numeric.Numeric
	Notes      string
}

// Budget plans amounts per account across a fixed number of recurrence
// periods.
type Budget struct {
	UID         string
	Name        string
	Description string
	NumPeriods  int
	Recurrence  Recurrence
	Amounts     []BudgetAmount
}

// Amount returns the planned amount for (accountUID, periodNum), or a
// zero amount when none was set.
func (b Budget) Amount(accountUID string, periodNum int) numeric.Numeric {
	for _, a := range b.Amounts {
		if a.AccountUID == accountUID && a.PeriodNum == periodNum {
			return a.Amount
		}
	}
	return numeric.Zero
}
