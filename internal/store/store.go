// Package store defines the persistence contract the interchange engine
// reads from and bulk-writes to, plus in-memory and PostgreSQL
// implementations. The engine never issues single-row writes during an
// import; everything goes through bulk inserts inside one transaction.
package store

import (
	"context"
	"errors"

	"github.com/bookport-dev/bookport/internal/model"
)

// Mode selects duplicate handling for bulk inserts.
type Mode int

const (
	// ModeInsert fails on an existing UID.
	ModeInsert Mode = iota
	// ModeReplace overwrites an existing record with the same UID.
	ModeReplace
)

// ErrDuplicate is returned by ModeInsert when a UID already exists.
var ErrDuplicate = errors.New("duplicate record uid")

// Reader is the read side of the store, consumed by export and by
// commodity resolution during import. Implementations should hand the
// exporter a single consistent snapshot; concurrent mutation during an
// export is not supported.
type Reader interface {
	Commodities(ctx context.Context) ([]model.Commodity, error)
	CommodityByCode(namespace, code string) (model.Commodity, bool, error)
	Accounts(ctx context.Context) ([]model.Account, error)
	Account(uid string) (model.Account, bool, error)
	// Transactions returns ordinary or template transactions, splits
	// included, ordered by posting time then UID.
	Transactions(ctx context.Context, template bool) ([]model.Transaction, error)
	Transaction(uid string) (model.Transaction, bool, error)
	Prices(ctx context.Context) ([]model.Price, error)
	ScheduledActions(ctx context.Context) ([]model.ScheduledAction, error)
	Budgets(ctx context.Context) ([]model.Budget, error)
}

// Tx is one atomic write transaction. Foreign-key checking may be
// suspended for the duration of bulk insertion when the caller's insert
// order already guarantees referential validity.
type Tx interface {
	InsertCommodities(recs []model.Commodity, mode Mode) (int, error)
	InsertAccounts(recs []model.Account, mode Mode) (int, error)
	InsertTransactions(recs []model.Transaction, mode Mode) (int, error)
	InsertPrices(recs []model.Price, mode Mode) (int, error)
	InsertScheduledActions(recs []model.ScheduledAction, mode Mode) (int, error)
	InsertBudgets(recs []model.Budget, mode Mode) (int, error)
	SetForeignKeys(enabled bool) error
	DeleteAll() error
	Commit() error
	Rollback() error
}

// Store is the full persistence contract.
type Store interface {
	Reader
	Begin(ctx context.Context) (Tx, error)
}
