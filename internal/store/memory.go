package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bookport-dev/bookport/internal/model"
)

// Memory is an in-process Store. It backs the CLI when no database is
// configured and doubles as the test store. A write transaction works on
// a copy of the whole data set and swaps it in on Commit, so rollback is
// free and readers never see partial writes.
type Memory struct {
	mu   sync.RWMutex
	data memData
}

type memData struct {
	commodities  []model.Commodity
	accounts     []model.Account
	transactions []model.Transaction
	prices       []model.Price
	actions      []model.ScheduledAction
	budgets      []model.Budget
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Commodities(ctx context.Context) ([]model.Commodity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Commodity(nil), m.data.commodities...), nil
}

func (m *Memory) CommodityByCode(namespace, code string) (model.Commodity, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	want := model.Commodity{Namespace: namespace, Code: code}
	for _, c := range m.data.commodities {
		if (c.Namespace == namespace && c.Code == code) || model.SameCurrency(c, want) {
			return c, true, nil
		}
	}
	return model.Commodity{}, false, nil
}

func (m *Memory) Accounts(ctx context.Context) ([]model.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Account(nil), m.data.accounts...), nil
}

func (m *Memory) Account(uid string) (model.Account, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.data.accounts {
		if a.UID == uid {
			return a, true, nil
		}
	}
	return model.Account{}, false, nil
}

func (m *Memory) Transactions(ctx context.Context, template bool) ([]model.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Transaction
	for _, t := range m.data.transactions {
		if t.Template == template {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].PostedAt.Equal(out[j].PostedAt) {
			return out[i].PostedAt.Before(out[j].PostedAt)
		}
		return out[i].UID < out[j].UID
	})
	return out, nil
}

func (m *Memory) Transaction(uid string) (model.Transaction, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.data.transactions {
		if t.UID == uid {
			return t, true, nil
		}
	}
	return model.Transaction{}, false, nil
}

func (m *Memory) Prices(ctx context.Context) ([]model.Price, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Price(nil), m.data.prices...), nil
}

func (m *Memory) ScheduledActions(ctx context.Context) ([]model.ScheduledAction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.ScheduledAction(nil), m.data.actions...), nil
}

func (m *Memory) Budgets(ctx context.Context) ([]model.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Budget(nil), m.data.budgets...), nil
}

// Begin starts a write transaction over a copy of the current data.
func (m *Memory) Begin(ctx context.Context) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	clone := memData{
		commodities:  append([]model.Commodity(nil), m.data.commodities...),
		accounts:     append([]model.Account(nil), m.data.accounts...),
		transactions: append([]model.Transaction(nil), m.data.transactions...),
		prices:       append([]model.Price(nil), m.data.prices...),
		actions:      append([]model.ScheduledAction(nil), m.data.actions...),
		budgets:      append([]model.Budget(nil), m.data.budgets...),
	}
	m.mu.RUnlock()
	return &memTx{store: m, data: clone}, nil
}

type memTx struct {
	store *Memory
	data  memData
	done  bool
}

func insertInto[T any](recs []T, into []T, uidOf func(T) string, mode Mode) ([]T, int, error) {
	index := make(map[string]int, len(into))
	for i, r := range into {
		index[uidOf(r)] = i
	}
	inserted := 0
	for _, r := range recs {
		uid := uidOf(r)
		if i, exists := index[uid]; exists {
			if mode == ModeInsert {
				return nil, inserted, fmt.Errorf("%w: %s", ErrDuplicate, uid)
			}
			into[i] = r
		} else {
			index[uid] = len(into)
			into = append(into, r)
		}
		inserted++
	}
	return into, inserted, nil
}

func (tx *memTx) InsertCommodities(recs []model.Commodity, mode Mode) (int, error) {
	out, n, err := insertInto(recs, tx.data.commodities, func(c model.Commodity) string { return c.UID }, mode)
	if err != nil {
		return n, err
	}
	tx.data.commodities = out
	return n, nil
}

func (tx *memTx) InsertAccounts(recs []model.Account, mode Mode) (int, error) {
	out, n, err := insertInto(recs, tx.data.accounts, func(a model.Account) string { return a.UID }, mode)
	if err != nil {
		return n, err
	}
	tx.data.accounts = out
	return n, nil
}

func (tx *memTx) InsertTransactions(recs []model.Transaction, mode Mode) (int, error) {
	out, n, err := insertInto(recs, tx.data.transactions, func(t model.Transaction) string { return t.UID }, mode)
	if err != nil {
		return n, err
	}
	tx.data.transactions = out
	return n, nil
}

func (tx *memTx) InsertPrices(recs []model.Price, mode Mode) (int, error) {
	out, n, err := insertInto(recs, tx.data.prices, func(p model.Price) string { return p.UID }, mode)
	if err != nil {
		return n, err
	}
	tx.data.prices = out
	return n, nil
}

func (tx *memTx) InsertScheduledActions(recs []model.ScheduledAction, mode Mode) (int, error) {
	out, n, err := insertInto(recs, tx.data.actions, func(a model.ScheduledAction) string { return a.UID }, mode)
	if err != nil {
		return n, err
	}
	tx.data.actions = out
	return n, nil
}

func (tx *memTx) InsertBudgets(recs []model.Budget, mode Mode) (int, error) {
	out, n, err := insertInto(recs, tx.data.budgets, func(b model.Budget) string { return b.UID }, mode)
	if err != nil {
		return n, err
	}
	tx.data.budgets = out
	return n, nil
}

// SetForeignKeys is a no-op: the in-memory store never enforces
// referential integrity.
func (tx *memTx) SetForeignKeys(enabled bool) error { return nil }

func (tx *memTx) DeleteAll() error {
	tx.data = memData{}
	return nil
}

func (tx *memTx) Commit() error {
	if tx.done {
		return fmt.Errorf("transaction already finished")
	}
	tx.done = true
	tx.store.mu.Lock()
	tx.store.data = tx.data
	tx.store.mu.Unlock()
	return nil
}

func (tx *memTx) Rollback() error {
	tx.done = true
	return nil
}
