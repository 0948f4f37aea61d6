package gncxml

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/bookport-dev/bookport/internal/balance"
	"github.com/bookport-dev/bookport/internal/commodity"
	"github.com/bookport-dev/bookport/internal/guid"
	"github.com/bookport-dev/bookport/internal/hierarchy"
	"github.com/bookport-dev/bookport/internal/model"
	"github.com/bookport-dev/bookport/internal/schedule"
	"github.com/bookport-dev/bookport/internal/store"
)

// Importer parses a GnuCash XML stream and commits the whole ledger to
// the store in one transaction. A parse either commits everything or
// nothing.
type Importer struct {
	store   store.Store
	log     zerolog.Logger
	now     func() time.Time
	catchUp bool
	merge   bool
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithLogger routes importer diagnostics to log.
func WithLogger(log zerolog.Logger) ImporterOption {
	return func(im *Importer) { im.log = log }
}

// WithClock overrides "now" for scheduled-action catch-up.
func WithClock(now func() time.Time) ImporterOption {
	return func(im *Importer) { im.now = now }
}

// WithCatchUp toggles generation of missed scheduled-action instances.
func WithCatchUp(enabled bool) ImporterOption {
	return func(im *Importer) { im.catchUp = enabled }
}

// WithMerge upserts into the existing ledger instead of replacing it.
func WithMerge() ImporterOption {
	return func(im *Importer) { im.merge = true }
}

// NewImporter returns an Importer writing to st. By default an import
// replaces the stored ledger and runs schedule catch-up.
func NewImporter(st store.Store, opts ...ImporterOption) *Importer {
	im := &Importer{
		store:   st,
		log:     zerolog.Nop(),
		now:     time.Now,
		catchUp: true,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Result summarizes a committed import.
type Result struct {
	Transport             Transport
	Commodities           int
	Accounts              int
	Transactions          int
	GeneratedTransactions int
	TemplateTransactions  int
	Prices                int
	ScheduledActions      int
	SkippedSchedules      int
	Budgets               int
	DefaultCurrency       string
	RootAccountUID        string
}

// session bundles every accumulation structure of one parse. It is
// owned by Import and handed to the pure transformation steps; nothing
// here outlives the call.
type session struct {
	registry          *commodity.Registry
	accounts          map[string]*model.Account
	accountOrder      []string
	templateAccounts  map[string]*model.Account
	transactions      []*model.Transaction
	templateTxns      []*model.Transaction
	txnByTemplateAcct map[string]string
	actions           []model.ScheduledAction
	prices            []model.Price
	budgets           []model.Budget
	skippedOnce       int
}

func newSession(st store.Store) *session {
	return &session{
		registry:          commodity.NewRegistry(st),
		accounts:          make(map[string]*model.Account),
		templateAccounts:  make(map[string]*model.Account),
		txnByTemplateAcct: make(map[string]string),
	}
}

func (s *session) addAccount(a *model.Account) {
	if _, seen := s.accounts[a.UID]; !seen {
		s.accountOrder = append(s.accountOrder, a.UID)
	}
	s.accounts[a.UID] = a
}

// Import runs the single-pass parse over r, reconciles the ledger and
// bulk-commits it. Cancellation via ctx is polled once per record and
// surfaces as ctx.Err() with the store untouched.
func (im *Importer) Import(ctx context.Context, r io.Reader) (*Result, error) {
	body, transport, err := Sniff(r)
	if err != nil {
		return nil, err
	}
	im.log.Debug().Stringer("transport", transport).Msg("transport detected")

	d := xml.NewDecoder(body)
	if err := expectRoot(d); err != nil {
		return nil, err
	}

	s := newSession(im.store)
	if err := im.parseBook(ctx, d, s); err != nil {
		return nil, err
	}

	res, err := im.finalize(ctx, s)
	if err != nil {
		return nil, err
	}
	res.Transport = transport
	return res, nil
}

// expectRoot requires the very first element to be the document root.
func expectRoot(d *xml.Decoder) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return &FormatError{Element: "gnc-v2", Reason: "no root element", Err: err}
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if q := qname(start.Name); q != "gnc-v2" {
			return &FormatError{Element: q, Reason: "unexpected root element, want gnc-v2"}
		}
		return nil
	}
}

// parseBook dispatches the book's top-level elements. Template accounts
// and transactions live under gnc:template-transactions and are kept
// out of the ordinary collections.
func (im *Importer) parseBook(ctx context.Context, d *xml.Decoder, s *session) error {
	inTemplates := false
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &FormatError{Element: "gnc:book", Reason: "malformed XML", Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if err := ctx.Err(); err != nil {
				return err
			}
			switch qname(t.Name) {
			case "gnc:book", "gnc:pricedb", "gnc:schedxactions":
				// Containers; children handled inline.
			case "gnc:count-data", "book:id":
				if _, err := textOf(d); err != nil {
					return &FormatError{Element: qname(t.Name), Reason: "unreadable element", Err: err}
				}
			case "gnc:template-transactions":
				inTemplates = true
			case "gnc:commodity":
				if err := im.parseCommodity(d, s); err != nil {
					return err
				}
			case "price":
				if err := im.parsePrice(d, s); err != nil {
					return err
				}
			case "gnc:account":
				if err := im.parseAccount(d, s, inTemplates); err != nil {
					return err
				}
			case "gnc:transaction":
				if err := im.parseTransaction(d, s, inTemplates); err != nil {
					return err
				}
			case "gnc:schedxaction":
				if err := im.parseScheduledAction(d, s); err != nil {
					return err
				}
			case "gnc:budget":
				if err := im.parseBudget(d, s); err != nil {
					return err
				}
			default:
				if err := d.Skip(); err != nil {
					return &FormatError{Element: qname(t.Name), Reason: "skipping element", Err: err}
				}
			}
		case xml.EndElement:
			if qname(t.Name) == "gnc:template-transactions" {
				inTemplates = false
			}
		}
	}
}

// finalize performs the end-of-document reconciliation: hierarchy
// build, default-currency election, auto-balancing, schedule catch-up,
// then one bulk transactional commit.
func (im *Importer) finalize(ctx context.Context, s *session) (*Result, error) {
	rootUID, err := hierarchy.Build(s.accounts)
	if err != nil {
		return nil, err
	}
	// Hierarchy may have synthesized the root; keep order complete.
	known := make(map[string]bool, len(s.accountOrder))
	for _, uid := range s.accountOrder {
		known[uid] = true
	}
	if !known[rootUID] {
		s.accountOrder = append([]string{rootUID}, s.accountOrder...)
	}

	defaultCurrency := electDefaultCurrency(s)

	currencyOf := func(accountUID string) string {
		if a, ok := s.accounts[accountUID]; ok {
			return a.CommodityCode
		}
		return ""
	}
	resolve := im.imbalanceResolver(s, rootUID)

	generated := 0
	for _, txn := range s.transactions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := balance.Transaction(txn, currencyOf, resolve); err != nil {
			return nil, err
		}
	}

	// Link transaction schedules to their template transactions now that
	// the whole document has been read; schedules may precede the
	// template-transactions section.
	for i := range s.actions {
		a := &s.actions[i]
		if a.ActionType != model.ActionTransaction || a.ActionUID != "" || a.TemplateAccountUID == "" {
			continue
		}
		if uid, ok := s.txnByTemplateAcct[a.TemplateAccountUID]; ok {
			a.ActionUID = uid
		}
	}

	if im.catchUp {
		templateByUID := make(map[string]*model.Transaction, len(s.templateTxns))
		for _, t := range s.templateTxns {
			templateByUID[t.UID] = t
		}
		now := im.now()
		for i := range s.actions {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			action := &s.actions[i]
			for _, txn := range schedule.CatchUp(action, templateByUID[action.ActionUID], now) {
				txn := txn
				if err := balance.Transaction(&txn, currencyOf, resolve); err != nil {
					return nil, err
				}
				s.transactions = append(s.transactions, &txn)
				generated++
			}
		}
		if generated > 0 {
			im.log.Info().Int("count", generated).Msg("generated missed schedule instances")
		}
	}

	res := &Result{
		GeneratedTransactions: generated,
		SkippedSchedules:      s.skippedOnce,
		DefaultCurrency:       defaultCurrency,
		RootAccountUID:        rootUID,
	}
	if err := im.commit(ctx, s, res); err != nil {
		return nil, err
	}
	return res, nil
}

// electDefaultCurrency picks the most frequent account currency; ties
// go to the lexically smaller code so imports stay deterministic.
func electDefaultCurrency(s *session) string {
	counts := make(map[string]int)
	for _, a := range s.accounts {
		if a.CommodityCode != "" && !a.Template {
			counts[a.CommodityCode]++
		}
	}
	best := ""
	for code, n := range counts {
		if best == "" || n > counts[best] || (n == counts[best] && code < best) {
			best = code
		}
	}
	return best
}

func (im *Importer) imbalanceResolver(s *session, rootUID string) balance.Resolver {
	byName := make(map[string]string)
	for _, a := range s.accounts {
		byName[a.Name] = a.UID
	}
	return func(code string) (string, error) {
		name := balance.AccountName(code)
		if uid, ok := byName[name]; ok {
			return uid, nil
		}
		a := &model.Account{
			UID:                guid.New(),
			Name:               name,
			FullName:           name,
			Type:               model.AccountTypeBank,
			ParentUID:          rootUID,
			CommodityNamespace: model.NamespaceCurrency,
			CommodityCode:      code,
		}
		if c, ok := s.registry.Lookup(model.NamespaceCurrency, code); ok {
			a.CommodityUID = c.UID
			a.CommodityNamespace = c.Namespace
		}
		s.addAccount(a)
		byName[name] = a.UID
		im.log.Debug().Str("account", name).Msg("created imbalance account")
		return a.UID, nil
	}
}

// commit writes the reconciled ledger in dependency order inside one
// store transaction, with foreign-key checking suspended for the bulk
// inserts. Scheduled actions go in before transactions because
// generated instances reference them.
func (im *Importer) commit(ctx context.Context, s *session, res *Result) (err error) {
	tx, err := im.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning import commit: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil {
				im.log.Error().Err(rbErr).Msg("rollback failed")
			}
		}
	}()

	if err := tx.SetForeignKeys(false); err != nil {
		return err
	}
	mode := store.ModeInsert
	if im.merge {
		mode = store.ModeReplace
	} else if err := tx.DeleteAll(); err != nil {
		return fmt.Errorf("clearing ledger: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	commodities := s.registry.All()
	if res.Commodities, err = tx.InsertCommodities(commodities, mode); err != nil {
		return fmt.Errorf("writing commodities: %w", err)
	}

	accounts := make([]model.Account, 0, len(s.accountOrder))
	for _, uid := range s.accountOrder {
		if err := ctx.Err(); err != nil {
			return err
		}
		accounts = append(accounts, *s.accounts[uid])
	}
	if res.Accounts, err = tx.InsertAccounts(accounts, mode); err != nil {
		return fmt.Errorf("writing accounts: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if res.ScheduledActions, err = tx.InsertScheduledActions(s.actions, mode); err != nil {
		return fmt.Errorf("writing scheduled actions: %w", err)
	}

	templates := make([]model.Transaction, 0, len(s.templateTxns))
	for _, t := range s.templateTxns {
		if err := ctx.Err(); err != nil {
			return err
		}
		templates = append(templates, *t)
	}
	if res.TemplateTransactions, err = tx.InsertTransactions(templates, mode); err != nil {
		return fmt.Errorf("writing template transactions: %w", err)
	}

	txns := make([]model.Transaction, 0, len(s.transactions))
	for _, t := range s.transactions {
		if err := ctx.Err(); err != nil {
			return err
		}
		txns = append(txns, *t)
	}
	if res.Transactions, err = tx.InsertTransactions(txns, mode); err != nil {
		return fmt.Errorf("writing transactions: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if res.Prices, err = tx.InsertPrices(s.prices, mode); err != nil {
		return fmt.Errorf("writing prices: %w", err)
	}
	if res.Budgets, err = tx.InsertBudgets(s.budgets, mode); err != nil {
		return fmt.Errorf("writing budgets: %w", err)
	}

	if err := tx.SetForeignKeys(true); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing import: %w", err)
	}
	committed = true
	return nil
}
