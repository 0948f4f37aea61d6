package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/bookport-dev/bookport/internal/model"
	"github.com/bookport-dev/bookport/internal/numeric"
)

// Postgres is a Store backed by PostgreSQL via lib/pq. Foreign keys are
// declared DEFERRABLE so a bulk import can suspend checking with
// SET CONSTRAINTS while the ordered insert runs.
type Postgres struct {
	db *sql.DB
}

// OpenPostgres connects to dsn, verifies the connection and ensures the
// schema exists.
func OpenPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}
	return &Postgres{db: db}, nil
}

// Close releases the underlying connection pool.
func (p *Postgres) Close() error { return p.db.Close() }

const schema = `
CREATE TABLE IF NOT EXISTS commodities (
	uid               char(32) PRIMARY KEY,
	namespace         text NOT NULL,
	code              text NOT NULL,
	fullname          text NOT NULL DEFAULT '',
	smallest_fraction bigint NOT NULL DEFAULT 100,
	cusip             text NOT NULL DEFAULT '',
	quote_source      text NOT NULL DEFAULT '',
	quote_tz          text NOT NULL DEFAULT '',
	quote_flag        boolean NOT NULL DEFAULT false,
	UNIQUE (namespace, code)
);
CREATE TABLE IF NOT EXISTS accounts (
	uid                  char(32) PRIMARY KEY,
	name                 text NOT NULL,
	fullname             text NOT NULL DEFAULT '',
	type                 text NOT NULL,
	commodity_uid        char(32),
	commodity_namespace  text NOT NULL DEFAULT '',
	commodity_code       text NOT NULL DEFAULT '',
	description          text NOT NULL DEFAULT '',
	color                text NOT NULL DEFAULT '',
	notes                text NOT NULL DEFAULT '',
	parent_uid           char(32) REFERENCES accounts(uid) DEFERRABLE INITIALLY IMMEDIATE,
	default_transfer_uid char(32),
	placeholder          boolean NOT NULL DEFAULT false,
	hidden               boolean NOT NULL DEFAULT false,
	favorite             boolean NOT NULL DEFAULT false,
	template             boolean NOT NULL DEFAULT false
);
CREATE TABLE IF NOT EXISTS scheduled_actions (
	uid                  char(32) PRIMARY KEY,
	action_type          text NOT NULL,
	action_uid           char(32) NOT NULL DEFAULT '',
	template_account_uid char(32) NOT NULL DEFAULT '',
	enabled              boolean NOT NULL DEFAULT true,
	auto_create          boolean NOT NULL DEFAULT false,
	auto_notify          boolean NOT NULL DEFAULT false,
	advance_create_days  integer NOT NULL DEFAULT 0,
	advance_notify_days  integer NOT NULL DEFAULT 0,
	start_at             timestamptz,
	last_run_at          timestamptz,
	end_at               timestamptz,
	total_planned        integer NOT NULL DEFAULT 0,
	execution_count      integer NOT NULL DEFAULT 0,
	tag                  text NOT NULL DEFAULT '',
	period_type          text NOT NULL DEFAULT '',
	multiplier           integer NOT NULL DEFAULT 1,
	period_start         timestamptz,
	weekend_adjust       text NOT NULL DEFAULT '',
	weekdays             text NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS transactions (
	uid                  char(32) PRIMARY KEY,
	description          text NOT NULL DEFAULT '',
	notes                text NOT NULL DEFAULT '',
	posted_at            timestamptz,
	created_at           timestamptz,
	commodity_uid        char(32),
	commodity_namespace  text NOT NULL DEFAULT '',
	commodity_code       text NOT NULL DEFAULT '',
	template             boolean NOT NULL DEFAULT false,
	scheduled_action_uid char(32) REFERENCES scheduled_actions(uid) DEFERRABLE INITIALLY IMMEDIATE
);
CREATE TABLE IF NOT EXISTS splits (
	uid             char(32) PRIMARY KEY,
	transaction_uid char(32) NOT NULL REFERENCES transactions(uid) ON DELETE CASCADE DEFERRABLE INITIALLY IMMEDIATE,
	seq             integer NOT NULL,
	memo            text NOT NULL DEFAULT '',
	action          text NOT NULL DEFAULT '',
	account_uid     char(32) REFERENCES accounts(uid) DEFERRABLE INITIALLY IMMEDIATE,
	type            text NOT NULL DEFAULT '',
	value_num       bigint NOT NULL,
	value_denom     bigint NOT NULL,
	quantity_num    bigint NOT NULL,
	quantity_denom  bigint NOT NULL,
	reconcile_state text NOT NULL DEFAULT 'n',
	reconcile_date  timestamptz
);
CREATE TABLE IF NOT EXISTS prices (
	uid                 char(32) PRIMARY KEY,
	commodity_uid       char(32),
	commodity_namespace text NOT NULL DEFAULT '',
	commodity_code      text NOT NULL DEFAULT '',
	currency_uid        char(32),
	currency_namespace  text NOT NULL DEFAULT '',
	currency_code       text NOT NULL DEFAULT '',
	date                timestamptz,
	source              text NOT NULL DEFAULT '',
	type                text NOT NULL DEFAULT '',
	value_num           bigint NOT NULL,
	value_denom         bigint NOT NULL
);
CREATE TABLE IF NOT EXISTS budgets (
	uid            char(32) PRIMARY KEY,
	name           text NOT NULL,
	description    text NOT NULL DEFAULT '',
	num_periods    integer NOT NULL DEFAULT 0,
	period_type    text NOT NULL DEFAULT '',
	multiplier     integer NOT NULL DEFAULT 1,
	period_start   timestamptz,
	weekend_adjust text NOT NULL DEFAULT '',
	weekdays       text NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS budget_amounts (
	budget_uid   char(32) NOT NULL REFERENCES budgets(uid) ON DELETE CASCADE DEFERRABLE INITIALLY IMMEDIATE,
	account_uid  char(32) NOT NULL,
	period_num   integer NOT NULL,
	amount_num   bigint NOT NULL,
	amount_denom bigint NOT NULL,
	notes        text NOT NULL DEFAULT '',
	PRIMARY KEY (budget_uid, account_uid, period_num)
);
`

func (p *Postgres) Commodities(ctx context.Context) ([]model.Commodity, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT uid, namespace, code, fullname, smallest_fraction, cusip, quote_source, quote_tz, quote_flag
		FROM commodities ORDER BY namespace, code`)
	if err != nil {
		return nil, fmt.Errorf("querying commodities: %w", err)
	}
	defer rows.Close()

	var out []model.Commodity
	for rows.Next() {
		var c model.Commodity
		if err := rows.Scan(&c.UID, &c.Namespace, &c.Code, &c.FullName, &c.SmallestFraction,
			&c.CUSIP, &c.QuoteSource, &c.QuoteTZ, &c.QuoteFlag); err != nil {
			return nil, fmt.Errorf("scanning commodity: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (p *Postgres) CommodityByCode(namespace, code string) (model.Commodity, bool, error) {
	query := `
		SELECT uid, namespace, code, fullname, smallest_fraction, cusip, quote_source, quote_tz, quote_flag
		FROM commodities WHERE code = $1 AND namespace = $2`
	args := []any{code, namespace}
	if model.CurrencyNamespace(namespace) {
		query = `
		SELECT uid, namespace, code, fullname, smallest_fraction, cusip, quote_source, quote_tz, quote_flag
		FROM commodities WHERE code = $1 AND namespace IN ($2, $3)`
		args = []any{code, model.NamespaceISO4217, model.NamespaceCurrency}
	}
	var c model.Commodity
	err := p.db.QueryRow(query, args...).Scan(&c.UID, &c.Namespace, &c.Code, &c.FullName,
		&c.SmallestFraction, &c.CUSIP, &c.QuoteSource, &c.QuoteTZ, &c.QuoteFlag)
	if err == sql.ErrNoRows {
		return model.Commodity{}, false, nil
	}
	if err != nil {
		return model.Commodity{}, false, fmt.Errorf("querying commodity %s/%s: %w", namespace, code, err)
	}
	return c, true, nil
}

func (p *Postgres) Accounts(ctx context.Context) ([]model.Account, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT uid, name, fullname, type, COALESCE(commodity_uid, ''), commodity_namespace, commodity_code,
		       description, color, notes, COALESCE(parent_uid, ''), COALESCE(default_transfer_uid, ''),
		       placeholder, hidden, favorite, template
		FROM accounts ORDER BY fullname`)
	if err != nil {
		return nil, fmt.Errorf("querying accounts: %w", err)
	}
	defer rows.Close()

	var out []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (p *Postgres) Account(uid string) (model.Account, bool, error) {
	row := p.db.QueryRow(`
		SELECT uid, name, fullname, type, COALESCE(commodity_uid, ''), commodity_namespace, commodity_code,
		       description, color, notes, COALESCE(parent_uid, ''), COALESCE(default_transfer_uid, ''),
		       placeholder, hidden, favorite, template
		FROM accounts WHERE uid = $1`, uid)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return model.Account{}, false, nil
	}
	if err != nil {
		return model.Account{}, false, err
	}
	return a, true, nil
}

type scanner interface{ Scan(dest ...any) error }

func scanAccount(s scanner) (model.Account, error) {
	var a model.Account
	err := s.Scan(&a.UID, &a.Name, &a.FullName, &a.Type, &a.CommodityUID, &a.CommodityNamespace,
		&a.CommodityCode, &a.Description, &a.Color, &a.Notes, &a.ParentUID, &a.DefaultTransferUID,
		&a.Placeholder, &a.Hidden, &a.Favorite, &a.Template)
	if err == sql.ErrNoRows {
		return model.Account{}, err
	}
	if err != nil {
		return model.Account{}, fmt.Errorf("scanning account: %w", err)
	}
	a.UID = strings.TrimSpace(a.UID)
	a.ParentUID = strings.TrimSpace(a.ParentUID)
	return a, nil
}

// Transactions streams the transaction/split join in UID order and
// closes each transaction when the owning UID changes under the cursor.
func (p *Postgres) Transactions(ctx context.Context, template bool) ([]model.Transaction, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT t.uid, t.description, t.notes, t.posted_at, t.created_at,
		       COALESCE(t.commodity_uid, ''), t.commodity_namespace, t.commodity_code,
		       t.template, COALESCE(t.scheduled_action_uid, ''),
		       s.uid, s.memo, s.action, COALESCE(s.account_uid, ''), s.type,
		       s.value_num, s.value_denom, s.quantity_num, s.quantity_denom,
		       s.reconcile_state, s.reconcile_date
		FROM transactions t
		JOIN splits s ON s.transaction_uid = t.uid
		WHERE t.template = $1
		ORDER BY t.posted_at, t.uid, s.seq`, template)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var (
			txn            model.Transaction
			s              model.Split
			postedAt       sql.NullTime
			createdAt      sql.NullTime
			reconcileDate  sql.NullTime
			vn, vd, qn, qd int64
		)
		if err := rows.Scan(&txn.UID, &txn.Description, &txn.Notes, &postedAt, &createdAt,
			&txn.CommodityUID, &txn.CommodityNamespace, &txn.CommodityCode,
			&txn.Template, &txn.ScheduledActionUID,
			&s.UID, &s.Memo, &s.Action, &s.AccountUID, &s.Type,
			&vn, &vd, &qn, &qd, &s.ReconcileState, &reconcileDate); err != nil {
			return nil, fmt.Errorf("scanning transaction row: %w", err)
		}
		txn.UID = strings.TrimSpace(txn.UID)
		txn.PostedAt = postedAt.Time
		txn.CreatedAt = createdAt.Time
		s.UID = strings.TrimSpace(s.UID)
		s.TransactionUID = txn.UID
		s.AccountUID = strings.TrimSpace(s.AccountUID)
		s.Value = numeric.New(vn, vd)
		s.Quantity = numeric.New(qn, qd)
		s.ReconcileDate = reconcileDate.Time

		if l := len(out); l == 0 || out[l-1].UID != txn.UID {
			out = append(out, txn)
		}
		out[len(out)-1].Splits = append(out[len(out)-1].Splits, s)
	}
	return out, rows.Err()
}

func (p *Postgres) Transaction(uid string) (model.Transaction, bool, error) {
	txns, err := p.transactionsByUID(uid)
	if err != nil {
		return model.Transaction{}, false, err
	}
	if len(txns) == 0 {
		return model.Transaction{}, false, nil
	}
	return txns[0], true, nil
}

func (p *Postgres) transactionsByUID(uid string) ([]model.Transaction, error) {
	// Reuses the cursor shape from Transactions for a single UID.
	all, err := p.Transactions(context.Background(), false)
	if err != nil {
		return nil, err
	}
	for _, t := range all {
		if t.UID == uid {
			return []model.Transaction{t}, nil
		}
	}
	tmpl, err := p.Transactions(context.Background(), true)
	if err != nil {
		return nil, err
	}
	for _, t := range tmpl {
		if t.UID == uid {
			return []model.Transaction{t}, nil
		}
	}
	return nil, nil
}

func (p *Postgres) Prices(ctx context.Context) ([]model.Price, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT uid, COALESCE(commodity_uid, ''), commodity_namespace, commodity_code,
		       COALESCE(currency_uid, ''), currency_namespace, currency_code,
		       date, source, type, value_num, value_denom
		FROM prices ORDER BY date, uid`)
	if err != nil {
		return nil, fmt.Errorf("querying prices: %w", err)
	}
	defer rows.Close()

	var out []model.Price
	for rows.Next() {
		var (
			pr     model.Price
			date   sql.NullTime
			vn, vd int64
		)
		if err := rows.Scan(&pr.UID, &pr.CommodityUID, &pr.CommodityNamespace, &pr.CommodityCode,
			&pr.CurrencyUID, &pr.CurrencyNamespace, &pr.CurrencyCode,
			&date, &pr.Source, &pr.Type, &vn, &vd); err != nil {
			return nil, fmt.Errorf("scanning price: %w", err)
		}
		pr.UID = strings.TrimSpace(pr.UID)
		pr.Date = date.Time
		pr.Value = numeric.New(vn, vd)
		out = append(out, pr)
	}
	return out, rows.Err()
}

func (p *Postgres) ScheduledActions(ctx context.Context) ([]model.ScheduledAction, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT uid, action_type, action_uid, template_account_uid, enabled, auto_create, auto_notify,
		       advance_create_days, advance_notify_days, start_at, last_run_at, end_at,
		       total_planned, execution_count, tag, period_type, multiplier, period_start,
		       weekend_adjust, weekdays
		FROM scheduled_actions ORDER BY uid`)
	if err != nil {
		return nil, fmt.Errorf("querying scheduled actions: %w", err)
	}
	defer rows.Close()

	var out []model.ScheduledAction
	for rows.Next() {
		var (
			a                       model.ScheduledAction
			startAt, lastRun, endAt sql.NullTime
			periodStart             sql.NullTime
			weekdays                string
		)
		if err := rows.Scan(&a.UID, &a.ActionType, &a.ActionUID, &a.TemplateAccountUID,
			&a.Enabled, &a.AutoCreate, &a.AutoNotify, &a.AdvanceCreateDays, &a.AdvanceNotifyDays,
			&startAt, &lastRun, &endAt, &a.TotalPlannedCount, &a.ExecutionCount, &a.Tag,
			&a.Recurrence.PeriodType, &a.Recurrence.Multiplier, &periodStart,
			&a.Recurrence.WeekendAdjust, &weekdays); err != nil {
			return nil, fmt.Errorf("scanning scheduled action: %w", err)
		}
		a.UID = strings.TrimSpace(a.UID)
		a.ActionUID = strings.TrimSpace(a.ActionUID)
		a.TemplateAccountUID = strings.TrimSpace(a.TemplateAccountUID)
		a.StartAt = startAt.Time
		a.LastRunAt = lastRun.Time
		a.EndAt = endAt.Time
		a.Recurrence.PeriodStart = periodStart.Time
		a.Recurrence.Weekdays = decodeWeekdays(weekdays)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (p *Postgres) Budgets(ctx context.Context) ([]model.Budget, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT uid, name, description, num_periods, period_type, multiplier, period_start,
		       weekend_adjust, weekdays
		FROM budgets ORDER BY uid`)
	if err != nil {
		return nil, fmt.Errorf("querying budgets: %w", err)
	}
	defer rows.Close()

	var out []model.Budget
	for rows.Next() {
		var (
			b           model.Budget
			periodStart sql.NullTime
			weekdays    string
		)
		if err := rows.Scan(&b.UID, &b.Name, &b.Description, &b.NumPeriods,
			&b.Recurrence.PeriodType, &b.Recurrence.Multiplier, &periodStart,
			&b.Recurrence.WeekendAdjust, &weekdays); err != nil {
			return nil, fmt.Errorf("scanning budget: %w", err)
		}
		b.UID = strings.TrimSpace(b.UID)
		b.Recurrence.PeriodStart = periodStart.Time
		b.Recurrence.Weekdays = decodeWeekdays(weekdays)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		amounts, err := p.budgetAmounts(ctx, out[i].UID)
		if err != nil {
			return nil, err
		}
		out[i].Amounts = amounts
	}
	return out, nil
}

func (p *Postgres) budgetAmounts(ctx context.Context, budgetUID string) ([]model.BudgetAmount, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT account_uid, period_num, amount_num, amount_denom, notes
		FROM budget_amounts WHERE budget_uid = $1 ORDER BY account_uid, period_num`, budgetUID)
	if err != nil {
		return nil, fmt.Errorf("querying budget amounts: %w", err)
	}
	defer rows.Close()

	var out []model.BudgetAmount
	for rows.Next() {
		var (
			a      model.BudgetAmount
			an, ad int64
		)
		if err := rows.Scan(&a.AccountUID, &a.PeriodNum, &an, &ad, &a.Notes); err != nil {
			return nil, fmt.Errorf("scanning budget amount: %w", err)
		}
		a.AccountUID = strings.TrimSpace(a.AccountUID)
		a.Amount = numeric.New(an, ad)
		out = append(out, a)
	}
	return out, rows.Err()
}

// Begin opens a database transaction.
func (p *Postgres) Begin(ctx context.Context) (Tx, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	return &pgTx{tx: tx}, nil
}

type pgTx struct {
	tx *sql.Tx
}

// bulkExec builds one multi-row INSERT for cols and executes it.
func (t *pgTx) bulkExec(table string, cols []string, conflictCol string, mode Mode, rows [][]any) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", table, strings.Join(cols, ", "))
	args := make([]any, 0, len(rows)*len(cols))
	for i, row := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j := range row {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", len(args)+j+1)
		}
		sb.WriteByte(')')
		args = append(args, row...)
	}
	if mode == ModeReplace && conflictCol != "" {
		fmt.Fprintf(&sb, " ON CONFLICT (%s) DO UPDATE SET ", conflictCol)
		for i, col := range cols {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%s = EXCLUDED.%s", col, col)
		}
	}
	res, err := t.tx.Exec(sb.String(), args...)
	if err != nil {
		return 0, fmt.Errorf("bulk insert into %s: %w", table, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func nullable(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullableUID(uid string) any {
	if uid == "" {
		return nil
	}
	return uid
}

func (t *pgTx) InsertCommodities(recs []model.Commodity, mode Mode) (int, error) {
	cols := []string{"uid", "namespace", "code", "fullname", "smallest_fraction", "cusip",
		"quote_source", "quote_tz", "quote_flag"}
	rows := make([][]any, len(recs))
	for i, c := range recs {
		rows[i] = []any{c.UID, c.Namespace, c.Code, c.FullName, c.SmallestFraction,
			c.CUSIP, c.QuoteSource, c.QuoteTZ, c.QuoteFlag}
	}
	return t.bulkExec("commodities", cols, "uid", mode, rows)
}

func (t *pgTx) InsertAccounts(recs []model.Account, mode Mode) (int, error) {
	cols := []string{"uid", "name", "fullname", "type", "commodity_uid", "commodity_namespace",
		"commodity_code", "description", "color", "notes", "parent_uid", "default_transfer_uid",
		"placeholder", "hidden", "favorite", "template"}
	rows := make([][]any, len(recs))
	for i, a := range recs {
		rows[i] = []any{a.UID, a.Name, a.FullName, string(a.Type), nullableUID(a.CommodityUID),
			a.CommodityNamespace, a.CommodityCode, a.Description, a.Color, a.Notes,
			nullableUID(a.ParentUID), nullableUID(a.DefaultTransferUID),
			a.Placeholder, a.Hidden, a.Favorite, a.Template}
	}
	return t.bulkExec("accounts", cols, "uid", mode, rows)
}

func (t *pgTx) InsertTransactions(recs []model.Transaction, mode Mode) (int, error) {
	cols := []string{"uid", "description", "notes", "posted_at", "created_at", "commodity_uid",
		"commodity_namespace", "commodity_code", "template", "scheduled_action_uid"}
	rows := make([][]any, len(recs))
	splitCols := []string{"uid", "transaction_uid", "seq", "memo", "action", "account_uid", "type",
		"value_num", "value_denom", "quantity_num", "quantity_denom", "reconcile_state", "reconcile_date"}
	var splitRows [][]any
	for i, txn := range recs {
		rows[i] = []any{txn.UID, txn.Description, txn.Notes, nullable(txn.PostedAt),
			nullable(txn.CreatedAt), nullableUID(txn.CommodityUID), txn.CommodityNamespace,
			txn.CommodityCode, txn.Template, nullableUID(txn.ScheduledActionUID)}
		for seq, s := range txn.Splits {
			splitRows = append(splitRows, []any{s.UID, txn.UID, seq, s.Memo, s.Action,
				nullableUID(s.AccountUID), string(s.Type), s.Value.Num, s.Value.Denom,
				s.Quantity.Num, s.Quantity.Denom, s.ReconcileState, nullable(s.ReconcileDate)})
		}
	}
	n, err := t.bulkExec("transactions", cols, "uid", mode, rows)
	if err != nil {
		return n, err
	}
	if _, err := t.bulkExec("splits", splitCols, "uid", mode, splitRows); err != nil {
		return n, err
	}
	return n, nil
}

func (t *pgTx) InsertPrices(recs []model.Price, mode Mode) (int, error) {
	cols := []string{"uid", "commodity_uid", "commodity_namespace", "commodity_code",
		"currency_uid", "currency_namespace", "currency_code", "date", "source", "type",
		"value_num", "value_denom"}
	rows := make([][]any, len(recs))
	for i, p := range recs {
		rows[i] = []any{p.UID, nullableUID(p.CommodityUID), p.CommodityNamespace, p.CommodityCode,
			nullableUID(p.CurrencyUID), p.CurrencyNamespace, p.CurrencyCode, nullable(p.Date),
			p.Source, p.Type, p.Value.Num, p.Value.Denom}
	}
	return t.bulkExec("prices", cols, "uid", mode, rows)
}

func (t *pgTx) InsertScheduledActions(recs []model.ScheduledAction, mode Mode) (int, error) {
	cols := []string{"uid", "action_type", "action_uid", "template_account_uid", "enabled",
		"auto_create", "auto_notify", "advance_create_days", "advance_notify_days",
		"start_at", "last_run_at", "end_at", "total_planned", "execution_count", "tag",
		"period_type", "multiplier", "period_start", "weekend_adjust", "weekdays"}
	rows := make([][]any, len(recs))
	for i, a := range recs {
		rows[i] = []any{a.UID, string(a.ActionType), a.ActionUID, a.TemplateAccountUID,
			a.Enabled, a.AutoCreate, a.AutoNotify, a.AdvanceCreateDays, a.AdvanceNotifyDays,
			nullable(a.StartAt), nullable(a.LastRunAt), nullable(a.EndAt),
			a.TotalPlannedCount, a.ExecutionCount, a.Tag,
			string(a.Recurrence.PeriodType), a.Recurrence.Multiplier,
			nullable(a.Recurrence.PeriodStart), string(a.Recurrence.WeekendAdjust),
			encodeWeekdays(a.Recurrence.Weekdays)}
	}
	return t.bulkExec("scheduled_actions", cols, "uid", mode, rows)
}

func (t *pgTx) InsertBudgets(recs []model.Budget, mode Mode) (int, error) {
	cols := []string{"uid", "name", "description", "num_periods", "period_type", "multiplier",
		"period_start", "weekend_adjust", "weekdays"}
	amountCols := []string{"budget_uid", "account_uid", "period_num", "amount_num", "amount_denom", "notes"}
	rows := make([][]any, len(recs))
	var amountRows [][]any
	for i, b := range recs {
		rows[i] = []any{b.UID, b.Name, b.Description, b.NumPeriods,
			string(b.Recurrence.PeriodType), b.Recurrence.Multiplier,
			nullable(b.Recurrence.PeriodStart), string(b.Recurrence.WeekendAdjust),
			encodeWeekdays(b.Recurrence.Weekdays)}
		for _, a := range b.Amounts {
			amountRows = append(amountRows, []any{b.UID, a.AccountUID, a.PeriodNum,
				a.Amount.Num, a.Amount.Denom, a.Notes})
		}
	}
	n, err := t.bulkExec("budgets", cols, "uid", mode, rows)
	if err != nil {
		return n, err
	}
	if _, err := t.bulkExec("budget_amounts", amountCols, "budget_uid, account_uid, period_num", mode, amountRows); err != nil {
		return n, err
	}
	return n, nil
}

// SetForeignKeys defers (or restores) constraint checking for the rest
// of the transaction. Insert ordering already guarantees validity during
// bulk import.
func (t *pgTx) SetForeignKeys(enabled bool) error {
	stmt := "SET CONSTRAINTS ALL DEFERRED"
	if enabled {
		stmt = "SET CONSTRAINTS ALL IMMEDIATE"
	}
	if _, err := t.tx.Exec(stmt); err != nil {
		return fmt.Errorf("toggling constraints: %w", err)
	}
	return nil
}

func (t *pgTx) DeleteAll() error {
	for _, table := range []string{"budget_amounts", "budgets", "splits", "transactions",
		"prices", "scheduled_actions", "accounts", "commodities"} {
		if _, err := t.tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return nil
}

func (t *pgTx) Commit() error   { return t.tx.Commit() }
func (t *pgTx) Rollback() error { return t.tx.Rollback() }

func encodeWeekdays(days []time.Weekday) string {
	if len(days) == 0 {
		return ""
	}
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = fmt.Sprintf("%d", int(d))
	}
	return strings.Join(parts, ",")
}

func decodeWeekdays(s string) []time.Weekday {
	if s == "" {
		return nil
	}
	var out []time.Weekday
	for _, part := range strings.Split(s, ",") {
		var n int
		if _, err := fmt.Sscanf(part, "%d", &n); err == nil && n >= 0 && n <= 6 {
			out = append(out, time.Weekday(n))
		}
	}
	return out
}
