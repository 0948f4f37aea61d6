package gncxml

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/bookport-dev/bookport/internal/guid"
	"github.com/bookport-dev/bookport/internal/model"
	"github.com/bookport-dev/bookport/internal/numeric"
	"github.com/bookport-dev/bookport/internal/store"
)

// Exporter serializes the stored ledger back into the GnuCash XML v2
// dialect. The reader is expected to hand it one consistent snapshot;
// exporting while the store is being mutated is not supported.
type Exporter struct {
	reader store.Reader
	log    zerolog.Logger
	gzip   bool
}

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithExporterLogger routes exporter diagnostics to log.
func WithExporterLogger(log zerolog.Logger) ExporterOption {
	return func(ex *Exporter) { ex.log = log }
}

// WithGzip compresses the output stream.
func WithGzip() ExporterOption {
	return func(ex *Exporter) { ex.gzip = true }
}

// NewExporter returns an Exporter reading from r.
func NewExporter(r store.Reader, opts ...ExporterOption) *Exporter {
	ex := &Exporter{reader: r, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(ex)
	}
	return ex
}

// Export writes the whole ledger to w. Cancellation via ctx is polled
// once per record; a cancelled export leaves w with a truncated
// document.
func (ex *Exporter) Export(ctx context.Context, w io.Writer) error {
	if ex.gzip {
		gz := gzip.NewWriter(w)
		if err := ex.export(ctx, gz); err != nil {
			gz.Close()
			return err
		}
		if err := gz.Close(); err != nil {
			return &TransportError{Reason: "closing gzip stream", Err: err}
		}
		return nil
	}
	return ex.export(ctx, w)
}

func (ex *Exporter) export(ctx context.Context, w io.Writer) error {
	commodities, err := ex.reader.Commodities(ctx)
	if err != nil {
		return fmt.Errorf("reading commodities: %w", err)
	}
	accounts, err := ex.reader.Accounts(ctx)
	if err != nil {
		return fmt.Errorf("reading accounts: %w", err)
	}
	transactions, err := ex.reader.Transactions(ctx, false)
	if err != nil {
		return fmt.Errorf("reading transactions: %w", err)
	}
	templates, err := ex.reader.Transactions(ctx, true)
	if err != nil {
		return fmt.Errorf("reading template transactions: %w", err)
	}
	actions, err := ex.reader.ScheduledActions(ctx)
	if err != nil {
		return fmt.Errorf("reading scheduled actions: %w", err)
	}
	prices, err := ex.reader.Prices(ctx)
	if err != nil {
		return fmt.Errorf("reading prices: %w", err)
	}
	budgets, err := ex.reader.Budgets(ctx)
	if err != nil {
		return fmt.Errorf("reading budgets: %w", err)
	}

	ordered := orderAccounts(accounts)

	x := newXMLWriter(w)
	x.raw("<?xml version=\"1.0\" encoding=\"utf-8\" ?>\n")
	x.open("gnc-v2",
		"xmlns:gnc", nsGnc,
		"xmlns:act", nsAct,
		"xmlns:book", nsBook,
		"xmlns:cd", nsCd,
		"xmlns:cmdty", nsCmdty,
		"xmlns:price", nsPrice,
		"xmlns:slot", nsSlot,
		"xmlns:split", nsSplit,
		"xmlns:sx", nsSx,
		"xmlns:trn", nsTrn,
		"xmlns:ts", nsTs,
		"xmlns:bgt", nsBgt,
		"xmlns:recurrence", nsRecurrence,
	)
	x.countData("book", 1)
	x.open("gnc:book", "version", "2.0.0")
	x.leaf("book:id", guid.New(), "type", "guid")

	x.countData("commodity", len(commodities))
	x.countData("account", len(ordered))
	x.countData("transaction", len(transactions))
	x.countData("schedxaction", len(actions))
	x.countData("budget", len(budgets))
	x.countData("price", len(prices))

	for _, c := range commodities {
		if err := ctx.Err(); err != nil {
			return err
		}
		writeCommodity(x, c)
	}
	// The template pseudo-commodity always trails the commodities in
	// use, whether or not any template transactions reference it.
	writeCommodity(x, model.Commodity{
		Namespace:        model.TemplateNamespace,
		Code:             model.TemplateCode,
		FullName:         model.TemplateCode,
		SmallestFraction: 1,
	})

	if len(prices) > 0 {
		x.open("gnc:pricedb", "version", "1")
		for _, p := range prices {
			if err := ctx.Err(); err != nil {
				return err
			}
			writePrice(x, p)
		}
		x.close("gnc:pricedb")
	}

	for _, a := range ordered {
		if err := ctx.Err(); err != nil {
			return err
		}
		writeAccount(x, a)
	}

	for i := range transactions {
		if err := ctx.Err(); err != nil {
			return err
		}
		writeTransaction(x, &transactions[i])
	}

	if len(templates) > 0 {
		if err := writeTemplates(ctx, x, templates, actions); err != nil {
			return err
		}
	}

	if len(actions) > 0 {
		x.open("gnc:schedxactions", "version", "2.0.0")
		for i := range actions {
			if err := ctx.Err(); err != nil {
				return err
			}
			writeScheduledAction(x, &actions[i])
		}
		x.close("gnc:schedxactions")
	}

	for i := range budgets {
		if err := ctx.Err(); err != nil {
			return err
		}
		writeBudget(x, &budgets[i])
	}

	x.close("gnc:book")
	x.close("gnc-v2")
	if err := x.flush(); err != nil {
		return &TransportError{Reason: "writing document", Err: err}
	}
	return nil
}

// orderAccounts arranges parents before their children, siblings in
// stored order, with the root first.
func orderAccounts(accounts []model.Account) []model.Account {
	children := make(map[string][]model.Account)
	var roots []model.Account
	for _, a := range accounts {
		if a.IsRoot() || a.ParentUID == "" {
			roots = append(roots, a)
			continue
		}
		children[a.ParentUID] = append(children[a.ParentUID], a)
	}
	out := make([]model.Account, 0, len(accounts))
	var walk func(a model.Account)
	walk = func(a model.Account) {
		out = append(out, a)
		for _, c := range children[a.UID] {
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	// Orphans whose parent never made it into the snapshot.
	seen := make(map[string]bool, len(out))
	for _, a := range out {
		seen[a.UID] = true
	}
	for _, a := range accounts {
		if !seen[a.UID] {
			out = append(out, a)
		}
	}
	return out
}

func writeCommodity(x *xmlWriter, c model.Commodity) {
	x.open("gnc:commodity", "version", "2.0.0")
	x.leaf("cmdty:space", c.Namespace)
	x.leaf("cmdty:id", c.Code)
	if c.FullName != "" {
		x.leaf("cmdty:name", c.FullName)
	}
	if c.CUSIP != "" {
		x.leaf("cmdty:xcode", c.CUSIP)
	}
	x.leaf("cmdty:fraction", strconv.FormatInt(c.SmallestFraction, 10))
	if c.QuoteFlag {
		x.emptyLeaf("cmdty:get_quotes")
	}
	if c.QuoteSource != "" {
		x.leaf("cmdty:quote_source", c.QuoteSource)
	}
	if c.QuoteTZ != "" {
		x.leaf("cmdty:quote_tz", c.QuoteTZ)
	}
	x.close("gnc:commodity")
}

func writePrice(x *xmlWriter, p model.Price) {
	x.open("price")
	x.leaf("price:id", p.UID, "type", "guid")
	x.open("price:commodity")
	x.leaf("cmdty:space", p.CommodityNamespace)
	x.leaf("cmdty:id", p.CommodityCode)
	x.close("price:commodity")
	x.open("price:currency")
	x.leaf("cmdty:space", p.CurrencyNamespace)
	x.leaf("cmdty:id", p.CurrencyCode)
	x.close("price:currency")
	x.tsLeaf("price:time", p.Date)
	if p.Source != "" {
		x.leaf("price:source", p.Source)
	}
	if p.Type != "" {
		x.leaf("price:type", p.Type)
	}
	x.leaf("price:value", p.Value.String())
	x.close("price")
}

func writeAccount(x *xmlWriter, a model.Account) {
	x.open("gnc:account", "version", "2.0.0")
	x.leaf("act:name", a.Name)
	x.leaf("act:id", a.UID, "type", "guid")
	x.leaf("act:type", string(a.Type))
	if a.CommodityCode != "" {
		x.open("act:commodity")
		x.leaf("cmdty:space", a.CommodityNamespace)
		x.leaf("cmdty:id", a.CommodityCode)
		x.close("act:commodity")
	}
	if a.Description != "" {
		x.leaf("act:description", a.Description)
	}
	writeAccountSlots(x, a)
	if a.ParentUID != "" {
		x.leaf("act:parent", a.ParentUID, "type", "guid")
	}
	x.close("gnc:account")
}

func writeAccountSlots(x *xmlWriter, a model.Account) {
	type kv struct{ key, typ, val string }
	var slots []kv
	if a.Placeholder {
		slots = append(slots, kv{slotPlaceholder, "string", "true"})
	}
	if a.Hidden {
		slots = append(slots, kv{slotHidden, "string", "true"})
	}
	if a.Favorite {
		slots = append(slots, kv{slotFavorite, "string", "true"})
	}
	if a.Color != "" {
		slots = append(slots, kv{slotColor, "string", a.Color})
	}
	if a.Notes != "" {
		slots = append(slots, kv{slotNotes, "string", a.Notes})
	}
	if a.DefaultTransferUID != "" {
		slots = append(slots, kv{slotDefaultTransfer, "guid", a.DefaultTransferUID})
	}
	if len(slots) == 0 {
		return
	}
	x.open("act:slots")
	for _, s := range slots {
		x.slot(s.key, s.typ, s.val)
	}
	x.close("act:slots")
}

func writeTransaction(x *xmlWriter, txn *model.Transaction) {
	x.open("gnc:transaction", "version", "2.0.0")
	x.leaf("trn:id", txn.UID, "type", "guid")
	x.open("trn:currency")
	x.leaf("cmdty:space", txn.CommodityNamespace)
	x.leaf("cmdty:id", txn.CommodityCode)
	x.close("trn:currency")
	x.tsLeaf("trn:date-posted", txn.PostedAt)
	x.tsLeaf("trn:date-entered", txn.CreatedAt)
	x.leaf("trn:description", txn.Description)
	if txn.Notes != "" || txn.ScheduledActionUID != "" {
		x.open("trn:slots")
		if txn.Notes != "" {
			x.slot(slotNotes, "string", txn.Notes)
		}
		if txn.ScheduledActionUID != "" {
			x.slot(slotFromSchedAction, "guid", txn.ScheduledActionUID)
		}
		x.close("trn:slots")
	}
	x.open("trn:splits")
	for i := range txn.Splits {
		writeSplit(x, &txn.Splits[i], "")
	}
	x.close("trn:splits")
	x.close("gnc:transaction")
}

// writeSplit emits one split. For template splits templateAcctUID is
// the synthetic template account and the real amounts ride in the
// sched-xaction slot frame; ordinary splits pass "".
func writeSplit(x *xmlWriter, sp *model.Split, templateAcctUID string) {
	x.open("trn:split")
	x.leaf("split:id", sp.UID, "type", "guid")
	if sp.Memo != "" {
		x.leaf("split:memo", sp.Memo)
	}
	if sp.Action != "" {
		x.leaf("split:action", sp.Action)
	}
	state := sp.ReconcileState
	if state == "" {
		state = model.ReconcileNo
	}
	x.leaf("split:reconciled-state", state)
	if !sp.ReconcileDate.IsZero() {
		x.tsLeaf("split:reconcile-date", sp.ReconcileDate)
	}
	if templateAcctUID != "" {
		x.leaf("split:value", numeric.Zero.String())
		x.leaf("split:quantity", numeric.Zero.String())
		x.leaf("split:account", templateAcctUID, "type", "guid")
		x.open("split:slots")
		x.openFrame(slotSchedXaction)
		x.slot(slotSchedAccount, "guid", sp.AccountUID)
		if sp.Value.Sign() < 0 {
			x.slot(slotCreditNumeric, "numeric", sp.Value.Abs().String())
		} else {
			x.slot(slotDebitNumeric, "numeric", sp.Value.String())
		}
		x.closeFrame()
		x.close("split:slots")
	} else {
		x.leaf("split:value", sp.Value.String())
		x.leaf("split:quantity", sp.Quantity.String())
		x.leaf("split:account", sp.AccountUID, "type", "guid")
	}
	x.close("trn:split")
}

// writeTemplates regenerates the synthetic template account tree and
// emits the template transactions under it. Template accounts are not
// stored; they exist only in the wire format.
func writeTemplates(ctx context.Context, x *xmlWriter, templates []model.Transaction, actions []model.ScheduledAction) error {
	acctByTxn := make(map[string]string, len(actions))
	for _, a := range actions {
		if a.ActionType == model.ActionTransaction && a.TemplateAccountUID != "" {
			acctByTxn[a.ActionUID] = a.TemplateAccountUID
		}
	}

	rootUID := guid.New()
	x.open("gnc:template-transactions")
	x.open("gnc:account", "version", "2.0.0")
	x.leaf("act:name", "Template Root")
	x.leaf("act:id", rootUID, "type", "guid")
	x.leaf("act:type", string(model.AccountTypeRoot))
	x.close("gnc:account")

	for i := range templates {
		txn := &templates[i]
		acctUID := acctByTxn[txn.UID]
		if acctUID == "" {
			acctUID = guid.New()
		}
		x.open("gnc:account", "version", "2.0.0")
		x.leaf("act:name", acctUID)
		x.leaf("act:id", acctUID, "type", "guid")
		x.leaf("act:type", string(model.AccountTypeBank))
		x.open("act:commodity")
		x.leaf("cmdty:space", model.TemplateNamespace)
		x.leaf("cmdty:id", model.TemplateCode)
		x.close("act:commodity")
		x.leaf("act:parent", rootUID, "type", "guid")
		x.close("gnc:account")
	}

	for i := range templates {
		if err := ctx.Err(); err != nil {
			return err
		}
		txn := &templates[i]
		acctUID := acctByTxn[txn.UID]
		if acctUID == "" {
			acctUID = guid.New()
		}
		x.open("gnc:transaction", "version", "2.0.0")
		x.leaf("trn:id", txn.UID, "type", "guid")
		x.open("trn:currency")
		x.leaf("cmdty:space", txn.CommodityNamespace)
		x.leaf("cmdty:id", txn.CommodityCode)
		x.close("trn:currency")
		x.tsLeaf("trn:date-posted", txn.PostedAt)
		x.tsLeaf("trn:date-entered", txn.CreatedAt)
		x.leaf("trn:description", txn.Description)
		x.open("trn:splits")
		for j := range txn.Splits {
			writeSplit(x, &txn.Splits[j], acctUID)
		}
		x.close("trn:splits")
		x.close("gnc:transaction")
	}
	x.close("gnc:template-transactions")
	return nil
}

func writeScheduledAction(x *xmlWriter, a *model.ScheduledAction) {
	x.open("gnc:schedxaction", "version", "2.0.0")
	x.leaf("sx:id", a.UID, "type", "guid")
	x.leaf("sx:name", a.Name)
	x.leaf("sx:enabled", yn(a.Enabled))
	x.leaf("sx:autoCreate", yn(a.AutoCreate))
	x.leaf("sx:autoCreateNotify", yn(a.AutoNotify))
	x.leaf("sx:advanceCreateDays", strconv.Itoa(a.AdvanceCreateDays))
	x.leaf("sx:advanceRemindDays", strconv.Itoa(a.AdvanceNotifyDays))
	x.leaf("sx:instanceCount", strconv.Itoa(a.ExecutionCount))
	x.gdateLeaf("sx:start", a.StartAt)
	if !a.LastRunAt.IsZero() {
		x.gdateLeaf("sx:last", a.LastRunAt)
	}
	if a.TotalPlannedCount > 0 {
		x.leaf("sx:num-occur", strconv.Itoa(a.TotalPlannedCount))
		rem := a.TotalPlannedCount - a.ExecutionCount
		if rem < 0 {
			rem = 0
		}
		x.leaf("sx:rem-occur", strconv.Itoa(rem))
	}
	if !a.EndAt.IsZero() {
		x.gdateLeaf("sx:end", a.EndAt)
	}
	if a.Tag != "" {
		x.leaf("sx:tag", a.Tag)
	}
	if a.TemplateAccountUID != "" {
		x.leaf("sx:templ-acct", a.TemplateAccountUID, "type", "guid")
	}
	x.open("sx:schedule")
	writeRecurrences(x, a.Recurrence)
	x.close("sx:schedule")
	x.close("gnc:schedxaction")
}

// writeRecurrences expands a weekly recurrence with an explicit weekday
// set back into one recurrence element per weekday, matching how
// composite weekly schedules appear on the wire.
func writeRecurrences(x *xmlWriter, rec model.Recurrence) {
	if rec.PeriodType == model.PeriodWeek && len(rec.Weekdays) > 1 {
		for _, wd := range rec.Weekdays {
			r := rec
			r.Weekdays = nil
			r.PeriodStart = snapToWeekdayOnOrAfter(rec.PeriodStart, wd)
			writeRecurrence(x, "gnc:recurrence", r)
		}
		return
	}
	writeRecurrence(x, "gnc:recurrence", rec)
}

func writeRecurrence(x *xmlWriter, container string, rec model.Recurrence) {
	x.open(container, "version", "1.0.0")
	mult := rec.Multiplier
	if mult < 1 {
		mult = 1
	}
	x.leaf("recurrence:mult", strconv.Itoa(mult))
	x.leaf("recurrence:period_type", periodTag(rec.PeriodType))
	x.gdateLeaf("recurrence:start", rec.PeriodStart)
	adj := rec.WeekendAdjust
	if adj == "" {
		adj = model.WeekendAdjustNone
	}
	x.leaf("recurrence:weekend_adj", string(adj))
	x.close(container)
}

func periodTag(p model.PeriodType) string {
	switch p {
	case model.PeriodDay:
		return "day"
	case model.PeriodWeek:
		return "week"
	case model.PeriodYear:
		return "year"
	default:
		return "month"
	}
}

func snapToWeekdayOnOrAfter(t time.Time, wd time.Weekday) time.Time {
	for t.Weekday() != wd {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

func writeBudget(x *xmlWriter, b *model.Budget) {
	x.open("gnc:budget", "version", "2.0.0")
	x.leaf("bgt:id", b.UID, "type", "guid")
	x.leaf("bgt:name", b.Name)
	if b.Description != "" {
		x.leaf("bgt:description", b.Description)
	}
	x.leaf("bgt:num-periods", strconv.Itoa(b.NumPeriods))
	writeRecurrence(x, "bgt:recurrence", b.Recurrence)

	if len(b.Amounts) > 0 {
		byAccount := make(map[string][]model.BudgetAmount)
		var order []string
		for _, amt := range b.Amounts {
			if _, seen := byAccount[amt.AccountUID]; !seen {
				order = append(order, amt.AccountUID)
			}
			byAccount[amt.AccountUID] = append(byAccount[amt.AccountUID], amt)
		}
		x.open("bgt:slots")
		for _, acct := range order {
			x.openFrame(acct)
			for _, amt := range byAccount[acct] {
				x.slot(strconv.Itoa(amt.PeriodNum), "numeric", amt.Amount.String())
			}
			x.closeFrame()
		}
		for _, acct := range order {
			var noted []model.BudgetAmount
			for _, amt := range byAccount[acct] {
				if amt.Notes != "" {
					noted = append(noted, amt)
				}
			}
			if len(noted) == 0 {
				continue
			}
			x.openFrame(slotNotes)
			x.openFrame(acct)
			for _, amt := range noted {
				x.slot(strconv.Itoa(amt.PeriodNum), "string", amt.Notes)
			}
			x.closeFrame()
			x.closeFrame()
		}
		x.close("bgt:slots")
	}
	x.close("gnc:budget")
}

func yn(b bool) string {
	if b {
		return "y"
	}
	return "n"
}

// xmlWriter is a minimal indenting writer for the prefixed-namespace
// dialect. encoding/xml's encoder cannot reproduce the fixed prefixes
// the format requires, so tags are written literally and only character
// data and attribute values go through the escaper.
type xmlWriter struct {
	w     *bufio.Writer
	depth int
	err   error
}

func newXMLWriter(w io.Writer) *xmlWriter {
	return &xmlWriter{w: bufio.NewWriter(w)}
}

func (x *xmlWriter) raw(s string) {
	if x.err == nil {
		_, x.err = x.w.WriteString(s)
	}
}

func (x *xmlWriter) escape(s string) {
	if x.err == nil {
		x.err = xml.EscapeText(x.w, []byte(s))
	}
}

func (x *xmlWriter) indent() {
	for i := 0; i < x.depth; i++ {
		x.raw("  ")
	}
}

func (x *xmlWriter) attrs(pairs []string) {
	for i := 0; i+1 < len(pairs); i += 2 {
		x.raw(" " + pairs[i] + "=\"")
		x.escape(pairs[i+1])
		x.raw("\"")
	}
}

func (x *xmlWriter) open(name string, attrPairs ...string) {
	x.indent()
	x.raw("<" + name)
	x.attrs(attrPairs)
	x.raw(">\n")
	x.depth++
}

func (x *xmlWriter) close(name string) {
	x.depth--
	x.indent()
	x.raw("</" + name + ">\n")
}

func (x *xmlWriter) leaf(name, text string, attrPairs ...string) {
	x.indent()
	x.raw("<" + name)
	x.attrs(attrPairs)
	x.raw(">")
	x.escape(text)
	x.raw("</" + name + ">\n")
}

func (x *xmlWriter) emptyLeaf(name string) {
	x.indent()
	x.raw("<" + name + "/>\n")
}

// tsLeaf writes a timestamp element with its ts:date child.
func (x *xmlWriter) tsLeaf(name string, t time.Time) {
	x.open(name)
	x.leaf("ts:date", formatTimestamp(t))
	x.close(name)
}

// gdateLeaf writes a date element with its gdate child.
func (x *xmlWriter) gdateLeaf(name string, t time.Time) {
	x.open(name)
	x.leaf("gdate", formatDate(t))
	x.close(name)
}

func (x *xmlWriter) slot(key, typ, value string) {
	x.open("slot")
	x.leaf("slot:key", key)
	x.leaf("slot:value", value, "type", typ)
	x.close("slot")
}

func (x *xmlWriter) openFrame(key string) {
	x.open("slot")
	x.leaf("slot:key", key)
	x.open("slot:value", "type", "frame")
}

func (x *xmlWriter) closeFrame() {
	x.close("slot:value")
	x.close("slot")
}

func (x *xmlWriter) countData(kind string, n int) {
	if n == 0 {
		return
	}
	x.leaf("gnc:count-data", strconv.Itoa(n), "cd:type", kind)
}

func (x *xmlWriter) flush() error {
	if x.err != nil {
		return x.err
	}
	return x.w.Flush()
}
