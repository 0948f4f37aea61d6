package gncxml

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookport-dev/bookport/internal/model"
	"github.com/bookport-dev/bookport/internal/store"
)

// Serializing an imported ledger and importing the output again must
// reproduce the same ledger.
func TestRoundTrip(t *testing.T) {
	first, _ := importFixture(t)

	var buf bytes.Buffer
	ex := NewExporter(first)
	require.NoError(t, ex.Export(context.Background(), &buf))

	second := store.NewMemory()
	im := NewImporter(second, WithClock(func() time.Time { return fixtureNow }))
	res, err := im.Import(context.Background(), strings.NewReader(buf.String()))
	require.NoError(t, err)
	// The schedule already caught up in the first pass.
	assert.Equal(t, 0, res.GeneratedTransactions)

	ctx := context.Background()

	wantAccounts, err := first.Accounts(ctx)
	require.NoError(t, err)
	gotAccounts, err := second.Accounts(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, accountKeys(wantAccounts), accountKeys(gotAccounts))

	wantTxns, err := first.Transactions(ctx, false)
	require.NoError(t, err)
	gotTxns, err := second.Transactions(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, txnKeys(wantTxns), txnKeys(gotTxns))

	wantTmpl, err := first.Transactions(ctx, true)
	require.NoError(t, err)
	gotTmpl, err := second.Transactions(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, txnKeys(wantTmpl), txnKeys(gotTmpl))

	wantActions, err := first.ScheduledActions(ctx)
	require.NoError(t, err)
	gotActions, err := second.ScheduledActions(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, actionKeys(wantActions), actionKeys(gotActions))

	wantBudgets, err := first.Budgets(ctx)
	require.NoError(t, err)
	gotBudgets, err := second.Budgets(ctx)
	require.NoError(t, err)
	require.Len(t, gotBudgets, len(wantBudgets))
	for i := range wantBudgets {
		assert.Equal(t, wantBudgets[i].Name, gotBudgets[i].Name)
		assert.Equal(t, wantBudgets[i].NumPeriods, gotBudgets[i].NumPeriods)
		assert.ElementsMatch(t, budgetKeys(wantBudgets[i]), budgetKeys(gotBudgets[i]))
	}

	wantPrices, err := first.Prices(ctx)
	require.NoError(t, err)
	gotPrices, err := second.Prices(ctx)
	require.NoError(t, err)
	require.Len(t, gotPrices, len(wantPrices))
	for i := range wantPrices {
		assert.Equal(t, wantPrices[i].CommodityCode, gotPrices[i].CommodityCode)
		assert.Equal(t, wantPrices[i].Value.String(), gotPrices[i].Value.String())
	}
}

func TestRoundTripGzip(t *testing.T) {
	first, _ := importFixture(t)

	var buf bytes.Buffer
	ex := NewExporter(first, WithGzip())
	require.NoError(t, ex.Export(context.Background(), &buf))
	assert.Equal(t, []byte{0x1f, 0x8b}, buf.Bytes()[:2])

	second := store.NewMemory()
	im := NewImporter(second, WithClock(func() time.Time { return fixtureNow }))
	res, err := im.Import(context.Background(), bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, TransportGzip, res.Transport)

	want, err := first.Transactions(context.Background(), false)
	require.NoError(t, err)
	got, err := second.Transactions(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, txnKeys(want), txnKeys(got))
}

// TestExportEscaping makes sure markup-significant characters in text
// fields survive a round trip.
func TestRoundTripEscaping(t *testing.T) {
	doc := strings.Replace(fixtureXML(),
		"<trn:description>Groceries</trn:description>",
		"<trn:description>Fish &amp; chips &lt;takeaway&gt;</trn:description>", 1)

	first := store.NewMemory()
	im := NewImporter(first, WithClock(func() time.Time { return fixtureNow }))
	_, err := im.Import(context.Background(), strings.NewReader(doc))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewExporter(first).Export(context.Background(), &buf))
	assert.Contains(t, buf.String(), "Fish &amp; chips &lt;takeaway&gt;")

	second := store.NewMemory()
	im2 := NewImporter(second, WithClock(func() time.Time { return fixtureNow }))
	_, err = im2.Import(context.Background(), strings.NewReader(buf.String()))
	require.NoError(t, err)

	txn, ok, err := second.Transaction(gid(6))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Fish & chips <takeaway>", txn.Description)
}

// TestExportTemplateCommodityWithoutTemplates checks that the template
// pseudo-commodity is written even when the ledger has no template
// transactions, matching the files GnuCash itself produces.
func TestExportTemplateCommodityWithoutTemplates(t *testing.T) {
	st := store.NewMemory()
	tx, err := st.Begin(context.Background())
	require.NoError(t, err)
	_, err = tx.InsertCommodities([]model.Commodity{
		{UID: gid(30), Namespace: model.NamespaceISO4217, Code: "USD", SmallestFraction: 100},
	}, store.ModeInsert)
	require.NoError(t, err)
	_, err = tx.InsertAccounts([]model.Account{
		{UID: gid(31), Name: "Root", FullName: "Root", Type: model.AccountTypeRoot, CommodityCode: "USD"},
	}, store.ModeInsert)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	var buf bytes.Buffer
	require.NoError(t, NewExporter(st).Export(context.Background(), &buf))
	assert.Contains(t, buf.String(), "<cmdty:space>template</cmdty:space>")
	assert.Contains(t, buf.String(), "<cmdty:id>template</cmdty:id>")

	second := store.NewMemory()
	_, err = NewImporter(second).Import(context.Background(), strings.NewReader(buf.String()))
	require.NoError(t, err)
}

func TestExportCancelled(t *testing.T) {
	st, _ := importFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var buf bytes.Buffer
	err := NewExporter(st).Export(ctx, &buf)
	require.ErrorIs(t, err, context.Canceled)
}

func accountKeys(accounts []model.Account) []string {
	keys := make([]string, 0, len(accounts))
	for _, a := range accounts {
		keys = append(keys, strings.Join([]string{
			a.UID, a.Name, a.FullName, string(a.Type), a.ParentUID, a.CommodityCode,
		}, "|"))
	}
	return keys
}

func txnKeys(txns []model.Transaction) []string {
	keys := make([]string, 0, len(txns))
	for _, txn := range txns {
		parts := []string{txn.UID, txn.Description, formatTimestamp(txn.PostedAt), txn.ScheduledActionUID}
		for _, sp := range txn.Splits {
			parts = append(parts, sp.AccountUID+"="+sp.Value.String())
		}
		keys = append(keys, strings.Join(parts, "|"))
	}
	return keys
}

func actionKeys(actions []model.ScheduledAction) []string {
	keys := make([]string, 0, len(actions))
	for _, a := range actions {
		keys = append(keys, strings.Join([]string{
			a.UID, a.Name, string(a.ActionType), a.TemplateAccountUID,
			string(a.Recurrence.PeriodType), formatDate(a.Recurrence.PeriodStart),
		}, "|"))
	}
	return keys
}

func budgetKeys(b model.Budget) []string {
	keys := make([]string, 0, len(b.Amounts))
	for _, amt := range b.Amounts {
		keys = append(keys, strings.Join([]string{
			amt.AccountUID, amt.Amount.String(), amt.Notes,
		}, "|"))
	}
	return keys
}
