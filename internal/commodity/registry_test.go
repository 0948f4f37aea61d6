package commodity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookport-dev/bookport/internal/model"
)

type mapLookup map[string]model.Commodity

func (m mapLookup) CommodityByCode(namespace, code string) (model.Commodity, bool, error) {
	c, ok := m[namespace+"/"+code]
	return c, ok, nil
}

func TestLookupAliasesCurrencyNamespaces(t *testing.T) {
	r := NewRegistry(nil)
	r.Add(model.Commodity{UID: "u1", Namespace: model.NamespaceISO4217, Code: "EUR", SmallestFraction: 100})

	c, ok := r.Lookup(model.NamespaceCurrency, "EUR")
	require.True(t, ok)
	assert.Equal(t, "u1", c.UID)

	c, ok = r.Lookup(model.NamespaceISO4217, "EUR")
	require.True(t, ok)
	assert.Equal(t, "u1", c.UID)
}

func TestLookupFailsSoft(t *testing.T) {
	r := NewRegistry(nil)
	_, ok := r.Lookup(model.NamespaceCurrency, "XXX")
	assert.False(t, ok)
}

func TestLookupFallsBackToStore(t *testing.T) {
	store := mapLookup{"CURRENCY/USD": {UID: "stored", Namespace: model.NamespaceCurrency, Code: "USD"}}
	r := NewRegistry(store)

	c, ok := r.Lookup(model.NamespaceCurrency, "USD")
	require.True(t, ok)
	assert.Equal(t, "stored", c.UID)

	// Document-local commodities win over the store.
	r.Add(model.Commodity{UID: "local", Namespace: model.NamespaceISO4217, Code: "USD"})
	c, ok = r.Lookup(model.NamespaceCurrency, "USD")
	require.True(t, ok)
	assert.Equal(t, "local", c.UID)
}

func TestAllSkipsTemplate(t *testing.T) {
	r := NewRegistry(nil)
	r.Add(model.Commodity{UID: "u1", Namespace: model.NamespaceISO4217, Code: "EUR"})
	r.Add(model.Commodity{UID: "t", Namespace: model.TemplateNamespace, Code: model.TemplateCode})
	r.Add(model.Commodity{UID: "u2", Namespace: model.NamespaceISO4217, Code: "USD"})

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "EUR", all[0].Code)
	assert.Equal(t, "USD", all[1].Code)
}
