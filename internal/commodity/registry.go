// Package commodity resolves (namespace, code) references to commodity
// records, preferring commodities declared in the current document and
// falling back to the persistence store.
package commodity

import (
	"strings"

	"github.com/bookport-dev/bookport/internal/model"
)

// StoreLookup is the slice of the persistence store the registry needs.
type StoreLookup interface {
	CommodityByCode(namespace, code string) (model.Commodity, bool, error)
}

// Registry resolves commodity references. Lookups fail soft: an absent
// commodity returns ok=false rather than an error, so callers can
// distinguish "not a currency" from malformed input.
type Registry struct {
	byKey map[string]model.Commodity
	order []string
	store StoreLookup
}

// NewRegistry returns an empty registry. store may be nil.
func NewRegistry(store StoreLookup) *Registry {
	return &Registry{byKey: make(map[string]model.Commodity), store: store}
}

// Add registers a commodity seen in the current document, replacing any
// earlier entry for the same (namespace, code).
func (r *Registry) Add(c model.Commodity) {
	k := key(c.Namespace, c.Code)
	if _, seen := r.byKey[k]; !seen {
		r.order = append(r.order, k)
	}
	r.byKey[k] = c
}

// Lookup resolves a (namespace, code) pair, treating the ISO4217 and
// CURRENCY namespaces as interchangeable.
func (r *Registry) Lookup(namespace, code string) (model.Commodity, bool) {
	if c, ok := r.byKey[key(namespace, code)]; ok {
		return c, true
	}
	if r.store != nil {
		if c, ok, err := r.store.CommodityByCode(namespace, code); err == nil && ok {
			return c, true
		}
	}
	return model.Commodity{}, false
}

// All returns the registered commodities in document order, excluding
// the template pseudo-commodity.
func (r *Registry) All() []model.Commodity {
	out := make([]model.Commodity, 0, len(r.order))
	for _, k := range r.order {
		c := r.byKey[k]
		if c.IsTemplate() {
			continue
		}
		out = append(out, c)
	}
	return out
}

func key(namespace, code string) string {
	if model.CurrencyNamespace(namespace) {
		namespace = model.NamespaceCurrency
	}
	return namespace + "\x00" + strings.ToUpper(code)
}
