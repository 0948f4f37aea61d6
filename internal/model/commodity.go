package model

// Commodity namespaces. ISO4217 and CURRENCY are interchangeable aliases
// for currency lookups; "template" marks the pseudo-commodity attached to
// scheduled-action template accounts and must never be persisted.
const (
	NamespaceISO4217  = "ISO4217"
	NamespaceCurrency = "CURRENCY"

	TemplateNamespace = "template"
	TemplateCode      = "template"
)

// Commodity is a currency or traded security, identified by its
// (namespace, code) pair.
type Commodity struct {
	UID              string
	Namespace        string
	Code             string
	FullName         string
	SmallestFraction int64 // e.g. 100 for cent-denominated currencies
	CUSIP            string
	QuoteSource      string
	QuoteTZ          string
	QuoteFlag        bool
}

// IsCurrency reports whether the commodity lives in a currency namespace.
func (c Commodity) IsCurrency() bool {
	return CurrencyNamespace(c.Namespace)
}

// IsTemplate reports whether this is the template pseudo-commodity.
func (c Commodity) IsTemplate() bool {
	return c.Namespace == TemplateNamespace
}

// CurrencyNamespace reports whether ns is one of the currency namespace
// aliases.
func CurrencyNamespace(ns string) bool {
	return ns == NamespaceISO4217 || ns == NamespaceCurrency
}

// SameCurrency reports whether two commodities denote the same currency
// under namespace aliasing.
func SameCurrency(a, b Commodity) bool {
	return a.IsCurrency() && b.IsCurrency() && a.Code == b.Code
}
