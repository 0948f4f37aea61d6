package gncxml

import "encoding/xml"

// Namespace URIs of the GnuCash XML v2 dialect.
const (
	nsGnc        = "http://www.gnucash.org/XML/gnc"
	nsAct        = "http://www.gnucash.org/XML/act"
	nsBook       = "http://www.gnucash.org/XML/book"
	nsCd         = "http://www.gnucash.org/XML/cd"
	nsCmdty      = "http://www.gnucash.org/XML/cmdty"
	nsPrice      = "http://www.gnucash.org/XML/price"
	nsSlot       = "http://www.gnucash.org/XML/slot"
	nsSplit      = "http://www.gnucash.org/XML/split"
	nsSx         = "http://www.gnucash.org/XML/sx"
	nsTrn        = "http://www.gnucash.org/XML/trn"
	nsTs         = "http://www.gnucash.org/XML/ts"
	nsBgt        = "http://www.gnucash.org/XML/bgt"
	nsRecurrence = "http://www.gnucash.org/XML/recurrence"
)

var nsToPrefix = map[string]string{
	nsGnc:        "gnc",
	nsAct:        "act",
	nsBook:       "book",
	nsCd:         "cd",
	nsCmdty:      "cmdty",
	nsPrice:      "price",
	nsSlot:       "slot",
	nsSplit:      "split",
	nsSx:         "sx",
	nsTrn:        "trn",
	nsTs:         "ts",
	nsBgt:        "bgt",
	nsRecurrence: "recurrence",
}

// qname renders a decoded element name back into its prefixed wire
// spelling ("gnc:account"); elements outside the known namespaces (the
// root gnc-v2, slot, gdate, price) keep their bare local name.
func qname(n xml.Name) string {
	if p, ok := nsToPrefix[n.Space]; ok {
		return p + ":" + n.Local
	}
	return n.Local
}

func attrValue(e xml.StartElement, name string) string {
	for _, a := range e.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
