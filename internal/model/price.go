package model

import (
	"time"

	"github.com/bookport-dev/bookport/internal/numeric"
)

// Price quotes one commodity in another at a point in time.
type Price struct {
	UID                string
	CommodityUID       string
	CommodityNamespace string
	CommodityCode      string
	CurrencyUID        string
	CurrencyNamespace  string
	CurrencyCode       string
	Date               time.Time
	Source             string
	Type               string
	Value              numeric.Numeric
}
