package models

import (
	"time"

	"github.com/guregu/null/v6"
)

// FieldName identifies one output field of the snapshot.
type FieldName string

const (
	FieldDXY       FieldName = "dxy"
	FieldUSDINR    FieldName = "usdinr"
	FieldRealYield FieldName = "realYield"
	FieldPrice     FieldName = "price"
	FieldRSI14     FieldName = "rsi14"
	FieldINAV      FieldName = "inav"
)

// AllFields lists every field in response order.
var AllFields = []FieldName{FieldDXY, FieldUSDINR, FieldRealYield, FieldPrice, FieldRSI14, FieldINAV}

// Overridable reports whether a caller may supply a manual value for the field.
func (f FieldName) Overridable() bool {
	switch f {
	case FieldUSDINR, FieldPrice, FieldINAV:
		return true
	default:
		return false
	}
}

// Trend classifies a 30-day percentage change of the exchange rate.
type Trend string

const (
	TrendWeakening     Trend = "weakening"
	TrendStrengthening Trend = "strengthening"
	TrendStable        Trend = "stable"
)

// ProviderTag is provenance only: which upstream, identifier and window produced a value.
type ProviderTag struct {
	Provider string `json:"provider"`
	Symbol   string `json:"symbol"`
	Window   string `json:"window"`
	Note     string `json:"note,omitempty"`
}

// FieldResult is one resolved field. Value is null only when every provider failed.
type FieldResult struct {
	Value  null.Float  `json:"value"`
	AsOf   null.Time   `json:"asOf"`
	Source ProviderTag `json:"source"`
	Pct30d null.Float  `json:"pct30d,omitzero"`
	Trend  Trend       `json:"trend,omitempty"`
}

// Reading is what a single provider step yields on success.
type Reading struct {
	Value  float64
	AsOf   time.Time
	Pct30d null.Float
	Trend  Trend
}

// Result converts a successful reading into a FieldResult.
func (r Reading) Result(tag ProviderTag) FieldResult {
	fr := FieldResult{
		Value:  null.FloatFrom(r.Value),
		Source: tag,
		Pct30d: r.Pct30d,
		Trend:  r.Trend,
	}
	if !r.AsOf.IsZero() {
		fr.AsOf = null.TimeFrom(r.AsOf.UTC())
	}
	return fr
}
