package models

import (
	"time"

	"github.com/guregu/null/v6"
)

// SnapshotSchemaVersion is bumped on any change to the Snapshot JSON shape.
const SnapshotSchemaVersion = 1

// ManualOverride reports a caller-supplied value next to the auto-resolved one.
type ManualOverride struct {
	Manual     float64     `json:"manual"`
	Auto       null.Float  `json:"auto"`
	AutoSource ProviderTag `json:"autoSource"`
}

// Snapshot is the aggregated response body.
type Snapshot struct {
	SchemaVersion int                          `json:"schemaVersion"`
	AsOf          time.Time                    `json:"asOf"`
	DXY           null.Float                   `json:"dxy"`
	USDINR        null.Float                   `json:"usdinr"`
	USDINRPct30d  null.Float                   `json:"usdinrPct30d"`
	USDINRTrend   Trend                        `json:"usdinrTrend,omitempty"`
	RealYield     null.Float                   `json:"realYield"`
	Price         null.Float                   `json:"price"`
	RSI14         null.Float                   `json:"rsi14"`
	INAV          null.Float                   `json:"inav"`
	Fields        map[FieldName]FieldResult    `json:"fields"`
	Freshness     map[FieldName]ProviderTag    `json:"freshness"`
	Manual        map[FieldName]ManualOverride `json:"manual,omitempty"`
	Errors        []string                     `json:"errors"`
}

// NewSnapshot returns an empty snapshot with non-nil collections.
func NewSnapshot(asOf time.Time) *Snapshot {
	return &Snapshot{
		SchemaVersion: SnapshotSchemaVersion,
		AsOf:          asOf.UTC(),
		Fields:        make(map[FieldName]FieldResult),
		Freshness:     make(map[FieldName]ProviderTag),
		Errors:        []string{},
	}
}

// SetValue writes the flat value of a field.
func (s *Snapshot) SetValue(f FieldName, v null.Float) {
	switch f {
	case FieldDXY:
		s.DXY = v
	case FieldUSDINR:
		s.USDINR = v
	case FieldRealYield:
		s.RealYield = v
	case FieldPrice:
		s.Price = v
	case FieldRSI14:
		s.RSI14 = v
	case FieldINAV:
		s.INAV = v
	}
}

// Value reads the flat value of a field.
func (s *Snapshot) Value(f FieldName) null.Float {
	switch f {
	case FieldDXY:
		return s.DXY
	case FieldUSDINR:
		return s.USDINR
	case FieldRealYield:
		return s.RealYield
	case FieldPrice:
		return s.Price
	case FieldRSI14:
		return s.RSI14
	case FieldINAV:
		return s.INAV
	}
	return null.Float{}
}

// SnapshotParams is the request-scoped input of one aggregation.
type SnapshotParams struct {
	AsOf      time.Time
	SkipNAV   bool
	Overrides map[FieldName]float64
}
