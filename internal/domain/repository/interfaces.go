package repository

import (
	"context"
	"time"

	"MacroPulse/internal/domain/models"
)

// QuoteChart is a chart-style quote provider keyed by symbol and window.
type QuoteChart interface {
	Provider() string
	Quote(ctx context.Context, symbol string, w Window) (models.Quote, error)
	Closes(ctx context.Context, symbol string, w Window) (models.RawSeries, error)
}

// CloseSeries is a daily-bar provider returning the newest n closes, oldest-first.
type CloseSeries interface {
	Provider() string
	Closes(ctx context.Context, symbol string, n int) (models.RawSeries, error)
}

// EconSeries returns the latest numeric observation of an economic series.
type EconSeries interface {
	Provider() string
	Latest(ctx context.Context, series string) (models.Observation, error)
}

// NAVListing finds a fund's published net asset value by fuzzy name.
type NAVListing interface {
	Provider() string
	Find(ctx context.Context, fundName string) (models.Observation, error)
}

// SnapshotCache stores rendered snapshot bodies.
type SnapshotCache interface {
	GetBytes(ctx context.Context, key string) ([]byte, bool, error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type Metrics interface {
	RecordProviderCall(provider, field string, d time.Duration, err error)
	RecordFieldUnavailable(field string)
	RecordCacheLookup(hit bool)
	RecordLastValue(field string, v float64)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordProviderCall(string, string, time.Duration, error) {}
func (NopMetrics) RecordFieldUnavailable(string)                           {}
func (NopMetrics) RecordCacheLookup(bool)                                  {}
func (NopMetrics) RecordLastValue(string, float64)                         {}
