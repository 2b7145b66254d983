package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"MacroPulse/internal/domain/models"
	domrepo "MacroPulse/internal/domain/repository"
	"MacroPulse/internal/service/upstream"
)

var asOf = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fakeQuotes struct {
	quote  func(symbol string) (models.Quote, error)
	closes func(symbol string, w domrepo.Window) (models.RawSeries, error)
	calls  atomic.Int32
}

func (f *fakeQuotes) Provider() string { return "yahoo" }

func (f *fakeQuotes) Quote(ctx context.Context, symbol string, _ domrepo.Window) (models.Quote, error) {
	f.calls.Add(1)
	if f.quote == nil {
		return models.Quote{}, upstream.FetchError("yahoo", errors.New("unexpected status 500"))
	}
	return f.quote(symbol)
}

func (f *fakeQuotes) Closes(ctx context.Context, symbol string, w domrepo.Window) (models.RawSeries, error) {
	f.calls.Add(1)
	if f.closes == nil {
		return models.RawSeries{}, upstream.FetchError("yahoo", errors.New("unexpected status 500"))
	}
	return f.closes(symbol, w)
}

type fakeBars struct {
	closes func(symbol string, n int) (models.RawSeries, error)
}

func (f *fakeBars) Provider() string { return "alphavantage" }

func (f *fakeBars) Closes(ctx context.Context, symbol string, n int) (models.RawSeries, error) {
	if f.closes == nil {
		return models.RawSeries{}, upstream.ParseError("alphavantage", "rate limited")
	}
	return f.closes(symbol, n)
}

type fakeEcon struct {
	latest func(series string) (models.Observation, error)
}

func (f *fakeEcon) Provider() string { return "fred" }

func (f *fakeEcon) Latest(ctx context.Context, series string) (models.Observation, error) {
	if f.latest == nil {
		return models.Observation{}, upstream.ParseError("fred", "no numeric observation in %s", series)
	}
	return f.latest(series)
}

type fakeNAV struct {
	value float64
	err   error
	calls atomic.Int32
}

func (f *fakeNAV) Provider() string { return "navlist" }

func (f *fakeNAV) Find(ctx context.Context, fund string) (models.Observation, error) {
	f.calls.Add(1)
	if f.err != nil {
		return models.Observation{}, f.err
	}
	return models.Observation{Value: f.value, AsOf: asOf}, nil
}

func rising(n int, start float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)
	}
	return out
}

// healthy returns sources where every primary provider succeeds.
func healthy() (*fakeQuotes, *fakeBars, *fakeEcon, *fakeNAV) {
	q := &fakeQuotes{
		quote: func(symbol string) (models.Quote, error) {
			switch symbol {
			case "DX-Y.NYB":
				return models.Quote{Price: 105.2, AsOf: asOf}, nil
			default:
				return models.Quote{Price: 62.5, AsOf: asOf}, nil
			}
		},
		closes: func(symbol string, w domrepo.Window) (models.RawSeries, error) {
			switch symbol {
			case "INR=X":
				return models.RawSeries{Closes: []float64{80, 82, 84}, AsOf: asOf}, nil
			default:
				return models.RawSeries{Closes: rising(30, 50), AsOf: asOf}, nil
			}
		},
	}
	b := &fakeBars{closes: func(symbol string, n int) (models.RawSeries, error) {
		return models.RawSeries{Closes: rising(n, 10), AsOf: asOf}, nil
	}}
	e := &fakeEcon{latest: func(series string) (models.Observation, error) {
		return models.Observation{Value: 2.21, AsOf: asOf}, nil
	}}
	return q, b, e, &fakeNAV{value: 62.9}
}

func testConfig() FieldConfig {
	return FieldConfig{
		IndexQuote:      "DX-Y.NYB",
		IndexCSV:        "DXY",
		FXQuote:         "INR=X",
		FXCSV:           "USDINR",
		RealYield:       "DFII10",
		RealYieldBackup: "FII10",
		InstrumentQuote: "GOLDBEES.NS",
		InstrumentCSV:   "GOLDBEES.BSE",
		FundName:        "Nippon India ETF Gold BeES",
	}
}

func newAggregator(q *fakeQuotes, b *fakeBars, e *fakeEcon, n *fakeNAV, budget time.Duration) *SnapshotAggregator {
	chains := NewFieldChains(Sources{Quotes: q, Bars: b, Econ: e, NAV: n}, testConfig())
	return NewSnapshotAggregator(chains, NewResolver(nil, nil), budget, nil)
}
