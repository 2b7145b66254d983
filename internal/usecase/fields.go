package usecase

import (
	"context"

	"MacroPulse/internal/domain/models"
	domrepo "MacroPulse/internal/domain/repository"
	"MacroPulse/internal/service/upstream"
	"MacroPulse/internal/services/features"

	"github.com/guregu/null/v6"
)

const (
	// fxRows is roughly 30 calendar days of daily bars.
	fxRows        = 30
	indicatorRows = 100
	spotRows      = 5
)

// Sources are the upstream providers the chains draw from.
type Sources struct {
	Quotes domrepo.QuoteChart
	Bars   domrepo.CloseSeries
	Econ   domrepo.EconSeries
	NAV    domrepo.NAVListing
}

// FieldConfig holds upstream identifiers per field.
type FieldConfig struct {
	IndexQuote      string
	IndexCSV        string
	FXQuote         string
	FXCSV           string
	RealYield       string
	RealYieldBackup string
	InstrumentQuote string
	InstrumentCSV   string
	FundName        string
}

// FieldChains builds the fallback chain of every field.
type FieldChains struct {
	src Sources
	cfg FieldConfig
}

func NewFieldChains(src Sources, cfg FieldConfig) *FieldChains {
	return &FieldChains{src: src, cfg: cfg}
}

// Chains returns the chains to run for one request, in response order.
func (f *FieldChains) Chains(skipNAV bool) []Chain {
	out := make([]Chain, 0, len(models.AllFields))
	for _, field := range models.AllFields {
		if field == models.FieldINAV && skipNAV {
			continue
		}
		out = append(out, f.Chain(field))
	}
	return out
}

// Chain returns the chain for a single field.
func (f *FieldChains) Chain(field models.FieldName) Chain {
	c := Chain{Field: field}
	switch field {
	case models.FieldDXY:
		c.Steps = []Step{
			f.quoteStep(f.cfg.IndexQuote, domrepo.Window5d),
			f.latestBarStep(f.cfg.IndexCSV, spotRows),
		}
	case models.FieldUSDINR:
		c.Steps = []Step{
			f.chartSeriesStep(f.cfg.FXQuote, domrepo.Window1mo, fxReading),
			f.barSeriesStep(f.cfg.FXCSV, fxRows, fxReading),
		}
	case models.FieldRealYield:
		c.Steps = []Step{
			f.econStep(f.cfg.RealYield),
			f.econStep(f.cfg.RealYieldBackup),
		}
	case models.FieldPrice:
		c.Steps = []Step{
			f.quoteStep(f.cfg.InstrumentQuote, domrepo.Window5d),
			f.latestBarStep(f.cfg.InstrumentCSV, spotRows),
		}
	case models.FieldRSI14:
		c.Steps = []Step{
			f.chartSeriesStep(f.cfg.InstrumentQuote, domrepo.Window3mo, rsiReading),
			f.barSeriesStep(f.cfg.InstrumentCSV, indicatorRows, rsiReading),
		}
	case models.FieldINAV:
		c.Steps = []Step{f.navStep(f.cfg.FundName)}
	}
	return c
}

// seriesReading derives a reading from an oldest-first series.
type seriesReading func(provider string, s models.RawSeries) (models.Reading, error)

func (f *FieldChains) quoteStep(symbol string, w domrepo.Window) Step {
	return Step{
		Tag: models.ProviderTag{Provider: f.src.Quotes.Provider(), Symbol: symbol, Window: w.String()},
		Run: func(ctx context.Context) (models.Reading, error) {
			q, err := f.src.Quotes.Quote(ctx, symbol, w)
			if err != nil {
				return models.Reading{}, err
			}
			return models.Reading{Value: q.Price, AsOf: q.AsOf}, nil
		},
	}
}

func (f *FieldChains) latestBarStep(symbol string, n int) Step {
	return f.barSeriesStep(symbol, n, latestReading)
}

func (f *FieldChains) chartSeriesStep(symbol string, w domrepo.Window, derive seriesReading) Step {
	provider := f.src.Quotes.Provider()
	return Step{
		Tag: models.ProviderTag{Provider: provider, Symbol: symbol, Window: w.String()},
		Run: func(ctx context.Context) (models.Reading, error) {
			s, err := f.src.Quotes.Closes(ctx, symbol, w)
			if err != nil {
				return models.Reading{}, err
			}
			return derive(provider, s)
		},
	}
}

func (f *FieldChains) barSeriesStep(symbol string, n int, derive seriesReading) Step {
	provider := f.src.Bars.Provider()
	return Step{
		Tag: models.ProviderTag{Provider: provider, Symbol: symbol, Window: domrepo.RowsWindow(n)},
		Run: func(ctx context.Context) (models.Reading, error) {
			s, err := f.src.Bars.Closes(ctx, symbol, n)
			if err != nil {
				return models.Reading{}, err
			}
			return derive(provider, s)
		},
	}
}

func (f *FieldChains) econStep(series string) Step {
	return Step{
		Tag: models.ProviderTag{Provider: f.src.Econ.Provider(), Symbol: series, Window: "latest"},
		Run: func(ctx context.Context) (models.Reading, error) {
			obs, err := f.src.Econ.Latest(ctx, series)
			if err != nil {
				return models.Reading{}, err
			}
			return models.Reading{Value: obs.Value, AsOf: obs.AsOf}, nil
		},
	}
}

func (f *FieldChains) navStep(fund string) Step {
	return Step{
		Tag: models.ProviderTag{Provider: f.src.NAV.Provider(), Symbol: fund, Window: "latest"},
		Run: func(ctx context.Context) (models.Reading, error) {
			obs, err := f.src.NAV.Find(ctx, fund)
			if err != nil {
				return models.Reading{}, err
			}
			return models.Reading{Value: obs.Value, AsOf: obs.AsOf}, nil
		},
	}
}

func latestReading(provider string, s models.RawSeries) (models.Reading, error) {
	v, ok := s.Latest()
	if !ok {
		return models.Reading{}, upstream.InsufficientError(provider, 0, 1)
	}
	return models.Reading{Value: v, AsOf: s.AsOf}, nil
}

// fxReading yields the spot rate plus the change across the window and its trend.
func fxReading(provider string, s models.RawSeries) (models.Reading, error) {
	r, err := latestReading(provider, s)
	if err != nil {
		return r, err
	}
	earliest, _ := s.Earliest()
	if s.Len() >= 2 {
		if pct, ok := features.PercentChange(earliest, r.Value); ok {
			r.Pct30d = null.FloatFrom(pct)
			r.Trend = features.ClassifyTrend(pct)
		}
	}
	return r, nil
}

func rsiReading(provider string, s models.RawSeries) (models.Reading, error) {
	if s.Len() < models.MinIndicatorPoints {
		return models.Reading{}, upstream.InsufficientError(provider, s.Len(), models.MinIndicatorPoints)
	}
	v, ok := features.RSI(s.Closes)
	if !ok {
		return models.Reading{}, upstream.InsufficientError(provider, s.Len(), features.RSIPeriod+1)
	}
	return models.Reading{Value: v, AsOf: s.AsOf}, nil
}
