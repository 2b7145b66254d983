package yahoo

import (
	"context"
	"net/url"

	"MacroPulse/internal/domain/models"
	"MacroPulse/internal/domain/repository"
	"MacroPulse/internal/service/upstream"
	xhttp "MacroPulse/pkg/http"
	"MacroPulse/pkg/util"

	"github.com/tidwall/gjson"
)

const Provider = "yahoo"

// Client reads the chart endpoint of a quote-chart API.
type Client struct {
	*upstream.Base
}

func NewClient(baseURL string, hc *xhttp.Client) *Client {
	return &Client{Base: upstream.NewBase(Provider, baseURL, hc)}
}

// Quote returns the live price, falling back to the previous close fields.
func (c *Client) Quote(ctx context.Context, symbol string, w repository.Window) (models.Quote, error) {
	res, err := c.chart(ctx, symbol, w)
	if err != nil {
		return models.Quote{}, err
	}

	meta := res.Get("meta")
	for _, path := range []string{"regularMarketPrice", "previousClose", "chartPreviousClose"} {
		if v, ok := number(meta.Get(path)); ok {
			return models.Quote{Price: v, AsOf: util.UnixTime(meta.Get("regularMarketTime").Int())}, nil
		}
	}
	return models.Quote{}, c.Parse("no price in chart meta for %s", symbol)
}

// Closes returns the close array with null and non-numeric entries dropped, oldest-first.
func (c *Client) Closes(ctx context.Context, symbol string, w repository.Window) (models.RawSeries, error) {
	res, err := c.chart(ctx, symbol, w)
	if err != nil {
		return models.RawSeries{}, err
	}

	closes := res.Get("indicators.quote.0.close")
	if !closes.IsArray() {
		return models.RawSeries{}, c.Parse("no close array for %s", symbol)
	}
	stamps := res.Get("timestamp").Array()

	var (
		series models.RawSeries
		last   int64
	)
	for i, v := range closes.Array() {
		f, ok := number(v)
		if !ok {
			continue
		}
		series.Closes = append(series.Closes, f)
		if i < len(stamps) {
			last = stamps[i].Int()
		}
	}
	if len(series.Closes) == 0 {
		return models.RawSeries{}, c.Insufficient(0, 1)
	}

	series.AsOf = util.UnixTime(last)
	if series.AsOf.IsZero() {
		series.AsOf = util.UnixTime(res.Get("meta.regularMarketTime").Int())
	}
	return series, nil
}

func (c *Client) chart(ctx context.Context, symbol string, w repository.Window) (gjson.Result, error) {
	w = repository.NormalizeWindow(w)
	body, err := c.Get(ctx, "/v8/finance/chart/"+url.PathEscape(symbol), map[string][]string{
		"range":    {w.Range},
		"interval": {w.Interval},
	})
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, c.Parse("invalid json for %s", symbol)
	}

	doc := gjson.ParseBytes(body)
	if e := doc.Get("chart.error"); e.Exists() && e.Type != gjson.Null {
		msg := e.Get("description").String()
		if msg == "" {
			msg = e.Raw
		}
		return gjson.Result{}, c.Parse("chart error for %s: %s", symbol, msg)
	}
	res := doc.Get("chart.result.0")
	if !res.Exists() || !res.IsObject() {
		return gjson.Result{}, c.Parse("chart.result missing for %s", symbol)
	}
	return res, nil
}

func number(v gjson.Result) (float64, bool) {
	if v.Type != gjson.Number {
		return 0, false
	}
	f := v.Float()
	if !util.IsFinite(f) {
		return 0, false
	}
	return f, true
}

var _ repository.QuoteChart = (*Client)(nil)
