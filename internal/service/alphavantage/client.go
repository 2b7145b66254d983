package alphavantage

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"time"

	"MacroPulse/internal/domain/models"
	"MacroPulse/internal/domain/repository"
	"MacroPulse/internal/service/upstream"
	xhttp "MacroPulse/pkg/http"
	"MacroPulse/pkg/util"

	"github.com/tidwall/gjson"
)

const (
	Provider = "alphavantage"

	// defaultCloseColumn is the close position in timestamp,open,high,low,close,volume.
	defaultCloseColumn = 4
	minRows            = 2
)

// Client reads the daily-bar CSV series.
type Client struct {
	*upstream.Base
	apiKey string
}

func NewClient(baseURL, apiKey string, hc *xhttp.Client) *Client {
	return &Client{Base: upstream.NewBase(Provider, baseURL, hc), apiKey: apiKey}
}

// Closes returns the newest n closes in oldest-first order.
func (c *Client) Closes(ctx context.Context, symbol string, n int) (models.RawSeries, error) {
	body, err := c.Get(ctx, "/query", map[string][]string{
		"function":   {"TIME_SERIES_DAILY"},
		"symbol":     {symbol},
		"datatype":   {"csv"},
		"outputsize": {"compact"},
		"apikey":     {c.apiKey},
	})
	if err != nil {
		return models.RawSeries{}, err
	}

	// Throttling and bad-symbol answers arrive as JSON even when CSV was requested.
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '{' {
		return models.RawSeries{}, c.Parse("%s", jsonMessage(trimmed))
	}

	closes, newest, err := c.parse(body, n)
	if err != nil {
		return models.RawSeries{}, err
	}
	if len(closes) < minRows {
		return models.RawSeries{}, c.Insufficient(len(closes), minRows)
	}

	// Provider order is newest-first.
	for i, j := 0, len(closes)-1; i < j; i, j = i+1, j-1 {
		closes[i], closes[j] = closes[j], closes[i]
	}
	return models.RawSeries{Closes: closes, AsOf: newest}, nil
}

func (c *Client) parse(body []byte, n int) ([]float64, time.Time, error) {
	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, time.Time{}, nil
		}
		return nil, time.Time{}, c.Parse("read csv header: %v", err)
	}
	col, dateCol := defaultCloseColumn, 0
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "close":
			col = i
		case "timestamp", "date":
			dateCol = i
		}
	}

	var (
		closes []float64
		newest time.Time
	)
	for n <= 0 || len(closes) < n {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue
		}
		if col >= len(rec) || dateCol >= len(rec) {
			continue
		}
		v, ok := util.ParseFloatOK(rec[col])
		if !ok {
			continue
		}
		if len(closes) == 0 {
			newest, _ = util.ParseTime(rec[dateCol])
		}
		closes = append(closes, v)
	}
	return closes, newest, nil
}

func jsonMessage(b []byte) string {
	for _, k := range []string{"Error Message", "Note", "Information"} {
		if v := gjson.GetBytes(b, k); v.Exists() {
			return v.String()
		}
	}
	return "unexpected json response"
}

var _ repository.CloseSeries = (*Client)(nil)
