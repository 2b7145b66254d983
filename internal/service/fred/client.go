package fred

import (
	"bytes"
	"context"
	"encoding/csv"

	"MacroPulse/internal/domain/models"
	"MacroPulse/internal/domain/repository"
	"MacroPulse/internal/service/upstream"
	xhttp "MacroPulse/pkg/http"
	"MacroPulse/pkg/util"
)

const Provider = "fred"

// Client reads single economic series as CSV (date,value; "." marks a missing value).
type Client struct {
	*upstream.Base
}

func NewClient(baseURL string, hc *xhttp.Client) *Client {
	return &Client{Base: upstream.NewBase(Provider, baseURL, hc)}
}

// Latest returns the last row whose value parses as a finite number.
func (c *Client) Latest(ctx context.Context, series string) (models.Observation, error) {
	body, err := c.Get(ctx, "/graph/fredgraph.csv", map[string][]string{"id": {series}})
	if err != nil {
		return models.Observation{}, err
	}

	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return models.Observation{}, c.Parse("read csv for %s: %v", series, err)
	}

	// Header row never parses as a number, so it needs no special casing.
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		if len(row) < 2 {
			continue
		}
		v, ok := util.ParseFloatOK(row[1])
		if !ok {
			continue
		}
		asOf, _ := util.ParseTime(row[0])
		return models.Observation{Value: v, AsOf: asOf}, nil
	}
	return models.Observation{}, c.Parse("no numeric observation in %s", series)
}

var _ repository.EconSeries = (*Client)(nil)
