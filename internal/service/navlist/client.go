package navlist

import (
	"context"
	"strings"

	"MacroPulse/internal/domain/models"
	"MacroPulse/internal/domain/repository"
	"MacroPulse/internal/service/upstream"
	xhttp "MacroPulse/pkg/http"
	"MacroPulse/pkg/util"

	"github.com/tidwall/gjson"
)

const Provider = "navlist"

var (
	nameKeys  = []string{"name", "schemeName", "scheme_name"}
	valueKeys = []string{"inav", "iNav", "nav"}
)

// Client searches a fund listing and returns the value of the row matching a fund name.
type Client struct {
	*upstream.Base
}

func NewClient(baseURL string, hc *xhttp.Client) *Client {
	return &Client{Base: upstream.NewBase(Provider, baseURL, hc)}
}

// Find returns the first row whose name contains every token of fundName and whose
// value is a finite positive number.
func (c *Client) Find(ctx context.Context, fundName string) (models.Observation, error) {
	body, err := c.Get(ctx, "", map[string][]string{"q": {fundName}})
	if err != nil {
		return models.Observation{}, err
	}
	if !gjson.ValidBytes(body) {
		return models.Observation{}, c.Parse("invalid json listing")
	}

	doc := gjson.ParseBytes(body)
	rows := doc
	if !doc.IsArray() {
		rows = doc.Get("data")
	}
	if !rows.IsArray() {
		return models.Observation{}, c.Parse("listing has no rows")
	}

	var found *models.Observation
	rows.ForEach(func(_, row gjson.Result) bool {
		name := firstString(row, nameKeys)
		if !util.ContainsAllTokens(name, fundName) {
			return true
		}
		v, ok := firstNumber(row, valueKeys)
		if !ok || v <= 0 {
			return true
		}
		asOf, _ := util.ParseTime(row.Get("date").String())
		found = &models.Observation{Value: v, AsOf: asOf}
		return false
	})
	if found == nil {
		return models.Observation{}, c.Parse("no listing matches %q", fundName)
	}
	return *found, nil
}

func firstString(row gjson.Result, keys []string) string {
	for _, k := range keys {
		if v := row.Get(k); v.Exists() {
			return v.String()
		}
	}
	return ""
}

// firstNumber accepts numbers and numeric strings; listings disagree on which.
func firstNumber(row gjson.Result, keys []string) (float64, bool) {
	for _, k := range keys {
		v := row.Get(k)
		switch v.Type {
		case gjson.Number:
			if f := v.Float(); util.IsFinite(f) {
				return f, true
			}
		case gjson.String:
			if f, ok := util.ParseFloatOK(strings.ReplaceAll(v.String(), ",", "")); ok {
				return f, true
			}
		}
	}
	return 0, false
}

var _ repository.NAVListing = (*Client)(nil)
