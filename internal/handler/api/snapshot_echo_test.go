package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"MacroPulse/internal/domain/models"
	domrepo "MacroPulse/internal/domain/repository"
	domsvc "MacroPulse/internal/domain/service"
	"MacroPulse/internal/service/upstream"
	"MacroPulse/internal/usecase"
	"MacroPulse/pkg/cache"
	xhttp "MacroPulse/pkg/http"
	xlogger "MacroPulse/pkg/logger"

	"github.com/guregu/null/v6"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fakeAggregator struct {
	mu    sync.Mutex
	calls []models.SnapshotParams
	err   error
	panic bool
}

func (f *fakeAggregator) Aggregate(ctx context.Context, p models.SnapshotParams) (*models.Snapshot, error) {
	f.mu.Lock()
	f.calls = append(f.calls, p)
	f.mu.Unlock()
	if f.panic {
		panic("boom")
	}
	if f.err != nil {
		return nil, f.err
	}
	s := models.NewSnapshot(p.AsOf)
	s.SetValue(models.FieldPrice, null.FloatFrom(62.5))
	s.Fields[models.FieldPrice] = models.FieldResult{Value: null.FloatFrom(62.5), Source: models.ProviderTag{Provider: "yahoo"}}
	s.Freshness[models.FieldPrice] = models.ProviderTag{Provider: "yahoo"}
	for f, v := range p.Overrides {
		s.SetValue(f, null.FloatFrom(v))
	}
	return s, nil
}

func (f *fakeAggregator) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type recordingCache struct {
	*cache.MemoryCache
	mu   sync.Mutex
	sets []string
}

func (c *recordingCache) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	c.sets = append(c.sets, key)
	c.mu.Unlock()
	return c.MemoryCache.SetBytes(ctx, key, value, ttl)
}

func (c *recordingCache) setCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sets)
}

func newTestServer(t *testing.T, agg domsvc.SnapshotAggregator) (*SnapshotEchoHandler, *recordingCache, *echo.Echo) {
	t.Helper()
	rc := &recordingCache{MemoryCache: cache.NewMemoryCache()}
	t.Cleanup(func() { _ = rc.Close() })

	h := NewSnapshotEchoHandler(xlogger.NewNop(), agg, rc, 3*time.Minute, nil)
	h.now = func() time.Time { return testNow }

	srv := xhttp.NewServer(h, xhttp.WithLogger(xlogger.NewNop()), xhttp.WithMetricsPath(""))
	return h, rc, srv.Echo()
}

func get(e *echo.Echo, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSnapshotMissThenHit(t *testing.T) {
	agg := &fakeAggregator{}
	h, rc, e := newTestServer(t, agg)

	rec := get(e, "/api/snapshot")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get(HeaderXCache))
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "no-store", rec.Header().Get(echo.HeaderCacheControl))

	h.Wait()
	assert.Equal(t, 1, rc.setCount())

	rec2 := get(e, "/api/snapshot")
	require.Equal(t, http.StatusOK, rec2.Code)
	assert.Equal(t, "HIT", rec2.Header().Get(HeaderXCache))
	assert.Equal(t, "no-store", rec2.Header().Get(echo.HeaderCacheControl))
	assert.Equal(t, "application/json; charset=utf-8", rec2.Header().Get(echo.HeaderContentType))
	assert.JSONEq(t, rec.Body.String(), rec2.Body.String())
	assert.Equal(t, 1, agg.count())
}

func TestSnapshotAliasSharesCache(t *testing.T) {
	agg := &fakeAggregator{}
	h, _, e := newTestServer(t, agg)

	get(e, "/api/snapshot?inav=off")
	h.Wait()

	rec := get(e, "/api/market?inav=off")
	assert.Equal(t, "HIT", rec.Header().Get(HeaderXCache))
	assert.Equal(t, 1, agg.count())
}

func TestSnapshotQueryOrderSharesCache(t *testing.T) {
	agg := &fakeAggregator{}
	h, _, e := newTestServer(t, agg)

	get(e, "/api/snapshot?inav=off&v=2")
	h.Wait()

	rec := get(e, "/api/snapshot?v=2&inav=off")
	assert.Equal(t, "HIT", rec.Header().Get(HeaderXCache))
}

func TestSnapshotOverrideBypassesCache(t *testing.T) {
	agg := &fakeAggregator{}
	h, rc, e := newTestServer(t, agg)

	for i := 0; i < 2; i++ {
		rec := get(e, "/api/snapshot?price_manual=60.5")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "BYPASS", rec.Header().Get(HeaderXCache))

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 60.5, body["price"])
	}
	h.Wait()

	assert.Equal(t, 0, rc.setCount())
	assert.Equal(t, 2, agg.count())
	assert.Equal(t, map[models.FieldName]float64{models.FieldPrice: 60.5}, agg.calls[0].Overrides)
}

func TestSnapshotOverrideNeverServedFromCache(t *testing.T) {
	agg := &fakeAggregator{}
	h, rc, e := newTestServer(t, agg)

	// Seed the entry an override request would map to if it were cacheable.
	require.NoError(t, rc.MemoryCache.SetBytes(context.Background(),
		snapshotKey(map[string][]string{"usdinr_manual": {"abc"}}), []byte(`{"cached":true}`), time.Minute))

	rec := get(e, "/api/snapshot?usdinr_manual=abc")
	h.Wait()
	assert.Equal(t, "BYPASS", rec.Header().Get(HeaderXCache))
	assert.NotContains(t, rec.Body.String(), "cached")
	assert.Nil(t, agg.calls[0].Overrides)
}

func TestSnapshotToggleParsing(t *testing.T) {
	for _, tc := range []struct {
		query string
		skip  bool
	}{
		{"", false},
		{"?inav=OFF", true},
		{"?inav=0", true},
		{"?inav=False", true},
		{"?inav=on", false},
		{"?inav=yes", false},
	} {
		t.Run(tc.query, func(t *testing.T) {
			agg := &fakeAggregator{}
			h, _, e := newTestServer(t, agg)
			rec := get(e, "/api/snapshot"+tc.query)
			h.Wait()
			require.Equal(t, http.StatusOK, rec.Code)
			require.Equal(t, 1, agg.count())
			assert.Equal(t, tc.skip, agg.calls[0].SkipNAV)
		})
	}
}

func TestSnapshotFaultRendersEnvelope(t *testing.T) {
	agg := &fakeAggregator{err: fmt.Errorf("%w: resolving dxy: boom", usecase.ErrAggregationFault)}
	h, rc, e := newTestServer(t, agg)

	rec := get(e, "/api/snapshot")
	h.Wait()
	assertFaultEnvelope(t, rec)
	assert.Equal(t, 0, rc.setCount())
}

func TestSnapshotPanicRendersEnvelope(t *testing.T) {
	agg := &fakeAggregator{panic: true}
	_, _, e := newTestServer(t, agg)

	assertFaultEnvelope(t, get(e, "/api/snapshot"))
}

func assertFaultEnvelope(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get(echo.HeaderCacheControl))
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get(echo.HeaderContentType))

	var env map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "internal_error", env["error"])
	assert.NotEmpty(t, env["message"])
	_, err := time.Parse(time.RFC3339, env["asOf"])
	assert.NoError(t, err)
}

func TestSnapshotSchema(t *testing.T) {
	agg := &fakeAggregator{}
	_, _, e := newTestServer(t, agg)

	rec := get(e, "/api/snapshot")
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	keys := make([]string, 0, len(body))
	for k := range body {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	assert.Equal(t, []string{
		"asOf", "dxy", "errors", "fields", "freshness", "inav", "price",
		"realYield", "rsi14", "schemaVersion", "usdinr", "usdinrPct30d",
	}, keys)

	assert.JSONEq(t, `1`, string(body["schemaVersion"]))
	assert.JSONEq(t, `"2024-05-01T12:00:00Z"`, string(body["asOf"]))
	assert.JSONEq(t, `[]`, string(body["errors"]))
	assert.JSONEq(t, `null`, string(body["dxy"]))
	assert.JSONEq(t, `62.5`, string(body["price"]))
}

func TestWarmStoresDefaultKey(t *testing.T) {
	agg := &fakeAggregator{}
	h, _, e := newTestServer(t, agg)

	require.NoError(t, h.Warm(context.Background()))
	rec := get(e, "/api/snapshot")
	assert.Equal(t, "HIT", rec.Header().Get(HeaderXCache))
	assert.Equal(t, 1, agg.count())
}

func TestWarmPropagatesFault(t *testing.T) {
	h, _, _ := newTestServer(t, &fakeAggregator{err: errors.New("boom")})
	assert.Error(t, h.Warm(context.Background()))
}

func TestSnapshotWithoutCache(t *testing.T) {
	agg := &fakeAggregator{}
	h := NewSnapshotEchoHandler(xlogger.NewNop(), agg, nil, time.Minute, nil)
	e := xhttp.NewServer(h, xhttp.WithMetricsPath("")).Echo()

	rec := get(e, "/api/snapshot")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "BYPASS", rec.Header().Get(HeaderXCache))
	assert.NoError(t, h.Warm(context.Background()))
}

// steady* sources answer immediately with fixed values unless the context is done.

type steadyChart struct{}

func (steadyChart) Provider() string { return "yahoo" }

func (steadyChart) Quote(ctx context.Context, _ string, _ domrepo.Window) (models.Quote, error) {
	if err := ctx.Err(); err != nil {
		return models.Quote{}, upstream.FetchError("yahoo", err)
	}
	return models.Quote{Price: 62.5, AsOf: testNow}, nil
}

func (steadyChart) Closes(ctx context.Context, _ string, _ domrepo.Window) (models.RawSeries, error) {
	if err := ctx.Err(); err != nil {
		return models.RawSeries{}, upstream.FetchError("yahoo", err)
	}
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 80 + float64(i%3)
	}
	return models.RawSeries{Closes: closes, AsOf: testNow}, nil
}

type steadyBars struct{}

func (steadyBars) Provider() string { return "alphavantage" }

func (steadyBars) Closes(ctx context.Context, _ string, _ int) (models.RawSeries, error) {
	return models.RawSeries{}, upstream.ParseError("alphavantage", "rate limited")
}

type steadyEcon struct{}

func (steadyEcon) Provider() string { return "fred" }

func (steadyEcon) Latest(ctx context.Context, _ string) (models.Observation, error) {
	if err := ctx.Err(); err != nil {
		return models.Observation{}, upstream.FetchError("fred", err)
	}
	return models.Observation{Value: 2.1, AsOf: testNow}, nil
}

type steadyNAV struct{}

func (steadyNAV) Provider() string { return "navlist" }

func (steadyNAV) Find(ctx context.Context, _ string) (models.Observation, error) {
	if err := ctx.Err(); err != nil {
		return models.Observation{}, upstream.FetchError("navlist", err)
	}
	return models.Observation{Value: 61.9, AsOf: testNow}, nil
}

func newSteadyAggregator() *usecase.SnapshotAggregator {
	chains := usecase.NewFieldChains(
		usecase.Sources{Quotes: steadyChart{}, Bars: steadyBars{}, Econ: steadyEcon{}, NAV: steadyNAV{}},
		usecase.FieldConfig{
			IndexQuote: "DX-Y.NYB", IndexCSV: "DXY", FXQuote: "INR=X", FXCSV: "USDINR",
			RealYield: "DFII10", RealYieldBackup: "FII10",
			InstrumentQuote: "GOLDBEES.NS", InstrumentCSV: "GOLDBEES.BSE", FundName: "Gold BeES",
		},
	)
	return usecase.NewSnapshotAggregator(chains, usecase.NewResolver(nil, nil), time.Second, nil)
}

func TestAbortedRequestIsNotCached(t *testing.T) {
	h, rc, e := newTestServer(t, newSteadyAggregator())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	aborted := httptest.NewRecorder()
	e.ServeHTTP(aborted, httptest.NewRequest(http.MethodGet, "/api/snapshot", nil).WithContext(ctx))
	h.Wait()
	assert.Equal(t, "MISS", aborted.Header().Get(HeaderXCache))
	assert.Equal(t, 0, rc.setCount())

	rec := get(e, "/api/snapshot")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get(HeaderXCache))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 62.5, body["price"])
	assert.Equal(t, 2.1, body["realYield"])
	assert.Empty(t, body["errors"])

	h.Wait()
	assert.Equal(t, 1, rc.setCount())
	assert.Equal(t, "HIT", get(e, "/api/snapshot").Header().Get(HeaderXCache))
}

func TestWarmWithDoneContextStoresNothing(t *testing.T) {
	h, rc, _ := newTestServer(t, newSteadyAggregator())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := h.Warm(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, rc.setCount())
}
