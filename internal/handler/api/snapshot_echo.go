package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"MacroPulse/internal/domain/models"
	domrepo "MacroPulse/internal/domain/repository"
	domsvc "MacroPulse/internal/domain/service"
	"MacroPulse/pkg/cache"
	xhttp "MacroPulse/pkg/http"
	xlogger "MacroPulse/pkg/logger"
	"MacroPulse/pkg/util"

	"github.com/labstack/echo/v4"
)

const (
	// SnapshotPath is the canonical route; /api/market is an alias sharing its cache entries.
	SnapshotPath = "/api/snapshot"
	MarketPath   = "/api/market"

	HeaderXCache = "X-Cache"

	cacheWriteTimeout = 5 * time.Second
)

// SnapshotEchoHandler serves the aggregated market snapshot.
type SnapshotEchoHandler struct {
	logger  *xlogger.Logger
	agg     domsvc.SnapshotAggregator
	cache   domrepo.SnapshotCache
	ttl     time.Duration
	metrics domrepo.Metrics
	now     func() time.Time
	writes  sync.WaitGroup
}

// NewSnapshotEchoHandler builds the handler. A nil cache disables response caching.
func NewSnapshotEchoHandler(logger *xlogger.Logger, agg domsvc.SnapshotAggregator, c domrepo.SnapshotCache, ttl time.Duration, metrics domrepo.Metrics) *SnapshotEchoHandler {
	if metrics == nil {
		metrics = domrepo.NopMetrics{}
	}
	return &SnapshotEchoHandler{
		logger:  logger,
		agg:     agg,
		cache:   c,
		ttl:     ttl,
		metrics: metrics,
		now:     time.Now,
	}
}

func (h *SnapshotEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET(SnapshotPath, h.Snapshot)
	e.GET(MarketPath, h.Snapshot)
}

func (h *SnapshotEchoHandler) Snapshot(c echo.Context) error {
	req := &models.SnapshotRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")

	params := models.SnapshotParams{
		AsOf:      h.now(),
		SkipNAV:   util.IsDisabled(req.INAV),
		Overrides: parseOverrides(req),
	}

	// Manual values must never be cached or served from cache, even unparseable ones.
	if h.cache == nil || hasRawOverride(req) {
		c.Response().Header().Set(HeaderXCache, "BYPASS")
		body, err := h.build(c.Request().Context(), params)
		if err != nil {
			return h.fault(c, err)
		}
		return xhttp.RawJSONResponse(c, http.StatusOK, body)
	}

	key := snapshotKey(c.QueryParams())
	if b, ok, err := h.cache.GetBytes(c.Request().Context(), key); err != nil {
		h.logger.Warn("snapshot cache_get_error", xlogger.String("key", key), xlogger.Error(err))
	} else if ok {
		h.metrics.RecordCacheLookup(true)
		h.logger.Debug("snapshot cache_hit", xlogger.String("key", key))
		c.Response().Header().Set(HeaderXCache, "HIT")
		return xhttp.RawJSONResponse(c, http.StatusOK, b)
	}
	h.metrics.RecordCacheLookup(false)
	h.logger.Debug("snapshot cache_miss", xlogger.String("key", key))

	body, err := h.build(c.Request().Context(), params)
	if err != nil {
		return h.fault(c, err)
	}

	c.Response().Header().Set(HeaderXCache, "MISS")
	if err := xhttp.RawJSONResponse(c, http.StatusOK, body); err != nil {
		return err
	}
	// An aborted caller's steps all fail on the cancelled context; that body is not shareable.
	if err := c.Request().Context().Err(); err != nil {
		h.logger.Debug("snapshot cache_skip", xlogger.String("key", key), xlogger.Error(err))
		return nil
	}
	h.storeAsync(key, body)
	return nil
}

// Warm aggregates the default snapshot and stores it under the default cache key.
func (h *SnapshotEchoHandler) Warm(ctx context.Context) error {
	if h.cache == nil {
		return nil
	}
	body, err := h.build(ctx, models.SnapshotParams{AsOf: h.now()})
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("warm abandoned: %w", err)
	}
	return h.cache.SetBytes(ctx, snapshotKey(nil), body, h.ttl)
}

// Wait blocks until pending cache writes finish.
func (h *SnapshotEchoHandler) Wait() {
	h.writes.Wait()
}

func (h *SnapshotEchoHandler) build(ctx context.Context, p models.SnapshotParams) ([]byte, error) {
	snap, err := h.agg.Aggregate(ctx, p)
	if err != nil {
		return nil, err
	}
	return json.Marshal(snap)
}

func (h *SnapshotEchoHandler) fault(c echo.Context, err error) error {
	h.logger.Error("snapshot aggregation fault", xlogger.Error(err))
	return xhttp.FaultResponse(c, err)
}

func (h *SnapshotEchoHandler) storeAsync(key string, body []byte) {
	h.writes.Add(1)
	go func() {
		defer h.writes.Done()
		ctx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
		defer cancel()
		if err := h.cache.SetBytes(ctx, key, body, h.ttl); err != nil {
			h.logger.Warn("snapshot cache_set_error", xlogger.String("key", key), xlogger.Error(err))
		}
	}()
}

func snapshotKey(query map[string][]string) string {
	return cache.GenerateKey("snapshot", cache.NormalizeRequestKey(SnapshotPath, query))
}

func hasRawOverride(req *models.SnapshotRequest) bool {
	for _, raw := range req.RawOverrides() {
		if raw != "" {
			return true
		}
	}
	return false
}

func parseOverrides(req *models.SnapshotRequest) map[models.FieldName]float64 {
	var out map[models.FieldName]float64
	for f, raw := range req.RawOverrides() {
		v, ok := util.ParseFloatOK(raw)
		if !ok {
			continue
		}
		if out == nil {
			out = make(map[models.FieldName]float64)
		}
		out[f] = v
	}
	return out
}
