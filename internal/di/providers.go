package di

import (
	"fmt"
	"time"

	"MacroPulse/internal/domain/repository"
	"MacroPulse/internal/handler/api"
	"MacroPulse/internal/service/alphavantage"
	"MacroPulse/internal/service/fred"
	"MacroPulse/internal/service/navlist"
	"MacroPulse/internal/service/ratelimit"
	"MacroPulse/internal/service/yahoo"
	"MacroPulse/internal/usecase"
	"MacroPulse/pkg/cache"
	"MacroPulse/pkg/config"
	xhttp "MacroPulse/pkg/http"
	"MacroPulse/pkg/http/middleware"
	pkgkafka "MacroPulse/pkg/kafka"
	"MacroPulse/pkg/logger"
	"MacroPulse/pkg/metrics"
	"MacroPulse/pkg/server"

	"github.com/labstack/echo/v4"
)

// ProvideKafkaProducer creates the Kafka producer used to ship aggregated error logs.
// It returns nil when kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithTopic(cfg.Kafka.Topic),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideLogger builds the application logger and, when a producer is present,
// attaches the error-log collector publishing to it.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*logger.Logger, func(), error) {
	l, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	if producer == nil {
		return l, func() {}, nil
	}

	l.AddCollector(&logger.CollectionConfig{
		TimeInterval:   cfg.Kafka.FlushEvery,
		CountThreshold: cfg.Kafka.MaxUnique,
		Topic:          cfg.Kafka.Topic,
		Publisher:      producer,
		Service:        "macropulse",
	})
	return l, l.RemoveCollector, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideUpstreamClient creates the HTTP client shared by every provider client.
func ProvideUpstreamClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(
		xhttp.WithTimeout(cfg.Providers.Timeout),
		xhttp.WithUserAgent(cfg.Providers.UserAgent),
	)
}

func ProvideYahooClient(cfg *config.Config, hc *xhttp.Client) *yahoo.Client {
	return yahoo.NewClient(cfg.Providers.Yahoo.BaseURL, hc)
}

func ProvideAlphaVantageClient(cfg *config.Config, hc *xhttp.Client) *alphavantage.Client {
	return alphavantage.NewClient(cfg.Providers.AlphaVantage.BaseURL, cfg.Providers.AlphaVantage.APIKey, hc)
}

func ProvideFREDClient(cfg *config.Config, hc *xhttp.Client) *fred.Client {
	return fred.NewClient(cfg.Providers.FRED.BaseURL, hc)
}

func ProvideNAVClient(cfg *config.Config, hc *xhttp.Client) *navlist.Client {
	return navlist.NewClient(cfg.Providers.NAV.BaseURL, hc)
}

// ProvideSources groups the provider clients behind their domain interfaces.
func ProvideSources(y *yahoo.Client, av *alphavantage.Client, f *fred.Client, nav *navlist.Client) usecase.Sources {
	return usecase.Sources{Quotes: y, Bars: av, Econ: f, NAV: nav}
}

// ProvideFieldConfig maps configured symbols onto the field chains.
func ProvideFieldConfig(cfg *config.Config) usecase.FieldConfig {
	s := cfg.Providers.Symbols
	return usecase.FieldConfig{
		IndexQuote:      s.IndexQuote,
		IndexCSV:        s.IndexCSV,
		FXQuote:         s.FXQuote,
		FXCSV:           s.FXCSV,
		RealYield:       s.RealYield,
		RealYieldBackup: s.RealYieldBackup,
		InstrumentQuote: s.InstrumentQuote,
		InstrumentCSV:   s.InstrumentCSV,
		FundName:        cfg.Providers.NAV.FundName,
	}
}

func ProvideResolver(m repository.Metrics, l *logger.Logger) *usecase.Resolver {
	return usecase.NewResolver(m, l)
}

func ProvideSnapshotAggregator(cfg *config.Config, chains *usecase.FieldChains, r *usecase.Resolver, l *logger.Logger) *usecase.SnapshotAggregator {
	return usecase.NewSnapshotAggregator(chains, r, cfg.Aggregate.Budget, l)
}

// ProvideCache creates the response cache selected by cache.backend.
func ProvideCache(cfg *config.Config) (cache.Store, func(), error) {
	newMemory := func() *cache.MemoryCache {
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MaxEntries))
	}
	newRedis := func() (*cache.RedisCache, error) {
		rc, err := cache.NewRedisCache(
			cache.WithRedisAddr(cfg.Cache.Redis.Addr),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return rc, nil
	}

	var store cache.Store
	switch cfg.Cache.Backend {
	case "redis":
		rc, err := newRedis()
		if err != nil {
			return nil, nil, err
		}
		store = rc
	case "layered":
		rc, err := newRedis()
		if err != nil {
			return nil, nil, err
		}
		store = cache.NewLayeredCache(newMemory(), rc, cfg.Cache.TTL/2)
	default:
		store = newMemory()
	}
	return store, func() { _ = store.Close() }, nil
}

func ProvideSnapshotHandler(cfg *config.Config, l *logger.Logger, agg *usecase.SnapshotAggregator, store cache.Store, m repository.Metrics) *api.SnapshotEchoHandler {
	return api.NewSnapshotEchoHandler(l, agg, store, cfg.Cache.TTL, m)
}

func ProvideRefresher(cfg *config.Config, h *api.SnapshotEchoHandler, l *logger.Logger) *usecase.Refresher {
	// leaves room for the cache write after a full-budget aggregation
	return usecase.NewRefresher(h, cfg.Aggregate.Budget+5*time.Second, l)
}

// ProvideRateLimiter returns nil when rate limiting is disabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
}

// ProvideHTTPServer builds the echo server with the snapshot routes.
func ProvideHTTPServer(cfg *config.Config, h *api.SnapshotEchoHandler, rl *ratelimit.Limiter, l *logger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}

	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithLogger(l),
	}
	if rl != nil {
		opts = append(opts, xhttp.WithMiddleware(middleware.RateLimit(rl, func(c echo.Context) error {
			return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limited"))
		}, "/healthz", metricsPath)))
	}
	return xhttp.NewServer(h, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	srv *xhttp.Server,
	h *api.SnapshotEchoHandler,
	refresher *usecase.Refresher,
	rl *ratelimit.Limiter,
) *server.App {
	return server.New(cfg, l, srv, h, refresher, rl)
}
