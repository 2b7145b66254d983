package di

import (
	"testing"

	"MacroPulse/pkg/cache"
	"MacroPulse/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	return cfg
}

func TestProvideCacheDefaultsToMemory(t *testing.T) {
	store, cleanup, err := ProvideCache(defaultConfig(t))
	require.NoError(t, err)
	defer cleanup()

	_, ok := store.(*cache.MemoryCache)
	assert.True(t, ok)
}

func TestProvideKafkaProducerDisabled(t *testing.T) {
	p, cleanup, err := ProvideKafkaProducer(defaultConfig(t))
	require.NoError(t, err)
	assert.Nil(t, p)
	cleanup()
}

func TestProvideLoggerWithoutProducer(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Log.Level = "error"
	l, cleanup, err := ProvideLogger(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, l)
	cleanup()
}

func TestProvideRateLimiter(t *testing.T) {
	cfg := defaultConfig(t)
	assert.NotNil(t, ProvideRateLimiter(cfg))

	cfg.RateLimit.Enabled = false
	assert.Nil(t, ProvideRateLimiter(cfg))
}

func TestProvideFieldConfig(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Providers.Symbols.FXQuote = "EUR=X"
	cfg.Providers.NAV.FundName = "Some Gold ETF"

	fc := ProvideFieldConfig(cfg)
	assert.Equal(t, "EUR=X", fc.FXQuote)
	assert.Equal(t, "DX-Y.NYB", fc.IndexQuote)
	assert.Equal(t, "DFII10", fc.RealYield)
	assert.Equal(t, "FII10", fc.RealYieldBackup)
	assert.Equal(t, "Some Gold ETF", fc.FundName)
}
