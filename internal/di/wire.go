//go:build wireinject
// +build wireinject

package di

import (
	"MacroPulse/internal/usecase"
	"MacroPulse/pkg/config"
	"MacroPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Infrastructure
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		ProvideCache,
		ProvideUpstreamClient,

		// Provider clients
		ProvideYahooClient,
		ProvideAlphaVantageClient,
		ProvideFREDClient,
		ProvideNAVClient,
		ProvideSources,

		// Use cases
		ProvideFieldConfig,
		usecase.NewFieldChains,
		ProvideResolver,
		ProvideSnapshotAggregator,
		ProvideRefresher,

		// HTTP
		ProvideSnapshotHandler,
		ProvideRateLimiter,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
