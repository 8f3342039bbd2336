//go:build wireinject
// +build wireinject

package di

import (
	"CryptoPrep/pkg/config"
	"CryptoPrep/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Repositories
		ProvideFeatureStore,
		ProvideBarSource,
		ProvideExporters,

		// Use cases
		ProvidePreparer,
		ProvideDatasetExporter,
		ProvideDatasetQuery,

		// HTTP
		ProvideDatasetHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
