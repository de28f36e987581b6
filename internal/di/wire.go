//go:build wireinject
// +build wireinject

package di

import (
	"SalesPulse/pkg/config"
	"SalesPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Storage
		ProvideClickHouseClient,
		ProvideSeriesStore,
		ProvideRiskTable,
		ProvideSalesSeries,
		ProvideCache,

		// Model serving
		ProvideAnalyticsBase,
		ProvideEnsembler,
		ProvideClassifier,

		// Domain services
		ProvideDealScorer,
		ProvideDecisionEngine,
		ProvideRateLimiter,

		// Collaborators
		ProvideCRM,
		ProvideInsights,
		ProvideAlertHub,
		ProvideNotifier,
		ProvideMailer,
		ProvideKafkaProducer,
		ProvideAssessmentPublisher,
		ProvideEmailQueue,

		// Use cases
		ProvideForecastService,
		ProvideRiskWindow,
		ProvideAutomationPipeline,
		ProvideReports,
		ProvideDealInsights,
		ProvideBacktester,
		ProvideKafkaOpportunitiesHandler,

		// Transport
		ProvideSystemStatus,
		ProvideHandlers,
		ProvideHTTPServer,
		ProvideKafkaConsumer,

		// Application server
		ProvideClosers,
		ProvideApp,
	)
	return &server.App{}, nil
}
