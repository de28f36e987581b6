//go:build !wireinject
// +build !wireinject

// InitializeApp mirrors the provider order in wire.go. Regenerate with:
//go:generate go run -mod=mod github.com/google/wire/cmd/wire

package di

import (
	"SalesPulse/pkg/config"
	"SalesPulse/pkg/server"
)

// Injectors from wire.go:

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	logger, err := ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}
	client, err := ProvideClickHouseClient(cfg)
	if err != nil {
		return nil, err
	}
	historicalSeriesStore := ProvideSeriesStore(cfg, client, logger)
	salesSeries, err := ProvideSalesSeries(historicalSeriesStore)
	if err != nil {
		return nil, err
	}
	httpServiceBase := ProvideAnalyticsBase(cfg)
	metrics := ProvideMetrics()
	ensembler, err := ProvideEnsembler(cfg, salesSeries, httpServiceBase, metrics, logger)
	if err != nil {
		return nil, err
	}
	store, err := ProvideCache(cfg)
	if err != nil {
		return nil, err
	}
	forecastService := ProvideForecastService(cfg, ensembler, httpServiceBase, store, logger)
	riskTableStore, err := ProvideRiskTable(cfg, client, logger)
	if err != nil {
		return nil, err
	}
	riskWindow := ProvideRiskWindow(riskTableStore, ensembler, logger)
	crmClient := ProvideCRM(cfg, logger)
	classifierArtifact := ProvideClassifier(cfg, httpServiceBase, logger)
	scorer := ProvideDealScorer(classifierArtifact, metrics)
	llmClient := ProvideInsights(cfg, logger)
	dealInsights := ProvideDealInsights(scorer, llmClient)
	backtester := ProvideBacktester(scorer)
	hub := ProvideAlertHub(logger)
	notifier := ProvideNotifier(cfg, hub, logger)
	producer, err := ProvideKafkaProducer(cfg)
	if err != nil {
		return nil, err
	}
	assessmentPublisher := ProvideAssessmentPublisher(producer, cfg)
	automationPipeline := ProvideAutomationPipeline(cfg, scorer, crmClient, llmClient, notifier, assessmentPublisher, metrics, store, logger)
	engine := ProvideDecisionEngine(cfg)
	mailer := ProvideMailer(cfg, logger)
	redisQueue := ProvideEmailQueue(cfg, store, mailer, logger)
	reports := ProvideReports(cfg, forecastService, engine, llmClient, mailer, redisQueue, logger)
	limiter := ProvideRateLimiter(cfg)
	systemStatus := ProvideSystemStatus(classifierArtifact, crmClient, llmClient)
	handlers := ProvideHandlers(logger, forecastService, riskWindow, crmClient, scorer, dealInsights, backtester, automationPipeline, reports, engine, limiter, hub, systemStatus)
	httpServer := ProvideHTTPServer(cfg, handlers, logger)
	consumer, err := ProvideKafkaConsumer(cfg, logger)
	if err != nil {
		return nil, err
	}
	kafkaOpportunitiesHandler := ProvideKafkaOpportunitiesHandler(cfg, automationPipeline, metrics, logger)
	closers := ProvideClosers(client, store, assessmentPublisher)
	app := ProvideApp(cfg, logger, httpServer, hub, consumer, kafkaOpportunitiesHandler, redisQueue, closers)
	return app, nil
}
