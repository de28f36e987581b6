package di

import (
	"context"
	"fmt"
	"io"
	"time"

	"SalesPulse/internal/domain/models"
	"SalesPulse/internal/domain/repository"
	domsvc "SalesPulse/internal/domain/service"
	"SalesPulse/internal/handler/api"
	internalrepo "SalesPulse/internal/repository"
	"SalesPulse/internal/service/cache"
	"SalesPulse/internal/service/email"
	"SalesPulse/internal/service/llm"
	analyticsmetrics "SalesPulse/internal/service/metrics"
	"SalesPulse/internal/service/notify"
	"SalesPulse/internal/service/ratelimit"
	"SalesPulse/internal/service/salesforce"
	"SalesPulse/internal/service/slack"
	"SalesPulse/internal/services/analytics"
	"SalesPulse/internal/services/dealrisk"
	"SalesPulse/internal/services/decision"
	"SalesPulse/internal/services/features"
	"SalesPulse/internal/services/forecast"
	"SalesPulse/internal/usecase"
	pkgch "SalesPulse/pkg/clickhouse"
	"SalesPulse/pkg/config"
	xhttp "SalesPulse/pkg/http"
	pkgkafka "SalesPulse/pkg/kafka"
	applogger "SalesPulse/pkg/logger"
	"SalesPulse/pkg/metrics"
	"SalesPulse/pkg/queue"
	"SalesPulse/pkg/server"
)

const startupTimeout = 10 * time.Second

// ProvideLogger creates the application logger from the logging section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	analyticsmetrics.Register()
	return metrics.New()
}

// ProvideClickHouseClient connects and creates the tables. Returns nil when
// the CSV backend is selected.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Storage.Backend != "clickhouse" {
		return nil, nil
	}
	c := cfg.ClickHouse
	client, err := pkgch.NewClient(
		pkgch.WithHost(c.Host),
		pkgch.WithPort(c.Port),
		pkgch.WithDatabase(c.Database),
		pkgch.WithCredentials(c.User, c.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(c.UseHTTP),
		pkgch.WithTimeouts(c.DialTimeout, c.ReadTimeout),
		pkgch.WithMaxExecutionTime(c.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	stmts := append([]string{"CREATE DATABASE IF NOT EXISTS " + c.Database}, internalrepo.Schema(salesTable(cfg), riskTable(cfg))...)
	if err := client.InitSchema(ctx, stmts); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

func salesTable(cfg *config.Config) string {
	return cfg.ClickHouse.Database + "." + cfg.Storage.SalesTable
}

func riskTable(cfg *config.Config) string {
	return cfg.ClickHouse.Database + "." + cfg.Storage.RiskTable
}

// ProvideSeriesStore picks the history backend.
func ProvideSeriesStore(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) repository.HistoricalSeriesStore {
	if ch != nil {
		return internalrepo.NewCHSeriesStore(ch, salesTable(cfg), l)
	}
	return internalrepo.NewCSVSeriesStore(cfg.Storage.SeriesCSV)
}

// ProvideRiskTable picks the persisted risk table backend.
func ProvideRiskTable(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) (repository.RiskTableStore, error) {
	if ch != nil {
		return internalrepo.NewCHRiskTable(ch, riskTable(cfg), cfg.Cutoff(), l), nil
	}
	t, err := internalrepo.LoadCSVRiskTable(cfg.Storage.RiskCSV, cfg.Cutoff())
	if err != nil {
		return nil, fmt.Errorf("risk table: %w", err)
	}
	return t, nil
}

// ProvideSalesSeries loads the history once at startup.
func ProvideSalesSeries(store repository.HistoricalSeriesStore) (*models.SalesSeries, error) {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()
	s, err := store.LoadSeries(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sales history: %w", err)
	}
	return s, nil
}

// ProvideAnalyticsBase creates the model-serving client.
func ProvideAnalyticsBase(cfg *config.Config) *analytics.HTTPServiceBase {
	return analytics.NewHTTPServiceBase(cfg.Analytics.ServiceURL, cfg.Analytics.Timeout)
}

// ProvideEnsembler combines the two served forecast models.
func ProvideEnsembler(
	cfg *config.Config,
	series *models.SalesSeries,
	base *analytics.HTTPServiceBase,
	m repository.Metrics,
	l *applogger.Logger,
) (*forecast.Ensembler, error) {
	ens, err := forecast.NewEnsembler(series,
		analytics.NewHTTPForecastSource(base, cfg.Forecast.SourceA),
		analytics.NewHTTPForecastSource(base, cfg.Forecast.SourceB),
		forecast.WithWeights(forecast.Weights{A: cfg.Forecast.WeightA, B: cfg.Forecast.WeightB}),
		forecast.WithMetrics(m),
		forecast.WithLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("ensembler: %w", err)
	}
	return ens, nil
}

// ProvideClassifier probes for a served deal classifier. Any failure leaves
// the scorer on the baseline heuristic.
func ProvideClassifier(cfg *config.Config, base *analytics.HTTPServiceBase, l *applogger.Logger) domsvc.ClassifierArtifact {
	if !cfg.Analytics.DealClassifier {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Analytics.Timeout)
	defer cancel()
	artifact, err := analytics.ProbeDealClassifier(ctx, base)
	if err != nil {
		l.Warn("deal classifier unavailable, using baseline", applogger.Error(err))
		return nil
	}
	if artifact == nil {
		l.Info("no deal classifier loaded, using baseline")
	}
	return artifact
}

// ProvideDealScorer creates the deal risk scorer.
func ProvideDealScorer(artifact domsvc.ClassifierArtifact, m repository.Metrics) *dealrisk.Scorer {
	return dealrisk.NewScorer(features.NewEngineer(), artifact, dealrisk.WithMetrics(m))
}

// ProvideDecisionEngine creates the rule engine.
func ProvideDecisionEngine(cfg *config.Config) *decision.Engine {
	return decision.NewEngine(cfg.Forecast.CriticalThreshold)
}

// ProvideCache uses Redis when enabled, else an in-process TTL cache.
func ProvideCache(cfg *config.Config) (cache.Store, error) {
	if !cfg.Redis.Enabled {
		return cache.NewTTLCache(), nil
	}
	rc := cache.NewRedisCache(cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		_ = rc.Close()
		return nil, err
	}
	return rc, nil
}

// ProvideForecastService creates the forecast use case.
func ProvideForecastService(
	cfg *config.Config,
	ens *forecast.Ensembler,
	base *analytics.HTTPServiceBase,
	store cache.Store,
	l *applogger.Logger,
) *usecase.ForecastService {
	opts := []usecase.ForecastOption{
		usecase.WithForecastCache(store, cfg.Redis.CacheTTL),
		usecase.WithModelVersion(cfg.Forecast.ModelVersion),
		usecase.WithForecastLogger(l),
	}
	if cfg.Analytics.AnomalyDetector {
		opts = append(opts, usecase.WithAnomalyDetector(analytics.NewHTTPAnomalyDetector(base)))
	}
	return usecase.NewForecastService(ens, opts...)
}

// ProvideRiskWindow creates the historical plus generated risk reader.
func ProvideRiskWindow(table repository.RiskTableStore, ens *forecast.Ensembler, l *applogger.Logger) *usecase.RiskWindow {
	return usecase.NewRiskWindow(table, ens, l)
}

// ProvideRateLimiter creates the per-client limiter for heavy endpoints.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)
}

// ProvideCRM uses Salesforce when credentials are set, else the mock org.
func ProvideCRM(cfg *config.Config, l *applogger.Logger) domsvc.CRMClient {
	if !cfg.SalesforceConfigured() {
		l.Warn("salesforce credentials missing, running in mock mode")
		return salesforce.NewMock(l)
	}
	sf := cfg.Salesforce
	return salesforce.NewClient(
		salesforce.Credentials{
			Username:      sf.Username,
			Password:      sf.Password,
			SecurityToken: sf.SecurityToken,
			ClientID:      sf.ClientID,
			ClientSecret:  sf.ClientSecret,
		},
		sf.Domain,
		sf.Timeout,
		salesforce.WithAPIVersion(sf.APIVersion),
		salesforce.WithLogger(l),
	)
}

// ProvideInsights builds the text insight client from whichever provider
// keys are present, Anthropic first.
func ProvideInsights(cfg *config.Config, l *applogger.Logger) *llm.Client {
	c := cfg.LLM
	hc := xhttp.NewClient(xhttp.WithTimeout(c.Timeout))
	var providers []llm.Provider
	if c.AnthropicAPIKey != "" {
		providers = append(providers, llm.NewAnthropic(llm.ProviderConfig{
			APIKey:    c.AnthropicAPIKey,
			Model:     c.AnthropicModel,
			MaxTokens: c.AnthropicMaxTokens,
		}, hc))
	}
	if c.OpenAIAPIKey != "" {
		providers = append(providers, llm.NewOpenAI(llm.ProviderConfig{
			APIKey:    c.OpenAIAPIKey,
			Model:     c.OpenAIModel,
			MaxTokens: c.OpenAIMaxTokens,
		}, hc))
	}
	if len(providers) == 0 {
		l.Warn("no llm api key configured, insights disabled")
	}
	return llm.New(providers, llm.WithLogger(l))
}

// ProvideAlertHub creates the websocket alert feed.
func ProvideAlertHub(l *applogger.Logger) *notify.Hub {
	return notify.NewHub(l)
}

// ProvideNotifier fans alerts out to Slack and the live feed.
func ProvideNotifier(cfg *config.Config, hub *notify.Hub, l *applogger.Logger) domsvc.Notifier {
	sl := slack.NewClient(cfg.Slack.BotToken, cfg.Slack.Channel, slack.WithLogger(l))
	return notify.NewMulti(sl, hub)
}

// ProvideMailer creates the report mailer.
func ProvideMailer(cfg *config.Config, l *applogger.Logger) *email.Mailer {
	e := cfg.Email
	m := email.NewMailer(e.Host, e.Port, e.Address, e.AppPassword, e.DefaultRecipient, email.WithLogger(l))
	if !m.Configured() {
		l.Warn("email credentials missing, report emails disabled")
	}
	return m
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is off.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	k := cfg.Kafka
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(k.Brokers),
		pkgkafka.WithCompression(k.Compression),
		pkgkafka.WithRequiredAcks(k.RequiredAcks),
		pkgkafka.WithMaxAttempts(k.Producer.MaxAttempts),
		pkgkafka.WithBatching(k.Producer.BatchSize, k.Producer.Linger),
		pkgkafka.WithWriteTimeout(k.Producer.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideAssessmentPublisher streams assessments when a producer exists.
func ProvideAssessmentPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.AssessmentPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaAssessmentPublisher(producer, cfg.Kafka.AssessmentTopic)
}

// ProvideAutomationPipeline creates the deal automation pipeline.
func ProvideAutomationPipeline(
	cfg *config.Config,
	scorer *dealrisk.Scorer,
	crm domsvc.CRMClient,
	insights *llm.Client,
	notifier domsvc.Notifier,
	publisher repository.AssessmentPublisher,
	m repository.Metrics,
	store cache.Store,
	l *applogger.Logger,
) *usecase.AutomationPipeline {
	opts := []usecase.PipelineOption{
		usecase.WithPipelineMetrics(m),
		usecase.WithRunLock(store, cfg.Automation.LockTTL),
		usecase.WithPipelineLogger(l),
	}
	if publisher != nil {
		opts = append(opts, usecase.WithPublisher(publisher))
	}
	return usecase.NewAutomationPipeline(scorer, crm, insights, notifier, opts...)
}

// ProvideEmailQueue creates the report email retry queue. It needs Redis
// and is nil without it.
func ProvideEmailQueue(cfg *config.Config, store cache.Store, mailer *email.Mailer, l *applogger.Logger) *queue.RedisQueue {
	rc, ok := store.(*cache.RedisCache)
	if !ok || !mailer.Configured() {
		return nil
	}
	q := queue.NewRedisQueue(l, cfg.Redis.Queue, rc.Client(), queue.WithKeyPrefix("salespulse:queue"))
	q.RegisterJob(usecase.NewReportEmailJob(mailer))
	return q
}

// ProvideReports creates the report builder.
func ProvideReports(
	cfg *config.Config,
	forecasts *usecase.ForecastService,
	engine *decision.Engine,
	insights *llm.Client,
	mailer *email.Mailer,
	q *queue.RedisQueue,
	l *applogger.Logger,
) *usecase.Reports {
	r := usecase.NewReports(forecasts, engine, insights, mailer, cfg.Email.DefaultRecipient, l)
	if q != nil {
		r.SetEmailRetry(q)
	}
	return r
}

// ProvideDealInsights creates the single-deal insight use case.
func ProvideDealInsights(scorer *dealrisk.Scorer, insights *llm.Client) *usecase.DealInsights {
	return usecase.NewDealInsights(scorer, insights)
}

// ProvideBacktester creates the closed-deal backtester.
func ProvideBacktester(scorer *dealrisk.Scorer) *usecase.Backtester {
	return usecase.NewBacktester(scorer)
}

// ProvideSystemStatus summarizes what was loaded at startup.
func ProvideSystemStatus(artifact domsvc.ClassifierArtifact, crm domsvc.CRMClient, insights *llm.Client) api.SystemStatus {
	mode := "salesforce"
	if _, ok := crm.(*salesforce.Mock); ok {
		mode = "mock"
	}
	return api.SystemStatus{
		ClassifierLoaded: artifact != nil,
		CRMMode:          mode,
		InsightsEnabled:  insights.Configured(),
	}
}

// ProvideHandlers collects every route group.
func ProvideHandlers(
	l *applogger.Logger,
	forecasts *usecase.ForecastService,
	window *usecase.RiskWindow,
	crm domsvc.CRMClient,
	scorer *dealrisk.Scorer,
	dealInsights *usecase.DealInsights,
	backtester *usecase.Backtester,
	pipeline *usecase.AutomationPipeline,
	reports *usecase.Reports,
	engine *decision.Engine,
	limiter *ratelimit.Limiter,
	hub *notify.Hub,
	status api.SystemStatus,
) xhttp.Handlers {
	return xhttp.Handlers{
		api.NewSystemHandler(forecasts, status),
		api.NewForecastHandler(l, forecasts, window),
		api.NewDealsHandler(l, crm, scorer, dealInsights, backtester, pipeline, limiter),
		api.NewDecisionsHandler(engine),
		api.NewReportsHandler(l, reports, limiter),
		api.NewIntegrationsHandler(l, crm),
		api.NewAlertsHandler(hub),
	}
}

// ProvideHTTPServer creates the echo server.
func ProvideHTTPServer(cfg *config.Config, handlers xhttp.Handlers, l *applogger.Logger) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(handlers,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithCORS(cfg.Server.CORSOrigins...),
		xhttp.WithLogger(l),
	)
}

// ProvideKafkaConsumer creates a consumer for the opportunity topic, or nil
// when Kafka is off.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	k := cfg.Kafka
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(k.Brokers),
		pkgkafka.WithConsumerGroupID(k.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(k.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(k.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(k.Consumer.RetryMax, k.Consumer.BackoffMin, k.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(k.Consumer.DLQTopic),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaOpportunitiesHandler runs the pipeline for queued batches.
func ProvideKafkaOpportunitiesHandler(
	cfg *config.Config,
	pipeline *usecase.AutomationPipeline,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.KafkaOpportunitiesHandler {
	return usecase.NewKafkaOpportunitiesHandler(cfg.Kafka.OpportunityTopic, pipeline, m, l)
}

// ProvideClosers lists the connections to release on shutdown, in order.
func ProvideClosers(ch *pkgch.Client, store cache.Store, publisher repository.AssessmentPublisher) server.Closers {
	var out server.Closers
	if publisher != nil {
		out = append(out, server.NamedCloser{Name: "kafka producer", Closer: publisher})
	}
	if c, ok := store.(io.Closer); ok {
		out = append(out, server.NamedCloser{Name: "redis", Closer: c})
	}
	if ch != nil {
		out = append(out, server.NamedCloser{Name: "clickhouse", Closer: ch})
	}
	return out
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	hub *notify.Hub,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaOpportunitiesHandler,
	q *queue.RedisQueue,
	closers server.Closers,
) *server.App {
	app := server.New(cfg, l, httpServer, hub, closers)
	if consumer != nil {
		consumer.RegisterHandler(kh)
		app.SetConsumer(consumer)
	}
	if q != nil {
		app.SetQueue(q)
	}
	return app
}
