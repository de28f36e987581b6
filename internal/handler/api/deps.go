package api

import (
	"context"
	"time"

	"SalesPulse/internal/domain/models"
)

// Consumer-side views of the use cases, so handlers can be tested with
// small fakes.

type Forecaster interface {
	Predict(ctx context.Context, date time.Time) (models.ForecastResult, error)
	BatchPredict(ctx context.Context, start, end time.Time) ([]models.ForecastResult, error)
	NextWeek(ctx context.Context) (models.WeeklyForecast, error)
	AssessRisk(ctx context.Context, date time.Time, value *float64, ci *models.ConfidenceInterval) (models.RiskAssessment, error)
	ModelInfo() models.ModelInfo
}

type RiskAnalyzer interface {
	Analyze(ctx context.Context, start, end *time.Time) ([]models.RiskRow, error)
}

type DealScorer interface {
	PredictRisk(ctx context.Context, opp models.Opportunity) (models.DealRiskAssessment, error)
}

type DealInsighter interface {
	Insights(ctx context.Context, opp models.Opportunity) (models.DealInsight, error)
}

type Backtester interface {
	Backtest(ctx context.Context, deals []models.HistoricalDeal) (models.BacktestResult, error)
}

type AutomationRunner interface {
	RunDaily(ctx context.Context) (models.PipelineRunResult, error)
	Run(ctx context.Context, opps []models.Opportunity) models.PipelineRunResult
}

type ReportBuilder interface {
	Generate(ctx context.Context, date time.Time, sendEmail bool, recipient string) (models.ForecastReport, error)
	Weekly(ctx context.Context) (models.WeeklyReport, error)
}

type DecisionEvaluator interface {
	Evaluate(forecastValue float64, risk models.RiskAssessment) models.DecisionOutcome
}
