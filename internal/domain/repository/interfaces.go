package repository

import (
	"context"

	"SalesPulse/internal/domain/models"
)

// AssessmentPublisher streams scored deals to downstream consumers.
type AssessmentPublisher interface {
	PublishAssessment(ctx context.Context, runID string, a models.DealRiskAssessment) error
	PublishRunResult(ctx context.Context, r models.PipelineRunResult) error
	Close() error
}

type Metrics interface {
	RecordPipelineItem(outcome string)
	RecordForecast(kind string, sources int)
	RecordDealRisk(category string, score float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
