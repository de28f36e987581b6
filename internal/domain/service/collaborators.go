package service

import (
	"context"
	"time"

	"SalesPulse/internal/domain/models"
)

// ForecastSource is one pretrained time-series model.
type ForecastSource interface {
	Name() string
	// FittedValue returns the in-sample value for date. ok is false when the
	// model has no fitted value for that day.
	FittedValue(ctx context.Context, date time.Time) (value float64, ok bool, err error)
	// Forecast returns the point and interval for the last of steps days
	// after the end of the training data.
	Forecast(ctx context.Context, steps int) (models.SourceForecast, error)
}

// ClassifierArtifact is a trained deal win-probability model.
type ClassifierArtifact interface {
	Version() string
	Score(ctx context.Context, v models.DealFeatureVector) (float64, error)
}

// AnomalyDetector flags unusual forecast values.
type AnomalyDetector interface {
	IsAnomaly(ctx context.Context, date time.Time, value float64) (bool, error)
}

// CRMClient reads and writes opportunities in the CRM.
type CRMClient interface {
	ListOpenOpportunities(ctx context.Context) ([]models.Opportunity, error)
	UpdateOpportunity(ctx context.Context, id string, fields map[string]interface{}) error
	CreateTask(ctx context.Context, task models.Task) (models.TaskRef, error)
	OpportunityURL(id string) string
}

// TextInsightClient generates prose. It never fails: an unconfigured or
// failing provider yields an Insight with Available=false.
type TextInsightClient interface {
	Generate(ctx context.Context, prompt, systemPrompt string) models.Insight
}

// Notifier delivers alerts to people.
type Notifier interface {
	SendAlert(ctx context.Context, alert models.Alert) error
}

// ReportMailer sends a rendered forecast report.
type ReportMailer interface {
	SendReport(ctx context.Context, report models.ForecastReport, recipient string) error
}
