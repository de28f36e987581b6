package repository

import (
	"context"
	"time"

	"SalesPulse/internal/domain/models"
)

// HistoricalSeriesStore loads the observed daily sales history.
type HistoricalSeriesStore interface {
	LoadSeries(ctx context.Context) (*models.SalesSeries, error)
}

// RiskTableStore reads the persisted historical risk table. Rows exist only
// up to Cutoff; start and end are optional inclusive bounds.
type RiskTableStore interface {
	Cutoff() time.Time
	HistoricalRisk(ctx context.Context, start, end *time.Time) ([]models.RiskRow, error)
}
