package models

import "time"

type ForecastKind string

const (
	ForecastHistorical ForecastKind = "historical"
	ForecastFuture     ForecastKind = "future"
)

// ConfidenceInterval is a forecast band. Lower is never negative once it
// leaves the ensembler.
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Width returns Upper - Lower.
func (ci ConfidenceInterval) Width() float64 { return ci.Upper - ci.Lower }

// SourceForecast is one model's multi-step forecast for its final step.
type SourceForecast struct {
	Point    float64
	Interval ConfidenceInterval
}

// ForecastResult is the ensemble prediction for one day.
type ForecastResult struct {
	Date               time.Time           `json:"date"`
	Kind               ForecastKind        `json:"type"`
	ActualSales        *float64            `json:"actual_sales,omitempty"`
	SourceA            *float64            `json:"source_a_forecast,omitempty"`
	SourceB            *float64            `json:"source_b_forecast,omitempty"`
	Ensemble           float64             `json:"ensemble_forecast"`
	ConfidenceInterval *ConfidenceInterval `json:"confidence_interval,omitempty"`
}

// Sources reports how many source models contributed.
func (r ForecastResult) Sources() int {
	n := 0
	if r.SourceA != nil {
		n++
	}
	if r.SourceB != nil {
		n++
	}
	return n
}

// WeeklyForecast is the seven-day outlook after the last observed day.
type WeeklyForecast struct {
	StartDate    time.Time        `json:"forecast_start"`
	EndDate      time.Time        `json:"forecast_end"`
	AverageDaily float64          `json:"average_daily_forecast"`
	Forecasts    []ForecastResult `json:"forecasts"`
}
