package models

import "time"

// ForecastReport bundles forecast, risk, decision and explanation for one day.
type ForecastReport struct {
	Date        time.Time       `json:"date"`
	Forecast    ForecastResult  `json:"forecast"`
	Risk        RiskAssessment  `json:"risk"`
	Decision    DecisionOutcome `json:"decision"`
	Explanation string          `json:"explanation"`
	EmailSent   bool            `json:"email_sent"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// WeeklyReportDay is one row of the weekly outlook.
type WeeklyReportDay struct {
	Date      time.Time `json:"date"`
	Forecast  float64   `json:"forecast"`
	RiskScore int       `json:"risk_score"`
	RiskLevel RiskLevel `json:"risk_level"`
	Priority  Priority  `json:"priority"`
}

// WeeklyReport is the next-week forecast with per-day risk.
type WeeklyReport struct {
	StartDate    time.Time         `json:"start_date"`
	EndDate      time.Time         `json:"end_date"`
	AverageDaily float64           `json:"average_daily_forecast"`
	HighRiskDays int               `json:"high_risk_days"`
	Days         []WeeklyReportDay `json:"days"`
}

// ModelInfo describes the loaded model registry.
type ModelInfo struct {
	SourceA         string    `json:"source_a"`
	SourceB         string    `json:"source_b"`
	WeightA         float64   `json:"weight_a"`
	WeightB         float64   `json:"weight_b"`
	ModelVersion    string    `json:"model_version"`
	LastTrainedDate time.Time `json:"last_training_date"`
	TrainingSamples int       `json:"training_samples"`
	Classifier      bool      `json:"deal_classifier_loaded"`
}

// DealInsight is a scored deal with generated recommendations.
type DealInsight struct {
	Assessment DealRiskAssessment `json:"assessment"`
	Insight    Insight            `json:"insight"`
}
