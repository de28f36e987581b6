package models

import "time"

type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Reliability is the confidence label derived inversely from the risk score.
type Reliability string

const (
	ReliabilityLow    Reliability = "Low"
	ReliabilityMedium Reliability = "Medium"
	ReliabilityHigh   Reliability = "High"
)

// RiskAssessment is the heuristic risk of one forecast value.
type RiskAssessment struct {
	Date              time.Time   `json:"date"`
	ForecastValue     float64     `json:"forecast_value"`
	RiskScore         int         `json:"risk_score"`
	RiskLevel         RiskLevel   `json:"risk_level"`
	Reliability       Reliability `json:"reliability"`
	DeviationFromMean float64     `json:"deviation_from_mean"`
	Factors           []string    `json:"risk_factors"`
	IsAnomaly         bool        `json:"is_anomaly"`
}

// RiskRowSource tells persisted rows from freshly generated ones.
type RiskRowSource string

const (
	RowHistorical RiskRowSource = "historical"
	RowGenerated  RiskRowSource = "generated"
)

// RiskRow is one line of the risk analysis table.
type RiskRow struct {
	Date          time.Time     `json:"date"`
	ForecastValue float64       `json:"forecast_value"`
	RiskScore     int           `json:"risk_score"`
	RiskLevel     RiskLevel     `json:"risk_level"`
	Factors       string        `json:"risk_factors"`
	Source        RiskRowSource `json:"source"`
}
