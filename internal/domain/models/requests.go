package models

// Requests for the HTTP API. Defined in domain for reuse by the Kafka
// consumer, which accepts the same payloads.

type PredictRequest struct {
	Date string `json:"date" validate:"required,date"`
}

type BatchPredictRequest struct {
	StartDate string `json:"start_date" validate:"required,date"`
	EndDate   string `json:"end_date" validate:"required,date"`
}

type AssessRiskRequest struct {
	Date               string              `json:"date" validate:"required,date"`
	ForecastValue      *float64            `json:"forecast_value" validate:"omitempty,gte=0"`
	ConfidenceInterval *ConfidenceInterval `json:"confidence_interval"`
}

type EvaluateDecisionRequest struct {
	ForecastValue float64 `json:"forecast_value" validate:"gte=0"`
	RiskScore     int     `json:"risk_score" validate:"gte=0,lte=100"`
	Reliability   string  `json:"reliability" default:"High" validate:"oneof=Low Medium High"`
	IsAnomaly     bool    `json:"is_anomaly"`
}

type BacktestRequest struct {
	Deals []HistoricalDeal `json:"deals" validate:"required,min=1,dive"`
}

type RunAutomationRequest struct {
	Opportunities []Opportunity `json:"opportunities" validate:"omitempty,dive"`
}

type GenerateReportRequest struct {
	Date      string `json:"date" validate:"required,date"`
	SendEmail bool   `json:"send_email"`
	Recipient string `json:"recipient" validate:"omitempty,email"`
}

type CreateTaskRequest struct {
	OpportunityID string `json:"opportunity_id" validate:"required"`
	Subject       string `json:"subject" validate:"required"`
	Description   string `json:"description"`
	Priority      string `json:"priority" default:"Normal" validate:"oneof=Low Normal High"`
	DueDate       string `json:"due_date" validate:"omitempty,date"`
}
