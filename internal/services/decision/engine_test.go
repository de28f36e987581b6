package decision

import (
	"testing"

	"SalesPulse/internal/domain/models"

	"github.com/stretchr/testify/assert"
)

func risk(score int, rel models.Reliability, anomaly bool) models.RiskAssessment {
	return models.RiskAssessment{RiskScore: score, Reliability: rel, IsAnomaly: anomaly}
}

func TestEvaluateRuleTable(t *testing.T) {
	e := NewEngine(0)

	tests := []struct {
		name     string
		forecast float64
		risk     models.RiskAssessment
		want     models.DecisionOutcome
	}{
		{
			name:     "high risk low reliability beats threshold",
			forecast: 1500,
			risk:     risk(80, models.ReliabilityLow, true),
			want: models.DecisionOutcome{
				Actions:  []models.Action{models.ActionSendEmailAlert, models.ActionCreateTask},
				Priority: models.PriorityHigh,
				Reason:   "High risk with low reliability",
			},
		},
		{
			name:     "high risk other reliability",
			forecast: 5000,
			risk:     risk(70, models.ReliabilityMedium, true),
			want: models.DecisionOutcome{
				Actions:  []models.Action{models.ActionSendEmailAlert},
				Priority: models.PriorityMedium,
				Reason:   "High risk detected",
			},
		},
		{
			name:     "anomaly beats threshold",
			forecast: 100,
			risk:     risk(50, models.ReliabilityMedium, true),
			want: models.DecisionOutcome{
				Actions:  []models.Action{models.ActionFlagForReview, models.ActionWeeklyReport},
				Priority: models.PriorityMedium,
				Reason:   "Anomaly detected",
			},
		},
		{
			name:     "below threshold",
			forecast: 1500,
			risk:     risk(20, models.ReliabilityHigh, false),
			want: models.DecisionOutcome{
				Actions:  []models.Action{models.ActionInventoryWarning},
				Priority: models.PriorityHigh,
				Reason:   "Forecast below critical threshold",
			},
		},
		{
			name:     "normal",
			forecast: 2000,
			risk:     risk(39, models.ReliabilityHigh, false),
			want: models.DecisionOutcome{
				Actions:  []models.Action{models.ActionLogOnly},
				Priority: models.PriorityLow,
				Reason:   "Normal forecast",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Evaluate(tt.forecast, tt.risk))
		})
	}
}

func TestEvaluateCustomThreshold(t *testing.T) {
	e := NewEngine(500)
	assert.Equal(t, 500.0, e.Threshold())

	got := e.Evaluate(1500, risk(0, models.ReliabilityHigh, false))
	assert.Equal(t, []models.Action{models.ActionLogOnly}, got.Actions)
}

func TestEvaluateReturnsFreshSlices(t *testing.T) {
	e := NewEngine(0)
	first := e.Evaluate(1, risk(0, models.ReliabilityHigh, false))
	first.Actions[0] = models.ActionLogOnly

	second := e.Evaluate(1, risk(0, models.ReliabilityHigh, false))
	assert.Equal(t, models.ActionInventoryWarning, second.Actions[0])
}
