// Package decision maps a forecast and its risk assessment to actions.
package decision

import "SalesPulse/internal/domain/models"

// DefaultCriticalThreshold is the forecast value below which stock is at risk.
const DefaultCriticalThreshold = 2000.0

// Input is what a rule can look at.
type Input struct {
	ForecastValue float64
	Risk          models.RiskAssessment
}

// Rule is one entry of the ordered rule table.
type Rule struct {
	Name     string
	Match    func(in Input) bool
	Actions  []models.Action
	Priority models.Priority
	Reason   string
}

// Engine evaluates rules in order; the first match wins.
type Engine struct {
	rules     []Rule
	threshold float64
}

// NewEngine builds the standard rule table. A non-positive threshold falls
// back to DefaultCriticalThreshold.
func NewEngine(criticalThreshold float64) *Engine {
	if criticalThreshold <= 0 {
		criticalThreshold = DefaultCriticalThreshold
	}
	e := &Engine{threshold: criticalThreshold}
	e.rules = []Rule{
		{
			Name:     "high_risk_low_reliability",
			Match:    func(in Input) bool { return in.Risk.RiskScore >= 70 && in.Risk.Reliability == models.ReliabilityLow },
			Actions:  []models.Action{models.ActionSendEmailAlert, models.ActionCreateTask},
			Priority: models.PriorityHigh,
			Reason:   "High risk with low reliability",
		},
		{
			Name:     "high_risk",
			Match:    func(in Input) bool { return in.Risk.RiskScore >= 70 },
			Actions:  []models.Action{models.ActionSendEmailAlert},
			Priority: models.PriorityMedium,
			Reason:   "High risk detected",
		},
		{
			Name:     "anomaly",
			Match:    func(in Input) bool { return in.Risk.IsAnomaly },
			Actions:  []models.Action{models.ActionFlagForReview, models.ActionWeeklyReport},
			Priority: models.PriorityMedium,
			Reason:   "Anomaly detected",
		},
		{
			Name:     "below_critical_threshold",
			Match:    func(in Input) bool { return in.ForecastValue < e.threshold },
			Actions:  []models.Action{models.ActionInventoryWarning},
			Priority: models.PriorityHigh,
			Reason:   "Forecast below critical threshold",
		},
	}
	return e
}

// Threshold returns the critical forecast threshold.
func (e *Engine) Threshold() float64 { return e.threshold }

// Evaluate returns the outcome of the first matching rule, or LOG_ONLY.
func (e *Engine) Evaluate(forecastValue float64, risk models.RiskAssessment) models.DecisionOutcome {
	in := Input{ForecastValue: forecastValue, Risk: risk}
	for _, r := range e.rules {
		if r.Match(in) {
			return models.DecisionOutcome{
				Actions:  append([]models.Action(nil), r.Actions...),
				Priority: r.Priority,
				Reason:   r.Reason,
			}
		}
	}
	return models.DecisionOutcome{
		Actions:  []models.Action{models.ActionLogOnly},
		Priority: models.PriorityLow,
		Reason:   "Normal forecast",
	}
}
