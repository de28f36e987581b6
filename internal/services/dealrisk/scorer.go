// Package dealrisk scores CRM opportunities by their probability of closing.
package dealrisk

import (
	"context"
	"fmt"
	"math"

	"SalesPulse/internal/domain/models"
	"SalesPulse/internal/domain/repository"
	"SalesPulse/internal/domain/service"
	"SalesPulse/internal/services/features"
)

// Thresholds on the win probability.
const (
	lowRiskAbove    = 0.75
	mediumRiskAbove = 0.50
)

// Option configures Scorer.
type Option func(*Scorer)

// WithMetrics observes every score.
func WithMetrics(m repository.Metrics) Option {
	return func(s *Scorer) {
		s.metrics = m
	}
}

// WithStrategy forces a strategy, bypassing artifact detection.
func WithStrategy(st ScoringStrategy) Option {
	return func(s *Scorer) {
		s.strategy = st
	}
}

// Scorer predicts deal risk. The strategy is fixed at construction.
type Scorer struct {
	engineer *features.Engineer
	strategy ScoringStrategy
	metrics  repository.Metrics
}

// NewScorer uses the classifier when artifact is non-nil, else the baseline.
func NewScorer(engineer *features.Engineer, artifact service.ClassifierArtifact, opts ...Option) *Scorer {
	if engineer == nil {
		engineer = features.NewEngineer()
	}
	s := &Scorer{engineer: engineer, strategy: StrategyFor(artifact)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Strategy returns the active scoring strategy.
func (s *Scorer) Strategy() ScoringStrategy { return s.strategy }

// PredictRisk scores one opportunity.
func (s *Scorer) PredictRisk(ctx context.Context, opp models.Opportunity) (models.DealRiskAssessment, error) {
	v := s.engineer.Build(opp)

	p, err := s.strategy.WinProbability(ctx, v)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordError("deal_score")
		}
		return models.DealRiskAssessment{}, fmt.Errorf("score %s: %w", opp.ID, err)
	}

	category := Categorize(p)
	a := models.DealRiskAssessment{
		OpportunityID:   opp.ID,
		OpportunityName: opp.Name,
		WinProbability:  round(p, 4),
		RiskScore:       round((1-p)*100, 2),
		RiskCategory:    category,
		ActionPriority:  category,
		KeyFactors:      KeyFactors(v, p),
		Strategy:        s.strategy.Name(),
	}
	if s.metrics != nil {
		s.metrics.RecordDealRisk(string(category), a.RiskScore)
	}
	return a, nil
}

// Categorize maps a win probability to a risk category.
func Categorize(p float64) models.RiskCategory {
	switch {
	case p > lowRiskAbove:
		return models.CategoryLow
	case p > mediumRiskAbove:
		return models.CategoryMedium
	default:
		return models.CategoryHigh
	}
}

// KeyFactors lists human-readable reasons behind the score, in fixed order.
func KeyFactors(v models.DealFeatureVector, p float64) []string {
	factors := []string{}
	if v.DaysToClose < 14 {
		factors = append(factors, "Close date approaching")
	}
	if v.Amount > features.HighValueAmount {
		factors = append(factors, "High-value deal")
	}
	if v.ActivityScore < 0.3 {
		factors = append(factors, "Low interaction activity")
	}
	if p < 0.5 {
		factors = append(factors, "Below historical win threshold for stage")
	}
	return factors
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
