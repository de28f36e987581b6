package dealrisk

import (
	"context"
	"errors"
	"testing"
	"time"

	"SalesPulse/internal/domain/models"
	"SalesPulse/internal/services/features"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func engineer() *features.Engineer {
	return features.NewEngineerAt(func() time.Time { return now })
}

func ptr(v float64) *float64 { return &v }

type stubArtifact struct {
	p   float64
	err error
}

func (a stubArtifact) Version() string { return "test" }

func (a stubArtifact) Score(context.Context, models.DealFeatureVector) (float64, error) {
	return a.p, a.err
}

func TestBaselineScenario(t *testing.T) {
	opp := models.Opportunity{
		ID:            "006X",
		Name:          "Big renewal",
		Amount:        150000,
		Stage:         models.StageNegotiation,
		CreatedDate:   now.AddDate(0, 0, -20),
		CloseDate:     now.AddDate(0, 0, 5),
		Probability:   80,
		ActivityScore: ptr(80),
	}
	s := NewScorer(engineer(), nil)
	_, isBaseline := s.Strategy().(BaselineStrategy)
	require.True(t, isBaseline)

	got, err := s.PredictRisk(context.Background(), opp)
	require.NoError(t, err)

	// 0.8*0.5 - 0.1 + 0.2 + 0.1
	assert.InDelta(t, 0.6, got.WinProbability, 1e-9)
	assert.InDelta(t, 40.0, got.RiskScore, 1e-9)
	assert.Equal(t, models.CategoryMedium, got.RiskCategory)
	assert.Equal(t, got.RiskCategory, got.ActionPriority)
	assert.Equal(t, []string{"Close date approaching", "High-value deal"}, got.KeyFactors)
	assert.Equal(t, "baseline", got.Strategy)
}

func TestBaselineIsClipped(t *testing.T) {
	tests := []struct {
		name string
		v    models.DealFeatureVector
		want float64
	}{
		{name: "floor", v: models.DealFeatureVector{Probability: 0, DaysToClose: 0, ActivityScore: 0.1}, want: 0.05},
		{name: "max reachable", v: models.DealFeatureVector{Probability: 1, DaysToClose: 30, ActivityScore: 0.9, StageFlags: [5]float64{0, 0, 0, 0, 1}}, want: 0.8},
		{name: "plain", v: models.DealFeatureVector{Probability: 0.5, DaysToClose: 30, ActivityScore: 0.5}, want: 0.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, BaselineProbability(tt.v), 1e-9)
		})
	}

	for p := 0.0; p <= 1.0; p += 0.05 {
		for _, days := range []int{-10, 3, 30} {
			for _, act := range []float64{0, 0.5, 1} {
				v := models.DealFeatureVector{Probability: p, DaysToClose: days, ActivityScore: act, StageFlags: [5]float64{0, 0, 0, 0, 1}}
				got := BaselineProbability(v)
				assert.GreaterOrEqual(t, got, MinBaselineProbability)
				assert.LessOrEqual(t, got, MaxBaselineProbability)
			}
		}
	}
}

func TestCategorizeBoundaries(t *testing.T) {
	assert.Equal(t, models.CategoryLow, Categorize(0.76))
	assert.Equal(t, models.CategoryMedium, Categorize(0.75))
	assert.Equal(t, models.CategoryMedium, Categorize(0.51))
	assert.Equal(t, models.CategoryHigh, Categorize(0.50))
}

func TestKeyFactorsOrder(t *testing.T) {
	v := models.DealFeatureVector{DaysToClose: 3, Amount: 200000, ActivityScore: 0.1}
	assert.Equal(t, []string{
		"Close date approaching",
		"High-value deal",
		"Low interaction activity",
		"Below historical win threshold for stage",
	}, KeyFactors(v, 0.2))

	assert.Empty(t, KeyFactors(models.DealFeatureVector{DaysToClose: 30, ActivityScore: 0.5}, 0.9))
}

func TestClassifierStrategy(t *testing.T) {
	opp := models.Opportunity{ID: "1", CreatedDate: now, CloseDate: now.AddDate(0, 1, 0), Stage: models.StageProposal}

	s := NewScorer(engineer(), stubArtifact{p: 0.9})
	got, err := s.PredictRisk(context.Background(), opp)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryLow, got.RiskCategory)
	assert.InDelta(t, 10.0, got.RiskScore, 1e-9)
	assert.Equal(t, "classifier:test", got.Strategy)

	s = NewScorer(engineer(), stubArtifact{err: errors.New("model crashed")})
	_, err = s.PredictRisk(context.Background(), opp)
	assert.ErrorContains(t, err, "model crashed")
	assert.ErrorIs(t, err, ErrClassifier)

	s = NewScorer(engineer(), stubArtifact{p: 1.7})
	_, err = s.PredictRisk(context.Background(), opp)
	assert.ErrorIs(t, err, ErrClassifier)
}

func TestRounding(t *testing.T) {
	s := NewScorer(engineer(), stubArtifact{p: 0.123456})
	got, err := s.PredictRisk(context.Background(), models.Opportunity{CreatedDate: now, CloseDate: now})
	require.NoError(t, err)
	assert.Equal(t, 0.1235, got.WinProbability)
	assert.Equal(t, 87.65, got.RiskScore)
}
