package usecase

import (
	"context"
	"testing"

	"SalesPulse/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDealInsights(t *testing.T) {
	insights := &fakeInsights{}
	d := NewDealInsights(scriptedScorer{probs: map[string]float64{"a": 0.4}}, insights)

	got, err := d.Insights(context.Background(), models.Opportunity{ID: "a", Name: "Acme", Amount: 125000, Stage: models.StageNegotiation})
	require.NoError(t, err)
	assert.Equal(t, models.CategoryHigh, got.Assessment.RiskCategory)
	assert.Equal(t, "call them", got.Insight.Text)
	assert.Contains(t, insights.prompts[0], "Amount: $125,000.00")
	assert.Contains(t, insights.prompts[0], "Win Probability: 40.0%")

	_, err = NewDealInsights(scriptedScorer{fail: map[string]bool{"a": true}}, insights).Insights(context.Background(), models.Opportunity{ID: "a"})
	assert.Error(t, err)
}

func TestBacktest(t *testing.T) {
	scorer := scriptedScorer{probs: map[string]float64{
		"won-caught": 0.8,
		"won-missed": 0.3,
		"lost-right": 0.2,
		"lost-wrong": 0.7,
	}}
	deal := func(id string, amount float64, won bool) models.HistoricalDeal {
		return models.HistoricalDeal{Opportunity: models.Opportunity{ID: id, Amount: amount}, Won: won}
	}

	res, err := NewBacktester(scorer).Backtest(context.Background(), []models.HistoricalDeal{
		deal("won-caught", 1000, true),
		deal("won-missed", 2500.5, true),
		deal("lost-right", 400, false),
		deal("lost-wrong", 900, false),
	})
	require.NoError(t, err)
	assert.Equal(t, 0.5, res.Accuracy)
	assert.Equal(t, 0.5, res.RecallOnWins)
	assert.Equal(t, 2500.5, res.AtRiskRevenueIdentified)
	assert.Equal(t, 4, res.TotalDealsAnalyzed)
}

func TestBacktestEdgeCases(t *testing.T) {
	_, err := NewBacktester(scriptedScorer{}).Backtest(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoHistoricalDeals)

	res, err := NewBacktester(scriptedScorer{probs: map[string]float64{"x": 0.1}}).Backtest(context.Background(),
		[]models.HistoricalDeal{{Opportunity: models.Opportunity{ID: "x"}, Won: false}})
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Accuracy)
	assert.Zero(t, res.RecallOnWins)
}
