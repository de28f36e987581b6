package risk

import (
	"testing"
	"time"

	"SalesPulse/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStats struct {
	mean, std, trailing float64
}

func (f fakeStats) Mean() float64 { return f.mean }
func (f fakeStats) Std() float64 { return f.std }
func (f fakeStats) TrailingMean(int) float64 { return f.trailing }

var day = time.Date(2019, 1, 15, 0, 0, 0, 0, time.UTC)

func TestAssessMeanDeviationAndVolatility(t *testing.T) {
	// trailing mean close to the forecast so only the mean and CV checks fire
	stats := fakeStats{mean: 1000, std: 1200, trailing: 2900}

	got := Assess(3000, day, stats, nil)

	assert.Equal(t, 45, got.RiskScore)
	assert.Equal(t, models.RiskMedium, got.RiskLevel)
	assert.Equal(t, models.ReliabilityMedium, got.Reliability)
	assert.InDelta(t, 200.0, got.DeviationFromMean, 1e-9)
	require.Len(t, got.Factors, 2)
	assert.Equal(t, "Large deviation from mean (+200.0%)", got.Factors[0])
	assert.Equal(t, "High volatility (CV=1.20)", got.Factors[1])
}

func TestAssessModerateDeviationHasNoFactorText(t *testing.T) {
	stats := fakeStats{mean: 1000, std: 100, trailing: 1300}

	got := Assess(1300, day, stats, nil)

	assert.Equal(t, 15, got.RiskScore)
	assert.Empty(t, got.Factors)
	assert.Equal(t, models.RiskLow, got.RiskLevel)
	assert.Equal(t, models.ReliabilityHigh, got.Reliability)
}

func TestAssessRecentTrend(t *testing.T) {
	stats := fakeStats{mean: 1000, std: 100, trailing: 700}

	got := Assess(1000, day, stats, nil)

	assert.Equal(t, 25, got.RiskScore)
	assert.Equal(t, []string{"Deviates from recent trend (+42.9%)"}, got.Factors)
}

func TestAssessIntervalWidth(t *testing.T) {
	stats := fakeStats{mean: 1000, std: 100, trailing: 1000}

	tests := []struct {
		name   string
		ci     models.ConfidenceInterval
		score  int
		factor string
	}{
		{name: "narrow", ci: models.ConfidenceInterval{Lower: 900, Upper: 1100}, score: 0},
		{name: "moderate", ci: models.ConfidenceInterval{Lower: 700, Upper: 1300}, score: 15},
		{name: "wide", ci: models.ConfidenceInterval{Lower: 0, Upper: 1500}, score: 30, factor: "Wide confidence interval (150%)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ci := tt.ci
			got := Assess(1000, day, stats, &ci)
			assert.Equal(t, tt.score, got.RiskScore)
			if tt.factor == "" {
				assert.Empty(t, got.Factors)
			} else {
				assert.Equal(t, []string{tt.factor}, got.Factors)
			}
		})
	}
}

func TestAssessZeroForecastWithInterval(t *testing.T) {
	stats := fakeStats{mean: 1000, std: 100, trailing: 1000}
	ci := models.ConfidenceInterval{Lower: 0, Upper: 50}

	got := Assess(0, day, stats, &ci)

	// -100% vs mean, -100% vs trend, unbounded interval
	assert.Equal(t, 85, got.RiskScore)
	assert.Contains(t, got.Factors, "Wide confidence interval (unbounded)")
}

func TestAssessScoreIsCapped(t *testing.T) {
	stats := fakeStats{mean: 100, std: 500, trailing: 100}
	ci := models.ConfidenceInterval{Lower: 0, Upper: 5000}

	got := Assess(1000, day, stats, &ci)

	assert.Equal(t, MaxScore, got.RiskScore)
	assert.Equal(t, models.RiskHigh, got.RiskLevel)
	assert.Equal(t, models.ReliabilityLow, got.Reliability)
	assert.Len(t, got.Factors, 4)
}

func TestAssessZeroMeanDoesNotDivide(t *testing.T) {
	got := Assess(10, day, fakeStats{}, nil)
	assert.Equal(t, 0, got.RiskScore)
	assert.Zero(t, got.DeviationFromMean)
}

func TestClassifyIsPureFunctionOfScore(t *testing.T) {
	for score := 0; score <= MaxScore; score++ {
		l1, r1 := Classify(score)
		l2, r2 := Classify(score)
		assert.Equal(t, l1, l2)
		assert.Equal(t, r1, r2)

		switch {
		case score >= 70:
			assert.Equal(t, models.RiskHigh, l1)
			assert.Equal(t, models.ReliabilityLow, r1)
		case score >= 40:
			assert.Equal(t, models.RiskMedium, l1)
			assert.Equal(t, models.ReliabilityMedium, r1)
		default:
			assert.Equal(t, models.RiskLow, l1)
			assert.Equal(t, models.ReliabilityHigh, r1)
		}
	}
}
