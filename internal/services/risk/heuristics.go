// Package risk scores a single forecast value against the sales history.
//
// The score is a sum of fixed, independent contributions capped at 100, so
// every assessment can be explained factor by factor.
package risk

import (
	"fmt"
	"math"
	"time"

	"SalesPulse/internal/domain/models"
)

// SeriesStats is the part of the sales history the heuristics read.
type SeriesStats interface {
	Mean() float64
	Std() float64
	TrailingMean(n int) float64
}

const (
	// TrailingWindow is the number of most recent observations used for the
	// recent-trend check.
	TrailingWindow = 30

	MaxScore = 100

	highThreshold   = 70
	mediumThreshold = 40
)

// Contributions of each check.
const (
	pointsLargeDeviation    = 30
	pointsModerateDeviation = 15
	pointsRecentTrend       = 25
	pointsWideInterval      = 30
	pointsModerateInterval  = 15
	pointsVolatility        = 15
)

// Assess scores forecastValue for date. ci is optional.
func Assess(forecastValue float64, date time.Time, stats SeriesStats, ci *models.ConfidenceInterval) models.RiskAssessment {
	mean := stats.Mean()
	deviation := pctChange(forecastValue, mean)
	recent := pctChange(forecastValue, stats.TrailingMean(TrailingWindow))

	score := 0
	var factors []string

	switch abs := math.Abs(deviation); {
	case abs > 50:
		score += pointsLargeDeviation
		factors = append(factors, fmt.Sprintf("Large deviation from mean (%+.1f%%)", deviation))
	case abs > 25:
		score += pointsModerateDeviation
	}

	if math.Abs(recent) > 30 {
		score += pointsRecentTrend
		factors = append(factors, fmt.Sprintf("Deviates from recent trend (%+.1f%%)", recent))
	}

	if ci != nil {
		width := intervalWidthPct(*ci, forecastValue)
		switch {
		case width > 100:
			score += pointsWideInterval
			if math.IsInf(width, 1) {
				factors = append(factors, "Wide confidence interval (unbounded)")
			} else {
				factors = append(factors, fmt.Sprintf("Wide confidence interval (%.0f%%)", width))
			}
		case width > 50:
			score += pointsModerateInterval
		}
	}

	if mean > 0 {
		if cv := stats.Std() / mean; cv > 1.0 {
			score += pointsVolatility
			factors = append(factors, fmt.Sprintf("High volatility (CV=%.2f)", cv))
		}
	}

	if score > MaxScore {
		score = MaxScore
	}
	level, reliability := Classify(score)

	return models.RiskAssessment{
		Date:              date,
		ForecastValue:     forecastValue,
		RiskScore:         score,
		RiskLevel:         level,
		Reliability:       reliability,
		DeviationFromMean: math.Round(deviation*100) / 100,
		Factors:           factors,
	}
}

// Classify maps a risk score to its level and reliability.
func Classify(score int) (models.RiskLevel, models.Reliability) {
	switch {
	case score >= highThreshold:
		return models.RiskHigh, models.ReliabilityLow
	case score >= mediumThreshold:
		return models.RiskMedium, models.ReliabilityMedium
	default:
		return models.RiskLow, models.ReliabilityHigh
	}
}

// pctChange is (v-base)/base*100, or 0 when base is not positive.
func pctChange(v, base float64) float64 {
	if base <= 0 {
		return 0
	}
	return (v - base) / base * 100
}

// intervalWidthPct is the interval width relative to the forecast. A
// non-positive forecast with a non-empty interval is unbounded.
func intervalWidthPct(ci models.ConfidenceInterval, forecast float64) float64 {
	w := ci.Width()
	if forecast <= 0 {
		if w > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return w / forecast * 100
}
