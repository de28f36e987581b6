// Package features derives classifier inputs from CRM opportunities.
package features

import (
	"math"
	"time"

	"SalesPulse/internal/domain/models"
)

const (
	// HighValueAmount marks deals above this amount as high value.
	HighValueAmount = 100000.0

	// DefaultActivityScore is used when the CRM has no activity score (0-100).
	DefaultActivityScore = 50.0
)

// Engineer builds feature vectors. The clock is injectable for tests.
type Engineer struct {
	now func() time.Time
}

func NewEngineer() *Engineer {
	return &Engineer{now: time.Now}
}

// NewEngineerAt returns an Engineer with a fixed clock.
func NewEngineerAt(now func() time.Time) *Engineer {
	return &Engineer{now: now}
}

// Now returns the engineer's current time.
func (e *Engineer) Now() time.Time { return e.now() }

// Build derives the feature vector for opp.
func (e *Engineer) Build(opp models.Opportunity) models.DealFeatureVector {
	now := e.now()

	v := models.DealFeatureVector{
		Amount:      opp.Amount,
		DaysOpen:    floorDays(now.Sub(opp.CreatedDate)),
		DaysToClose: floorDays(opp.CloseDate.Sub(now)),
		Probability: opp.Probability / 100,
	}
	if opp.Amount > HighValueAmount {
		v.IsHighValue = 1
	}
	v.DealVelocity = opp.Amount / float64(max(1, v.DaysOpen))
	v.UrgencyFactor = 1 / float64(max(1, v.DaysToClose))

	for i, s := range models.Stages {
		if opp.Stage == s {
			v.StageFlags[i] = 1
		}
	}

	activity := DefaultActivityScore
	if opp.ActivityScore != nil {
		activity = *opp.ActivityScore
	}
	v.ActivityScore = activity / 100
	return v
}

// InStage reports whether v is one-hot encoded for stage.
func InStage(v models.DealFeatureVector, stage string) bool {
	for i, s := range models.Stages {
		if s == stage {
			return v.StageFlags[i] == 1
		}
	}
	return false
}

// floorDays counts whole days, rounding toward negative infinity so that a
// close date 1 hour in the past is day -1.
func floorDays(d time.Duration) int {
	return int(math.Floor(d.Hours() / 24))
}
