package features

import (
	"testing"
	"time"

	"SalesPulse/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestBuild(t *testing.T) {
	activity := 80.0
	opp := models.Opportunity{
		ID:            "006A",
		Amount:        150000,
		Stage:         models.StageNegotiation,
		CreatedDate:   now.AddDate(0, 0, -30),
		CloseDate:     now.AddDate(0, 0, 5),
		Probability:   60,
		ActivityScore: &activity,
	}

	v := NewEngineerAt(func() time.Time { return now }).Build(opp)

	assert.Equal(t, 30, v.DaysOpen)
	assert.Equal(t, 5, v.DaysToClose)
	assert.InDelta(t, 0.6, v.Probability, 1e-9)
	assert.Equal(t, 1.0, v.IsHighValue)
	assert.InDelta(t, 5000.0, v.DealVelocity, 1e-9)
	assert.InDelta(t, 0.2, v.UrgencyFactor, 1e-9)
	assert.InDelta(t, 0.8, v.ActivityScore, 1e-9)
	assert.Equal(t, [5]float64{0, 0, 0, 0, 1}, v.StageFlags)
	assert.True(t, InStage(v, models.StageNegotiation))
	assert.False(t, InStage(v, models.StageProposal))
}

func TestBuildDefaultsAndOverdue(t *testing.T) {
	opp := models.Opportunity{
		Amount:      100000,
		Stage:       "Closed Won",
		CreatedDate: now,
		CloseDate:   now.Add(-time.Hour),
		Probability: 10,
	}

	v := NewEngineerAt(func() time.Time { return now }).Build(opp)

	assert.Equal(t, 0, v.DaysOpen)
	assert.Equal(t, -1, v.DaysToClose, "overdue deals have negative days to close")
	assert.Equal(t, 0.0, v.IsHighValue, "threshold is strictly greater")
	assert.InDelta(t, 100000.0, v.DealVelocity, 1e-9)
	assert.Equal(t, 1.0, v.UrgencyFactor)
	assert.Equal(t, 0.5, v.ActivityScore)
	assert.Equal(t, [5]float64{}, v.StageFlags)
}

func TestValuesMatchNames(t *testing.T) {
	v := NewEngineer().Build(models.Opportunity{Stage: models.StageProspecting})
	names := models.FeatureNames()
	vals := v.Values()
	require.Len(t, vals, len(names))
	assert.Equal(t, "stage_Prospecting", names[7])
	assert.Equal(t, 1.0, vals[7])
}
