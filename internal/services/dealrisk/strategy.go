package dealrisk

import (
	"context"
	"errors"
	"fmt"
	"math"

	"SalesPulse/internal/domain/models"
	"SalesPulse/internal/domain/service"
	"SalesPulse/internal/services/features"
)

// Baseline bounds.
const (
	MinBaselineProbability = 0.05
	MaxBaselineProbability = 0.95
)

// ErrClassifier wraps every failure of a trained model at scoring time.
var ErrClassifier = errors.New("deal classifier failed")

// ScoringStrategy turns a feature vector into a win probability. The set of
// implementations is closed: ClassifierStrategy and BaselineStrategy.
type ScoringStrategy interface {
	Name() string
	WinProbability(ctx context.Context, v models.DealFeatureVector) (float64, error)
	sealed()
}

// ClassifierStrategy scores with a trained model.
type ClassifierStrategy struct {
	Artifact service.ClassifierArtifact
}

func (ClassifierStrategy) sealed() {}

func (s ClassifierStrategy) Name() string { return "classifier:" + s.Artifact.Version() }

func (s ClassifierStrategy) WinProbability(ctx context.Context, v models.DealFeatureVector) (float64, error) {
	p, err := s.Artifact.Score(ctx, v)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrClassifier, err)
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, fmt.Errorf("%w: probability %v outside [0,1]", ErrClassifier, p)
	}
	return p, nil
}

// BaselineStrategy is the deterministic heuristic used without a classifier.
type BaselineStrategy struct{}

func (BaselineStrategy) sealed() {}

func (BaselineStrategy) Name() string { return "baseline" }

func (BaselineStrategy) WinProbability(_ context.Context, v models.DealFeatureVector) (float64, error) {
	return BaselineProbability(v), nil
}

// BaselineProbability starts from half the CRM probability, adjusts for
// urgency, activity and stage, and clips to [0.05, 0.95].
func BaselineProbability(v models.DealFeatureVector) float64 {
	p := v.Probability * 0.5
	if v.DaysToClose < 7 {
		p -= 0.1
	}
	if v.ActivityScore > 0.7 {
		p += 0.2
	}
	if features.InStage(v, models.StageNegotiation) {
		p += 0.1
	}
	return math.Min(MaxBaselineProbability, math.Max(MinBaselineProbability, p))
}

// StrategyFor picks the classifier when an artifact is present.
func StrategyFor(artifact service.ClassifierArtifact) ScoringStrategy {
	if artifact == nil {
		return BaselineStrategy{}
	}
	return ClassifierStrategy{Artifact: artifact}
}
