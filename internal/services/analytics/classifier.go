package analytics

import (
	"context"
	"fmt"

	"SalesPulse/internal/domain/models"
	domsvc "SalesPulse/internal/domain/service"
)

const classifierPath = "/models/deal_classifier"

// HTTPDealClassifier scores deal feature vectors with the served classifier.
type HTTPDealClassifier struct {
	base    *HTTPServiceBase
	version string
}

type classifierInfo struct {
	Loaded  bool   `json:"loaded"`
	Version string `json:"version"`
}

type classifierReq struct {
	Features []string  `json:"feature_names"`
	Values   []float64 `json:"values"`
}

type classifierResp struct {
	Probability float64 `json:"win_probability"`
}

// ProbeDealClassifier asks the service whether a classifier is loaded. It
// returns a nil artifact with a nil error when none is, so callers fall
// back to the baseline heuristic.
func ProbeDealClassifier(ctx context.Context, base *HTTPServiceBase) (domsvc.ClassifierArtifact, error) {
	var info classifierInfo
	if err := base.GetJSON(ctx, classifierPath, &info); err != nil {
		return nil, fmt.Errorf("probe classifier: %w", err)
	}
	if !info.Loaded {
		return nil, nil
	}
	return &HTTPDealClassifier{base: base, version: info.Version}, nil
}

func (c *HTTPDealClassifier) Version() string { return c.version }

func (c *HTTPDealClassifier) Score(ctx context.Context, v models.DealFeatureVector) (float64, error) {
	var cr classifierResp
	req := classifierReq{Features: models.FeatureNames(), Values: v.Values()}
	if err := c.base.PostJSON(ctx, classifierPath+"/predict", req, &cr); err != nil {
		return 0, fmt.Errorf("classifier score: %w", err)
	}
	return cr.Probability, nil
}

var _ domsvc.ClassifierArtifact = (*HTTPDealClassifier)(nil)
