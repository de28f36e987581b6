package analytics

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"SalesPulse/internal/domain/models"
	domsvc "SalesPulse/internal/domain/service"
	xutil "SalesPulse/pkg/util"
)

// HTTPForecastSource exposes one pretrained time-series model served under
// /models/{name}.
type HTTPForecastSource struct {
	name string
	base *HTTPServiceBase
}

func NewHTTPForecastSource(base *HTTPServiceBase, name string) *HTTPForecastSource {
	return &HTTPForecastSource{name: name, base: base}
}

type fittedReq struct {
	Date string `json:"date"`
}

type fittedResp struct {
	Found bool    `json:"found"`
	Value float64 `json:"value"`
}

type forecastReq struct {
	Steps int `json:"steps"`
}

type forecastResp struct {
	Point float64 `json:"point"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

func (s *HTTPForecastSource) Name() string { return s.name }

func (s *HTTPForecastSource) path(op string) string {
	return "/models/" + url.PathEscape(s.name) + "/" + op
}

func (s *HTTPForecastSource) FittedValue(ctx context.Context, date time.Time) (float64, bool, error) {
	var fr fittedResp
	if err := s.base.PostJSON(ctx, s.path("fitted"), fittedReq{Date: xutil.FormatDate(date)}, &fr); err != nil {
		return 0, false, fmt.Errorf("%s fitted: %w", s.name, err)
	}
	return fr.Value, fr.Found, nil
}

func (s *HTTPForecastSource) Forecast(ctx context.Context, steps int) (models.SourceForecast, error) {
	if steps < 1 {
		return models.SourceForecast{}, fmt.Errorf("%s forecast: steps must be positive, got %d", s.name, steps)
	}
	var fr forecastResp
	if err := s.base.PostJSONWithRetry(ctx, s.path("forecast"), forecastReq{Steps: steps}, &fr, 2); err != nil {
		return models.SourceForecast{}, fmt.Errorf("%s forecast: %w", s.name, err)
	}
	return models.SourceForecast{
		Point:    fr.Point,
		Interval: models.ConfidenceInterval{Lower: fr.Lower, Upper: fr.Upper},
	}, nil
}

var _ domsvc.ForecastSource = (*HTTPForecastSource)(nil)
