package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"SalesPulse/internal/domain/models"
	"SalesPulse/internal/domain/service"
	"SalesPulse/internal/service/cache"
	"SalesPulse/internal/services/forecast"
	"SalesPulse/internal/services/risk"
	applogger "SalesPulse/pkg/logger"
	xutil "SalesPulse/pkg/util"
)

// ForecastService fronts the ensembler for the API: risk-annotated
// predictions, a cached weekly outlook and model metadata.
type ForecastService struct {
	ens          *forecast.Ensembler
	anomaly      service.AnomalyDetector
	cache        cache.BytesCache
	cacheTTL     time.Duration
	modelVersion string
	log          *applogger.Logger
}

type ForecastOption func(*ForecastService)

// WithAnomalyDetector enables the anomaly flag on risk assessments.
func WithAnomalyDetector(d service.AnomalyDetector) ForecastOption {
	return func(s *ForecastService) { s.anomaly = d }
}

// WithForecastCache caches the next-week outlook for ttl.
func WithForecastCache(c cache.BytesCache, ttl time.Duration) ForecastOption {
	return func(s *ForecastService) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

func WithModelVersion(v string) ForecastOption {
	return func(s *ForecastService) { s.modelVersion = v }
}

func WithForecastLogger(l *applogger.Logger) ForecastOption {
	return func(s *ForecastService) { s.log = l }
}

func NewForecastService(ens *forecast.Ensembler, opts ...ForecastOption) *ForecastService {
	s := &ForecastService{ens: ens, cacheTTL: 10 * time.Minute, modelVersion: "1.0.0", log: applogger.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Component("forecast_service")
	return s
}

func (s *ForecastService) Predict(ctx context.Context, date time.Time) (models.ForecastResult, error) {
	return s.ens.Predict(ctx, date)
}

func (s *ForecastService) BatchPredict(ctx context.Context, start, end time.Time) ([]models.ForecastResult, error) {
	return s.ens.BatchPredict(ctx, start, end)
}

// NextWeek returns the seven-day outlook, served from cache when possible.
// Cache failures are logged and bypassed.
func (s *ForecastService) NextWeek(ctx context.Context) (models.WeeklyForecast, error) {
	key := "forecast:next-week:" + xutil.FormatDate(s.ens.Series().LastDate())
	if s.cache != nil {
		if b, ok, err := s.cache.GetBytes(ctx, key); err != nil {
			s.log.Warn("cache get failed", applogger.String("key", key), applogger.Error(err))
		} else if ok {
			var wf models.WeeklyForecast
			if err := json.Unmarshal(b, &wf); err == nil {
				return wf, nil
			}
		}
	}

	wf, err := s.ens.NextWeek(ctx)
	if err != nil {
		return models.WeeklyForecast{}, err
	}

	if s.cache != nil {
		if b, err := json.Marshal(wf); err == nil {
			if err := s.cache.SetBytes(ctx, key, b, s.cacheTTL); err != nil {
				s.log.Warn("cache set failed", applogger.String("key", key), applogger.Error(err))
			}
		}
	}
	return wf, nil
}

// AssessRisk scores value for date with an optional caller-supplied
// interval. Without a value the ensemble forecast for date is used,
// including its own interval.
func (s *ForecastService) AssessRisk(ctx context.Context, date time.Time, value *float64, ci *models.ConfidenceInterval) (models.RiskAssessment, error) {
	date = xutil.Day(date)
	if value == nil {
		f, err := s.ens.Predict(ctx, date)
		if err != nil {
			return models.RiskAssessment{}, fmt.Errorf("assess risk: %w", err)
		}
		return s.AssessForecast(ctx, f), nil
	}
	a := risk.Assess(*value, date, s.ens.Series(), ci)
	a.IsAnomaly = s.isAnomaly(ctx, date, *value)
	return a, nil
}

// AssessForecast scores an ensemble result against the history.
func (s *ForecastService) AssessForecast(ctx context.Context, f models.ForecastResult) models.RiskAssessment {
	a := risk.Assess(f.Ensemble, f.Date, s.ens.Series(), f.ConfidenceInterval)
	a.IsAnomaly = s.isAnomaly(ctx, f.Date, f.Ensemble)
	return a
}

func (s *ForecastService) isAnomaly(ctx context.Context, date time.Time, v float64) bool {
	if s.anomaly == nil {
		return false
	}
	yes, err := s.anomaly.IsAnomaly(ctx, date, v)
	if err != nil {
		s.log.Warn("anomaly check failed", applogger.Date("date", date), applogger.Error(err))
		return false
	}
	return yes
}

// ModelInfo describes the loaded forecast models.
func (s *ForecastService) ModelInfo() models.ModelInfo {
	a, b := s.ens.SourceNames()
	w := s.ens.Weights()
	series := s.ens.Series()
	return models.ModelInfo{
		SourceA:         a,
		SourceB:         b,
		WeightA:         w.A,
		WeightB:         w.B,
		ModelVersion:    s.modelVersion,
		LastTrainedDate: series.LastDate(),
		TrainingSamples: series.Len(),
	}
}
