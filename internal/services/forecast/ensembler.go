// Package forecast combines two independent forecast sources into one
// weighted ensemble.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"SalesPulse/internal/domain/models"
	"SalesPulse/internal/domain/repository"
	"SalesPulse/internal/domain/service"
	applogger "SalesPulse/pkg/logger"
	"SalesPulse/pkg/util"
)

// MaxBatchSpan bounds BatchPredict to one year of daily predictions.
const MaxBatchSpan = 366

// ErrNoSource means neither source produced a value for a date.
var ErrNoSource = errors.New("no forecast source available")

// Error is the fatal failure of a single date.
type Error struct {
	Date   time.Time
	Reason string
	Causes []error
}

func (e *Error) Error() string {
	return fmt.Sprintf("forecast %s: %s", util.FormatDate(e.Date), e.Reason)
}

// Unwrap exposes ErrNoSource and the source errors to errors.Is/As.
func (e *Error) Unwrap() []error {
	return append([]error{ErrNoSource}, e.Causes...)
}

// Weights are the ensemble coefficients of source A and B.
type Weights struct {
	A float64
	B float64
}

// DefaultWeights favour source B.
var DefaultWeights = Weights{A: 0.4, B: 0.6}

// Option configures Ensembler.
type Option func(*Ensembler)

// WithWeights overrides DefaultWeights.
func WithWeights(w Weights) Option {
	return func(e *Ensembler) {
		e.weights = w
	}
}

// WithMetrics records per-prediction counters.
func WithMetrics(m repository.Metrics) Option {
	return func(e *Ensembler) {
		e.metrics = m
	}
}

// WithLogger sets the logger used for degraded predictions.
func WithLogger(l *applogger.Logger) Option {
	return func(e *Ensembler) {
		e.log = l
	}
}

// Ensembler produces daily ensemble forecasts. It is read-only after
// construction and safe for concurrent use if its sources are.
type Ensembler struct {
	series  *models.SalesSeries
	a, b    service.ForecastSource
	weights Weights
	metrics repository.Metrics
	log     *applogger.Logger
}

func NewEnsembler(series *models.SalesSeries, a, b service.ForecastSource, opts ...Option) (*Ensembler, error) {
	if series == nil || series.Len() == 0 {
		return nil, models.ErrEmptySeries
	}
	if a == nil || b == nil {
		return nil, fmt.Errorf("both forecast sources are required")
	}
	e := &Ensembler{
		series:  series,
		a:       a,
		b:       b,
		weights: DefaultWeights,
		log:     applogger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Series returns the history the ensembler forecasts from.
func (e *Ensembler) Series() *models.SalesSeries { return e.series }

// Weights returns the configured ensemble weights.
func (e *Ensembler) Weights() Weights { return e.weights }

// SourceNames returns the names of source A and B.
func (e *Ensembler) SourceNames() (string, string) { return e.a.Name(), e.b.Name() }

// Predict forecasts one calendar day. Days up to the last observation use
// fitted values; later days use the sources' multi-step forecasts.
func (e *Ensembler) Predict(ctx context.Context, date time.Time) (models.ForecastResult, error) {
	date = util.Day(date)

	var (
		res models.ForecastResult
		err error
	)
	if date.After(e.series.LastDate()) {
		res, err = e.predictFuture(ctx, date)
	} else {
		res, err = e.predictHistorical(ctx, date)
	}
	if err != nil {
		if e.metrics != nil {
			e.metrics.RecordError("forecast")
		}
		return models.ForecastResult{}, err
	}
	if e.metrics != nil {
		e.metrics.RecordForecast(string(res.Kind), res.Sources())
	}
	return res, nil
}

func (e *Ensembler) predictHistorical(ctx context.Context, date time.Time) (models.ForecastResult, error) {
	res := models.ForecastResult{Date: date, Kind: models.ForecastHistorical}
	if v, ok := e.series.Actual(date); ok {
		res.ActualSales = &v
	}

	var causes []error
	fitted := func(src service.ForecastSource) *float64 {
		v, ok, err := src.FittedValue(ctx, date)
		if err != nil {
			causes = append(causes, fmt.Errorf("%s: %w", src.Name(), err))
			return nil
		}
		if !ok {
			return nil
		}
		return &v
	}
	res.SourceA = fitted(e.a)
	res.SourceB = fitted(e.b)

	switch {
	case res.SourceA != nil && res.SourceB != nil:
		a, b := *res.SourceA, *res.SourceB
		res.Ensemble = e.weights.A*a + e.weights.B*b
	case res.SourceA != nil:
		res.Ensemble = *res.SourceA
	case res.SourceB != nil:
		res.Ensemble = *res.SourceB
	default:
		return models.ForecastResult{}, &Error{Date: date, Reason: "no fitted value from either source", Causes: causes}
	}
	e.logDegraded(res, causes)
	return res, nil
}

func (e *Ensembler) predictFuture(ctx context.Context, date time.Time) (models.ForecastResult, error) {
	res := models.ForecastResult{Date: date, Kind: models.ForecastFuture}
	steps := util.DaysBetween(e.series.LastDate(), date)

	var causes []error
	forecast := func(src service.ForecastSource) *models.SourceForecast {
		f, err := src.Forecast(ctx, steps)
		if err != nil {
			causes = append(causes, fmt.Errorf("%s: %w", src.Name(), err))
			return nil
		}
		return &f
	}
	fa, fb := forecast(e.a), forecast(e.b)

	var ci models.ConfidenceInterval
	switch {
	case fa != nil && fb != nil:
		res.Ensemble = e.weights.A*fa.Point + e.weights.B*fb.Point
		ci.Lower = e.weights.A*fa.Interval.Lower + e.weights.B*fb.Interval.Lower
		ci.Upper = e.weights.A*fa.Interval.Upper + e.weights.B*fb.Interval.Upper
	case fa != nil:
		res.Ensemble, ci = fa.Point, fa.Interval
	case fb != nil:
		res.Ensemble, ci = fb.Point, fb.Interval
	default:
		return models.ForecastResult{}, &Error{Date: date, Reason: "both sources failed to forecast", Causes: causes}
	}
	if fa != nil {
		res.SourceA = &fa.Point
	}
	if fb != nil {
		res.SourceB = &fb.Point
	}

	// sales cannot be negative
	ci.Lower = math.Max(0, ci.Lower)
	res.ConfidenceInterval = &ci

	e.logDegraded(res, causes)
	return res, nil
}

func (e *Ensembler) logDegraded(res models.ForecastResult, causes []error) {
	if res.Sources() == 2 {
		return
	}
	fields := []applogger.Field{
		applogger.Date("date", res.Date),
		applogger.String("kind", string(res.Kind)),
	}
	if len(causes) > 0 {
		fields = append(fields, applogger.Error(errors.Join(causes...)))
	}
	e.log.Debug("single-source ensemble", fields...)
}

// BatchPredict forecasts every day in [start, end]. Ranges longer than
// MaxBatchSpan days are truncated; an inverted range yields no results.
func (e *Ensembler) BatchPredict(ctx context.Context, start, end time.Time) ([]models.ForecastResult, error) {
	days := util.DateRange(start, end, MaxBatchSpan)
	out := make([]models.ForecastResult, 0, len(days))
	for _, d := range days {
		r, err := e.Predict(ctx, d)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// NextWeek forecasts the seven days after the last observation.
func (e *Ensembler) NextWeek(ctx context.Context) (models.WeeklyForecast, error) {
	last := e.series.LastDate()
	start, end := last.AddDate(0, 0, 1), last.AddDate(0, 0, 7)

	preds, err := e.BatchPredict(ctx, start, end)
	if err != nil {
		return models.WeeklyForecast{}, err
	}

	var sum float64
	for _, p := range preds {
		sum += p.Ensemble
	}
	return models.WeeklyForecast{
		StartDate:    start,
		EndDate:      end,
		AverageDaily: util.Round(sum/float64(len(preds)), 2),
		Forecasts:    preds,
	}, nil
}
