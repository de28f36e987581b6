package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"SalesPulse/internal/domain/models"
	"SalesPulse/internal/domain/repository"
	"SalesPulse/internal/services/forecast"
	"SalesPulse/internal/services/risk"
	applogger "SalesPulse/pkg/logger"
	xutil "SalesPulse/pkg/util"
)

// Generation window limits, in days.
const (
	// DefaultLookback is how far before today generation starts when the
	// caller gives no start after the cutoff.
	DefaultLookback = 30
	// MaxGenerationSpan bounds generation end minus generation start.
	MaxGenerationSpan = 90
	// OpenEndedHorizon is how far past today an open-ended request reaches.
	OpenEndedHorizon = 7
)

const stableForecast = "Stable forecast"

// RiskWindow merges the persisted risk table with risk rows generated on
// demand for days after its cutoff.
type RiskWindow struct {
	table repository.RiskTableStore
	ens   *forecast.Ensembler
	now   func() time.Time
	log   *applogger.Logger
}

func NewRiskWindow(table repository.RiskTableStore, ens *forecast.Ensembler, l *applogger.Logger) *RiskWindow {
	if l == nil {
		l = applogger.Nop()
	}
	return &RiskWindow{table: table, ens: ens, now: time.Now, log: l.Component("risk_window")}
}

// SetClock overrides the wall clock.
func (w *RiskWindow) SetClock(now func() time.Time) { w.now = now }

// Analyze returns risk rows in [start, end], newest first. Both bounds are
// optional. Oversized generation windows are truncated, not rejected.
func (w *RiskWindow) Analyze(ctx context.Context, start, end *time.Time) ([]models.RiskRow, error) {
	if start != nil {
		s := xutil.Day(*start)
		start = &s
	}
	if end != nil {
		e := xutil.Day(*end)
		end = &e
	}

	rows, err := w.table.HistoricalRisk(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load historical risk: %w", err)
	}

	from, to, ok := w.generationWindow(start, end)
	if ok {
		generated, err := w.generate(ctx, from, to)
		if err != nil {
			return nil, err
		}
		rows = append(rows, generated...)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.After(rows[j].Date) })
	return rows, nil
}

// generationWindow computes the inclusive range of days to generate. ok is
// false when nothing after the cutoff is requested.
func (w *RiskWindow) generationWindow(start, end *time.Time) (from, to time.Time, ok bool) {
	cutoff := xutil.Day(w.table.Cutoff())
	today := xutil.Day(w.now())

	check := today
	if end != nil {
		check = *end
	}
	if !check.After(cutoff) {
		return time.Time{}, time.Time{}, false
	}

	if start != nil && start.After(cutoff) {
		from = *start
	} else {
		from = today.AddDate(0, 0, -DefaultLookback)
		if !from.After(cutoff) {
			from = cutoff.AddDate(0, 0, 1)
		}
	}

	if end != nil {
		to = *end
	} else {
		to = today.AddDate(0, 0, OpenEndedHorizon)
	}
	if xutil.DaysBetween(from, to) > MaxGenerationSpan {
		w.log.Warn("generation window truncated",
			applogger.Date("from", from),
			applogger.Date("requested_to", to),
			applogger.Int("max_days", MaxGenerationSpan),
		)
		to = from.AddDate(0, 0, MaxGenerationSpan)
	}

	if from.After(to) {
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func (w *RiskWindow) generate(ctx context.Context, from, to time.Time) ([]models.RiskRow, error) {
	w.log.Debug("generating risk rows", applogger.Date("from", from), applogger.Date("to", to))

	preds, err := w.ens.BatchPredict(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("generate risk rows: %w", err)
	}

	rows := make([]models.RiskRow, 0, len(preds))
	for _, p := range preds {
		a := risk.Assess(p.Ensemble, p.Date, w.ens.Series(), p.ConfidenceInterval)
		rows = append(rows, models.RiskRow{
			Date:          p.Date,
			ForecastValue: p.Ensemble,
			RiskScore:     a.RiskScore,
			RiskLevel:     a.RiskLevel,
			Factors:       summarizeFactors(a.Factors),
			Source:        models.RowGenerated,
		})
	}
	return rows, nil
}

func summarizeFactors(factors []string) string {
	if len(factors) == 0 {
		return stableForecast
	}
	return strings.Join(factors, "; ")
}
