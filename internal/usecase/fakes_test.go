package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"SalesPulse/internal/domain/models"
	"SalesPulse/internal/services/forecast"

	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

type fixedSource struct {
	name     string
	point    float64
	interval models.ConfidenceInterval
	err      error
}

func (s fixedSource) Name() string { return s.name }

func (s fixedSource) FittedValue(_ context.Context, _ time.Time) (float64, bool, error) {
	if s.err != nil {
		return 0, false, s.err
	}
	return s.point, true, nil
}

func (s fixedSource) Forecast(_ context.Context, _ int) (models.SourceForecast, error) {
	if s.err != nil {
		return models.SourceForecast{}, s.err
	}
	return models.SourceForecast{Point: s.point, Interval: s.interval}, nil
}

// flatEnsembler forecasts 1000 with a narrow band over a flat history
// ending 2018-12-30.
func flatEnsembler(t *testing.T) *forecast.Ensembler {
	t.Helper()
	var pts []models.SalesPoint
	for d := day("2018-11-01"); !d.After(day("2018-12-30")); d = d.AddDate(0, 0, 1) {
		pts = append(pts, models.SalesPoint{Date: d, Sales: 1000})
	}
	series, err := models.NewSalesSeries(pts)
	require.NoError(t, err)

	band := models.ConfidenceInterval{Lower: 950, Upper: 1050}
	e, err := forecast.NewEnsembler(series,
		fixedSource{name: "a", point: 1000, interval: band},
		fixedSource{name: "b", point: 1000, interval: band},
	)
	require.NoError(t, err)
	return e
}

type fakeRiskTable struct {
	cutoff time.Time
	rows   []models.RiskRow
	err    error
}

func (f *fakeRiskTable) Cutoff() time.Time { return f.cutoff }

func (f *fakeRiskTable) HistoricalRisk(_ context.Context, start, end *time.Time) ([]models.RiskRow, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []models.RiskRow
	for _, r := range f.rows {
		if start != nil && r.Date.Before(*start) {
			continue
		}
		if end != nil && r.Date.After(*end) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

type fakeCRM struct {
	mu        sync.Mutex
	opps      []models.Opportunity
	listErr   error
	updateErr map[string]error
	taskErr   error
	updates   map[string]map[string]interface{}
	tasks     []models.Task
}

func newFakeCRM() *fakeCRM {
	return &fakeCRM{updates: map[string]map[string]interface{}{}, updateErr: map[string]error{}}
}

func (c *fakeCRM) ListOpenOpportunities(context.Context) ([]models.Opportunity, error) {
	return c.opps, c.listErr
}

func (c *fakeCRM) UpdateOpportunity(_ context.Context, id string, fields map[string]interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.updateErr[id]; err != nil {
		return err
	}
	c.updates[id] = fields
	return nil
}

func (c *fakeCRM) CreateTask(_ context.Context, task models.Task) (models.TaskRef, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.taskErr != nil {
		return models.TaskRef{}, c.taskErr
	}
	c.tasks = append(c.tasks, task)
	return models.TaskRef{ID: "T" + task.WhatID}, nil
}

func (c *fakeCRM) OpportunityURL(id string) string { return "https://crm.test/" + id }

type fakeInsights struct {
	prompts []string
}

func (f *fakeInsights) Generate(_ context.Context, prompt, _ string) models.Insight {
	f.prompts = append(f.prompts, prompt)
	return models.Insight{Text: "call them", Available: true, Provider: "fake"}
}

type fakeNotifier struct {
	alerts []models.Alert
	err    error
}

func (n *fakeNotifier) SendAlert(_ context.Context, a models.Alert) error {
	if n.err != nil {
		return n.err
	}
	n.alerts = append(n.alerts, a)
	return nil
}

// scriptedScorer returns a fixed assessment per opportunity id; ids in
// fail return an error and ids in panics panic.
type scriptedScorer struct {
	probs  map[string]float64
	fail   map[string]bool
	panics map[string]bool
}

func (s scriptedScorer) PredictRisk(_ context.Context, opp models.Opportunity) (models.DealRiskAssessment, error) {
	if s.panics[opp.ID] {
		panic("scorer exploded")
	}
	if s.fail[opp.ID] {
		return models.DealRiskAssessment{}, errors.New("classifier unavailable")
	}
	p := s.probs[opp.ID]
	cat := models.CategoryHigh
	switch {
	case p > 0.75:
		cat = models.CategoryLow
	case p > 0.5:
		cat = models.CategoryMedium
	}
	return models.DealRiskAssessment{
		OpportunityID:   opp.ID,
		OpportunityName: opp.Name,
		WinProbability:  p,
		RiskScore:       (1 - p) * 100,
		RiskCategory:    cat,
		ActionPriority:  cat,
	}, nil
}

type fakeLocker struct {
	held     bool
	unlocked bool
}

func (l *fakeLocker) TryLock(context.Context, string, time.Duration) (bool, error) {
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *fakeLocker) Unlock(context.Context, string) error {
	l.held = false
	l.unlocked = true
	return nil
}

type fakePublisher struct {
	assessments []models.DealRiskAssessment
	runs        []models.PipelineRunResult
	err         error
}

func (p *fakePublisher) PublishAssessment(_ context.Context, _ string, a models.DealRiskAssessment) error {
	p.assessments = append(p.assessments, a)
	return p.err
}

func (p *fakePublisher) PublishRunResult(_ context.Context, r models.PipelineRunResult) error {
	p.runs = append(p.runs, r)
	return p.err
}

func (p *fakePublisher) Close() error { return nil }
