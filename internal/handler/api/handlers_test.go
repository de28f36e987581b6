package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"SalesPulse/internal/domain/models"
	"SalesPulse/internal/services/dealrisk"
	"SalesPulse/internal/services/decision"
	"SalesPulse/internal/services/forecast"
	"SalesPulse/internal/usecase"
	xhttp "SalesPulse/pkg/http"
	xlogger "SalesPulse/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

type fakeForecaster struct {
	err        error
	gotValue   *float64
	gotCI      *models.ConfidenceInterval
	batchStart time.Time
	batchEnd   time.Time
}

func (f *fakeForecaster) Predict(_ context.Context, d time.Time) (models.ForecastResult, error) {
	if f.err != nil {
		return models.ForecastResult{}, f.err
	}
	return models.ForecastResult{Date: d, Kind: models.ForecastFuture, Ensemble: 1234.5}, nil
}

func (f *fakeForecaster) BatchPredict(_ context.Context, start, end time.Time) ([]models.ForecastResult, error) {
	f.batchStart, f.batchEnd = start, end
	return []models.ForecastResult{{Date: start, Ensemble: 1}, {Date: end, Ensemble: 2}}, nil
}

func (f *fakeForecaster) NextWeek(context.Context) (models.WeeklyForecast, error) {
	return models.WeeklyForecast{AverageDaily: 99}, nil
}

func (f *fakeForecaster) AssessRisk(_ context.Context, d time.Time, v *float64, ci *models.ConfidenceInterval) (models.RiskAssessment, error) {
	f.gotValue, f.gotCI = v, ci
	return models.RiskAssessment{Date: d, RiskScore: 40, RiskLevel: models.RiskMedium}, nil
}

func (f *fakeForecaster) ModelInfo() models.ModelInfo {
	return models.ModelInfo{SourceA: "prophet", SourceB: "sarima", WeightA: 0.4, WeightB: 0.6}
}

type fakeWindow struct {
	start, end *time.Time
}

func (w *fakeWindow) Analyze(_ context.Context, start, end *time.Time) ([]models.RiskRow, error) {
	w.start, w.end = start, end
	return []models.RiskRow{{Date: day("2019-01-02"), RiskScore: 30, Source: models.RowGenerated}}, nil
}

type fakeScorer struct{}

func (fakeScorer) PredictRisk(_ context.Context, opp models.Opportunity) (models.DealRiskAssessment, error) {
	return models.DealRiskAssessment{OpportunityID: opp.ID, WinProbability: 0.3, RiskCategory: models.CategoryHigh}, nil
}

type failingScorer struct{}

func (failingScorer) PredictRisk(_ context.Context, opp models.Opportunity) (models.DealRiskAssessment, error) {
	return models.DealRiskAssessment{}, fmt.Errorf("score %s: %w", opp.ID, dealrisk.ErrClassifier)
}

type fakeInsighter struct{}

func (fakeInsighter) Insights(_ context.Context, opp models.Opportunity) (models.DealInsight, error) {
	return models.DealInsight{Assessment: models.DealRiskAssessment{OpportunityID: opp.ID}, Insight: models.Insight{Text: "call them", Available: true}}, nil
}

type fakeBacktester struct{}

func (fakeBacktester) Backtest(_ context.Context, deals []models.HistoricalDeal) (models.BacktestResult, error) {
	if len(deals) == 0 {
		return models.BacktestResult{}, usecase.ErrNoHistoricalDeals
	}
	return models.BacktestResult{TotalDealsAnalyzed: len(deals)}, nil
}

type fakeRunner struct {
	dailyErr error
	ranWith  []models.Opportunity
	daily    int
}

func (r *fakeRunner) RunDaily(context.Context) (models.PipelineRunResult, error) {
	r.daily++
	return models.PipelineRunResult{RunID: "daily", Processed: 2}, r.dailyErr
}

func (r *fakeRunner) Run(_ context.Context, opps []models.Opportunity) models.PipelineRunResult {
	r.ranWith = opps
	return models.PipelineRunResult{RunID: "posted", Processed: len(opps)}
}

type fakeReports struct {
	sendEmail bool
	recipient string
}

func (r *fakeReports) Generate(_ context.Context, d time.Time, sendEmail bool, recipient string) (models.ForecastReport, error) {
	r.sendEmail, r.recipient = sendEmail, recipient
	return models.ForecastReport{Date: d, EmailSent: sendEmail}, nil
}

func (r *fakeReports) Weekly(context.Context) (models.WeeklyReport, error) {
	return models.WeeklyReport{HighRiskDays: 2}, nil
}

type fakeCRM struct {
	task models.Task
	err  error
}

func (c *fakeCRM) ListOpenOpportunities(context.Context) ([]models.Opportunity, error) {
	return []models.Opportunity{{ID: "001", Name: "Acme"}}, c.err
}

func (c *fakeCRM) UpdateOpportunity(context.Context, string, map[string]interface{}) error { return nil }

func (c *fakeCRM) CreateTask(_ context.Context, t models.Task) (models.TaskRef, error) {
	c.task = t
	return models.TaskRef{ID: "00T9"}, c.err
}

func (c *fakeCRM) OpportunityURL(id string) string { return "https://force.com/" + id }

type denyAfter struct{ n int }

func (d *denyAfter) Allow(string) bool {
	d.n--
	return d.n >= 0
}

type env struct {
	forecasts *fakeForecaster
	window    *fakeWindow
	runner    *fakeRunner
	reports   *fakeReports
	crm       *fakeCRM
	srv       *xhttp.Server
}

func newEnv(limiterBudget int) *env {
	e := &env{
		forecasts: &fakeForecaster{},
		window:    &fakeWindow{},
		runner:    &fakeRunner{},
		reports:   &fakeReports{},
		crm:       &fakeCRM{},
	}
	l := xlogger.Nop()
	var limiter *denyAfter
	if limiterBudget > 0 {
		limiter = &denyAfter{n: limiterBudget}
	}
	handlers := []xhttp.Handler{
		NewForecastHandler(l, e.forecasts, e.window),
		NewDecisionsHandler(decision.NewEngine(0)),
		NewSystemHandler(e.forecasts, SystemStatus{ClassifierLoaded: true, CRMMode: "mock"}),
		NewIntegrationsHandler(l, e.crm),
	}
	if limiter != nil {
		handlers = append(handlers,
			NewDealsHandler(l, e.crm, fakeScorer{}, fakeInsighter{}, fakeBacktester{}, e.runner, limiter),
			NewReportsHandler(l, e.reports, limiter),
		)
	} else {
		handlers = append(handlers,
			NewDealsHandler(l, e.crm, fakeScorer{}, fakeInsighter{}, fakeBacktester{}, e.runner, nil),
			NewReportsHandler(l, e.reports, nil),
		)
	}
	e.srv = xhttp.NewServer(handlers, xhttp.WithMetricsPath(""))
	return e
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *env) do(t *testing.T, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.srv.Echo().ServeHTTP(rec, req)

	var out envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func TestPredict(t *testing.T) {
	e := newEnv(0)

	code, resp := e.do(t, http.MethodPost, "/api/v1/forecast/predict", `{"date":"2019-01-05"}`)
	require.Equal(t, http.StatusOK, code)
	var f models.ForecastResult
	require.NoError(t, json.Unmarshal(resp.Data, &f))
	assert.Equal(t, 1234.5, f.Ensemble)
	assert.True(t, f.Date.Equal(day("2019-01-05")))

	code, _ = e.do(t, http.MethodPost, "/api/v1/forecast/predict", `{"date":"05/01/2019"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = e.do(t, http.MethodPost, "/api/v1/forecast/predict", `{}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestPredictMapsForecastFailure(t *testing.T) {
	e := newEnv(0)
	e.forecasts.err = fmt.Errorf("predict: %w", &forecast.Error{Date: day("2019-01-05"), Reason: "both sources failed"})

	code, resp := e.do(t, http.MethodPost, "/api/v1/forecast/predict", `{"date":"2019-01-05"}`)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, string(resp.Data), "ERR_FORECAST_UNAVAILABLE")

	e.forecasts.err = errors.New("boom")
	code, _ = e.do(t, http.MethodPost, "/api/v1/forecast/predict", `{"date":"2019-01-05"}`)
	assert.Equal(t, http.StatusInternalServerError, code)
}

func TestBatchAndNextWeek(t *testing.T) {
	e := newEnv(0)

	code, resp := e.do(t, http.MethodPost, "/api/v1/forecast/batch", `{"start_date":"2019-01-01","end_date":"2019-01-31"}`)
	require.Equal(t, http.StatusOK, code)
	var b batchResponse
	require.NoError(t, json.Unmarshal(resp.Data, &b))
	assert.Equal(t, 2, b.TotalPredictions)
	assert.Equal(t, "2019-01-01", b.StartDate)
	assert.Equal(t, day("2019-01-31"), e.forecasts.batchEnd)

	code, resp = e.do(t, http.MethodGet, "/api/v1/forecast/next-week", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(resp.Data), `"average_daily_forecast":99`)
}

func TestAssessRisk(t *testing.T) {
	e := newEnv(0)

	code, _ := e.do(t, http.MethodPost, "/api/v1/risk/assess",
		`{"date":"2019-01-05","forecast_value":1500,"confidence_interval":{"lower":1000,"upper":2000}}`)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, e.forecasts.gotValue)
	assert.Equal(t, 1500.0, *e.forecasts.gotValue)
	require.NotNil(t, e.forecasts.gotCI)
	assert.Equal(t, 1000.0, e.forecasts.gotCI.Lower)

	code, _ = e.do(t, http.MethodPost, "/api/v1/risk/assess", `{"date":"2019-01-05"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, e.forecasts.gotValue)

	code, _ = e.do(t, http.MethodPost, "/api/v1/risk/assess", `{"date":"2019-01-05","forecast_value":-1}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRiskAnalysis(t *testing.T) {
	e := newEnv(0)

	code, resp := e.do(t, http.MethodGet, "/api/v1/risk/analysis?start_date=2019-01-01", "")
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, e.window.start)
	assert.Equal(t, day("2019-01-01"), *e.window.start)
	assert.Nil(t, e.window.end)
	var list xhttp.ListDataResponse
	require.NoError(t, json.Unmarshal(resp.Data, &list))
	assert.EqualValues(t, 1, list.Total)

	code, _ = e.do(t, http.MethodGet, "/api/v1/risk/analysis?end_date=tomorrow", "")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestEvaluateDecision(t *testing.T) {
	e := newEnv(0)

	code, resp := e.do(t, http.MethodPost, "/api/v1/decisions/evaluate", `{"forecast_value":5000,"risk_score":80,"reliability":"Low"}`)
	require.Equal(t, http.StatusOK, code)
	var d models.DecisionOutcome
	require.NoError(t, json.Unmarshal(resp.Data, &d))
	assert.Equal(t, []models.Action{models.ActionSendEmailAlert, models.ActionCreateTask}, d.Actions)
	assert.Equal(t, models.PriorityHigh, d.Priority)

	// reliability defaults to High
	code, resp = e.do(t, http.MethodPost, "/api/v1/decisions/evaluate", `{"forecast_value":1000,"risk_score":10}`)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(resp.Data, &d))
	assert.Equal(t, []models.Action{models.ActionInventoryWarning}, d.Actions)

	code, _ = e.do(t, http.MethodPost, "/api/v1/decisions/evaluate", `{"forecast_value":1000,"risk_score":101}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

const oppJSON = `{"id":"006A","name":"Acme","amount":1000,"stage":"Proposal",
	"close_date":"2024-07-01T00:00:00Z","created_date":"2024-05-01T00:00:00Z","probability":50}`

func TestDeals(t *testing.T) {
	e := newEnv(0)

	code, resp := e.do(t, http.MethodGet, "/api/v1/risk/deals/open", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(resp.Data), `"Acme"`)

	code, resp = e.do(t, http.MethodPost, "/api/v1/risk/deals/score", oppJSON)
	require.Equal(t, http.StatusOK, code)
	var a models.DealRiskAssessment
	require.NoError(t, json.Unmarshal(resp.Data, &a))
	assert.Equal(t, "006A", a.OpportunityID)

	code, _ = e.do(t, http.MethodPost, "/api/v1/risk/deals/score", `{"id":"006A"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = e.do(t, http.MethodPost, "/api/v1/risk/deals/insights", oppJSON)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(resp.Data), "call them")

	code, _ = e.do(t, http.MethodPost, "/api/v1/risk/deals/backtest", `{"deals":[{"opportunity":`+oppJSON+`,"won":true}]}`)
	assert.Equal(t, http.StatusOK, code)

	code, _ = e.do(t, http.MethodPost, "/api/v1/risk/deals/backtest", `{"deals":[]}`)
	assert.Equal(t, http.StatusBadRequest, code)

	e.crm.err = errors.New("sf down")
	code, _ = e.do(t, http.MethodGet, "/api/v1/risk/deals/open", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestScoreMapsClassifierFailure(t *testing.T) {
	e := newEnv(0)
	e.srv = xhttp.NewServer([]xhttp.Handler{
		NewDealsHandler(xlogger.Nop(), e.crm, failingScorer{}, fakeInsighter{}, fakeBacktester{}, e.runner, nil),
	}, xhttp.WithMetricsPath(""))

	code, _ := e.do(t, http.MethodPost, "/api/v1/risk/deals/score", oppJSON)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestRunDaily(t *testing.T) {
	e := newEnv(0)

	code, resp := e.do(t, http.MethodPost, "/api/v1/risk/automation/run-daily", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, e.runner.daily)
	assert.Contains(t, string(resp.Data), `"run_id":"daily"`)

	code, resp = e.do(t, http.MethodPost, "/api/v1/risk/automation/run-daily", `{"opportunities":[`+oppJSON+`]}`)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, e.runner.ranWith, 1)
	assert.Contains(t, string(resp.Data), `"run_id":"posted"`)

	e.runner.dailyErr = usecase.ErrRunInProgress
	code, _ = e.do(t, http.MethodPost, "/api/v1/risk/automation/run-daily", "")
	assert.Equal(t, http.StatusConflict, code)
}

func TestHeavyRoutesAreRateLimited(t *testing.T) {
	e := newEnv(1)

	code, _ := e.do(t, http.MethodPost, "/api/v1/risk/automation/run-daily", "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = e.do(t, http.MethodPost, "/api/v1/risk/automation/run-daily", "")
	assert.Equal(t, http.StatusTooManyRequests, code)
	code, _ = e.do(t, http.MethodGet, "/api/v1/reports/weekly", "")
	assert.Equal(t, http.StatusTooManyRequests, code)

	// unlimited routes are unaffected
	code, _ = e.do(t, http.MethodGet, "/api/v1/forecast/next-week", "")
	assert.Equal(t, http.StatusOK, code)
}

func TestReports(t *testing.T) {
	e := newEnv(0)

	code, _ := e.do(t, http.MethodPost, "/api/v1/reports/generate", `{"date":"2019-01-05"}`)
	require.Equal(t, http.StatusOK, code)
	assert.False(t, e.reports.sendEmail)

	code, resp := e.do(t, http.MethodPost, "/api/v1/reports/email", `{"date":"2019-01-05","recipient":"vp@example.com"}`)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, e.reports.sendEmail)
	assert.Equal(t, "vp@example.com", e.reports.recipient)
	assert.Contains(t, string(resp.Data), `"email_sent":true`)

	code, _ = e.do(t, http.MethodPost, "/api/v1/reports/generate", `{"date":"2019-01-05","recipient":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = e.do(t, http.MethodGet, "/api/v1/reports/weekly", "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(resp.Data), `"high_risk_days":2`)
}

func TestCreateTask(t *testing.T) {
	e := newEnv(0)

	code, resp := e.do(t, http.MethodPost, "/api/v1/integrations/salesforce/create-task",
		`{"opportunity_id":"006A","subject":"Call back","due_date":"2024-06-03"}`)
	require.Equal(t, http.StatusCreated, code)
	var r createTaskResponse
	require.NoError(t, json.Unmarshal(resp.Data, &r))
	assert.Equal(t, "00T9", r.TaskID)
	assert.Equal(t, "https://force.com/006A", r.Link)

	assert.Equal(t, "006A", e.crm.task.WhatID)
	assert.Equal(t, "Normal", e.crm.task.Priority)
	require.NotNil(t, e.crm.task.ActivityDate)
	assert.Equal(t, day("2024-06-03"), *e.crm.task.ActivityDate)

	code, _ = e.do(t, http.MethodPost, "/api/v1/integrations/salesforce/create-task", `{"opportunity_id":"006A","subject":"x","priority":"Urgent"}`)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestHealthAndModelInfo(t *testing.T) {
	e := newEnv(0)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.srv.Echo().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var h healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &h))
	assert.Equal(t, "healthy", h.Status)
	assert.True(t, h.ModelsLoaded)
	assert.Equal(t, "mock", h.CRMMode)
	assert.Equal(t, APIVersion, h.APIVersion)

	code, resp := e.do(t, http.MethodGet, "/api/v1/models/info", "")
	require.Equal(t, http.StatusOK, code)
	var info models.ModelInfo
	require.NoError(t, json.Unmarshal(resp.Data, &info))
	assert.Equal(t, "sarima", info.SourceB)
	assert.True(t, info.Classifier)
}
