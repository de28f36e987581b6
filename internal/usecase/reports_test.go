package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"SalesPulse/internal/domain/models"
	"SalesPulse/internal/service/cache"
	"SalesPulse/internal/services/decision"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	sent []string
	err  error
}

func (m *fakeMailer) SendReport(_ context.Context, _ models.ForecastReport, recipient string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, recipient)
	return nil
}

type fakeAnomaly struct {
	flag bool
	err  error
}

func (a fakeAnomaly) IsAnomaly(context.Context, time.Time, float64) (bool, error) {
	return a.flag, a.err
}

func TestGenerateReport(t *testing.T) {
	mailer := &fakeMailer{}
	insights := &fakeInsights{}
	svc := NewForecastService(flatEnsembler(t))
	r := NewReports(svc, decision.NewEngine(2000), insights, mailer, "ops@example.com", nil)

	rep, err := r.Generate(context.Background(), day("2019-01-05"), true, "")
	require.NoError(t, err)

	assert.Equal(t, day("2019-01-05"), rep.Date)
	assert.Equal(t, models.ForecastFuture, rep.Forecast.Kind)
	assert.Equal(t, models.RiskLow, rep.Risk.RiskLevel)
	// 1000 is under the critical threshold
	assert.Equal(t, []models.Action{models.ActionInventoryWarning}, rep.Decision.Actions)
	assert.Equal(t, "call them", rep.Explanation)
	assert.True(t, rep.EmailSent)
	assert.Equal(t, []string{"ops@example.com"}, mailer.sent)
	require.Len(t, insights.prompts, 1)
	assert.Contains(t, insights.prompts[0], "Date: 2019-01-05")
	assert.Contains(t, insights.prompts[0], "Predicted: $1,000.00")
}

func TestGenerateReportEmailFailureIsReported(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("smtp auth")}
	r := NewReports(NewForecastService(flatEnsembler(t)), decision.NewEngine(0), &fakeInsights{}, mailer, "", nil)

	rep, err := r.Generate(context.Background(), day("2019-01-05"), true, "cfo@example.com")
	require.NoError(t, err)
	assert.False(t, rep.EmailSent)

	r = NewReports(NewForecastService(flatEnsembler(t)), decision.NewEngine(0), &fakeInsights{}, nil, "", nil)
	rep, err = r.Generate(context.Background(), day("2019-01-05"), true, "cfo@example.com")
	require.NoError(t, err)
	assert.False(t, rep.EmailSent)
}

func TestWeeklyReport(t *testing.T) {
	svc := NewForecastService(flatEnsembler(t), WithForecastCache(cache.NewTTLCache(), time.Minute))
	r := NewReports(svc, decision.NewEngine(500), &fakeInsights{}, nil, "", nil)

	w, err := r.Weekly(context.Background())
	require.NoError(t, err)
	assert.Equal(t, day("2018-12-31"), w.StartDate)
	assert.Equal(t, day("2019-01-06"), w.EndDate)
	assert.InDelta(t, 1000, w.AverageDaily, 1e-9)
	assert.Zero(t, w.HighRiskDays)
	require.Len(t, w.Days, 7)
	for _, d := range w.Days {
		assert.Equal(t, models.PriorityLow, d.Priority)
	}

	// second call is served from cache
	again, err := r.Weekly(context.Background())
	require.NoError(t, err)
	assert.Equal(t, w.StartDate.Unix(), again.StartDate.Unix())
	assert.Len(t, again.Days, 7)
}

func TestAssessRisk(t *testing.T) {
	svc := NewForecastService(flatEnsembler(t), WithAnomalyDetector(fakeAnomaly{flag: true}))

	v := 3000.0
	a, err := svc.AssessRisk(context.Background(), day("2019-01-02"), &v, nil)
	require.NoError(t, err)
	assert.True(t, a.IsAnomaly)
	assert.Equal(t, 200.0, a.DeviationFromMean)
	assert.Equal(t, 55, a.RiskScore)

	a, err = svc.AssessRisk(context.Background(), day("2019-01-02"), nil, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1000, a.ForecastValue, 1e-9)
	assert.Equal(t, 0, a.RiskScore)

	svc = NewForecastService(flatEnsembler(t), WithAnomalyDetector(fakeAnomaly{err: errors.New("timeout")}))
	a, err = svc.AssessRisk(context.Background(), day("2019-01-02"), &v, nil)
	require.NoError(t, err)
	assert.False(t, a.IsAnomaly)
}

func TestModelInfo(t *testing.T) {
	info := NewForecastService(flatEnsembler(t), WithModelVersion("2.1.0")).ModelInfo()
	assert.Equal(t, "a", info.SourceA)
	assert.Equal(t, "b", info.SourceB)
	assert.Equal(t, 0.4, info.WeightA)
	assert.Equal(t, "2.1.0", info.ModelVersion)
	assert.Equal(t, day("2018-12-30"), info.LastTrainedDate)
	assert.Equal(t, 60, info.TrainingSamples)
}

type fakeEnqueuer struct {
	types    []string
	payloads []interface{}
}

func (q *fakeEnqueuer) Enqueue(_ context.Context, msgType string, payload interface{}) error {
	q.types = append(q.types, msgType)
	q.payloads = append(q.payloads, payload)
	return nil
}

func TestFailedReportEmailIsQueued(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("smtp down")}
	q := &fakeEnqueuer{}
	r := NewReports(NewForecastService(flatEnsembler(t)), decision.NewEngine(0), &fakeInsights{}, mailer, "ops@example.com", nil)
	r.SetEmailRetry(q)

	rep, err := r.Generate(context.Background(), day("2019-01-05"), true, "")
	require.NoError(t, err)
	assert.False(t, rep.EmailSent)
	require.Equal(t, []string{ReportEmailJobType}, q.types)
	queued, ok := q.payloads[0].(reportEmail)
	require.True(t, ok)
	assert.Equal(t, "ops@example.com", queued.Recipient)
	assert.Equal(t, day("2019-01-05"), queued.Report.Date)

	// delivered inline, nothing queued
	mailer.err = nil
	_, err = r.Generate(context.Background(), day("2019-01-05"), true, "")
	require.NoError(t, err)
	assert.Len(t, q.types, 1)
}

func TestReportEmailJob(t *testing.T) {
	mailer := &fakeMailer{}
	job := NewReportEmailJob(mailer)
	assert.Equal(t, ReportEmailJobType, job.Type())

	payload, err := json.Marshal(reportEmail{Report: models.ForecastReport{Date: day("2019-01-05")}, Recipient: "cfo@example.com"})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), payload))
	assert.Equal(t, []string{"cfo@example.com"}, mailer.sent)

	assert.Error(t, job.Handle(context.Background(), json.RawMessage(`{"report":{}}`)))
	assert.Error(t, job.Handle(context.Background(), nil))

	mailer.err = errors.New("smtp down")
	assert.ErrorContains(t, job.Handle(context.Background(), payload), "smtp down")
}
