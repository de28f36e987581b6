package usecase

import (
	"context"
	"fmt"
	"time"

	"SalesPulse/internal/domain/models"
	"SalesPulse/internal/domain/service"
	"SalesPulse/internal/services/decision"
	applogger "SalesPulse/pkg/logger"
	"SalesPulse/pkg/queue"
)

// Reports builds per-day forecast reports and the weekly outlook.
type Reports struct {
	forecasts        *ForecastService
	decisions        *decision.Engine
	insights         service.TextInsightClient
	mailer           service.ReportMailer
	defaultRecipient string
	retry            queue.Enqueuer
	now              func() time.Time
	log              *applogger.Logger
}

// NewReports wires the report builder. mailer may be nil, in which case
// email delivery is skipped.
func NewReports(
	forecasts *ForecastService,
	decisions *decision.Engine,
	insights service.TextInsightClient,
	mailer service.ReportMailer,
	defaultRecipient string,
	l *applogger.Logger,
) *Reports {
	if l == nil {
		l = applogger.Nop()
	}
	return &Reports{
		forecasts:        forecasts,
		decisions:        decisions,
		insights:         insights,
		mailer:           mailer,
		defaultRecipient: defaultRecipient,
		now:              time.Now,
		log:              l.Component("reports"),
	}
}

// SetEmailRetry queues failed report emails for background redelivery.
func (r *Reports) SetEmailRetry(q queue.Enqueuer) { r.retry = q }

// Generate predicts date, assesses and decides on it, asks for a written
// explanation and optionally emails the result. A failed email does not
// fail the report; EmailSent reports the outcome.
func (r *Reports) Generate(ctx context.Context, date time.Time, sendEmail bool, recipient string) (models.ForecastReport, error) {
	f, err := r.forecasts.Predict(ctx, date)
	if err != nil {
		return models.ForecastReport{}, fmt.Errorf("generate report: %w", err)
	}
	risk := r.forecasts.AssessForecast(ctx, f)
	explanation := r.insights.Generate(ctx, forecastExplanationPrompt(f, risk), forecastSystemPrompt)

	report := models.ForecastReport{
		Date:        f.Date,
		Forecast:    f,
		Risk:        risk,
		Decision:    r.decisions.Evaluate(f.Ensemble, risk),
		Explanation: explanation.Text,
		GeneratedAt: r.now(),
	}

	if sendEmail {
		report.EmailSent = r.send(ctx, report, recipient)
	}
	return report, nil
}

func (r *Reports) send(ctx context.Context, report models.ForecastReport, recipient string) bool {
	if recipient == "" {
		recipient = r.defaultRecipient
	}
	if r.mailer == nil || recipient == "" {
		r.log.Warn("report email skipped", applogger.Bool("mailer", r.mailer != nil), applogger.String("recipient", recipient))
		return false
	}
	if err := r.mailer.SendReport(ctx, report, recipient); err != nil {
		r.log.Error("report email failed", applogger.String("recipient", recipient), applogger.Error(err))
		if r.retry != nil {
			if qerr := r.retry.Enqueue(ctx, ReportEmailJobType, reportEmail{Report: report, Recipient: recipient}); qerr != nil {
				r.log.Warn("report email retry not queued", applogger.Error(qerr))
			}
		}
		return false
	}
	r.log.Info("report emailed", applogger.String("recipient", recipient), applogger.Date("date", report.Date))
	return true
}

// Weekly returns the next-week outlook with a risk score and decision
// priority per day.
func (r *Reports) Weekly(ctx context.Context) (models.WeeklyReport, error) {
	wf, err := r.forecasts.NextWeek(ctx)
	if err != nil {
		return models.WeeklyReport{}, fmt.Errorf("weekly report: %w", err)
	}

	out := models.WeeklyReport{
		StartDate:    wf.StartDate,
		EndDate:      wf.EndDate,
		AverageDaily: wf.AverageDaily,
		Days:         make([]models.WeeklyReportDay, 0, len(wf.Forecasts)),
	}
	for _, f := range wf.Forecasts {
		risk := r.forecasts.AssessForecast(ctx, f)
		if risk.RiskLevel == models.RiskHigh {
			out.HighRiskDays++
		}
		out.Days = append(out.Days, models.WeeklyReportDay{
			Date:      f.Date,
			Forecast:  f.Ensemble,
			RiskScore: risk.RiskScore,
			RiskLevel: risk.RiskLevel,
			Priority:  r.decisions.Evaluate(f.Ensemble, risk).Priority,
		})
	}
	return out, nil
}
