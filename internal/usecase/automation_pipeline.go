package usecase

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"SalesPulse/internal/domain/models"
	"SalesPulse/internal/domain/repository"
	"SalesPulse/internal/domain/service"
	"SalesPulse/internal/service/cache"
	applogger "SalesPulse/pkg/logger"

	"github.com/google/uuid"
)

// ErrRunInProgress is returned by RunDaily when another run holds the lock.
var ErrRunInProgress = errors.New("automation run already in progress")

const dailyLockKey = "automation:daily"

// attentionBelow is the win probability under which a deal always gets a
// follow-up, whatever its category.
const attentionBelow = 0.5

// DealScorer scores a single opportunity.
type DealScorer interface {
	PredictRisk(ctx context.Context, opp models.Opportunity) (models.DealRiskAssessment, error)
}

// AutomationPipeline scores opportunities and fans out CRM updates, tasks
// and alerts. Items are processed sequentially; one failing item never
// stops the run.
type AutomationPipeline struct {
	scorer    DealScorer
	crm       service.CRMClient
	insights  service.TextInsightClient
	notifier  service.Notifier
	publisher repository.AssessmentPublisher
	metrics   repository.Metrics
	locker    cache.Locker
	lockTTL   time.Duration
	now       func() time.Time
	log       *applogger.Logger
}

type PipelineOption func(*AutomationPipeline)

// WithPublisher streams every assessment and the run summary.
func WithPublisher(p repository.AssessmentPublisher) PipelineOption {
	return func(a *AutomationPipeline) { a.publisher = p }
}

func WithPipelineMetrics(m repository.Metrics) PipelineOption {
	return func(a *AutomationPipeline) { a.metrics = m }
}

// WithRunLock serializes RunDaily across replicas.
func WithRunLock(l cache.Locker, ttl time.Duration) PipelineOption {
	return func(a *AutomationPipeline) {
		a.locker = l
		a.lockTTL = ttl
	}
}

func WithPipelineLogger(l *applogger.Logger) PipelineOption {
	return func(a *AutomationPipeline) { a.log = l }
}

func NewAutomationPipeline(
	scorer DealScorer,
	crm service.CRMClient,
	insights service.TextInsightClient,
	notifier service.Notifier,
	opts ...PipelineOption,
) *AutomationPipeline {
	p := &AutomationPipeline{
		scorer:   scorer,
		crm:      crm,
		insights: insights,
		notifier: notifier,
		lockTTL:  15 * time.Minute,
		now:      time.Now,
		log:      applogger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.Component("automation")
	return p
}

// itemOutcome is what processing one opportunity produced. Side effects that
// happened before a failure are still counted.
type itemOutcome struct {
	id          string
	taskCreated bool
	alertSent   bool
	err         error
}

// RunDaily processes every open opportunity in the CRM.
func (p *AutomationPipeline) RunDaily(ctx context.Context) (models.PipelineRunResult, error) {
	if p.locker != nil {
		ok, err := p.locker.TryLock(ctx, dailyLockKey, p.lockTTL)
		if err != nil {
			p.log.Warn("run lock unavailable, continuing unlocked", applogger.Error(err))
		} else if !ok {
			return models.PipelineRunResult{}, ErrRunInProgress
		} else {
			defer func() {
				if err := p.locker.Unlock(context.WithoutCancel(ctx), dailyLockKey); err != nil {
					p.log.Warn("run unlock failed", applogger.Error(err))
				}
			}()
		}
	}

	opps, err := p.crm.ListOpenOpportunities(ctx)
	if err != nil {
		return models.PipelineRunResult{}, fmt.Errorf("list open opportunities: %w", err)
	}
	return p.Run(ctx, opps), nil
}

// Run processes opps in order and returns the run counters.
func (p *AutomationPipeline) Run(ctx context.Context, opps []models.Opportunity) models.PipelineRunResult {
	res := models.PipelineRunResult{RunID: uuid.NewString(), StartedAt: p.now()}
	log := p.log.With(applogger.String("run_id", res.RunID))
	log.Info("automation run started", applogger.Int("opportunities", len(opps)))

	for _, opp := range opps {
		out := p.process(ctx, log, res.RunID, opp)
		if out.taskCreated {
			res.TasksCreated++
		}
		if out.alertSent {
			res.AlertsSent++
		}
		if out.err != nil {
			res.Errors++
			res.Failures = append(res.Failures, models.ItemFailure{OpportunityID: out.id, Error: out.err.Error()})
			log.Error("opportunity failed", applogger.String("opportunity_id", out.id), applogger.Error(out.err))
			p.recordItem("error")
			continue
		}
		res.Processed++
		p.recordItem("processed")
	}

	res.Duration = p.now().Sub(res.StartedAt)
	if p.metrics != nil {
		p.metrics.RecordLatency("automation_run", res.Duration.Seconds())
	}
	if p.publisher != nil {
		if err := p.publisher.PublishRunResult(ctx, res); err != nil {
			log.Warn("publish run result failed", applogger.Error(err))
		}
	}

	log.Info("automation run finished",
		applogger.Int("processed", res.Processed),
		applogger.Int("tasks_created", res.TasksCreated),
		applogger.Int("alerts_sent", res.AlertsSent),
		applogger.Int("errors", res.Errors),
		applogger.Duration("duration_ms", res.Duration),
	)
	return res
}

func (p *AutomationPipeline) process(ctx context.Context, log *applogger.Logger, runID string, opp models.Opportunity) (out itemOutcome) {
	out.id = opp.ID
	defer func() {
		if r := recover(); r != nil {
			out.err = fmt.Errorf("panic: %v", r)
			log.Debug("recovered panic", applogger.String("opportunity_id", opp.ID), applogger.String("stack", string(debug.Stack())))
		}
	}()

	a, err := p.scorer.PredictRisk(ctx, opp)
	if err != nil {
		out.err = fmt.Errorf("score: %w", err)
		return out
	}

	fields := map[string]interface{}{
		models.FieldRiskScore:    a.RiskScore,
		models.FieldRiskCategory: string(a.RiskCategory),
	}
	if err := p.crm.UpdateOpportunity(ctx, opp.ID, fields); err != nil {
		out.err = fmt.Errorf("update opportunity: %w", err)
		return out
	}

	if p.publisher != nil {
		if err := p.publisher.PublishAssessment(ctx, runID, a); err != nil {
			log.Warn("publish assessment failed", applogger.String("opportunity_id", opp.ID), applogger.Error(err))
		}
	}

	if a.RiskCategory != models.CategoryHigh && a.WinProbability >= attentionBelow {
		return out
	}

	insight := p.insights.Generate(ctx, dealInsightPrompt(opp, a), dealSystemPrompt)

	_, err = p.crm.CreateTask(ctx, models.Task{
		Subject:     "High Risk Follow-up: " + opp.Name,
		Description: insight.Text,
		WhatID:      opp.ID,
		OwnerID:     opp.OwnerID,
		Priority:    "High",
		Status:      "Not Started",
	})
	if err != nil {
		out.err = fmt.Errorf("create task: %w", err)
		return out
	}
	out.taskCreated = true

	alert := dealAlert(opp, a, p.crm.OpportunityURL(opp.ID))
	alert.SentAt = p.now()
	if err := p.notifier.SendAlert(ctx, alert); err != nil {
		out.err = fmt.Errorf("send alert: %w", err)
		return out
	}
	out.alertSent = true
	return out
}

func (p *AutomationPipeline) recordItem(outcome string) {
	if p.metrics != nil {
		p.metrics.RecordPipelineItem(outcome)
	}
}
