package repository

import (
	"context"

	"SalesPulse/internal/domain/models"
	domrepo "SalesPulse/internal/domain/repository"
	pkgkafka "SalesPulse/pkg/kafka"
)

const (
	eventAssessment = "deal_risk_assessed"
	eventRunResult  = "automation_run_finished"
)

// assessmentEvent is the wire shape of one scored deal.
type assessmentEvent struct {
	RunID      string                    `json:"run_id"`
	Assessment models.DealRiskAssessment `json:"assessment"`
}

// KafkaAssessmentPublisher streams pipeline output to a topic, keyed by
// opportunity id so one deal's history stays ordered.
type KafkaAssessmentPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaAssessmentPublisher(producer *pkgkafka.Producer, topic string) *KafkaAssessmentPublisher {
	return &KafkaAssessmentPublisher{producer: producer, topic: topic}
}

func (p *KafkaAssessmentPublisher) PublishAssessment(ctx context.Context, runID string, a models.DealRiskAssessment) error {
	return p.producer.Publish(ctx, p.topic, []byte(a.OpportunityID),
		assessmentEvent{RunID: runID, Assessment: a},
		pkgkafka.Header{Key: "event", Value: eventAssessment},
	)
}

func (p *KafkaAssessmentPublisher) PublishRunResult(ctx context.Context, r models.PipelineRunResult) error {
	return p.producer.Publish(ctx, p.topic, []byte(r.RunID), r,
		pkgkafka.Header{Key: "event", Value: eventRunResult},
	)
}

func (p *KafkaAssessmentPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

var _ domrepo.AssessmentPublisher = (*KafkaAssessmentPublisher)(nil)
