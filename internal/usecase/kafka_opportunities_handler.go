package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"SalesPulse/internal/domain/models"
	"SalesPulse/internal/domain/repository"
	xhttp "SalesPulse/pkg/http"
	applogger "SalesPulse/pkg/logger"
)

// KafkaOpportunitiesHandler runs the automation pipeline for opportunity
// batches pushed onto a topic. The payload is the same JSON body accepted
// by the run endpoint.
type KafkaOpportunitiesHandler struct {
	topic    string
	pipeline *AutomationPipeline
	metrics  repository.Metrics
	log      *applogger.Logger
}

func NewKafkaOpportunitiesHandler(topic string, pipeline *AutomationPipeline, metrics repository.Metrics, l *applogger.Logger) *KafkaOpportunitiesHandler {
	if l == nil {
		l = applogger.Nop()
	}
	return &KafkaOpportunitiesHandler{topic: topic, pipeline: pipeline, metrics: metrics, log: l.Component("kafka_opportunities")}
}

func (h *KafkaOpportunitiesHandler) Topic() string { return h.topic }

// Handle fails only on malformed messages. Per-opportunity failures are
// part of the run result, not a reason to redeliver the batch.
func (h *KafkaOpportunitiesHandler) Handle(ctx context.Context, b []byte) error {
	var req models.RunAutomationRequest
	if err := json.Unmarshal(b, &req); err != nil {
		h.recordError("consumer_unmarshal")
		return fmt.Errorf("decode opportunities: %w", err)
	}
	if err := xhttp.Validate(&req); err != nil {
		h.recordError("consumer_validate")
		return fmt.Errorf("validate opportunities: %w", err)
	}
	if len(req.Opportunities) == 0 {
		return nil
	}

	res := h.pipeline.Run(ctx, req.Opportunities)
	h.log.Debug("batch processed",
		applogger.String("run_id", res.RunID),
		applogger.Int("processed", res.Processed),
		applogger.Int("errors", res.Errors),
	)
	return nil
}

func (h *KafkaOpportunitiesHandler) recordError(kind string) {
	if h.metrics != nil {
		h.metrics.RecordError(kind)
	}
}
