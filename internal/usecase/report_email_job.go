package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"SalesPulse/internal/domain/models"
	"SalesPulse/internal/domain/service"
	"SalesPulse/pkg/queue"
)

// ReportEmailJobType routes queued report emails.
const ReportEmailJobType = "report_email"

type reportEmail struct {
	Report    models.ForecastReport `json:"report"`
	Recipient string                `json:"recipient"`
}

// ReportEmailJob redelivers report emails that failed inline.
type ReportEmailJob struct {
	mailer service.ReportMailer
}

func NewReportEmailJob(mailer service.ReportMailer) *ReportEmailJob {
	return &ReportEmailJob{mailer: mailer}
}

func (j *ReportEmailJob) Name() string { return "report-email" }

func (j *ReportEmailJob) Type() string { return ReportEmailJobType }

func (j *ReportEmailJob) Handle(ctx context.Context, payload json.RawMessage) error {
	msg, err := queue.Decode[reportEmail](payload)
	if err != nil {
		return err
	}
	if msg.Recipient == "" {
		return fmt.Errorf("report email for %s has no recipient", msg.Report.Date.Format("2006-01-02"))
	}
	return j.mailer.SendReport(ctx, msg.Report, msg.Recipient)
}

var _ queue.Job = (*ReportEmailJob)(nil)
