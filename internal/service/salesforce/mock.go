package salesforce

import (
	"context"
	"time"

	"SalesPulse/internal/domain/models"
	domsvc "SalesPulse/internal/domain/service"
	applogger "SalesPulse/pkg/logger"

	"github.com/google/uuid"
)

// Mock stands in for the CRM when no credentials are configured. Writes are
// logged and acknowledged.
type Mock struct {
	now func() time.Time
	log *applogger.Logger
}

func NewMock(l *applogger.Logger) *Mock {
	if l == nil {
		l = applogger.Nop()
	}
	return &Mock{now: time.Now, log: l.Component("salesforce_mock")}
}

func (m *Mock) ListOpenOpportunities(context.Context) ([]models.Opportunity, error) {
	now := m.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return []models.Opportunity{
		{
			ID:          "001",
			Name:        "Acme Corp Renewal",
			Amount:      125000,
			Stage:       models.StageNegotiation,
			Probability: 40,
			CloseDate:   today.AddDate(0, 0, 10),
			CreatedDate: now.AddDate(0, 0, -45),
		},
		{
			ID:          "002",
			Name:        "Globex Expansion",
			Amount:      45000,
			Stage:       models.StageQualification,
			Probability: 60,
			CloseDate:   today.AddDate(0, 0, 30),
			CreatedDate: now.AddDate(0, 0, -5),
		},
	}, nil
}

func (m *Mock) UpdateOpportunity(_ context.Context, id string, fields map[string]interface{}) error {
	m.log.Info("mock opportunity update", applogger.String("id", id), applogger.Any("fields", fields))
	return nil
}

func (m *Mock) CreateTask(_ context.Context, task models.Task) (models.TaskRef, error) {
	id := "sf_task_" + uuid.NewString()[:8]
	m.log.Info("mock task created", applogger.String("id", id), applogger.String("what_id", task.WhatID))
	return models.TaskRef{ID: id}, nil
}

func (m *Mock) OpportunityURL(id string) string { return "https://force.com/" + id }

var _ domsvc.CRMClient = (*Mock)(nil)
