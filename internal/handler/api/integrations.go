package api

import (
	"SalesPulse/internal/domain/models"
	domsvc "SalesPulse/internal/domain/service"
	xhttp "SalesPulse/pkg/http"
	xlogger "SalesPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// IntegrationsHandler exposes direct CRM writes.
type IntegrationsHandler struct {
	logger *xlogger.Logger
	crm    domsvc.CRMClient
}

func NewIntegrationsHandler(logger *xlogger.Logger, crm domsvc.CRMClient) *IntegrationsHandler {
	return &IntegrationsHandler{logger: logger.Component("integrations_api"), crm: crm}
}

func (h *IntegrationsHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/v1/integrations/salesforce/create-task", h.CreateTask)
}

type createTaskResponse struct {
	TaskID  string `json:"task_id"`
	Success bool   `json:"success"`
	Link    string `json:"link"`
}

func (h *IntegrationsHandler) CreateTask(c echo.Context) error {
	req := &models.CreateTaskRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	task := models.Task{
		Subject:     req.Subject,
		Description: req.Description,
		WhatID:      req.OpportunityID,
		Priority:    req.Priority,
		Status:      "Not Started",
	}
	if req.DueDate != "" {
		due, err := parseDate("due_date", req.DueDate)
		if err != nil {
			return xhttp.AppErrorResponse(c, err)
		}
		task.ActivityDate = &due
	}

	ref, err := h.crm.CreateTask(c.Request().Context(), task)
	if err != nil {
		h.logger.Error("create task failed", xlogger.String("opportunity_id", req.OpportunityID), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("CRM unavailable").WithError(err))
	}
	return xhttp.CreatedResponse(c, createTaskResponse{
		TaskID:  ref.ID,
		Success: true,
		Link:    h.crm.OpportunityURL(req.OpportunityID),
	})
}
