package api

import (
	"SalesPulse/internal/domain/models"
	xhttp "SalesPulse/pkg/http"

	"github.com/labstack/echo/v4"
)

type DecisionsHandler struct {
	engine DecisionEvaluator
}

func NewDecisionsHandler(engine DecisionEvaluator) *DecisionsHandler {
	return &DecisionsHandler{engine: engine}
}

func (h *DecisionsHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/v1/decisions/evaluate", h.Evaluate)
}

func (h *DecisionsHandler) Evaluate(c echo.Context) error {
	req := &models.EvaluateDecisionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	risk := models.RiskAssessment{
		RiskScore:   req.RiskScore,
		Reliability: models.Reliability(req.Reliability),
		IsAnomaly:   req.IsAnomaly,
	}
	return xhttp.SuccessResponse(c, h.engine.Evaluate(req.ForecastValue, risk))
}
