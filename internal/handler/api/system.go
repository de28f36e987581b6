package api

import (
	"net/http"

	xhttp "SalesPulse/pkg/http"

	"github.com/labstack/echo/v4"
)

// APIVersion is reported by /health.
const APIVersion = "1.0.0"

// SystemStatus describes what was loaded at startup.
type SystemStatus struct {
	ClassifierLoaded bool
	CRMMode          string
	InsightsEnabled  bool
}

type SystemHandler struct {
	forecasts Forecaster
	status    SystemStatus
}

func NewSystemHandler(forecasts Forecaster, status SystemStatus) *SystemHandler {
	return &SystemHandler{forecasts: forecasts, status: status}
}

func (h *SystemHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.GET("/api/v1/models/info", h.ModelInfo)
}

type healthResponse struct {
	Status       string `json:"status"`
	ModelsLoaded bool   `json:"models_loaded"`
	Classifier   bool   `json:"deal_classifier_loaded"`
	CRMMode      string `json:"crm_mode"`
	Insights     bool   `json:"insights_enabled"`
	APIVersion   string `json:"api_version"`
}

// Health is plain JSON, outside the API envelope, for load balancers.
func (h *SystemHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Status:       "healthy",
		ModelsLoaded: h.forecasts != nil,
		Classifier:   h.status.ClassifierLoaded,
		CRMMode:      h.status.CRMMode,
		Insights:     h.status.InsightsEnabled,
		APIVersion:   APIVersion,
	})
}

func (h *SystemHandler) ModelInfo(c echo.Context) error {
	info := h.forecasts.ModelInfo()
	info.Classifier = h.status.ClassifierLoaded
	return xhttp.SuccessResponse(c, info)
}
