package api

import (
	"SalesPulse/internal/domain/models"
	xhttp "SalesPulse/pkg/http"
	xlogger "SalesPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ForecastHandler serves ensemble forecasts and forecast risk.
type ForecastHandler struct {
	logger    *xlogger.Logger
	forecasts Forecaster
	window    RiskAnalyzer
}

func NewForecastHandler(logger *xlogger.Logger, forecasts Forecaster, window RiskAnalyzer) *ForecastHandler {
	return &ForecastHandler{logger: logger.Component("forecast_api"), forecasts: forecasts, window: window}
}

func (h *ForecastHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1/forecast")
	g.POST("/predict", h.Predict)
	g.POST("/batch", h.Batch)
	g.GET("/next-week", h.NextWeek)

	r := e.Group("/api/v1/risk")
	r.POST("/assess", h.Assess)
	r.GET("/analysis", h.Analysis)
}

type batchResponse struct {
	StartDate        string                  `json:"start_date"`
	EndDate          string                  `json:"end_date"`
	TotalPredictions int                     `json:"total_predictions"`
	Predictions      []models.ForecastResult `json:"predictions"`
}

func (h *ForecastHandler) Predict(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}

	res, err := h.forecasts.Predict(c.Request().Context(), date)
	if err != nil {
		h.logger.Error("predict failed", xlogger.String("date", req.Date), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastHandler) Batch(c echo.Context) error {
	req := &models.BatchPredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}

	preds, err := h.forecasts.BatchPredict(c.Request().Context(), start, end)
	if err != nil {
		h.logger.Error("batch predict failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appError(err))
	}
	return xhttp.SuccessResponse(c, batchResponse{
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		TotalPredictions: len(preds),
		Predictions:      preds,
	})
}

func (h *ForecastHandler) NextWeek(c echo.Context) error {
	res, err := h.forecasts.NextWeek(c.Request().Context())
	if err != nil {
		h.logger.Error("next week failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appError(err))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastHandler) Assess(c echo.Context) error {
	req := &models.AssessRiskRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}

	res, err := h.forecasts.AssessRisk(c.Request().Context(), date, req.ForecastValue, req.ConfidenceInterval)
	if err != nil {
		h.logger.Error("assess risk failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

// Analysis returns persisted risk rows merged with generated ones for the
// optional start_date/end_date window.
func (h *ForecastHandler) Analysis(c echo.Context) error {
	start, err := xhttp.QueryDate(c, "start_date")
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	end, err := xhttp.QueryDate(c, "end_date")
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}

	rows, err := h.window.Analyze(c.Request().Context(), start, end)
	if err != nil {
		h.logger.Error("risk analysis failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appError(err))
	}
	if rows == nil {
		rows = []models.RiskRow{}
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}
