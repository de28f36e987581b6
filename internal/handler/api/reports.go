package api

import (
	"SalesPulse/internal/domain/models"
	xhttp "SalesPulse/pkg/http"
	"SalesPulse/pkg/http/middleware"
	xlogger "SalesPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ReportsHandler serves forecast reports. Generation calls the text model,
// so every route is rate limited.
type ReportsHandler struct {
	logger  *xlogger.Logger
	reports ReportBuilder
	limiter middleware.Allower
}

func NewReportsHandler(logger *xlogger.Logger, reports ReportBuilder, limiter middleware.Allower) *ReportsHandler {
	return &ReportsHandler{logger: logger.Component("reports_api"), reports: reports, limiter: limiter}
}

func (h *ReportsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1/reports")
	if h.limiter != nil {
		g.Use(middleware.RateLimit(h.limiter))
	}
	g.POST("/generate", h.Generate)
	g.POST("/email", h.Email)
	g.GET("/weekly", h.Weekly)
}

func (h *ReportsHandler) Generate(c echo.Context) error {
	return h.generate(c, false)
}

// Email is Generate with send_email forced on.
func (h *ReportsHandler) Email(c echo.Context) error {
	return h.generate(c, true)
}

func (h *ReportsHandler) generate(c echo.Context, forceEmail bool) error {
	req := &models.GenerateReportRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}

	report, err := h.reports.Generate(c.Request().Context(), date, req.SendEmail || forceEmail, req.Recipient)
	if err != nil {
		h.logger.Error("generate report failed", xlogger.String("date", req.Date), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appError(err))
	}
	return xhttp.SuccessResponse(c, report)
}

func (h *ReportsHandler) Weekly(c echo.Context) error {
	report, err := h.reports.Weekly(c.Request().Context())
	if err != nil {
		h.logger.Error("weekly report failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appError(err))
	}
	return xhttp.SuccessResponse(c, report)
}
