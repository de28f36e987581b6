package api

import (
	"time"

	"SalesPulse/internal/domain/models"
	domsvc "SalesPulse/internal/domain/service"
	xhttp "SalesPulse/pkg/http"
	"SalesPulse/pkg/http/middleware"
	xlogger "SalesPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// DealsHandler serves deal scoring, insights, backtests and the
// automation trigger.
type DealsHandler struct {
	logger     *xlogger.Logger
	crm        domsvc.CRMClient
	scorer     DealScorer
	insights   DealInsighter
	backtester Backtester
	automation AutomationRunner
	limiter    middleware.Allower
}

func NewDealsHandler(
	logger *xlogger.Logger,
	crm domsvc.CRMClient,
	scorer DealScorer,
	insights DealInsighter,
	backtester Backtester,
	automation AutomationRunner,
	limiter middleware.Allower,
) *DealsHandler {
	return &DealsHandler{
		logger:     logger.Component("deals_api"),
		crm:        crm,
		scorer:     scorer,
		insights:   insights,
		backtester: backtester,
		automation: automation,
		limiter:    limiter,
	}
}

func (h *DealsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1/risk")
	g.GET("/deals/open", h.Open)
	g.POST("/deals/score", h.Score)
	g.POST("/deals/insights", h.Insights)
	g.POST("/deals/backtest", h.Backtest)

	var mw []echo.MiddlewareFunc
	if h.limiter != nil {
		mw = append(mw, middleware.RateLimit(h.limiter))
	}
	g.POST("/automation/run-daily", h.RunDaily, mw...)
}

func (h *DealsHandler) Open(c echo.Context) error {
	opps, err := h.crm.ListOpenOpportunities(c.Request().Context())
	if err != nil {
		h.logger.Error("list open deals failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("CRM unavailable").WithError(err))
	}
	if opps == nil {
		opps = []models.Opportunity{}
	}
	return xhttp.ListResponse(c, opps, int64(len(opps)))
}

func (h *DealsHandler) Score(c echo.Context) error {
	opp := &models.Opportunity{}
	if verr := xhttp.ReadAndValidateRequest(c, opp); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.scorer.PredictRisk(c.Request().Context(), *opp)
	if err != nil {
		h.logger.Error("score deal failed", xlogger.String("id", opp.ID), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DealsHandler) Insights(c echo.Context) error {
	opp := &models.Opportunity{}
	if verr := xhttp.ReadAndValidateRequest(c, opp); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.insights.Insights(c.Request().Context(), *opp)
	if err != nil {
		h.logger.Error("deal insights failed", xlogger.String("id", opp.ID), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *DealsHandler) Backtest(c echo.Context) error {
	req := &models.BacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.backtester.Backtest(c.Request().Context(), req.Deals)
	if err != nil {
		h.logger.Error("backtest failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

// RunDaily runs the pipeline over the posted opportunities, or over every
// open CRM opportunity when none are posted.
func (h *DealsHandler) RunDaily(c echo.Context) error {
	req := &models.RunAutomationRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx := c.Request().Context()

	start := time.Now()
	var (
		res models.PipelineRunResult
		err error
	)
	if len(req.Opportunities) > 0 {
		res = h.automation.Run(ctx, req.Opportunities)
	} else {
		res, err = h.automation.RunDaily(ctx)
	}
	if err != nil {
		h.logger.Error("automation run failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, appError(err))
	}
	h.logger.Info("automation run finished",
		xlogger.String("run_id", res.RunID),
		xlogger.Int("processed", res.Processed),
		xlogger.Int("errors", res.Errors),
		xlogger.Duration("took", time.Since(start)),
	)
	return xhttp.SuccessResponse(c, res)
}
