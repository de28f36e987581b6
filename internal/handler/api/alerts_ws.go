package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// AlertStream upgrades dashboard connections for the live alert feed.
type AlertStream interface {
	HandleWebSocket(w http.ResponseWriter, r *http.Request)
}

type AlertsHandler struct {
	stream AlertStream
}

func NewAlertsHandler(stream AlertStream) *AlertsHandler {
	return &AlertsHandler{stream: stream}
}

func (h *AlertsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/alerts", echo.WrapHandler(http.HandlerFunc(h.stream.HandleWebSocket)))
}
