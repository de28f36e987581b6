// Package slack posts alerts to a Slack channel through the Web API.
package slack

import (
	"context"
	"fmt"

	"SalesPulse/internal/domain/models"
	domsvc "SalesPulse/internal/domain/service"
	xhttp "SalesPulse/pkg/http"
	applogger "SalesPulse/pkg/logger"
)

const (
	defaultAPIURL  = "https://slack.com/api"
	defaultChannel = "#sales-alerts"
	footer         = "SalesOps AI Agent"
)

// Attachment colors by severity.
const (
	ColorCritical = "#ff0000"
	ColorWarning  = "#ff9900"
	ColorInfo     = "#36a64f"
)

type Option func(*Client)

func WithAPIURL(u string) Option {
	return func(c *Client) { c.apiURL = u }
}

func WithHTTPClient(hc *xhttp.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// Client sends alerts with chat.postMessage. Without a bot token alerts
// are only logged.
type Client struct {
	token   string
	channel string
	apiURL  string
	http    *xhttp.Client
	log     *applogger.Logger
}

func NewClient(token, channel string, opts ...Option) *Client {
	if channel == "" {
		channel = defaultChannel
	}
	c := &Client{
		token:   token,
		channel: channel,
		apiURL:  defaultAPIURL,
		http:    xhttp.NewClient(),
		log:     applogger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.Component("slack")
	if token == "" {
		c.log.Warn("bot token missing, alerts will be logged only")
	}
	return c
}

type attachment struct {
	Color     string `json:"color"`
	Title     string `json:"title"`
	TitleLink string `json:"title_link,omitempty"`
	Text      string `json:"text"`
	Footer    string `json:"footer"`
}

type postMessageRequest struct {
	Channel     string       `json:"channel"`
	Attachments []attachment `json:"attachments"`
}

type postMessageResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// ColorFor maps a severity to an attachment color.
func ColorFor(s models.AlertSeverity) string {
	switch s {
	case models.SeverityCritical:
		return ColorCritical
	case models.SeverityWarning:
		return ColorWarning
	default:
		return ColorInfo
	}
}

func (c *Client) SendAlert(ctx context.Context, alert models.Alert) error {
	if c.token == "" {
		c.log.Info("Mock Slack Alert",
			applogger.String("title", alert.Title),
			applogger.String("message", alert.Message),
		)
		return nil
	}

	req := postMessageRequest{
		Channel: c.channel,
		Attachments: []attachment{{
			Color:     ColorFor(alert.Severity),
			Title:     alert.Title,
			TitleLink: alert.Link,
			Text:      alert.Message,
			Footer:    footer,
		}},
	}
	var resp postMessageResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     c.apiURL + "/chat.postMessage",
		Headers: map[string]string{"Authorization": "Bearer " + c.token},
		Body:    req,
	}, &resp)
	if err != nil {
		return fmt.Errorf("slack post message: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("slack api error: %s", resp.Error)
	}
	c.log.Debug("alert sent", applogger.String("channel", c.channel), applogger.String("title", alert.Title))
	return nil
}

var _ domsvc.Notifier = (*Client)(nil)
