// Package llm generates explanations and deal insights from hosted chat
// models. Providers are tried in order; when none answers the caller gets
// the unavailable sentinel instead of an error.
package llm

import (
	"context"
	"fmt"
	"strings"

	"SalesPulse/internal/domain/models"
	domsvc "SalesPulse/internal/domain/service"
	xhttp "SalesPulse/pkg/http"
	applogger "SalesPulse/pkg/logger"
)

// Provider is one chat completion backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, prompt, systemPrompt string) (string, error)
}

// ProviderConfig holds the per-vendor settings.
type ProviderConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
	BaseURL   string
}

type Option func(*Client)

func WithLogger(l *applogger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// Client implements domain TextInsightClient.
type Client struct {
	providers []Provider
	log       *applogger.Logger
}

func New(providers []Provider, opts ...Option) *Client {
	c := &Client{providers: providers, log: applogger.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.Component("llm")
	return c
}

// Configured reports whether at least one provider is present.
func (c *Client) Configured() bool { return len(c.providers) > 0 }

func (c *Client) Generate(ctx context.Context, prompt, systemPrompt string) models.Insight {
	for _, p := range c.providers {
		text, err := p.Complete(ctx, prompt, systemPrompt)
		if err != nil {
			c.log.Warn("provider failed", applogger.String("provider", p.Name()), applogger.Error(err))
			continue
		}
		return models.Insight{Text: text, Available: true, Provider: p.Name()}
	}
	return models.Insight{Text: models.InsightUnavailableText}
}

var _ domsvc.TextInsightClient = (*Client)(nil)

// Anthropic calls the Messages API.
type Anthropic struct {
	cfg  ProviderConfig
	http *xhttp.Client
}

func NewAnthropic(cfg ProviderConfig, hc *xhttp.Client) *Anthropic {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1000
	}
	if hc == nil {
		hc = xhttp.NewClient()
	}
	return &Anthropic{cfg: cfg, http: hc}
}

func (a *Anthropic) Name() string { return "anthropic" }

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (a *Anthropic) Complete(ctx context.Context, prompt, systemPrompt string) (string, error) {
	req := anthropicRequest{
		Model:     a.cfg.Model,
		MaxTokens: a.cfg.MaxTokens,
		System:    systemPrompt,
		Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
	}
	var resp anthropicResponse
	err := a.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    strings.TrimRight(a.cfg.BaseURL, "/") + "/v1/messages",
		Headers: map[string]string{
			"x-api-key":         a.cfg.APIKey,
			"anthropic-version": "2023-06-01",
		},
		Body: req,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}
	for _, block := range resp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("anthropic messages: no text content")
}

// OpenAI calls the Chat Completions API.
type OpenAI struct {
	cfg  ProviderConfig
	http *xhttp.Client
}

func NewOpenAI(cfg ProviderConfig, hc *xhttp.Client) *OpenAI {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 500
	}
	if hc == nil {
		hc = xhttp.NewClient()
	}
	return &OpenAI{cfg: cfg, http: hc}
}

func (o *OpenAI) Name() string { return "openai" }

type chatRequest struct {
	Model     string             `json:"model"`
	Messages  []anthropicMessage `json:"messages"`
	MaxTokens int                `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (o *OpenAI) Complete(ctx context.Context, prompt, systemPrompt string) (string, error) {
	req := chatRequest{
		Model: o.cfg.Model,
		Messages: []anthropicMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens: o.cfg.MaxTokens,
	}
	var resp chatResponse
	err := o.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     strings.TrimRight(o.cfg.BaseURL, "/") + "/v1/chat/completions",
		Headers: map[string]string{"Authorization": "Bearer " + o.cfg.APIKey},
		Body:    req,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai chat: no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
