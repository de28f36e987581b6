package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"SalesPulse/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnthropicFirst(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "ak", r.Header.Get("x-api-key"))
		var req anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "be brief", req.System)
		assert.Equal(t, 1000, req.MaxTokens)
		_, _ = io.WriteString(w, `{"content":[{"type":"text","text":"Pipeline looks healthy."}]}`)
	}))
	defer srv.Close()

	c := New([]Provider{
		NewAnthropic(ProviderConfig{APIKey: "ak", Model: "m", BaseURL: srv.URL}, nil),
		NewOpenAI(ProviderConfig{APIKey: "ok", BaseURL: "http://127.0.0.1:1"}, nil),
	})
	got := c.Generate(context.Background(), "explain", "be brief")
	assert.Equal(t, models.Insight{Text: "Pipeline looks healthy.", Available: true, Provider: "anthropic"}, got)
}

func TestFallsBackToOpenAI(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()
	openai := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer ok", r.Header.Get("Authorization"))
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, 500, req.MaxTokens)
		_, _ = io.WriteString(w, `{"choices":[{"message":{"content":"  Call the buyer.\n"}}]}`)
	}))
	defer openai.Close()

	c := New([]Provider{
		NewAnthropic(ProviderConfig{APIKey: "ak", BaseURL: down.URL}, nil),
		NewOpenAI(ProviderConfig{APIKey: "ok", BaseURL: openai.URL}, nil),
	})
	got := c.Generate(context.Background(), "p", "s")
	assert.True(t, got.Available)
	assert.Equal(t, "openai", got.Provider)
	assert.Equal(t, "Call the buyer.", got.Text)
}

func TestUnavailable(t *testing.T) {
	c := New(nil)
	assert.False(t, c.Configured())
	got := c.Generate(context.Background(), "p", "s")
	assert.False(t, got.Available)
	assert.Equal(t, models.InsightUnavailableText, got.Text)

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"choices":[]}`)
	}))
	defer empty.Close()
	c = New([]Provider{NewOpenAI(ProviderConfig{BaseURL: empty.URL}, nil)})
	assert.Equal(t, models.InsightUnavailableText, c.Generate(context.Background(), "p", "s").Text)
}
