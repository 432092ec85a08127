// Package llm abstracts the language-model provider behind a small
// interface so the fix pipeline stays provider-agnostic.
package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/tildaslashalef/sentryfix/internal/claude"
	"github.com/tildaslashalef/sentryfix/internal/config"
	"github.com/tildaslashalef/sentryfix/internal/loggy"
)

// ChatRequest represents a generic chat request to any LLM
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// Message represents a chat message with role and content
type Message struct {
	Role    string `json:"role"` // user, assistant, or system
	Content string `json:"content"`
}

// ChatResponse represents a response from a chat request
type ChatResponse struct {
	Content string `json:"content"`
	Model   string `json:"model"`
}

// Client defines the interface for LLM clients
type Client interface {
	// GenerateChat sends a non-streaming chat request
	GenerateChat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ClientType defines the type of LLM client
type ClientType string

const (
	// Claude client type
	Claude ClientType = "claude"
)

// Factory creates and returns LLM clients
type Factory struct {
	config *config.Config
	claude *claude.Client
	logger *loggy.Logger

	claudeLimiter *rate.Limiter
}

// helper function to create a rate limiter from RPM and Burst
func newLimiter(rpm, burst int) *rate.Limiter {
	if rpm <= 0 {
		// If RPM is zero or negative, allow infinite rate (no limiting)
		return rate.NewLimiter(rate.Inf, burst)
	}
	r := rate.Limit(float64(rpm) / 60.0)
	b := burst
	if b <= 0 {
		b = 1
	}
	return rate.NewLimiter(r, b)
}

// NewFactory creates a new LLM client factory
func NewFactory(cfg *config.Config, logger *loggy.Logger) *Factory {
	f := &Factory{
		config: cfg,
		logger: logger,
	}

	if cfg.Claude.APIKey != "" {
		f.claude = claude.NewClient(cfg.Claude)
		f.claudeLimiter = newLimiter(cfg.Claude.RequestsPerMinute, cfg.Claude.BurstLimit)
		loggy.Info("initialized Claude client",
			"base_url", cfg.Claude.BaseURL,
			"model", cfg.Claude.Model,
			"rpm", cfg.Claude.RequestsPerMinute,
			"burst", cfg.Claude.BurstLimit)
	}

	return f
}

// GetClient returns an LLM client of the specified type
func (f *Factory) GetClient(clientType ClientType) (Client, error) {
	switch clientType {
	case Claude:
		if f.claude == nil {
			return nil, fmt.Errorf("Claude client not initialized - check configuration")
		}
		return newClaudeClientAdapter(f.claude, f.config, f.claudeLimiter), nil

	default:
		return nil, fmt.Errorf("unknown client type: %s", clientType)
	}
}

// GetDefaultClient returns the default client based on configuration
func (f *Factory) GetDefaultClient() (Client, ClientType, error) {
	client, err := f.GetClient(Claude)
	if err != nil {
		return nil, "", fmt.Errorf("no LLM clients initialized - check configuration")
	}
	return client, Claude, nil
}
