package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/tildaslashalef/sentryfix/internal/claude"
	"github.com/tildaslashalef/sentryfix/internal/config"
)

// claudeClientAdapter adapts the Claude client to the LLM Client interface
type claudeClientAdapter struct {
	client  *claude.Client
	config  *config.Config
	limiter *rate.Limiter
}

// newClaudeClientAdapter creates a new Claude client adapter
func newClaudeClientAdapter(client *claude.Client, cfg *config.Config, limiter *rate.Limiter) *claudeClientAdapter {
	return &claudeClientAdapter{
		client:  client,
		config:  cfg,
		limiter: limiter,
	}
}

// GenerateChat implements the Client interface for Claude
func (a *claudeClientAdapter) GenerateChat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	// Extract any system message from messages array
	var claudeMessages []claude.Message
	var systemMessage string

	for _, msg := range req.Messages {
		if msg.Role == "system" {
			systemMessage = msg.Content
		} else {
			claudeMessages = append(claudeMessages, claude.Message{
				Role:    msg.Role,
				Content: msg.Content,
			})
		}
	}

	// Convert to Claude request
	claudeReq := claude.ChatRequest{
		Model:    req.Model,
		Messages: claudeMessages,
		System:   systemMessage,
	}

	// Set options if provided
	if req.MaxTokens > 0 {
		claudeReq.MaxTokens = req.MaxTokens
	}
	if req.Temperature > 0 {
		temp := req.Temperature
		claudeReq.Temperature = &temp
	}

	// Make the request
	resp, err := a.client.GenerateChat(ctx, claudeReq)
	if err != nil {
		return nil, fmt.Errorf("claude chat generation failed: %w", err)
	}

	return &ChatResponse{
		Content: resp.Text(),
		Model:   resp.Model,
	}, nil
}
