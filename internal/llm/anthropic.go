// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/ewbaxter/ClinicalTrialAgent/pkg/types"
)

// RetryBaseDelay is the base backoff between provider retries. Tests
// override this to avoid real sleeps.
var RetryBaseDelay = 1 * time.Second

// AnthropicProvider calls the Anthropic Messages API with tool use.
// Temperature is pinned to 0 so identical inputs yield identical
// tool-selection behavior as far as the provider allows.
type AnthropicProvider struct {
	client     *anthropic.Client
	model      string
	maxTokens  int
	maxRetries int
}

// NewAnthropicProvider builds a provider from configuration. The API key is
// required.
func NewAnthropicProvider(cfg types.LLMConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is not set (create .secrets/anthropic-api-key or set ANTHROPIC_API_KEY)")
	}

	var opts []anthropic.ClientOption
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	return &AnthropicProvider{
		client:     anthropic.NewClient(cfg.APIKey, opts...),
		model:      cfg.Model,
		maxTokens:  maxTokens,
		maxRetries: cfg.MaxRetries,
	}, nil
}

// Complete sends the conversation and returns the model's turn. Transient
// failures (429, 5xx, timeouts) are retried with exponential backoff up to
// the configured count; other errors surface immediately.
func (p *AnthropicProvider) Complete(ctx context.Context, req Request) (Turn, error) {
	temperature := float32(0)
	areq := anthropic.MessagesRequest{
		Model:       anthropic.Model(p.model),
		System:      req.System,
		Messages:    toAnthropicMessages(req.Messages),
		MaxTokens:   p.maxTokens,
		Temperature: &temperature,
		Tools:       toAnthropicTools(req.Tools),
	}

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Turn{}, lastErr
			case <-time.After(RetryBaseDelay << (attempt - 1)):
			}
		}

		resp, err := p.client.CreateMessages(ctx, areq)
		if err != nil {
			lastErr = classifyAnthropicErr(err)
			if !types.Retryable(lastErr) {
				return Turn{}, lastErr
			}
			continue
		}
		return parseTurn(resp), nil
	}
	return Turn{}, lastErr
}

// toAnthropicMessages converts neutral messages to the SDK's shape.
func toAnthropicMessages(msgs []Message) []anthropic.Message {
	out := make([]anthropic.Message, 0, len(msgs))
	for _, m := range msgs {
		var content []anthropic.MessageContent

		if m.Text != "" {
			content = append(content, anthropic.NewTextMessageContent(m.Text))
		}
		for _, tc := range m.ToolCalls {
			content = append(content, anthropic.MessageContent{
				Type: anthropic.MessagesContentTypeToolUse,
				MessageContentToolUse: &anthropic.MessageContentToolUse{
					ID:    tc.ID,
					Name:  tc.Name,
					Input: tc.Arguments,
				},
			})
		}
		for _, tr := range m.ToolResults {
			content = append(content, anthropic.NewToolResultMessageContent(tr.ToolCallID, tr.Content, tr.IsError))
		}

		role := anthropic.RoleUser
		if m.Role == RoleAssistant {
			role = anthropic.RoleAssistant
		}
		out = append(out, anthropic.Message{Role: role, Content: content})
	}
	return out
}

func toAnthropicTools(tools []Tool) []anthropic.ToolDefinition {
	out := make([]anthropic.ToolDefinition, 0, len(tools))
	for _, t := range tools {
		out = append(out, anthropic.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}
	return out
}

// parseTurn extracts text blocks and tool calls from a response. The turn
// is final when the model stopped for any reason other than tool use.
func parseTurn(resp anthropic.MessagesResponse) Turn {
	var turn Turn
	for _, c := range resp.Content {
		switch c.Type {
		case anthropic.MessagesContentTypeText:
			if c.Text != nil {
				if turn.Text != "" {
					turn.Text += "\n"
				}
				turn.Text += *c.Text
			}
		case anthropic.MessagesContentTypeToolUse:
			if c.MessageContentToolUse != nil {
				turn.ToolCalls = append(turn.ToolCalls, ToolCall{
					ID:        c.MessageContentToolUse.ID,
					Name:      c.MessageContentToolUse.Name,
					Arguments: c.MessageContentToolUse.Input,
				})
			}
		}
	}
	turn.Final = resp.StopReason != anthropic.MessagesStopReasonToolUse
	return turn
}

// classifyAnthropicErr maps SDK errors into the shared taxonomy.
func classifyAnthropicErr(err error) error {
	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) {
		status := http.StatusBadRequest
		switch {
		case apiErr.IsRateLimitErr():
			status = http.StatusTooManyRequests
		case apiErr.IsOverloadedErr():
			status = http.StatusServiceUnavailable
		case apiErr.IsAuthenticationErr():
			status = http.StatusUnauthorized
		case apiErr.IsApiErr():
			status = http.StatusInternalServerError
		}
		return &types.ProviderError{Provider: "anthropic", StatusCode: status, Message: apiErr.Message}
	}

	var reqErr *anthropic.RequestError
	if errors.As(err, &reqErr) {
		return &types.ProviderError{Provider: "anthropic", StatusCode: reqErr.StatusCode, Message: reqErr.Error()}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &types.TimeoutError{Op: "anthropic completion"}
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return &types.TimeoutError{Op: "anthropic completion"}
	}

	return &types.NetworkError{Op: "anthropic completion", Err: err}
}
