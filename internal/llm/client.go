// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm abstracts the language-model provider behind a small
// interface so the orchestrator can be tested with a scripted fake.
package llm

import (
	"context"
	"encoding/json"

	"github.com/liushuangls/go-anthropic/v2/jsonschema"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	// ID correlates the call with its eventual result.
	ID string

	Name      string
	Arguments json.RawMessage
}

// ToolResult carries a tool outcome back into the conversation. IsError
// marks payloads the model should treat as failures it can correct.
type ToolResult struct {
	ToolCallID string
	Content    string
	IsError    bool
}

// Message is one conversation turn. Assistant turns may carry ToolCalls;
// user turns may carry ToolResults.
type Message struct {
	Role        Role
	Text        string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

// Tool describes one callable function exposed to the model.
type Tool struct {
	Name        string
	Description string
	InputSchema jsonschema.Definition
}

// Request is one provider call: the full conversation so far plus the
// available tools.
type Request struct {
	System   string
	Messages []Message
	Tools    []Tool
}

// Turn is the model's response to a Request: either one or more tool calls
// to execute, or a final answer (Final true, ToolCalls empty).
type Turn struct {
	Text      string
	ToolCalls []ToolCall
	Final     bool
}

// Provider is implemented by language-model clients. Complete issues a
// single conversation turn; implementations handle their own transient
// retries so callers only see a final success or failure.
type Provider interface {
	Complete(ctx context.Context, req Request) (Turn, error)
}
