// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ewbaxter/ClinicalTrialAgent/internal/auditlog"
	"github.com/ewbaxter/ClinicalTrialAgent/internal/llm"
	"github.com/ewbaxter/ClinicalTrialAgent/pkg/types"
)

// State is the orchestrator's position in the conversation loop.
type State string

const (
	StateAwaitingModel State = "awaiting_model"
	StateExecutingTool State = "executing_tool"
	StateDone          State = "done"
	StateFailed        State = "failed"
)

// Outcome is the terminal result of one session. Partial results and the
// step trace are always populated, including on failure, so the caller can
// show whatever was gathered instead of silently dropping it.
type Outcome struct {
	State     State               `json:"state"`
	FinalText string              `json:"final_text,omitempty"`
	Results   []types.MatchResult `json:"results"`
	Steps     []types.AgentStep   `json:"steps"`

	// StepsUsed counts completed loop iterations.
	StepsUsed int `json:"steps_used"`

	// FailureReason is a human-readable description when State is failed.
	FailureReason string `json:"failure_reason,omitempty"`

	// LogPath is the audit log file for the session, when one was written.
	LogPath string `json:"log_path,omitempty"`
}

// Orchestrator runs the bounded conversation loop for sessions. One
// provider or tool call is outstanding at a time; there are no parallel
// tool invocations.
type Orchestrator struct {
	Provider   llm.Provider
	Registry   *Registry
	Log        *auditlog.Logger
	StepBudget int

	// now is a test hook for step timestamps.
	now func() time.Time
}

// Run drives the session until the model produces a final answer, an
// unrecoverable error occurs, or the step budget is exhausted. The
// returned Outcome always carries the session's partial results; err is
// non-nil exactly when Outcome.State is failed.
func (o *Orchestrator) Run(ctx context.Context, sess *Session) (Outcome, error) {
	budget := o.StepBudget
	if budget <= 0 {
		budget = types.DefaultConfig().Agent.StepBudget
	}
	now := o.now
	if now == nil {
		now = time.Now
	}

	o.Log.Event("start", fmt.Sprintf("patient %s: %d condition(s)", sess.Patient.ID, len(sess.Patient.Conditions)))

	messages := []llm.Message{{Role: llm.RoleUser, Text: buildUserMessage(sess.Patient)}}
	req := llm.Request{
		System: systemPrompt,
		Tools:  o.Registry.Definitions(),
	}

	stepIndex := 0
	for iteration := 0; iteration < budget; iteration++ {
		if sess.Cancelled() {
			return o.fail(sess, iteration, "session cancelled", fmt.Errorf("session cancelled"))
		}

		// AWAITING_MODEL: single outstanding provider call; the provider
		// handles its own transient retries.
		req.Messages = messages
		turn, err := o.Provider.Complete(ctx, req)
		if err != nil {
			return o.fail(sess, iteration, "provider error: "+err.Error(), err)
		}

		if turn.Final || len(turn.ToolCalls) == 0 {
			o.Log.Event("complete", fmt.Sprintf("final answer after %d iteration(s)", iteration+1))
			return Outcome{
				State:     StateDone,
				FinalText: turn.Text,
				Results:   sess.Results(),
				Steps:     sess.Steps(),
				StepsUsed: iteration + 1,
			}, nil
		}

		// EXECUTING_TOOL: run each requested call, feed results back.
		results := make([]llm.ToolResult, 0, len(turn.ToolCalls))
		for _, call := range turn.ToolCalls {
			step, result := o.execute(ctx, sess, call, stepIndex, now())
			stepIndex++
			sess.appendStep(step)
			o.Log.Record(step)
			results = append(results, result)
		}

		messages = append(messages,
			llm.Message{Role: llm.RoleAssistant, Text: turn.Text, ToolCalls: turn.ToolCalls},
			llm.Message{Role: llm.RoleUser, ToolResults: results},
		)
	}

	err := &types.BudgetExhaustedError{Steps: budget}
	return o.fail(sess, budget, err.Error(), err)
}

// execute invokes one tool with a single retry on transient failure and
// converts the outcome into a step record plus a tool result for the model.
// Validation and unknown-tool errors become error payloads the model can
// react to; they never abort the session.
func (o *Orchestrator) execute(ctx context.Context, sess *Session, call llm.ToolCall, index int, ts time.Time) (types.AgentStep, llm.ToolResult) {
	value, err := o.Registry.Invoke(ctx, call.Name, call.Arguments)
	if err != nil && types.Retryable(err) {
		value, err = o.Registry.Invoke(ctx, call.Name, call.Arguments)
	}

	step := types.AgentStep{
		Index:     index,
		Tool:      call.Name,
		Arguments: call.Arguments,
		Timestamp: ts,
	}

	if err != nil {
		step.IsError = true
		step.ResultSummary = err.Error()
		return step, llm.ToolResult{ToolCallID: call.ID, Content: err.Error(), IsError: true}
	}

	payload, merr := json.Marshal(value)
	if merr != nil {
		step.IsError = true
		step.ResultSummary = "marshaling tool result: " + merr.Error()
		return step, llm.ToolResult{ToolCallID: call.ID, Content: step.ResultSummary, IsError: true}
	}

	step.ResultSummary = fmt.Sprintf("%s returned %d bytes", call.Name, len(payload))
	return step, llm.ToolResult{ToolCallID: call.ID, Content: string(payload)}
}

func (o *Orchestrator) fail(sess *Session, iterations int, reason string, err error) (Outcome, error) {
	o.Log.Event("failed", reason)
	return Outcome{
		State:         StateFailed,
		Results:       sess.Results(),
		Steps:         sess.Steps(),
		StepsUsed:     iterations,
		FailureReason: reason,
	}, err
}
