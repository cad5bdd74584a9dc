// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"time"
)

// Assessment is the outcome of evaluating one trial against one patient.
type Assessment struct {
	Eligible bool `json:"eligible" yaml:"eligible"`

	// Violated lists the rules the patient failed (e.g. "age 12 outside 18-75").
	Violated []string `json:"violated,omitempty" yaml:"violated,omitempty"`

	// Satisfied lists the rules that passed, including rules that passed
	// because the trial's criteria were unknown.
	Satisfied []string `json:"satisfied,omitempty" yaml:"satisfied,omitempty"`
}

// MatchResult pairs a trial with its eligibility assessment and relevance
// score. Score is meaningful only when Eligible is true; ineligible trials
// are excluded from ranked output rather than scored as zero.
type MatchResult struct {
	Trial     TrialRecord `json:"trial" yaml:"trial"`
	Eligible  bool        `json:"eligible" yaml:"eligible"`
	Violated  []string    `json:"violated,omitempty" yaml:"violated,omitempty"`
	Satisfied []string    `json:"satisfied,omitempty" yaml:"satisfied,omitempty"`
	Score     float64     `json:"score" yaml:"score"`
}

// AgentStep is one entry in the append-only audit trace of a session.
type AgentStep struct {
	// Index is the zero-based position of the step within the session.
	Index int `json:"index" yaml:"index"`

	// Tool is the name of the tool the model invoked.
	Tool string `json:"tool" yaml:"tool"`

	// Arguments is the raw JSON argument payload the model supplied.
	Arguments json.RawMessage `json:"arguments,omitempty" yaml:"-"`

	// ResultSummary is a truncated description of the tool outcome.
	ResultSummary string `json:"result_summary" yaml:"result_summary"`

	// IsError marks steps whose tool invocation returned an error payload.
	IsError bool `json:"is_error,omitempty" yaml:"is_error,omitempty"`

	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}
