// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/ewbaxter/ClinicalTrialAgent/pkg/types"
)

// Session owns the mutable state of one end-to-end patient search: the
// trial records fetched so far, the match results, and the step trace.
// Sessions are independent; nothing is shared between concurrent sessions.
type Session struct {
	// ID identifies the session in logs and result files.
	ID string

	// Patient is immutable once the session is created.
	Patient types.PatientCriteria

	mu        sync.Mutex
	records   map[string]types.TrialRecord
	results   []types.MatchResult
	steps     []types.AgentStep
	cancelled atomic.Bool
}

// NewSession validates the criteria and creates a session with a fresh id.
func NewSession(patient types.PatientCriteria) (*Session, error) {
	if err := patient.Validate(); err != nil {
		return nil, fmt.Errorf("invalid patient criteria: %w", err)
	}
	return &Session{
		ID:      uuid.NewString(),
		Patient: patient,
		records: make(map[string]types.TrialRecord),
	}, nil
}

// Cancel requests cooperative cancellation. The orchestrator checks the
// flag at the top of each loop iteration, so a session stops between steps
// rather than mid-call.
func (s *Session) Cancel() { s.cancelled.Store(true) }

// Cancelled reports whether Cancel has been called.
func (s *Session) Cancelled() bool { return s.cancelled.Load() }

// addRecords stores fetched trial records, keyed by trial id. Re-fetched
// records replace earlier copies.
func (s *Session) addRecords(records []types.TrialRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		s.records[r.TrialID] = r
	}
}

// record returns a stored trial by id.
func (s *Session) record(id string) (types.TrialRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	return r, ok
}

// recordIDs returns the ids of all stored trials, sorted for determinism.
func (s *Session) recordIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// setResult records the assessment for one trial, replacing any earlier
// assessment of the same trial.
func (s *Session) setResult(res types.MatchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.results {
		if existing.Trial.TrialID == res.Trial.TrialID {
			s.results[i] = res
			return
		}
	}
	s.results = append(s.results, res)
}

// setRanked replaces the eligible results with the ranked ordering.
// Ineligible assessments are kept for the transparency display.
func (s *Session) setRanked(ranked []types.MatchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ineligible []types.MatchResult
	for _, r := range s.results {
		if !r.Eligible {
			ineligible = append(ineligible, r)
		}
	}
	s.results = append(ranked, ineligible...)
}

// Results returns a copy of the current match results.
func (s *Session) Results() []types.MatchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.MatchResult, len(s.results))
	copy(out, s.results)
	return out
}

// EligibleResults returns a copy of the eligible match results only.
func (s *Session) EligibleResults() []types.MatchResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.MatchResult
	for _, r := range s.results {
		if r.Eligible {
			out = append(out, r)
		}
	}
	return out
}

// appendStep adds one entry to the session's step trace.
func (s *Session) appendStep(step types.AgentStep) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, step)
}

// Steps returns a copy of the step trace.
func (s *Session) Steps() []types.AgentStep {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.AgentStep, len(s.steps))
	copy(out, s.steps)
	return out
}
