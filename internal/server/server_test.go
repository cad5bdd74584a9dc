// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ewbaxter/ClinicalTrialAgent/internal/agent"
	"github.com/ewbaxter/ClinicalTrialAgent/pkg/types"
)

// stubRunner returns a fixed outcome and records the criteria it received.
type stubRunner struct {
	out     agent.Outcome
	err     error
	patient types.PatientCriteria
	calls   int
}

func (s *stubRunner) Search(_ context.Context, patient types.PatientCriteria) (agent.Outcome, error) {
	s.calls++
	s.patient = patient
	return s.out, s.err
}

func doSearch(t *testing.T, runner SearchRunner, body string) *httptest.ResponseRecorder {
	t.Helper()
	router := New(runner).Router()
	req := httptest.NewRequest(http.MethodPost, "/api/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	router := New(&stubRunner{}).Router()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestSearch_Success(t *testing.T) {
	runner := &stubRunner{out: agent.Outcome{
		State:     agent.StateDone,
		FinalText: "Found 1 trial.",
		StepsUsed: 4,
		Results: []types.MatchResult{{
			Trial:    types.TrialRecord{TrialID: "NCT100", Title: "Trial"},
			Eligible: true,
			Score:    0.9,
		}},
	}}

	w := doSearch(t, runner, `{"age":45,"gender":"female","conditions":["breast cancer"],"location":{"city":"Boston","state":"MA"}}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp searchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.State != agent.StateDone || len(resp.Results) != 1 {
		t.Errorf("response = %+v", resp)
	}
	if runner.patient.Age != 45 || runner.patient.Gender != types.GenderFemale {
		t.Errorf("runner saw patient %+v", runner.patient)
	}
}

func TestSearch_EmptyResultsIsStillOK(t *testing.T) {
	runner := &stubRunner{out: agent.Outcome{
		State:     agent.StateDone,
		FinalText: "No eligible trials were found.",
		StepsUsed: 3,
	}}

	w := doSearch(t, runner, `{"age":45,"conditions":["rare disease"]}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp searchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	// Empty, not null, so UI clients can iterate without nil checks.
	if resp.Results == nil || len(resp.Results) != 0 {
		t.Errorf("results = %v, want empty slice", resp.Results)
	}
}

func TestSearch_InvalidJSON(t *testing.T) {
	runner := &stubRunner{}
	w := doSearch(t, runner, `{"age": "forty"`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if runner.calls != 0 {
		t.Error("runner invoked for malformed request")
	}
}

func TestSearch_InvalidCriteria(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no conditions", `{"age":45,"gender":"female","conditions":[]}`},
		{"negative age", `{"age":-1,"conditions":["diabetes"]}`},
		{"bad gender", `{"age":45,"gender":"robot","conditions":["diabetes"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &stubRunner{}
			w := doSearch(t, runner, tt.body)
			if w.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422 (body %s)", w.Code, w.Body.String())
			}
			if runner.calls != 0 {
				t.Error("runner invoked for invalid criteria")
			}
		})
	}
}

func TestSearch_ProviderFailureIsBadGateway(t *testing.T) {
	runner := &stubRunner{
		out: agent.Outcome{
			State:         agent.StateFailed,
			FailureReason: "provider error",
			Steps:         []types.AgentStep{{Index: 0, Tool: "search_clinical_trials"}},
		},
		err: &types.ProviderError{Provider: "anthropic", StatusCode: 529, Message: "overloaded"},
	}

	w := doSearch(t, runner, `{"age":45,"conditions":["diabetes"]}`)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
	// Partial session state rides along with the error.
	var body struct {
		Error   string         `json:"error"`
		Session searchResponse `json:"session"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Error == "" || len(body.Session.Steps) != 1 {
		t.Errorf("body = %+v", body)
	}
}

func TestSearch_BudgetExhaustedIsInternalError(t *testing.T) {
	runner := &stubRunner{
		out: agent.Outcome{State: agent.StateFailed, FailureReason: "budget"},
		err: &types.BudgetExhaustedError{Steps: 10},
	}

	w := doSearch(t, runner, `{"age":45,"conditions":["diabetes"]}`)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}
