// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ewbaxter/ClinicalTrialAgent/pkg/types"
)

func newTestToolset(t *testing.T, searcher TrialSearcher) (*Registry, *Session) {
	t.Helper()
	sess, err := NewSession(bostonPatient())
	if err != nil {
		t.Fatal(err)
	}
	cfg := types.DefaultConfig()
	registry, err := NewToolset(sess, searcher, cfg.Search, cfg.Ranking)
	if err != nil {
		t.Fatal(err)
	}
	return registry, sess
}

func TestSearchTool_StoresRecordsAndSummarizes(t *testing.T) {
	searcher := &fakeSearcher{records: []types.TrialRecord{
		recruitingTrial("NCT100", types.Phase2, "Boston", "MA"),
		recruitingTrial("NCT200", types.Phase3, "Cambridge", "MA"),
	}}
	registry, sess := newTestToolset(t, searcher)

	out, err := registry.Invoke(context.Background(), ToolSearch,
		json.RawMessage(`{"condition":"breast cancer"}`))
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	result := out.(map[string]any)
	if result["trials_found"] != 2 {
		t.Errorf("trials_found = %v, want 2", result["trials_found"])
	}
	if got := sess.recordIDs(); len(got) != 2 {
		t.Errorf("session records = %v", got)
	}
	// Defaults come from the patient and config when the model omits them.
	if searcher.lastQuery.Location == nil || searcher.lastQuery.Location.City != "Boston" {
		t.Errorf("query location = %+v, want patient's Boston", searcher.lastQuery.Location)
	}
	if searcher.lastQuery.Status != "recruiting" {
		t.Errorf("query status = %q", searcher.lastQuery.Status)
	}
	if searcher.lastQuery.PageSize != types.DefaultConfig().Search.PageSize {
		t.Errorf("query page size = %d", searcher.lastQuery.PageSize)
	}
}

func TestSearchTool_LocationOverride(t *testing.T) {
	searcher := &fakeSearcher{}
	registry, _ := newTestToolset(t, searcher)

	_, err := registry.Invoke(context.Background(), ToolSearch,
		json.RawMessage(`{"condition":"nafld","location":"Denver, CO","recruiting_status":"all","max_results":5}`))
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	q := searcher.lastQuery
	if q.Location == nil || q.Location.City != "Denver" || q.Location.State != "CO" {
		t.Errorf("query location = %+v", q.Location)
	}
	if q.Status != "all" {
		t.Errorf("query status = %q", q.Status)
	}
	if q.PageSize != 5 {
		t.Errorf("query page size = %d", q.PageSize)
	}
}

func TestEligibilityTool_BeforeSearchFails(t *testing.T) {
	registry, _ := newTestToolset(t, &fakeSearcher{})

	_, err := registry.Invoke(context.Background(), ToolEligibility, json.RawMessage(`{}`))

	var verr *types.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
}

func TestEligibilityTool_DefaultsToAllFetchedTrials(t *testing.T) {
	male := recruitingTrial("NCT300", types.Phase2, "Boston", "MA")
	male.Eligibility.Sex = "MALE"
	searcher := &fakeSearcher{records: []types.TrialRecord{
		recruitingTrial("NCT100", types.Phase2, "Boston", "MA"),
		male,
	}}
	registry, sess := newTestToolset(t, searcher)

	if _, err := registry.Invoke(context.Background(), ToolSearch,
		json.RawMessage(`{"condition":"breast cancer"}`)); err != nil {
		t.Fatal(err)
	}
	out, err := registry.Invoke(context.Background(), ToolEligibility, json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	result := out.(map[string]any)
	if result["eligible_count"] != 1 {
		t.Errorf("eligible_count = %v, want 1", result["eligible_count"])
	}

	// The ineligible assessment is retained for transparency, not dropped.
	all := sess.Results()
	if len(all) != 2 {
		t.Fatalf("len(Results) = %d, want 2", len(all))
	}
	for _, r := range all {
		if r.Trial.TrialID == "NCT300" {
			if r.Eligible {
				t.Error("male-only trial marked eligible for female patient")
			}
			if len(r.Violated) == 0 {
				t.Error("violated criteria missing for ineligible trial")
			}
		}
	}
}

func TestEligibilityTool_ReportsUnknownIDs(t *testing.T) {
	searcher := &fakeSearcher{records: []types.TrialRecord{
		recruitingTrial("NCT100", types.Phase2, "Boston", "MA"),
	}}
	registry, _ := newTestToolset(t, searcher)

	if _, err := registry.Invoke(context.Background(), ToolSearch,
		json.RawMessage(`{"condition":"breast cancer"}`)); err != nil {
		t.Fatal(err)
	}
	out, err := registry.Invoke(context.Background(), ToolEligibility,
		json.RawMessage(`{"trial_ids":["NCT100","NCT999"]}`))
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	result := out.(map[string]any)
	unknown, ok := result["unknown_trial_ids"].([]string)
	if !ok || len(unknown) != 1 || unknown[0] != "NCT999" {
		t.Errorf("unknown_trial_ids = %v", result["unknown_trial_ids"])
	}
}

func TestRankTool_BeforeEligibilityReturnsNote(t *testing.T) {
	registry, _ := newTestToolset(t, &fakeSearcher{})

	out, err := registry.Invoke(context.Background(), ToolRank, json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Invoke: %v (empty rank is not an error)", err)
	}

	result := out.(map[string]any)
	if result["note"] == nil {
		t.Error("expected a note explaining there is nothing to rank")
	}
}

func TestRankTool_OrdersColocatedRecruitingFirst(t *testing.T) {
	remote := recruitingTrial("NCT100", types.Phase3, "Seattle", "WA")
	notRecruiting := recruitingTrial("NCT200", types.Phase3, "Boston", "MA")
	notRecruiting.Status = types.StatusActiveNotRecruiting
	local := recruitingTrial("NCT300", types.Phase3, "Boston", "MA")

	searcher := &fakeSearcher{records: []types.TrialRecord{remote, notRecruiting, local}}
	registry, sess := newTestToolset(t, searcher)

	ctx := context.Background()
	for _, step := range []struct {
		tool string
		args string
	}{
		{ToolSearch, `{"condition":"breast cancer"}`},
		{ToolEligibility, `{}`},
		{ToolRank, `{}`},
	} {
		if _, err := registry.Invoke(ctx, step.tool, json.RawMessage(step.args)); err != nil {
			t.Fatalf("%s: %v", step.tool, err)
		}
	}

	results := sess.Results()
	if len(results) != 3 {
		t.Fatalf("len(Results) = %d, want 3", len(results))
	}
	if results[0].Trial.TrialID != "NCT300" {
		t.Errorf("top trial = %s, want co-located recruiting NCT300", results[0].Trial.TrialID)
	}
	// Co-located, phase III, recruiting: 0.4*1.0 + 0.3*0.8 + 0.3*1.0.
	if got, want := results[0].Score, 0.94; got < want-1e-9 || got > want+1e-9 {
		t.Errorf("top score = %f, want %f", got, want)
	}
	if results[1].Score > results[0].Score || results[2].Score > results[1].Score {
		t.Errorf("scores not descending: %f, %f, %f", results[0].Score, results[1].Score, results[2].Score)
	}
}

func TestDetailsTool_FetchesAndStoresRecord(t *testing.T) {
	rec := recruitingTrial("NCT100", types.Phase2, "Boston", "MA")
	rec.Eligibility.Text = "Inclusion: adults 18-75 with confirmed diagnosis."
	searcher := &fakeSearcher{records: []types.TrialRecord{rec}}
	registry, sess := newTestToolset(t, searcher)

	out, err := registry.Invoke(context.Background(), ToolDetails,
		json.RawMessage(`{"nct_id":"NCT100"}`))
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	got := out.(types.TrialRecord)
	if got.Eligibility.Text == "" {
		t.Error("eligibility text missing from details")
	}
	if _, ok := sess.record("NCT100"); !ok {
		t.Error("detail fetch did not store the record in the session")
	}
}

func TestDetailsTool_PropagatesProviderError(t *testing.T) {
	registry, _ := newTestToolset(t, &fakeSearcher{})

	_, err := registry.Invoke(context.Background(), ToolDetails,
		json.RawMessage(`{"nct_id":"NCT404"}`))

	var perr *types.ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want ProviderError", err)
	}
	if perr.StatusCode != 404 {
		t.Errorf("StatusCode = %d, want 404", perr.StatusCode)
	}
}

func TestParseLocation(t *testing.T) {
	tests := []struct {
		in          string
		city, state string
	}{
		{"Denver, CO", "Denver", "CO"},
		{"Denver,CO", "Denver", "CO"},
		{"New York, NY", "New York", "NY"},
		{"Colorado", "", "Colorado"},
	}
	for _, tt := range tests {
		got := parseLocation(tt.in)
		if got.City != tt.city || got.State != tt.state {
			t.Errorf("parseLocation(%q) = %+v, want {%s %s}", tt.in, got, tt.city, tt.state)
		}
	}
}
