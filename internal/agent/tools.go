// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/liushuangls/go-anthropic/v2/jsonschema"

	"github.com/ewbaxter/ClinicalTrialAgent/internal/eligibility"
	"github.com/ewbaxter/ClinicalTrialAgent/internal/ranking"
	"github.com/ewbaxter/ClinicalTrialAgent/internal/trials"
	"github.com/ewbaxter/ClinicalTrialAgent/pkg/types"
)

// Tool names exposed to the model.
const (
	ToolSearch      = "search_clinical_trials"
	ToolEligibility = "check_eligibility"
	ToolRank        = "rank_trials"
	ToolDetails     = "get_trial_details"
)

// TrialSearcher is the subset of the trials client the tools need; tests
// supply a fake.
type TrialSearcher interface {
	Search(ctx context.Context, q trials.Query) ([]types.TrialRecord, error)
	Details(ctx context.Context, nctID string) (types.TrialRecord, error)
}

// Toolset binds the deterministic helpers to one session.
type Toolset struct {
	session  *Session
	searcher TrialSearcher
	search   types.SearchConfig
	weights  types.RankingWeights
}

// NewToolset builds the registry of tools for a session.
func NewToolset(sess *Session, searcher TrialSearcher, search types.SearchConfig, weights types.RankingWeights) (*Registry, error) {
	ts := &Toolset{session: sess, searcher: searcher, search: search, weights: weights}
	r := NewRegistry()

	tools := []Tool{
		{
			Name: ToolSearch,
			Description: "Search ClinicalTrials.gov for trials matching patient criteria. " +
				"Include a location to find trials near the patient. Returns trials with basic info.",
			InputSchema: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"condition": {
						Type:        jsonschema.String,
						Description: "Medical condition or disease (e.g. 'liver disease', 'diabetes')",
					},
					"location": {
						Type:        jsonschema.String,
						Description: "City and state (e.g. 'Denver, CO'). Defaults to the patient's location.",
					},
					"recruiting_status": {
						Type:        jsonschema.String,
						Description: "Trial recruitment status filter",
						Enum:        []string{"recruiting", "not_yet_recruiting", "active_not_recruiting", "completed", "all"},
					},
					"max_results": {
						Type:        jsonschema.Integer,
						Description: "Maximum number of trials to return",
					},
				},
				Required: []string{"condition"},
			},
			Handler: ts.handleSearch,
		},
		{
			Name: ToolEligibility,
			Description: "Check whether the patient meets eligibility criteria for specific trials. " +
				"Use after searching to filter candidates.",
			InputSchema: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"trial_ids": {
						Type:        jsonschema.Array,
						Description: "NCT ids to check; omit to check every fetched trial",
						Items:       &jsonschema.Definition{Type: jsonschema.String},
					},
				},
			},
			Handler: ts.handleEligibility,
		},
		{
			Name: ToolRank,
			Description: "Rank the eligible trials by relevance to the patient, considering distance, " +
				"phase, and enrollment status. Use after eligibility filtering.",
			InputSchema: jsonschema.Definition{
				Type:       jsonschema.Object,
				Properties: map[string]jsonschema.Definition{},
			},
			Handler: ts.handleRank,
		},
		{
			Name:        ToolDetails,
			Description: "Get detailed information about one trial, including full eligibility text.",
			InputSchema: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"nct_id": {
						Type:        jsonschema.String,
						Description: "NCT identifier for the trial",
					},
				},
				Required: []string{"nct_id"},
			},
			Handler: ts.handleDetails,
		},
	}

	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// trialSummary is the compact per-trial view handed back to the model.
type trialSummary struct {
	TrialID  string            `json:"trial_id"`
	Title    string            `json:"title"`
	Phase    types.TrialPhase  `json:"phase"`
	Status   types.TrialStatus `json:"status"`
	Location string            `json:"location,omitempty"`
}

func summarize(r types.TrialRecord) trialSummary {
	s := trialSummary{
		TrialID: r.TrialID,
		Title:   r.Title,
		Phase:   r.Phase,
		Status:  r.Status,
	}
	if len(r.Locations) > 0 {
		s.Location = types.Location{City: r.Locations[0].City, State: r.Locations[0].State}.String()
	}
	return s
}

func (ts *Toolset) handleSearch(ctx context.Context, raw json.RawMessage) (any, error) {
	var args struct {
		Condition        string `json:"condition"`
		Location         string `json:"location"`
		RecruitingStatus string `json:"recruiting_status"`
		MaxResults       int    `json:"max_results"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, &types.ValidationError{Tool: ToolSearch, Reason: err.Error()}
	}

	loc := ts.session.Patient.Location
	if args.Location != "" {
		loc = parseLocation(args.Location)
	}

	status := args.RecruitingStatus
	if status == "" {
		status = ts.search.Status
	}

	pageSize := args.MaxResults
	if pageSize <= 0 {
		pageSize = ts.search.PageSize
	}

	records, err := ts.searcher.Search(ctx, trials.Query{
		Conditions: []string{args.Condition},
		Location:   loc,
		Status:     status,
		PageSize:   pageSize,
	})
	if err != nil {
		return nil, err
	}

	ts.session.addRecords(records)

	summaries := make([]trialSummary, 0, len(records))
	for _, r := range records {
		summaries = append(summaries, summarize(r))
	}
	return map[string]any{
		"trials_found": len(summaries),
		"trials":       summaries,
	}, nil
}

func (ts *Toolset) handleEligibility(ctx context.Context, raw json.RawMessage) (any, error) {
	var args struct {
		TrialIDs []string `json:"trial_ids"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, &types.ValidationError{Tool: ToolEligibility, Reason: err.Error()}
	}

	ids := args.TrialIDs
	if len(ids) == 0 {
		ids = ts.session.recordIDs()
	}
	if len(ids) == 0 {
		return nil, &types.ValidationError{Tool: ToolEligibility, Reason: "no trials fetched yet; call " + ToolSearch + " first"}
	}

	type verdict struct {
		TrialID  string   `json:"trial_id"`
		Eligible bool     `json:"eligible"`
		Violated []string `json:"violated,omitempty"`
	}
	var eligibleList, ineligibleList []verdict
	var unknown []string

	for _, id := range ids {
		rec, ok := ts.session.record(id)
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		a := eligibility.Evaluate(rec, ts.session.Patient)
		ts.session.setResult(types.MatchResult{
			Trial:     rec,
			Eligible:  a.Eligible,
			Violated:  a.Violated,
			Satisfied: a.Satisfied,
		})
		v := verdict{TrialID: id, Eligible: a.Eligible, Violated: a.Violated}
		if a.Eligible {
			eligibleList = append(eligibleList, v)
		} else {
			ineligibleList = append(ineligibleList, v)
		}
	}

	out := map[string]any{
		"eligible_count":    len(eligibleList),
		"eligible_trials":   eligibleList,
		"ineligible_trials": ineligibleList,
	}
	if len(unknown) > 0 {
		out["unknown_trial_ids"] = unknown
	}
	return out, nil
}

func (ts *Toolset) handleRank(ctx context.Context, raw json.RawMessage) (any, error) {
	eligibleResults := ts.session.EligibleResults()
	if len(eligibleResults) == 0 {
		return map[string]any{
			"ranked_trials": []any{},
			"note":          "no eligible trials to rank; run " + ToolEligibility + " first",
		}, nil
	}

	ranked := ranking.Rank(eligibleResults, ts.session.Patient.Location, ts.weights)
	ts.session.setRanked(ranked)

	type rankedTrial struct {
		Rank    int     `json:"rank"`
		TrialID string  `json:"trial_id"`
		Title   string  `json:"title"`
		Score   float64 `json:"score"`
	}
	out := make([]rankedTrial, 0, len(ranked))
	for i, r := range ranked {
		out = append(out, rankedTrial{
			Rank:    i + 1,
			TrialID: r.Trial.TrialID,
			Title:   r.Trial.Title,
			Score:   r.Score,
		})
	}
	return map[string]any{"ranked_trials": out}, nil
}

func (ts *Toolset) handleDetails(ctx context.Context, raw json.RawMessage) (any, error) {
	var args struct {
		NCTID string `json:"nct_id"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, &types.ValidationError{Tool: ToolDetails, Reason: err.Error()}
	}

	rec, err := ts.searcher.Details(ctx, args.NCTID)
	if err != nil {
		return nil, err
	}
	ts.session.addRecords([]types.TrialRecord{rec})
	return rec, nil
}

// parseLocation splits "City, ST" into a Location. A bare token is treated
// as a state or region name, matching how the provider's location search
// interprets it.
func parseLocation(s string) *types.Location {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) == 2 {
		return &types.Location{
			City:  strings.TrimSpace(parts[0]),
			State: strings.TrimSpace(parts[1]),
		}
	}
	return &types.Location{State: strings.TrimSpace(s)}
}
