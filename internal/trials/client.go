// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package trials queries the ClinicalTrials.gov v2 API and normalizes
// studies into TrialRecords.
package trials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/ewbaxter/ClinicalTrialAgent/internal/httputil"
	"github.com/ewbaxter/ClinicalTrialAgent/pkg/types"
)

// studiesBase is the ClinicalTrials.gov v2 studies endpoint. Declared as a
// var so tests can substitute an httptest server.
var studiesBase = "https://clinicaltrials.gov/api/v2/studies"

// searchFields is the field set requested per study; everything the
// normalizer consumes and nothing more.
const searchFields = "NCTId,BriefTitle,Condition,OverallStatus,Phase," +
	"LocationFacility,LocationCity,LocationState," +
	"EligibilityCriteria,MinimumAge,MaximumAge,Sex,BriefSummary"

// Client talks to the ClinicalTrials.gov v2 API. The API is free and
// unauthenticated.
type Client struct {
	HTTP       *http.Client
	UserAgent  string
	MaxRetries int
}

// NewClient builds a Client from search configuration.
func NewClient(cfg types.SearchConfig) *Client {
	return &Client{
		HTTP:       &http.Client{Timeout: cfg.Timeout},
		UserAgent:  cfg.UserAgent,
		MaxRetries: cfg.MaxRetries,
	}
}

// Query holds the search parameters for one provider call.
type Query struct {
	// Conditions are combined with OR inside a single condition clause.
	Conditions []string

	// Location narrows results to studies with a site near the given
	// city/state; nil searches nationwide.
	Location *types.Location

	// Status is a normalized enrollment-status filter. "all" or ""
	// disables the filter.
	Status string

	// PageSize caps the number of studies returned (provider max 100).
	PageSize int
}

// statusFilters maps normalized status names to the provider's
// OverallStatus vocabulary.
var statusFilters = map[string]string{
	"recruiting":            "RECRUITING",
	"not_yet_recruiting":    "NOT_YET_RECRUITING",
	"active_not_recruiting": "ACTIVE_NOT_RECRUITING",
	"completed":             "COMPLETED",
}

// buildQueryTerm assembles the provider's AREA[...] query expression.
func buildQueryTerm(q Query) string {
	var parts []string

	var conds []string
	for _, c := range q.Conditions {
		if c = strings.TrimSpace(c); c != "" {
			conds = append(conds, c)
		}
	}
	if len(conds) == 1 {
		parts = append(parts, "AREA[ConditionSearch]"+conds[0])
	} else if len(conds) > 1 {
		parts = append(parts, "AREA[ConditionSearch]("+strings.Join(conds, " OR ")+")")
	}

	if q.Location != nil && q.Location.String() != "" {
		parts = append(parts, "AREA[LocationSearch]"+q.Location.String())
	}

	if f, ok := statusFilters[strings.ToLower(q.Status)]; ok {
		parts = append(parts, "AREA[OverallStatus]"+f)
	}

	return strings.Join(parts, " AND ")
}

// Search queries the provider and returns normalized trial records.
// Transport failures and 429/5xx responses are retried with backoff; 4xx
// responses are surfaced immediately as ProviderError.
func (c *Client) Search(ctx context.Context, q Query) ([]types.TrialRecord, error) {
	term := buildQueryTerm(q)
	if term == "" {
		return nil, fmt.Errorf("empty trial search: provide at least one condition")
	}

	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	params := url.Values{
		"query.term": {term},
		"pageSize":   {fmt.Sprintf("%d", pageSize)},
		"format":     {"json"},
		"fields":     {searchFields},
	}

	body, err := c.get(ctx, studiesBase+"?"+params.Encode(), "trial search")
	if err != nil {
		return nil, err
	}

	var sr studiesResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, &types.ParseError{Source: "clinicaltrials", Err: err}
	}

	records := make([]types.TrialRecord, 0, len(sr.Studies))
	for _, s := range sr.Studies {
		rec := normalizeStudy(s)
		if rec.TrialID == "" {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Details fetches one study by NCT id and returns the normalized record,
// including the brief summary and full eligibility text.
func (c *Client) Details(ctx context.Context, nctID string) (types.TrialRecord, error) {
	nctID = strings.TrimSpace(nctID)
	if nctID == "" {
		return types.TrialRecord{}, fmt.Errorf("empty NCT id")
	}

	params := url.Values{"format": {"json"}}
	body, err := c.get(ctx, studiesBase+"/"+url.PathEscape(nctID)+"?"+params.Encode(), "trial details")
	if err != nil {
		return types.TrialRecord{}, err
	}

	var s studyJSON
	if err := json.Unmarshal(body, &s); err != nil {
		return types.TrialRecord{}, &types.ParseError{Source: "clinicaltrials", Err: err}
	}

	rec := normalizeStudy(s)
	if rec.TrialID == "" {
		return types.TrialRecord{}, &types.ParseError{
			Source: "clinicaltrials",
			Err:    fmt.Errorf("study %s missing identification module", nctID),
		}
	}
	return rec, nil
}

// get issues a GET with retry and classifies failures into the error
// taxonomy. On success it returns the response body.
func (c *Client) get(ctx context.Context, reqURL, op string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, c.MaxRetries)
	if err != nil {
		return nil, classifyTransport(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &types.ProviderError{
			Provider:   "clinicaltrials",
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(snippet)),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &types.NetworkError{Op: op, Err: err}
	}
	return body, nil
}

// classifyTransport maps transport failures to TimeoutError or NetworkError.
func classifyTransport(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &types.TimeoutError{Op: op}
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return &types.TimeoutError{Op: op}
	}
	return &types.NetworkError{Op: op, Err: err}
}
