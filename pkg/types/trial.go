// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// TrialPhase enumerates normalized study phases, ordered from earliest to
// latest for ranking purposes.
type TrialPhase string

const (
	PhaseEarly TrialPhase = "early"
	Phase1     TrialPhase = "1"
	Phase2     TrialPhase = "2"
	Phase3     TrialPhase = "3"
	Phase4     TrialPhase = "4"
	PhaseNA    TrialPhase = "na"
)

// TrialStatus enumerates normalized enrollment statuses.
type TrialStatus string

const (
	StatusRecruiting          TrialStatus = "recruiting"
	StatusActiveNotRecruiting TrialStatus = "active_not_recruiting"
	StatusCompleted           TrialStatus = "completed"
	StatusTerminated          TrialStatus = "terminated"
	StatusUnknown             TrialStatus = "unknown"
)

// TrialLocation is one study site.
type TrialLocation struct {
	Facility string `json:"facility,omitempty" yaml:"facility,omitempty"`
	City     string `json:"city" yaml:"city"`
	State    string `json:"state" yaml:"state"`

	// DistanceMiles is the distance from the patient location when known;
	// nil when no distance has been established.
	DistanceMiles *float64 `json:"distance_miles,omitempty" yaml:"distance_miles,omitempty"`
}

// TrialEligibility holds the structured and free-text eligibility criteria
// as reported by the provider. Nil age bounds mean the bound is unknown;
// unknown bounds never exclude a patient.
type TrialEligibility struct {
	MinAgeYears *int   `json:"min_age_years,omitempty" yaml:"min_age_years,omitempty"`
	MaxAgeYears *int   `json:"max_age_years,omitempty" yaml:"max_age_years,omitempty"`
	Sex         string `json:"sex,omitempty" yaml:"sex,omitempty"`
	Text        string `json:"text,omitempty" yaml:"text,omitempty"`
}

// TrialRecord is one clinical study, normalized from the provider's response.
// Records are read-only after normalization; downstream stages annotate
// copies (MatchResult) rather than mutating the record.
type TrialRecord struct {
	// TrialID is the provider-assigned NCT identifier, unique per session.
	TrialID string `json:"trial_id" yaml:"trial_id"`

	Title      string          `json:"title" yaml:"title"`
	Conditions []string        `json:"conditions" yaml:"conditions"`
	Phase      TrialPhase      `json:"phase" yaml:"phase"`
	Status     TrialStatus     `json:"status" yaml:"status"`
	Locations  []TrialLocation `json:"locations" yaml:"locations"`

	Eligibility TrialEligibility `json:"eligibility" yaml:"eligibility"`

	// Summary is the provider's brief description, populated by detail fetches.
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`
}
