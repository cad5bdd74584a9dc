// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/ewbaxter/ClinicalTrialAgent/pkg/types"
)

// ResultFile is the on-disk representation of one completed session. The
// caller can save a search and review the ranked trials and step trace
// later without re-running the agent.
type ResultFile struct {
	Criteria types.PatientCriteria `yaml:"criteria"`
	Config   types.Config          `yaml:"config"`
	Results  []types.MatchResult   `yaml:"results"`
	Steps    []types.AgentStep     `yaml:"steps"`
	Summary  ResultSummary         `yaml:"summary"`
}

// ResultSummary stores outcome statistics and a timestamp.
type ResultSummary struct {
	State         State     `yaml:"state"`
	StepsUsed     int       `yaml:"steps_used"`
	FailureReason string    `yaml:"failure_reason,omitempty"`
	FinalText     string    `yaml:"final_text,omitempty"`
	Timestamp     time.Time `yaml:"timestamp"`
}

// WriteResultFile saves the criteria, effective configuration, and outcome
// to a YAML file.
func WriteResultFile(path string, patient types.PatientCriteria, cfg types.Config, out Outcome) error {
	rf := ResultFile{
		Criteria: patient,
		Config:   cfg,
		Results:  out.Results,
		Steps:    out.Steps,
		Summary: ResultSummary{
			State:         out.State,
			StepsUsed:     out.StepsUsed,
			FailureReason: out.FailureReason,
			FinalText:     out.FinalText,
			Timestamp:     time.Now().UTC(),
		},
	}

	data, err := yaml.Marshal(rf)
	if err != nil {
		return fmt.Errorf("marshaling result file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing result file %s: %w", path, err)
	}
	return nil
}

// LoadCriteriaFile reads patient criteria from a YAML file and validates
// them. The file holds a bare PatientCriteria document.
func LoadCriteriaFile(path string) (types.PatientCriteria, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.PatientCriteria{}, fmt.Errorf("reading criteria file %s: %w", path, err)
	}

	var patient types.PatientCriteria
	if err := yaml.Unmarshal(data, &patient); err != nil {
		return types.PatientCriteria{}, fmt.Errorf("parsing criteria file %s: %w", path, err)
	}
	if patient.Gender == "" {
		patient.Gender = types.GenderUnspecified
	}
	if err := patient.Validate(); err != nil {
		return types.PatientCriteria{}, fmt.Errorf("criteria file %s: %w", path, err)
	}
	return patient, nil
}
