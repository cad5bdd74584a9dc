// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the trial-agent pipeline:
// patient criteria, normalized trial records, match results, agent steps,
// configuration, and the error taxonomy used across stages.
package types

import (
	"fmt"
	"strings"
)

// Gender enumerates the patient gender values accepted by the matching rules.
type Gender string

const (
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
	GenderOther       Gender = "other"
	GenderUnspecified Gender = "unspecified"
)

// ParseGender converts a free-form gender string to the enumerated value.
// An empty string maps to GenderUnspecified.
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return GenderMale, nil
	case "female", "f":
		return GenderFemale, nil
	case "other":
		return GenderOther, nil
	case "", "unspecified":
		return GenderUnspecified, nil
	}
	return "", fmt.Errorf("unknown gender %q (want male, female, other, or unspecified)", s)
}

// Location is a city/state pair used for both patient location and trial sites.
type Location struct {
	City  string `json:"city" yaml:"city"`
	State string `json:"state" yaml:"state"`
}

// String renders the location as "City, State" for display and API queries.
func (l Location) String() string {
	if l.City == "" {
		return l.State
	}
	if l.State == "" {
		return l.City
	}
	return l.City + ", " + l.State
}

// PatientCriteria holds the attributes one search session matches against.
// Criteria are immutable once a session has been created from them.
type PatientCriteria struct {
	// ID is an opaque caller-supplied identifier for the patient.
	ID string `json:"id,omitempty" yaml:"id,omitempty"`

	// Age is the patient age in whole years.
	Age int `json:"age" yaml:"age"`

	// Gender is one of the Gender enum values.
	Gender Gender `json:"gender" yaml:"gender"`

	// Conditions lists the patient's conditions as free text, in the order
	// the caller supplied them.
	Conditions []string `json:"conditions" yaml:"conditions"`

	// Location is the patient's city and state; nil when unknown.
	Location *Location `json:"location,omitempty" yaml:"location,omitempty"`
}

// Validate reports whether the criteria are complete enough to start a search.
func (p PatientCriteria) Validate() error {
	if p.Age < 0 {
		return fmt.Errorf("age must be non-negative, got %d", p.Age)
	}
	switch p.Gender {
	case GenderMale, GenderFemale, GenderOther, GenderUnspecified:
	default:
		return fmt.Errorf("invalid gender %q", p.Gender)
	}
	if len(p.Conditions) == 0 {
		return fmt.Errorf("at least one condition is required")
	}
	for _, c := range p.Conditions {
		if strings.TrimSpace(c) == "" {
			return fmt.Errorf("conditions must not be blank")
		}
	}
	return nil
}
