// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package eligibility

import (
	"strings"
	"testing"

	"github.com/ewbaxter/ClinicalTrialAgent/pkg/types"
)

func intp(n int) *int { return &n }

func record(min, max *int, sex string, conds ...string) types.TrialRecord {
	return types.TrialRecord{
		TrialID:    "NCT00000001",
		Conditions: conds,
		Eligibility: types.TrialEligibility{
			MinAgeYears: min,
			MaxAgeYears: max,
			Sex:         sex,
		},
	}
}

func patient(age int, g types.Gender, conds ...string) types.PatientCriteria {
	return types.PatientCriteria{Age: age, Gender: g, Conditions: conds}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name         string
		record       types.TrialRecord
		patient      types.PatientCriteria
		wantEligible bool
		wantViolated string // substring of one violated reason, "" = none
	}{
		{
			name:         "all rules pass",
			record:       record(intp(18), intp(75), "ALL", "Breast Cancer"),
			patient:      patient(45, types.GenderFemale, "breast cancer"),
			wantEligible: true,
		},
		{
			name:         "age below minimum",
			record:       record(intp(18), intp(75), "ALL", "Breast Cancer"),
			patient:      patient(12, types.GenderFemale, "breast cancer"),
			wantEligible: false,
			wantViolated: "below minimum",
		},
		{
			name:         "age above maximum",
			record:       record(intp(18), intp(75), "ALL", "Breast Cancer"),
			patient:      patient(90, types.GenderFemale, "breast cancer"),
			wantEligible: false,
			wantViolated: "above maximum",
		},
		{
			name:         "sex restricted and mismatched",
			record:       record(nil, nil, "FEMALE", "Breast Cancer"),
			patient:      patient(45, types.GenderMale, "breast cancer"),
			wantEligible: false,
			wantViolated: "restricted to female",
		},
		{
			name:         "sex restricted but patient unspecified never excludes",
			record:       record(nil, nil, "FEMALE", "Breast Cancer"),
			patient:      patient(45, types.GenderUnspecified, "breast cancer"),
			wantEligible: true,
		},
		{
			name:         "no condition overlap",
			record:       record(nil, nil, "ALL", "Melanoma"),
			patient:      patient(45, types.GenderFemale, "breast cancer"),
			wantEligible: false,
			wantViolated: "no condition overlap",
		},
		{
			name:         "substring condition match",
			record:       record(nil, nil, "ALL", "Metastatic Breast Cancer"),
			patient:      patient(45, types.GenderFemale, "breast cancer"),
			wantEligible: true,
		},
		{
			name:         "synonym condition match",
			record:       record(nil, nil, "ALL", "Nonalcoholic Fatty Liver Disease"),
			patient:      patient(45, types.GenderMale, "NAFLD"),
			wantEligible: true,
		},
		{
			name:         "unknown trial conditions never exclude",
			record:       record(nil, nil, "ALL"),
			patient:      patient(45, types.GenderFemale, "breast cancer"),
			wantEligible: true,
		},
		{
			name:         "independent rules report every violation",
			record:       record(intp(18), intp(40), "MALE", "Melanoma"),
			patient:      patient(70, types.GenderFemale, "breast cancer"),
			wantEligible: false,
			wantViolated: "above maximum",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.record, tt.patient)
			if got.Eligible != tt.wantEligible {
				t.Fatalf("Eligible = %v, want %v (violated: %v)", got.Eligible, tt.wantEligible, got.Violated)
			}
			if tt.wantViolated != "" {
				found := false
				for _, v := range got.Violated {
					if strings.Contains(v, tt.wantViolated) {
						found = true
					}
				}
				if !found {
					t.Errorf("Violated = %v, want entry containing %q", got.Violated, tt.wantViolated)
				}
			}
		})
	}
}

// A record with unparseable age bounds must not be excluded on the age
// rule for any patient age.
func TestEvaluate_UnknownAgeBoundsNeverExclude(t *testing.T) {
	rec := record(nil, nil, "ALL", "Breast Cancer")
	for _, age := range []int{0, 1, 17, 45, 89, 120} {
		got := Evaluate(rec, patient(age, types.GenderFemale, "breast cancer"))
		if !got.Eligible {
			t.Errorf("age %d: Eligible = false, want true (violated: %v)", age, got.Violated)
		}
	}
}

func TestEvaluate_RulesEvaluatedIndependently(t *testing.T) {
	rec := record(intp(18), intp(40), "MALE", "Melanoma")
	got := Evaluate(rec, patient(70, types.GenderFemale, "breast cancer"))

	// All three rules fail; none may be skipped by short-circuiting.
	if len(got.Violated) != 3 {
		t.Errorf("len(Violated) = %d, want 3: %v", len(got.Violated), got.Violated)
	}
}

func TestConditionsMatch(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"breast cancer", "Breast Cancer", true},
		{"breast cancer", "metastatic breast cancer", true},
		{"heart attack", "Acute Myocardial Infarction", true},
		{"diabetes", "Type 2 Diabetes Mellitus", true},
		{"breast cancer", "melanoma", false},
		{"", "melanoma", false},
	}
	for _, tt := range tests {
		if got := conditionsMatch(tt.a, tt.b); got != tt.want {
			t.Errorf("conditionsMatch(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
