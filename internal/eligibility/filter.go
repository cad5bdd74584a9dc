// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package eligibility evaluates patient attributes against a trial's stated
// inclusion criteria. The policy is deliberately lenient: a rule whose
// criteria are unknown passes, so false positives are preferred over
// silently dropping potentially relevant trials.
package eligibility

import (
	"fmt"
	"strings"

	"github.com/ewbaxter/ClinicalTrialAgent/pkg/types"
)

// ruleOutcome is the tri-state result of one rule.
type ruleOutcome int

const (
	rulePass ruleOutcome = iota
	ruleFail
	ruleUnknown
)

// synonyms maps lowercase condition terms to equivalent terms. Matching
// also accepts case-insensitive substrings in either direction, so the
// table only needs entries substring matching cannot cover.
var synonyms = map[string][]string{
	"nafld":          {"nonalcoholic fatty liver disease", "non-alcoholic fatty liver disease", "fatty liver"},
	"nash":           {"nonalcoholic steatohepatitis", "non-alcoholic steatohepatitis"},
	"breast cancer":  {"breast carcinoma", "breast neoplasm"},
	"heart attack":   {"myocardial infarction"},
	"high blood pressure": {"hypertension"},
	"diabetes":       {"diabetes mellitus", "type 2 diabetes", "type 1 diabetes"},
	"kidney disease": {"renal disease", "renal insufficiency"},
}

// Evaluate applies the rule set independently (no short-circuit ordering)
// and reports eligibility with the violated and satisfied rule
// descriptions. A record is eligible iff no rule failed; unknown never
// excludes.
func Evaluate(record types.TrialRecord, patient types.PatientCriteria) types.Assessment {
	var a types.Assessment

	apply := func(outcome ruleOutcome, failReason, passReason string) {
		switch outcome {
		case ruleFail:
			a.Violated = append(a.Violated, failReason)
		default:
			a.Satisfied = append(a.Satisfied, passReason)
		}
	}

	ageOutcome, ageFail, agePass := ageRule(record.Eligibility, patient.Age)
	apply(ageOutcome, ageFail, agePass)

	genderOutcome, genderFail, genderPass := genderRule(record.Eligibility.Sex, patient.Gender)
	apply(genderOutcome, genderFail, genderPass)

	condOutcome, condFail, condPass := conditionRule(record.Conditions, patient.Conditions)
	apply(condOutcome, condFail, condPass)

	a.Eligible = len(a.Violated) == 0
	return a
}

// ageRule checks the patient age against the record's declared bounds.
// A nil bound is unknown and does not exclude.
func ageRule(e types.TrialEligibility, age int) (ruleOutcome, string, string) {
	min, max := e.MinAgeYears, e.MaxAgeYears
	if min == nil && max == nil {
		return ruleUnknown, "", "age: bounds unknown"
	}
	if min != nil && age < *min {
		return ruleFail, fmt.Sprintf("age %d below minimum %d", age, *min), ""
	}
	if max != nil && age > *max {
		return ruleFail, fmt.Sprintf("age %d above maximum %d", age, *max), ""
	}
	return rulePass, "", fmt.Sprintf("age %d within %s", age, boundsString(min, max))
}

func boundsString(min, max *int) string {
	switch {
	case min != nil && max != nil:
		return fmt.Sprintf("%d-%d", *min, *max)
	case min != nil:
		return fmt.Sprintf("%d+", *min)
	case max != nil:
		return fmt.Sprintf("0-%d", *max)
	default:
		return "unknown bounds"
	}
}

// genderRule passes when the record accepts all sexes or matches the
// patient. A patient with gender other/unspecified is never excluded.
func genderRule(recordSex string, g types.Gender) (ruleOutcome, string, string) {
	sex := strings.ToUpper(strings.TrimSpace(recordSex))
	if sex == "" || sex == "ALL" {
		return rulePass, "", "sex: all accepted"
	}
	if g == types.GenderOther || g == types.GenderUnspecified {
		return ruleUnknown, "", "sex: patient gender unspecified"
	}
	if (sex == "FEMALE" && g == types.GenderFemale) || (sex == "MALE" && g == types.GenderMale) {
		return rulePass, "", "sex: matches " + strings.ToLower(sex)
	}
	return ruleFail, fmt.Sprintf("trial restricted to %s", strings.ToLower(sex)), ""
}

// conditionRule passes when any patient condition fuzzy-matches any record
// condition. A record without listed conditions is unknown.
func conditionRule(recordConds, patientConds []string) (ruleOutcome, string, string) {
	if len(recordConds) == 0 {
		return ruleUnknown, "", "condition: trial conditions unknown"
	}
	for _, pc := range patientConds {
		for _, rc := range recordConds {
			if conditionsMatch(pc, rc) {
				return rulePass, "", fmt.Sprintf("condition %q matches %q", pc, rc)
			}
		}
	}
	return ruleFail, "no condition overlap", ""
}

// conditionsMatch reports whether two condition strings refer to the same
// condition: case-insensitive substring in either direction, or a synonym
// of one is a substring match for the other.
func conditionsMatch(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	for _, syn := range synonyms[a] {
		if strings.Contains(b, syn) || strings.Contains(syn, b) {
			return true
		}
	}
	for _, syn := range synonyms[b] {
		if strings.Contains(a, syn) || strings.Contains(syn, a) {
			return true
		}
	}
	return false
}
