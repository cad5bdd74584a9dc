// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package trials

import (
	"strconv"
	"strings"

	"github.com/ewbaxter/ClinicalTrialAgent/pkg/types"
)

// studiesResponse is the wire shape of a v2 studies search.
type studiesResponse struct {
	Studies    []studyJSON `json:"studies"`
	TotalCount int         `json:"totalCount"`
}

type studyJSON struct {
	ProtocolSection protocolSection `json:"protocolSection"`
}

type protocolSection struct {
	Identification    identificationModule    `json:"identificationModule"`
	Status            statusModule            `json:"statusModule"`
	Design            designModule            `json:"designModule"`
	Conditions        conditionsModule        `json:"conditionsModule"`
	Eligibility       eligibilityModule       `json:"eligibilityModule"`
	ContactsLocations contactsLocationsModule `json:"contactsLocationsModule"`
	Description       descriptionModule       `json:"descriptionModule"`
}

type identificationModule struct {
	NCTID      string `json:"nctId"`
	BriefTitle string `json:"briefTitle"`
}

type statusModule struct {
	OverallStatus string `json:"overallStatus"`
}

type designModule struct {
	Phases []string `json:"phases"`
}

type conditionsModule struct {
	Conditions []string `json:"conditions"`
}

type eligibilityModule struct {
	EligibilityCriteria string `json:"eligibilityCriteria"`
	MinimumAge          string `json:"minimumAge"`
	MaximumAge          string `json:"maximumAge"`
	Sex                 string `json:"sex"`
}

type contactsLocationsModule struct {
	Locations []locationJSON `json:"locations"`
}

type locationJSON struct {
	Facility string `json:"facility"`
	City     string `json:"city"`
	State    string `json:"state"`
}

type descriptionModule struct {
	BriefSummary string `json:"briefSummary"`
}

// phaseRank orders provider phase strings; when a study spans multiple
// phases the latest one wins.
var phaseRank = map[string]int{
	"EARLY_PHASE1": 1,
	"PHASE1":       2,
	"PHASE2":       3,
	"PHASE3":       4,
	"PHASE4":       5,
}

var phaseByRank = map[int]types.TrialPhase{
	1: types.PhaseEarly,
	2: types.Phase1,
	3: types.Phase2,
	4: types.Phase3,
	5: types.Phase4,
}

// parsePhase normalizes the provider's phase list to a single enum value.
func parsePhase(phases []string) types.TrialPhase {
	best := 0
	for _, p := range phases {
		if r := phaseRank[strings.ToUpper(strings.TrimSpace(p))]; r > best {
			best = r
		}
	}
	if best == 0 {
		return types.PhaseNA
	}
	return phaseByRank[best]
}

// parseStatus normalizes the provider's overall status.
func parseStatus(s string) types.TrialStatus {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "RECRUITING", "NOT_YET_RECRUITING", "ENROLLING_BY_INVITATION":
		return types.StatusRecruiting
	case "ACTIVE_NOT_RECRUITING":
		return types.StatusActiveNotRecruiting
	case "COMPLETED":
		return types.StatusCompleted
	case "TERMINATED", "WITHDRAWN", "SUSPENDED":
		return types.StatusTerminated
	default:
		return types.StatusUnknown
	}
}

// parseAgeYears converts provider age strings like "18 Years" or "6 Months"
// to whole years. Sub-year ages floor to 0. Returns nil when the value is
// absent or unparseable; a nil bound is treated as unknown downstream and
// never excludes a patient.
func parseAgeYears(s string) *int {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 {
		return nil
	}

	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 0 {
		return nil
	}

	unit := "years"
	if len(fields) > 1 {
		unit = strings.ToLower(fields[1])
	}
	switch {
	case strings.HasPrefix(unit, "year"):
		return &n
	case strings.HasPrefix(unit, "month"):
		y := n / 12
		return &y
	case strings.HasPrefix(unit, "week"), strings.HasPrefix(unit, "day"):
		zero := 0
		return &zero
	default:
		return nil
	}
}

// normalizeStudy maps one wire study to a TrialRecord.
func normalizeStudy(s studyJSON) types.TrialRecord {
	p := s.ProtocolSection

	locs := make([]types.TrialLocation, 0, len(p.ContactsLocations.Locations))
	for _, l := range p.ContactsLocations.Locations {
		locs = append(locs, types.TrialLocation{
			Facility: l.Facility,
			City:     l.City,
			State:    l.State,
		})
	}

	return types.TrialRecord{
		TrialID:    p.Identification.NCTID,
		Title:      p.Identification.BriefTitle,
		Conditions: p.Conditions.Conditions,
		Phase:      parsePhase(p.Design.Phases),
		Status:     parseStatus(p.Status.OverallStatus),
		Locations:  locs,
		Eligibility: types.TrialEligibility{
			MinAgeYears: parseAgeYears(p.Eligibility.MinimumAge),
			MaxAgeYears: parseAgeYears(p.Eligibility.MaximumAge),
			Sex:         strings.ToUpper(strings.TrimSpace(p.Eligibility.Sex)),
			Text:        p.Eligibility.EligibilityCriteria,
		},
		Summary: p.Description.BriefSummary,
	}
}
