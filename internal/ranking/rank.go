// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ranking orders eligible match results by a weighted relevance
// score. Ranking is deterministic: identical inputs and weights always
// produce the same order, with ties broken by trial id ascending.
package ranking

import (
	"sort"
	"strings"

	"github.com/ewbaxter/ClinicalTrialAgent/pkg/types"
)

// Distance buckets used when a trial location carries no measured distance.
// Without geocoding the distance is inferred from how closely the site
// matches the patient's city and state.
const (
	distanceColocated = 0.0
	distanceSameState = 50.0
	distanceFar       = 250.0
)

// Rank filters the input down to eligible results, scores them, and returns
// them in descending score order. Ineligible results are excluded, not
// scored as zero. The input slice is not modified.
func Rank(results []types.MatchResult, patientLoc *types.Location, w types.RankingWeights) []types.MatchResult {
	ranked := make([]types.MatchResult, 0, len(results))
	for _, r := range results {
		if !r.Eligible {
			continue
		}
		r.Score = score(r.Trial, patientLoc, w)
		ranked = append(ranked, r)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Trial.TrialID < ranked[j].Trial.TrialID
	})
	return ranked
}

// score is the weighted sum of the three ranking factors.
func score(t types.TrialRecord, patientLoc *types.Location, w types.RankingWeights) float64 {
	return w.Proximity*proximityScore(t, patientLoc) +
		w.Phase*phaseScore(t.Phase) +
		w.Status*statusScore(t.Status)
}

// proximityScore is inversely proportional to the minimum distance between
// the patient and any trial site: 100/(100+miles). A co-located site scores
// 1.0. When the patient location is unspecified the score is 1.0 so
// proximity does not discriminate.
func proximityScore(t types.TrialRecord, patientLoc *types.Location) float64 {
	if patientLoc == nil {
		return 1.0
	}

	min := distanceFar
	for _, loc := range t.Locations {
		d := locationDistance(loc, *patientLoc)
		if d < min {
			min = d
		}
	}
	return 100.0 / (100.0 + min)
}

// locationDistance returns the measured distance when the record carries
// one, otherwise a bucketed estimate from the city/state match level.
func locationDistance(loc types.TrialLocation, patient types.Location) float64 {
	if loc.DistanceMiles != nil {
		return *loc.DistanceMiles
	}
	sameState := strings.EqualFold(loc.State, patient.State) && patient.State != ""
	sameCity := strings.EqualFold(loc.City, patient.City) && patient.City != ""
	switch {
	case sameState && sameCity:
		return distanceColocated
	case sameState:
		return distanceSameState
	default:
		return distanceFar
	}
}

// phaseScore favors later phases.
func phaseScore(p types.TrialPhase) float64 {
	switch p {
	case types.Phase4:
		return 1.0
	case types.Phase3:
		return 0.8
	case types.Phase2:
		return 0.6
	case types.Phase1:
		return 0.4
	case types.PhaseEarly:
		return 0.2
	default:
		return 0.0
	}
}

// statusScore favors trials that are open to enrollment.
func statusScore(s types.TrialStatus) float64 {
	switch s {
	case types.StatusRecruiting:
		return 1.0
	case types.StatusActiveNotRecruiting:
		return 0.6
	default:
		return 0.2
	}
}
