// Package matching implements the per-request and batch rider/driver
// pairing algorithms: Simple, CostBased and Hungarian (spec.md §4.8).
package matching

import "turbodriver/internal/geohex"

// Algorithm selects which pairing strategy a scenario uses.
type Algorithm string

const (
	Simple    Algorithm = "Simple"
	CostBased Algorithm = "CostBased"
	Hungarian Algorithm = "Hungarian"
)

// Candidate is a driver eligible for matching against one or more riders.
type Candidate struct {
	DriverID int64
	Cell     geohex.Cell
}

// Rider is the minimal view a matcher needs of a waiting rider.
type Rider struct {
	RiderID int64
	Cell    geohex.Cell
}

// Pairing is one (rider, driver) match.
type Pairing struct {
	RiderID  int64
	DriverID int64
}

// Score computes the per-pair weight shared by CostBased and Hungarian
// (spec.md §4.8): higher is better; Hungarian minimises cost = -score.
func Score(idx *geohex.Index, rider Rider, cand Candidate, etaWeight float64) float64 {
	pickupKM := idx.HaversineKM(rider.Cell, cand.Cell)
	pickupEtaMS := pickupKM / 40.0 * 3_600_000
	if pickupEtaMS < 1000 {
		pickupEtaMS = 1000
	}
	return -pickupKM - (pickupEtaMS/1000)*etaWeight
}

// Candidates returns every driver in drivers within matchRadius grid cells
// of rider, in the given (already id-ordered) iteration order.
func Candidates(idx *geohex.Index, rider Rider, drivers []Candidate, matchRadius int) []Candidate {
	out := make([]Candidate, 0, len(drivers))
	for _, d := range drivers {
		if idx.GridDistance(rider.Cell, d.Cell) <= matchRadius {
			out = append(out, d)
		}
	}
	return out
}

// Matcher is the capability set every algorithm implements (spec.md §9):
// find_match for per-request mode, find_batch_matches for batch mode. The
// zero-value default batch implementation below simply delegates to
// per-rider calls; Hungarian overrides it.
type Matcher interface {
	FindMatch(idx *geohex.Index, rider Rider, candidates []Candidate, etaWeight float64) (Candidate, bool)
	FindBatchMatches(idx *geohex.Index, riders []Rider, candidates []Candidate, etaWeight float64) []Pairing
}

// New returns the Matcher for the named algorithm.
func New(alg Algorithm) Matcher {
	switch alg {
	case Hungarian:
		return hungarianMatcher{}
	case CostBased:
		return costBasedMatcher{}
	default:
		return simpleMatcher{}
	}
}

// defaultBatch is the shared default find_batch_matches: each rider is
// matched independently in iteration order, and a driver matched to an
// earlier rider is removed from the candidate pool for later riders.
func defaultBatch(m Matcher, idx *geohex.Index, riders []Rider, candidates []Candidate, etaWeight float64) []Pairing {
	pool := append([]Candidate(nil), candidates...)
	var pairings []Pairing
	for _, r := range riders {
		d, ok := m.FindMatch(idx, r, pool, etaWeight)
		if !ok {
			continue
		}
		pairings = append(pairings, Pairing{RiderID: r.RiderID, DriverID: d.DriverID})
		pool = removeCandidate(pool, d.DriverID)
	}
	return pairings
}

func removeCandidate(cands []Candidate, driverID int64) []Candidate {
	out := cands[:0:0]
	for _, c := range cands {
		if c.DriverID != driverID {
			out = append(out, c)
		}
	}
	return out
}

// simpleMatcher picks the first candidate in iteration order (spec.md
// §4.8: "first candidate in iteration order within radius").
type simpleMatcher struct{}

func (simpleMatcher) FindMatch(_ *geohex.Index, _ Rider, candidates []Candidate, _ float64) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	return candidates[0], true
}

func (m simpleMatcher) FindBatchMatches(idx *geohex.Index, riders []Rider, candidates []Candidate, etaWeight float64) []Pairing {
	return defaultBatch(m, idx, riders, candidates, etaWeight)
}

// costBasedMatcher picks the argmax-scoring candidate, tie-breaking on the
// lowest driver id for reproducibility.
type costBasedMatcher struct{}

func (costBasedMatcher) FindMatch(idx *geohex.Index, rider Rider, candidates []Candidate, etaWeight float64) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	best := candidates[0]
	bestScore := Score(idx, rider, best, etaWeight)
	for _, c := range candidates[1:] {
		s := Score(idx, rider, c, etaWeight)
		if s > bestScore || (s == bestScore && c.DriverID < best.DriverID) {
			best, bestScore = c, s
		}
	}
	return best, true
}

func (m costBasedMatcher) FindBatchMatches(idx *geohex.Index, riders []Rider, candidates []Candidate, etaWeight float64) []Pairing {
	return defaultBatch(m, idx, riders, candidates, etaWeight)
}
