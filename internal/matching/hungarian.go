package matching

import "turbodriver/internal/geohex"

// hungarianMatcher is the batch-only Kuhn-Munkres assignment algorithm.
// Its per-request FindMatch falls back to cost-based behavior, since the
// Hungarian algorithm is only meaningful over a full rider x driver matrix.
type hungarianMatcher struct{}

func (hungarianMatcher) FindMatch(idx *geohex.Index, rider Rider, candidates []Candidate, etaWeight float64) (Candidate, bool) {
	return costBasedMatcher{}.FindMatch(idx, rider, candidates, etaWeight)
}

func (hungarianMatcher) FindBatchMatches(idx *geohex.Index, riders []Rider, candidates []Candidate, etaWeight float64) []Pairing {
	n := len(riders)
	m := len(candidates)
	if n == 0 || m == 0 {
		return nil
	}

	// Build the cost matrix (cost = -score) over a square of size
	// max(n, m), padding with a large cost so the padding rows/columns
	// never win a real assignment.
	size := n
	if m > size {
		size = m
	}
	const padCost = 1e12
	cost := make([][]float64, size)
	for i := range cost {
		cost[i] = make([]float64, size)
		for j := range cost[i] {
			cost[i][j] = padCost
		}
	}
	for i, r := range riders {
		for j, c := range candidates {
			cost[i][j] = -Score(idx, r, c, etaWeight)
		}
	}

	assignment := kuhnMunkres(cost)

	pairings := make([]Pairing, 0, n)
	for i := 0; i < n; i++ {
		j := assignment[i]
		if j < 0 || j >= m {
			continue
		}
		pairings = append(pairings, Pairing{RiderID: riders[i].RiderID, DriverID: candidates[j].DriverID})
	}
	return pairings
}

// kuhnMunkres solves the square assignment problem by the Hungarian
// algorithm (Jonker-Volgenant-free, O(n^3) primal-dual formulation), over
// a cost matrix of size n x n. Returns assignment[i] = column matched to
// row i.
func kuhnMunkres(cost [][]float64) []int {
	n := len(cost)
	const inf = 1e18

	u := make([]float64, n+1)
	v := make([]float64, n+1)
	p := make([]int, n+1) // p[j] = row assigned to column j (1-indexed, 0 = unassigned)
	way := make([]int, n+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		minv := make([]float64, n+1)
		used := make([]bool, n+1)
		for j := range minv {
			minv[j] = inf
		}
		for {
			used[j0] = true
			i0 := p[j0]
			delta := inf
			j1 := -1
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := cost[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}
		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	assignment := make([]int, n)
	for j := 1; j <= n; j++ {
		if p[j] != 0 {
			assignment[p[j]-1] = j - 1
		}
	}
	return assignment
}
