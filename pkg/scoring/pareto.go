package scoring

import (
	"sort"

	"github.com/strataml/cubefit/pkg/errors"
)

// ParetoRank orders candidate indices best-first under the given
// objective weights (+1 maximize, -1 minimize per objective).
//
// Candidates are grouped into successive non-dominated fronts under
// standard Pareto dominance on the weighted objectives. Within a front,
// candidates are ordered by the sum of their weighted, min-max
// normalized objective values, descending; remaining ties break by
// original index so the ordering is deterministic. Fronts are
// concatenated front-by-front. With a single objective this reduces to
// a plain sort by the weighted score, descending.
func ParetoRank(scores [][]float64, weights []float64) ([]int, error) {
	n := len(scores)
	if n == 0 {
		return []int{}, nil
	}
	for _, w := range weights {
		if w != 1 && w != -1 {
			return nil, errors.Newf(errors.Configuration, "objective weights must be +1 or -1, got %v", w)
		}
	}
	for i, s := range scores {
		if len(s) != len(weights) {
			return nil, errors.Newf(errors.Configuration,
				"candidate %d has %d objectives, weight vector has %d", i, len(s), len(weights))
		}
	}

	// Apply weights so every objective is maximized.
	weighted := make([][]float64, n)
	for i, s := range scores {
		w := make([]float64, len(s))
		for j, v := range s {
			w[j] = v * weights[j]
		}
		weighted[i] = w
	}

	if len(weights) == 1 {
		order := identity(n)
		sort.SliceStable(order, func(a, b int) bool {
			return weighted[order[a]][0] > weighted[order[b]][0]
		})
		return order, nil
	}

	secondary := normalizedSums(weighted)

	// Peel non-dominated fronts until every candidate is ranked.
	remaining := identity(n)
	order := make([]int, 0, n)
	for len(remaining) > 0 {
		front := make([]int, 0)
		rest := make([]int, 0)
		for _, i := range remaining {
			dominated := false
			for _, j := range remaining {
				if i != j && dominates(weighted[j], weighted[i]) {
					dominated = true
					break
				}
			}
			if dominated {
				rest = append(rest, i)
			} else {
				front = append(front, i)
			}
		}

		sort.SliceStable(front, func(a, b int) bool {
			if secondary[front[a]] != secondary[front[b]] {
				return secondary[front[a]] > secondary[front[b]]
			}
			return front[a] < front[b]
		})

		order = append(order, front...)
		remaining = rest
	}

	return order, nil
}

// dominates reports whether a dominates b: not worse in every objective
// and strictly better in at least one.
func dominates(a, b []float64) bool {
	better := false
	for j := range a {
		if a[j] < b[j] {
			return false
		}
		if a[j] > b[j] {
			better = true
		}
	}
	return better
}

// normalizedSums computes each candidate's sum of min-max normalized
// objective values, the deterministic secondary ordering key inside a
// front. Degenerate objectives (zero range) contribute nothing.
func normalizedSums(weighted [][]float64) []float64 {
	n := len(weighted)
	m := len(weighted[0])

	sums := make([]float64, n)
	for j := 0; j < m; j++ {
		lo, hi := weighted[0][j], weighted[0][j]
		for i := 1; i < n; i++ {
			if weighted[i][j] < lo {
				lo = weighted[i][j]
			}
			if weighted[i][j] > hi {
				hi = weighted[i][j]
			}
		}
		if hi == lo {
			continue
		}
		for i := 0; i < n; i++ {
			sums[i] += (weighted[i][j] - lo) / (hi - lo)
		}
	}
	return sums
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// RankRecords ranks a generation's score records. Records without scores
// (no scoring configured anywhere) rank by arrival order. Weights are
// taken from the first record; ValidateRecords has already ensured the
// generation is consistent.
func RankRecords(records []ScoreRecord) ([]int, error) {
	if _, err := ValidateRecords(records); err != nil {
		return nil, err
	}
	if len(records) == 0 || records[0].Scores == nil {
		return identity(len(records)), nil
	}
	scores := make([][]float64, len(records))
	for i, r := range records {
		scores[i] = r.Scores
	}
	return ParetoRank(scores, records[0].Weights)
}
