package scoring

import (
	"cmp"
	"slices"
)

// Rank returns a new slice ordered by descending score. Ties keep their input
// order and unscored jobs go last.
func Rank(jobs []*ScoredJob) []*ScoredJob {
	out := slices.Clone(jobs)
	slices.SortStableFunc(out, func(a, b *ScoredJob) int {
		as, bs := a.score(), b.score()
		switch {
		case as == nil && bs == nil:
			return 0
		case as == nil:
			return 1
		case bs == nil:
			return -1
		}
		return cmp.Compare(*bs, *as)
	})
	return out
}
