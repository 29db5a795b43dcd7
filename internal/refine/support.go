package refine

import (
	"layoutrefine/internal/delta"
)

// supportScore counts +1 for every left record whose fragment also aligns on
// the right side of a gap, and -1 for every one that does not. Fragment
// identity stands in for mate-pair evidence.
func supportScore(left, right []*delta.Alignment) int {
	ids := make(map[string]struct{}, len(right))
	for _, a := range right {
		ids[a.QueryID()] = struct{}{}
	}

	score := 0
	for _, a := range left {
		if _, ok := ids[a.QueryID()]; ok {
			score++
		} else {
			score--
		}
	}
	return score
}
