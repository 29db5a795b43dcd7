package refine

import (
	"slices"

	"layoutrefine/internal/delta"
	"layoutrefine/internal/metrics"
)

var symbols = [4]byte{'A', 'C', 'G', 'T'}

// symbolIndex maps A/C/G/T (either case) to 0..3, everything else to -1.
func symbolIndex(b byte) int {
	switch b {
	case 'A', 'a':
		return 0
	case 'C', 'c':
		return 1
	case 'G', 'g':
		return 2
	case 'T', 't':
		return 3
	}
	return -1
}

// extension is the outcome of a consensus vote across a boundary. Nothing is
// mutated until apply.
type extension struct {
	outcome string
	offset  int64
}

// planExtension votes, base by base, on what lies beyond the aligned end of
// every left record and before the aligned start of every right record, and
// looks for the left consensus running into the right one.
func planExtension(left, right []*delta.Alignment) extension {
	leftExt, ok := consensus(left, func(a *delta.Alignment, k int64) int64 { return a.QueryEnd + k })
	if !ok {
		return extension{outcome: metrics.ExtensionAmbiguous}
	}
	rightExt, ok := consensus(right, func(a *delta.Alignment, k int64) int64 { return a.QueryStart - k })
	if !ok {
		return extension{outcome: metrics.ExtensionAmbiguous}
	}
	if len(leftExt) == 0 || len(rightExt) == 0 {
		return extension{outcome: metrics.ExtensionEmpty}
	}
	slices.Reverse(rightExt)

	start := findMaxOverlap(leftExt, rightExt)
	if start < 0 {
		return extension{outcome: metrics.ExtensionNoOverlap}
	}
	return extension{outcome: metrics.ExtensionShifted, offset: int64(len(rightExt) + start)}
}

// apply absorbs the rest of every left query into its block and re-anchors
// every right block at query position 0, shifted by the planned offset.
func (e extension) apply(left, right []*delta.Alignment) {
	if e.offset == 0 {
		return
	}
	for _, a := range left {
		last := a.QueryLen() - 1
		a.RefEnd += last - a.QueryEnd
		a.QueryEnd = last
	}
	for _, a := range right {
		a.RefStart -= a.QueryStart
		a.QueryStart = 0
		a.Shift(e.offset)
	}
}

// consensus extends one base at a time while at least one record still has
// a base at pos(a, k). It returns ok=false as soon as a step is ambiguous,
// including a step where every base present is outside A/C/G/T. A complete
// extension therefore spans the unaligned part of every record. Bases come
// back in scan order.
func consensus(recs []*delta.Alignment, pos func(a *delta.Alignment, k int64) int64) (ext []byte, ok bool) {
	for k := int64(1); ; k++ {
		var counts [4]int
		present, seen := false, false
		for _, a := range recs {
			b, in := a.QueryBase(pos(a, k))
			if !in {
				continue
			}
			present = true
			if i := symbolIndex(b); i >= 0 {
				counts[i]++
				seen = true
			}
		}
		if !present {
			return ext, true
		}
		if !seen {
			return nil, false
		}
		top, second := rankSymbols(counts)
		// integer division: a 2:1 split is still a consensus, 3:2 is not.
		if counts[second] > counts[top]/2 {
			return nil, false
		}
		ext = append(ext, symbols[top])
	}
}

// rankSymbols returns the indexes of the most and second most frequent
// symbols. Ties go to the earlier symbol in A, C, G, T order.
func rankSymbols(counts [4]int) (top, second int) {
	for i := 1; i < len(counts); i++ {
		if counts[i] > counts[top] {
			top = i
		}
	}
	second = -1
	for i := range counts {
		if i == top {
			continue
		}
		if second < 0 || counts[i] > counts[second] {
			second = i
		}
	}
	return top, second
}

// findMaxOverlap returns the smallest start in left such that left[start:]
// is a prefix of right, or -1. Scanning from 0 upward prefers the longest
// overlap.
func findMaxOverlap(left, right []byte) int {
	for start := range left {
		n := 0
		for n < len(left)-start && n < len(right) && left[start+n] == right[n] {
			n++
		}
		if n == len(left)-start {
			return start
		}
	}
	return -1
}
