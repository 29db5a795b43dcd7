// internal/delta/alignment.go
package delta

import (
	"errors"
	"fmt"

	"github.com/TuftsBCB/seq"
)

// ErrInvalidRecord marks an alignment whose coordinates break its invariants.
var ErrInvalidRecord = errors.New("invalid delta alignment")

// Alignment is one aligned block between a reference range and a range of a
// query fragment. Coordinates are inclusive on both ends. The coordinate
// fields are mutated in place during layout refinement; everything else is
// carried through unchanged.
type Alignment struct {
	ID          int64
	ReferenceID string
	Query       *seq.Sequence
	// QueryRef is the query id as written in the input, e.g. a position id
	// such as "read@7Reverse". Empty means the fragment name.
	QueryRef string

	RefStart, RefEnd     int64
	QueryStart, QueryEnd int64
	Reverse              bool

	Errors           int
	SimilarityErrors int
	NonAlphas        int
	Deltas           []int64
}

// QueryID is the stable identity of the backing fragment ("" if none).
func (a *Alignment) QueryID() string {
	if a.Query == nil {
		return ""
	}
	return a.Query.Name
}

// QueryLabel is the query id to write back out: QueryRef if set, else
// QueryID.
func (a *Alignment) QueryLabel() string {
	if a.QueryRef != "" {
		return a.QueryRef
	}
	return a.QueryID()
}

// QueryLen is the total length of the backing fragment.
func (a *Alignment) QueryLen() int64 {
	if a.Query == nil {
		return 0
	}
	return int64(len(a.Query.Residues))
}

// QueryBase returns the fragment residue at i, if i is inside the fragment.
func (a *Alignment) QueryBase(i int64) (byte, bool) {
	if i < 0 || i >= a.QueryLen() {
		return 0, false
	}
	return byte(a.Query.Residues[i]), true
}

// Shift moves the reference range by offset.
func (a *Alignment) Shift(offset int64) {
	a.RefStart += offset
	a.RefEnd += offset
}

// Validate checks the coordinate invariants.
func (a *Alignment) Validate() error {
	switch {
	case a.RefStart > a.RefEnd:
		return fmt.Errorf("%w: id %d: reference start %d > end %d", ErrInvalidRecord, a.ID, a.RefStart, a.RefEnd)
	case a.QueryStart > a.QueryEnd:
		return fmt.Errorf("%w: id %d: query start %d > end %d", ErrInvalidRecord, a.ID, a.QueryStart, a.QueryEnd)
	case a.QueryStart < 0:
		return fmt.Errorf("%w: id %d: negative query start %d", ErrInvalidRecord, a.ID, a.QueryStart)
	case a.QueryLen() > 0 && a.QueryEnd >= a.QueryLen():
		return fmt.Errorf("%w: id %d: query end %d outside %q (len %d)", ErrInvalidRecord, a.ID, a.QueryEnd, a.QueryID(), a.QueryLen())
	}
	return nil
}

func (a *Alignment) String() string {
	dir := "+"
	if a.Reverse {
		dir = "-"
	}
	return fmt.Sprintf("%s/%s ref[%d,%d] query[%d,%d]%s", a.ReferenceID, a.QueryID(), a.RefStart, a.RefEnd, a.QueryStart, a.QueryEnd, dir)
}
