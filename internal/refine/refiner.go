// Package refine corrects small indel and rearrangement errors in a
// reference-ordered stream of delta alignments.
//
// The Refiner walks the stream once. Each record is compared with the
// rightmost record of the active overlap group (the anchor):
//
//   - adjacent: the record starts right after the anchor. Both sides are
//     extended by consensus vote over their query sequences and, when the
//     extensions meet, the boundary is moved and the shift carried forward.
//     The record then joins the group like an overlapping one, so it can
//     become the anchor and sits on the left side of the next boundary.
//     Without this the anchor would stay behind and every later block in a
//     tiled run would be classified as a gap.
//   - overlap: the record joins the group.
//   - gap: if most fragments ending at the anchor also start the next block,
//     the gap is treated as spurious and closed. A new group starts either way.
//
// Records are paged through a cache.Window and emitted as soon as they fall
// behind the cache's eviction point, so memory stays bounded by the cache
// capacity rather than the input size.
package refine

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"

	"layoutrefine/internal/cache"
	"layoutrefine/internal/delta"
	"layoutrefine/internal/metrics"
)

// Stats summarises one run.
type Stats struct {
	Records         int64 // records read
	Emitted         int64
	Evicted         int64 // emitted before end of stream
	Adjacent        int64
	Overlaps        int64
	Gaps            int64
	GapsClosed      int64
	Extensions      int64 // extensions that moved a boundary
	ExtensionAborts int64
	Offset          int64 // cumulative shift at end of stream
}

// Refiner refines one alignment stream. It is not safe for concurrent use
// and its output can be consumed once.
type Refiner struct {
	src      delta.Source
	opts     options
	consumed bool
	stats    Stats
}

// New validates the arguments; nothing is read until the output is iterated.
func New(src delta.Source, opts ...Option) (*Refiner, error) {
	if src == nil {
		return nil, ErrNilSource
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.windowSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWindowSize, o.windowSize)
	}
	return &Refiner{src: src, opts: o}, nil
}

// All returns the refined records in input order. The sequence is lazy and
// single-use: iterating it again yields ErrConsumed. A non-nil error ends the
// sequence. Breaking out of the loop early releases the cache.
//
// Example:
//
//	for a, err := range r.All() {
//		if err != nil {
//			return err
//		}
//		consume(a)
//	}
func (r *Refiner) All() iter.Seq2[*delta.Alignment, error] {
	return func(yield func(*delta.Alignment, error) bool) {
		if r.consumed {
			yield(nil, ErrConsumed)
			return
		}
		r.consumed = true

		w, err := cache.New(r.src, r.opts.windowSize)
		if err != nil {
			yield(nil, err)
			return
		}
		s := &scan{Refiner: r, win: w, applied: make(map[int64]int64), yield: yield}
		err = s.run()
		r.stats.Offset = s.offset
		switch {
		case errors.Is(err, errStopped):
			r.opts.logger.Debug("refinement stopped by consumer", "emitted", r.stats.Emitted)
		case err != nil:
			r.opts.logger.Error("refinement failed", "error", err, "records", r.stats.Records)
			yield(nil, err)
		default:
			r.opts.logger.Info("refinement finished",
				"records", r.stats.Records,
				"adjacent", r.stats.Adjacent,
				"gaps", r.stats.Gaps,
				"gaps_closed", r.stats.GapsClosed,
				"extensions", r.stats.Extensions,
				"extension_aborts", r.stats.ExtensionAborts,
				"offset", s.offset,
			)
		}
	}
}

// Run consumes All, calling emit for every record. It checks ctx between
// records.
func (r *Refiner) Run(ctx context.Context, emit func(*delta.Alignment) error) error {
	for a, err := range r.All() {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(a); err != nil {
			return err
		}
	}
	return nil
}

// Stats returns the counters of the last run. Valid once All has finished.
func (r *Refiner) Stats() Stats { return r.stats }

// errStopped signals that the consumer stopped iterating.
var errStopped = errors.New("refine: consumer stopped")

type entry struct {
	idx int64
	rec *delta.Alignment
}

// scan is the state of one pass over the input.
type scan struct {
	*Refiner
	win   *cache.Window
	yield func(*delta.Alignment, error) bool

	offset   int64 // cumulative shift applied to records not yet settled
	frontier []entry
	anchor   entry
	// applied holds the cumulative offset already applied to records that
	// were settled ahead of the scan position while gathering a right side.
	applied map[int64]int64
}

func (s *scan) run() error {
	first, ok, err := s.win.Get(0)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	s.stats.Records++
	s.anchor = entry{0, first}
	s.frontier = append(s.frontier, s.anchor)

	for cur := int64(1); ; cur++ {
		next, ok, err := s.win.Get(cur)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		s.stats.Records++
		if err := s.unload(cur); err != nil {
			return err
		}
		s.settle(cur, next)
		e := entry{cur, next}

		switch {
		case next.RefStart-1 == s.anchor.rec.RefEnd:
			err = s.adjacent(e)
		case next.RefStart <= s.anchor.rec.RefEnd:
			s.overlap(e)
		default:
			err = s.gap(e)
		}
		if err != nil {
			return err
		}
		delete(s.applied, cur)
	}
	return s.emit(s.win.Drain())
}

// adjacent tries to move the boundary between the anchor group and the block
// starting right after it. The new record then joins the group.
func (s *scan) adjacent(next entry) error {
	s.stats.Adjacent++
	s.opts.metrics.RecordDecision(metrics.DecisionAdjacent)

	left, right, err := s.gatherSides(next)
	if err != nil {
		return err
	}
	ext := planExtension(records(left), records(right))
	s.opts.metrics.RecordExtension(ext.outcome, ext.offset)
	if ext.offset == 0 {
		if ext.outcome == metrics.ExtensionAmbiguous {
			s.stats.ExtensionAborts++
		}
		s.opts.logger.Debug("boundary kept", "ref_pos", next.rec.RefStart, "reason", ext.outcome)
	} else {
		ext.apply(records(left), records(right))
		s.offset += ext.offset
		s.markSettled(right)
		s.stats.Extensions++
		s.opts.logger.Debug("boundary moved", "ref_pos", next.rec.RefStart, "offset", ext.offset, "left", len(left), "right", len(right))
	}
	s.join(next)
	return nil
}

func (s *scan) overlap(next entry) {
	s.stats.Overlaps++
	s.opts.metrics.RecordDecision(metrics.DecisionOverlap)
	s.join(next)
}

// join adds next to the frontier, promoting it to anchor when it reaches
// further, and prunes the frontier once it outgrows the window.
func (s *scan) join(next entry) {
	s.frontier = append(s.frontier, next)
	if next.rec.RefEnd > s.anchor.rec.RefEnd {
		s.anchor = next
	}
	if len(s.frontier) <= s.opts.windowSize {
		return
	}
	end := s.anchor.rec.RefEnd
	s.frontier = slices.DeleteFunc(s.frontier, func(e entry) bool { return e.rec.RefEnd < end })
}

// gap closes the uncovered stretch after the anchor when the fragments on
// both sides agree, then starts a new group at next.
func (s *scan) gap(next entry) error {
	s.stats.Gaps++
	s.opts.metrics.RecordDecision(metrics.DecisionGap)

	left, right, err := s.gatherSides(next)
	if err != nil {
		return err
	}
	if score := supportScore(records(left), records(right)); score > 0 {
		length := next.rec.RefStart - s.anchor.rec.RefEnd - 1
		for _, e := range right {
			e.rec.Shift(-length)
		}
		s.offset -= length
		s.markSettled(right)
		s.stats.GapsClosed++
		s.opts.metrics.RecordGapClosed(length)
		s.opts.logger.Debug("gap closed", "ref_pos", s.anchor.rec.RefEnd+1, "length", length, "score", score)
	}

	s.frontier = append(s.frontier[:0], next)
	s.anchor = next
	return nil
}

// gatherSides collects the right side (next and every following record that
// starts at the same reference position) and the left side (frontier records
// ending at the anchor). Records already emitted are never part of a side.
func (s *scan) gatherSides(next entry) (left, right []entry, err error) {
	for idx := next.idx; ; idx++ {
		a, ok, err := s.win.Get(idx)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			break
		}
		if err := s.unload(next.idx); err != nil {
			return nil, nil, err
		}
		s.settle(idx, a)
		if a.RefStart != next.rec.RefStart {
			break
		}
		right = append(right, entry{idx, a})
	}

	end := s.anchor.rec.RefEnd
	origin := s.win.Origin()
	for _, e := range s.frontier {
		if e.idx >= origin && e.rec.RefEnd >= end {
			left = append(left, e)
		}
	}
	return left, right, nil
}

// settle brings a record up to the current cumulative offset.
func (s *scan) settle(idx int64, a *delta.Alignment) {
	if d := s.offset - s.applied[idx]; d != 0 {
		a.Shift(d)
	}
	s.applied[idx] = s.offset
}

// markSettled records that the entries already carry the current offset.
func (s *scan) markSettled(es []entry) {
	for _, e := range es {
		s.applied[e.idx] = s.offset
	}
}

// unload emits the oldest window once the scan is far enough past it.
func (s *scan) unload(current int64) error {
	out, err := s.win.TryUnload(current)
	if err != nil || len(out) == 0 {
		return err
	}
	s.stats.Evicted += int64(len(out))
	s.opts.metrics.RecordEviction(len(out))
	return s.emit(out)
}

func (s *scan) emit(out []*delta.Alignment) error {
	for i, a := range out {
		if s.opts.validate {
			if err := a.Validate(); err != nil {
				return err
			}
		}
		s.stats.Emitted++
		if !s.yield(a, nil) {
			s.opts.metrics.RecordEmitted(i + 1)
			return errStopped
		}
	}
	s.opts.metrics.RecordEmitted(len(out))
	return nil
}

func records(es []entry) []*delta.Alignment {
	out := make([]*delta.Alignment, len(es))
	for i, e := range es {
		out[i] = e.rec
	}
	return out
}
