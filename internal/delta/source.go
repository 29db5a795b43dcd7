package delta

import "io"

// Source is an ordered, forward-only provider of alignments, non-decreasing
// by RefStart. Next returns io.EOF once the input is exhausted.
type Source interface {
	Next() (*Alignment, error)
}

// SliceSource serves alignments from memory.
type SliceSource struct {
	list []*Alignment
	pos  int
}

func NewSliceSource(list []*Alignment) *SliceSource {
	return &SliceSource{list: list}
}

func (s *SliceSource) Next() (*Alignment, error) {
	if s.pos >= len(s.list) {
		return nil, io.EOF
	}
	a := s.list[s.pos]
	s.pos++
	return a, nil
}
