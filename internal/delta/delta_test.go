package delta

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/TuftsBCB/seq"
	"github.com/stretchr/testify/require"
)

type mapResolver map[string]*seq.Sequence

func (m mapResolver) Resolve(id string) (*seq.Sequence, error) {
	s, ok := m[id]
	if !ok {
		return nil, errors.New("unknown " + id)
	}
	return s, nil
}

const twoRecords = `@0
>chr1
q1
         0          9          0          9 1 0 0
-3
*

@1
>chr1
q2
        10         19          9          0 0 0 0
*
`

func TestReader_Parse(t *testing.T) {
	q1 := seq.NewSequenceString("q1", "ACGTACGTAC")
	q2 := seq.NewSequenceString("q2", "TTTTTTTTTT")
	r := NewReader(strings.NewReader(twoRecords), mapResolver{"q1": &q1, "q2": &q2})

	a, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, int64(0), a.ID)
	require.Equal(t, "chr1", a.ReferenceID)
	require.Equal(t, "q1", a.QueryID())
	require.Equal(t, "q1", a.QueryRef)
	require.Equal(t, int64(0), a.RefStart)
	require.Equal(t, int64(9), a.RefEnd)
	require.Equal(t, 1, a.Errors)
	require.Equal(t, []int64{-3}, a.Deltas)
	require.False(t, a.Reverse)

	b, err := r.Next()
	require.NoError(t, err)
	require.True(t, b.Reverse, "qStart > qEnd marks reverse")
	require.Equal(t, int64(0), b.QueryStart)
	require.Equal(t, int64(9), b.QueryEnd)
	require.Same(t, &q2, b.Query)

	_, err = r.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestReader_Malformed(t *testing.T) {
	cases := map[string]string{
		"missing @":   ">chr1\nq\n0 1 0 1 0 0 0\n*\n",
		"few fields":  "@0\n>chr1\nq\n0 1 0 1\n*\n",
		"bad delta":   "@0\n>chr1\nq\n0 1 0 1 0 0 0\nxx\n*\n",
		"truncated":   "@0\n>chr1\nq\n0 1 0 1 0 0 0\n",
		"missing ref": "@0\nchr1\nq\n0 1 0 1 0 0 0\n*\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewReader(strings.NewReader(in), nil).Next()
			require.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestReader_UnknownQuery(t *testing.T) {
	_, err := NewReader(strings.NewReader(twoRecords), mapResolver{}).Next()
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrFormat)
}

func TestWriter_RoundTrip(t *testing.T) {
	in := NewReader(strings.NewReader(twoRecords), nil)
	var buf bytes.Buffer
	w := NewWriter(&buf)
	for {
		a, err := in.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		require.NoError(t, w.Write(a))
	}
	require.NoError(t, w.Flush())
	require.Equal(t, strings.ReplaceAll(twoRecords, "*\n\n@", "*\n@"), buf.String())
}

func TestWriter_KeepsQueryRef(t *testing.T) {
	read := seq.NewSequenceString("read", "ACGTACGTAC")
	in := "@3\n>chr1\nread@0Reverse\n1 10 10 1 0 0 0\n*\n"
	a, err := NewReader(strings.NewReader(in), mapResolver{"read@0Reverse": &read}).Next()
	require.NoError(t, err)
	require.Equal(t, "read", a.QueryID())
	require.Equal(t, "read@0Reverse", a.QueryLabel())

	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Write(a))
	require.NoError(t, w.Flush())
	require.Contains(t, buf.String(), "\nread@0Reverse\n")

	a.QueryRef = ""
	require.Equal(t, "read", a.QueryLabel())
}

func TestAlignment_Validate(t *testing.T) {
	q := seq.NewSequenceString("q", "ACGT")
	ok := &Alignment{Query: &q, RefStart: 5, RefEnd: 8, QueryStart: 0, QueryEnd: 3}
	require.NoError(t, ok.Validate())

	bad := []*Alignment{
		{Query: &q, RefStart: 9, RefEnd: 8, QueryEnd: 3},
		{Query: &q, RefStart: 5, RefEnd: 8, QueryStart: 3, QueryEnd: 2},
		{Query: &q, RefStart: 5, RefEnd: 8, QueryStart: 0, QueryEnd: 4},
	}
	for _, a := range bad {
		require.ErrorIs(t, a.Validate(), ErrInvalidRecord, a.String())
	}
}

func TestAlignment_QueryBase(t *testing.T) {
	q := seq.NewSequenceString("q", "ACGT")
	a := &Alignment{Query: &q}
	b, ok := a.QueryBase(2)
	require.True(t, ok)
	require.Equal(t, byte('G'), b)
	_, ok = a.QueryBase(4)
	require.False(t, ok)
	_, ok = a.QueryBase(-1)
	require.False(t, ok)
}

func TestSliceSource(t *testing.T) {
	src := NewSliceSource([]*Alignment{{ID: 1}, {ID: 2}})
	a, err := src.Next()
	require.NoError(t, err)
	require.Equal(t, int64(1), a.ID)
	_, _ = src.Next()
	_, err = src.Next()
	require.ErrorIs(t, err, io.EOF)
}
