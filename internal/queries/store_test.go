package queries

import (
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/TuftsBCB/seq"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func residues(q *seq.Sequence) string {
	b := make([]byte, len(q.Residues))
	for i, r := range q.Residues {
		b[i] = byte(r)
	}
	return string(b)
}

func TestLoad_ResolveByNameAndPosition(t *testing.T) {
	a := writeFile(t, "a.fa", ">r1 first read\nACGT\nAC\n>r2\nGGGG\n")
	b := writeFile(t, "b.fa", ">r3\nTTTT\n")

	s := NewStore()
	require.NoError(t, s.Load(context.Background(), a, b))
	require.Equal(t, 3, s.Len())

	q, err := s.Resolve("r1")
	require.NoError(t, err)
	require.Equal(t, "r1", q.Name)
	require.Equal(t, "ACGTAC", residues(q))

	q, err = s.Resolve("frag@2")
	require.NoError(t, err)
	require.Equal(t, "r3", q.Name, "position ids resolve to the stored name")
	require.Equal(t, "TTTT", residues(q))

	q, err = s.Resolve("x!@1Reverse")
	require.NoError(t, err)
	require.Equal(t, "r2", q.Name)
	require.Equal(t, "GGGG", residues(q))
}

func TestResolve_SpellingsShareFragment(t *testing.T) {
	s := NewStore()
	_, err := s.Add(seq.NewSequenceString("read", "ACGT"))
	require.NoError(t, err)

	byName, err := s.Resolve("read")
	require.NoError(t, err)
	for _, id := range []string{"read@0", "read@0Reverse", "other@0"} {
		q, err := s.Resolve(id)
		require.NoError(t, err, id)
		require.Same(t, byName, q, id)
	}
}

func TestResolve_Unknown(t *testing.T) {
	s := NewStore()
	_, err := s.Add(seq.NewSequenceString("r1", "ACGT"))
	require.NoError(t, err)

	for _, id := range []string{"nope", "r@7", "r@", "r@x"} {
		_, err := s.Resolve(id)
		require.ErrorIs(t, err, ErrUnknownQuery, id)
	}
}

func TestAdd_Duplicate(t *testing.T) {
	s := NewStore()
	pos, err := s.Add(seq.NewSequenceString("r1", "ACGT"))
	require.NoError(t, err)
	require.Zero(t, pos)
	_, err = s.Add(seq.NewSequenceString("r1", "TTTT"))
	require.ErrorIs(t, err, ErrDuplicateQuery)
	pos, err = s.Add(seq.NewSequenceString("r2", "TTTT"))
	require.NoError(t, err)
	require.Equal(t, int64(1), pos)
}

func TestLoad_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.fa.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte(">g1\nACGTACGT\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	s := NewStore()
	require.NoError(t, s.Load(context.Background(), path))
	q, err := s.Resolve("g1")
	require.NoError(t, err)
	require.Equal(t, "ACGTACGT", residues(q))
}

func TestLoad_Errors(t *testing.T) {
	s := NewStore()
	require.Error(t, s.Load(context.Background(), filepath.Join(t.TempDir(), "missing.fa")))

	dup := writeFile(t, "dup.fa", ">r1\nAC\n>r1\nGT\n")
	require.ErrorIs(t, NewStore().Load(context.Background(), dup), ErrDuplicateQuery)
}

func TestPositionOf(t *testing.T) {
	cases := map[string]int64{"a@0": 0, "a@b@12": 12, "read!@40Reverse": 40}
	for id, want := range cases {
		got, ok := positionOf(id)
		require.True(t, ok, id)
		require.Equal(t, want, got, id)
	}
	_, ok := positionOf("plain")
	require.False(t, ok)
}
