// internal/queries/store.go
package queries

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/TuftsBCB/io/fasta"
	"github.com/TuftsBCB/seq"
	"github.com/puzpuzpuz/xsync/v4"

	"layoutrefine/internal/inputs"
)

var (
	// ErrUnknownQuery is returned by Resolve for an id with no loaded sequence.
	ErrUnknownQuery = errors.New("unknown query sequence")
	// ErrDuplicateQuery is returned by Load and Add for a name seen before.
	ErrDuplicateQuery = errors.New("duplicate query sequence")
)

// Store indexes query fragments by name and by load order. Lookups are safe
// for concurrent use; Load and Add may run alongside them.
type Store struct {
	byName *xsync.Map[string, *seq.Sequence]
	byPos  *xsync.Map[int64, *seq.Sequence]

	mu   sync.Mutex // serialises position assignment
	next int64
}

func NewStore() *Store {
	return &Store{
		byName: xsync.NewMap[string, *seq.Sequence](),
		byPos:  xsync.NewMap[int64, *seq.Sequence](),
	}
}

// Len is the number of stored sequences.
func (s *Store) Len() int { return s.byName.Size() }

// Add stores one sequence at the next position and returns that position.
func (s *Store) Add(q seq.Sequence) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(q)
}

func (s *Store) addLocked(q seq.Sequence) (int64, error) {
	p := &q
	if _, loaded := s.byName.LoadOrStore(q.Name, p); loaded {
		return 0, fmt.Errorf("%w: %q", ErrDuplicateQuery, q.Name)
	}
	pos := s.next
	s.byPos.Store(pos, p)
	s.next++
	return pos, nil
}

// Load reads FASTA files ("-" is stdin, ".gz" is decompressed) concurrently.
// Positions follow the order of paths, then the order within each file.
func (s *Store) Load(ctx context.Context, paths ...string) error {
	parsed := make([][]seq.Sequence, len(paths))
	errs := make([]error, len(paths))

	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			parsed[i], errs[i] = readFile(ctx, path)
		}(i, path)
	}
	wg.Wait()
	if err := errors.Join(errs...); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, list := range parsed {
		for _, q := range list {
			if _, err := s.addLocked(q); err != nil {
				return fmt.Errorf("%s: %w", paths[i], err)
			}
		}
	}
	return nil
}

// Resolve returns the stored fragment named by id. An id that is not a
// stored name is tried as a position id: the digits after its last '@'.
// Every spelling of one fragment resolves to the same *seq.Sequence, so its
// Name is the fragment identity. Callers must not modify it.
func (s *Store) Resolve(id string) (*seq.Sequence, error) {
	q, ok := s.byName.Load(id)
	if !ok {
		if pos, isPos := positionOf(id); isPos {
			q, ok = s.byPos.Load(pos)
		}
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownQuery, id)
	}
	return q, nil
}

// positionOf parses "name@123" and "name@123Reverse" style ids.
func positionOf(id string) (int64, bool) {
	at := strings.LastIndexByte(id, '@')
	if at < 0 {
		return 0, false
	}
	digits := id[at+1:]
	end := strings.IndexFunc(digits, func(r rune) bool { return r < '0' || r > '9' })
	if end >= 0 {
		digits = digits[:end]
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func readFile(ctx context.Context, path string) ([]seq.Sequence, error) {
	rc, err := inputs.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var out []seq.Sequence
	r := fasta.NewReader(rc)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, err := r.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, seq.Sequence{Name: firstField(s.Name), Residues: s.Residues})
	}
}

// firstField trims a FASTA header to its id.
func firstField(name string) string {
	if f := strings.Fields(name); len(f) > 0 {
		return f[0]
	}
	return name
}
