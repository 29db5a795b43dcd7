// internal/delta/reader.go
package delta

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/TuftsBCB/seq"
)

// ErrFormat marks malformed delta input.
var ErrFormat = errors.New("delta format")

// QueryResolver maps a query id line to its fragment.
type QueryResolver interface {
	Resolve(id string) (*seq.Sequence, error)
}

// Reader parses the delta alignment format:
//
//	@<id>
//	><reference id>
//	<query id>
//	<refStart> <refEnd> <queryStart> <queryEnd> <errors> <simErrors> <nonAlphas>
//	<delta>...
//	*
//
// Blank lines are ignored. queryStart > queryEnd marks a reverse alignment.
type Reader struct {
	sc       *bufio.Scanner
	resolver QueryResolver
	line     int
}

// NewReader reads records from r. The query id line is kept in QueryRef and
// resolved to a fragment; records naming the same fragment share it. With a
// nil resolver every record gets a residue-less fragment carrying only the
// query id.
func NewReader(r io.Reader, resolver QueryResolver) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &Reader{sc: sc, resolver: resolver}
}

// Next returns the next record or io.EOF.
func (r *Reader) Next() (*Alignment, error) {
	line, err := r.nextLine()
	if err != nil {
		return nil, err
	}
	if line[0] != '@' {
		return nil, r.errorf("expected '@<id>', got %q", line)
	}
	id, err := strconv.ParseInt(string(bytes.TrimSpace(line[1:])), 10, 64)
	if err != nil {
		return nil, r.errorf("bad record id %q", line[1:])
	}
	a := &Alignment{ID: id}

	if line, err = r.mustLine(); err != nil {
		return nil, err
	}
	if line[0] != '>' {
		return nil, r.errorf("expected '><reference id>', got %q", line)
	}
	a.ReferenceID = string(bytes.TrimSpace(line[1:]))

	if line, err = r.mustLine(); err != nil {
		return nil, err
	}
	queryID := string(bytes.TrimSpace(line))
	a.QueryRef = queryID
	if r.resolver == nil {
		a.Query = &seq.Sequence{Name: queryID}
	} else {
		q, err := r.resolver.Resolve(queryID)
		if err != nil {
			return nil, fmt.Errorf("delta line %d: %w", r.line, err)
		}
		a.Query = q
	}

	if line, err = r.mustLine(); err != nil {
		return nil, err
	}
	if err := r.parseCoords(a, line); err != nil {
		return nil, err
	}

	for {
		if line, err = r.mustLine(); err != nil {
			return nil, err
		}
		if line[0] == '*' {
			return a, nil
		}
		d, err := strconv.ParseInt(string(bytes.TrimSpace(line)), 10, 64)
		if err != nil {
			return nil, r.errorf("bad delta %q", line)
		}
		a.Deltas = append(a.Deltas, d)
	}
}

func (r *Reader) parseCoords(a *Alignment, line []byte) error {
	f := bytes.Fields(line)
	if len(f) != 7 {
		return r.errorf("want 7 coordinate fields, got %d", len(f))
	}
	var n [7]int64
	for i, b := range f {
		v, err := strconv.ParseInt(string(b), 10, 64)
		if err != nil {
			return r.errorf("bad field %d %q", i+1, b)
		}
		n[i] = v
	}
	a.RefStart, a.RefEnd = n[0], n[1]
	a.QueryStart, a.QueryEnd = n[2], n[3]
	if a.QueryEnd < a.QueryStart {
		a.QueryStart, a.QueryEnd = a.QueryEnd, a.QueryStart
		a.Reverse = true
	}
	a.Errors, a.SimilarityErrors, a.NonAlphas = int(n[4]), int(n[5]), int(n[6])
	return nil
}

// nextLine returns the next non-blank line, or io.EOF.
func (r *Reader) nextLine() ([]byte, error) {
	for r.sc.Scan() {
		r.line++
		line := bytes.TrimRight(r.sc.Bytes(), " \t\r")
		if len(line) > 0 {
			return line, nil
		}
	}
	if err := r.sc.Err(); err != nil {
		return nil, fmt.Errorf("delta scan: %w", err)
	}
	return nil, io.EOF
}

// mustLine is nextLine inside a record, where EOF is a truncation.
func (r *Reader) mustLine() ([]byte, error) {
	line, err := r.nextLine()
	if errors.Is(err, io.EOF) {
		return nil, r.errorf("truncated record")
	}
	return line, err
}

func (r *Reader) errorf(format string, a ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrFormat, r.line, fmt.Sprintf(format, a...))
}
