// internal/inputs/open.go
package inputs

import (
	"compress/gzip"
	"io"
	"os"
	"strings"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

// Open opens path for reading. Stdin reads standard input and a ".gz" suffix
// is decompressed transparently.
func Open(path string) (io.ReadCloser, error) {
	if path == Stdin {
		return io.NopCloser(os.Stdin), nil
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if strings.HasSuffix(path, ".gz") {
		gr, err := gzip.NewReader(fh)
		if err != nil {
			fh.Close()
			return nil, err
		}
		return struct {
			io.Reader
			io.Closer
		}{Reader: gr, Closer: fh}, nil
	}
	return fh, nil
}

// CountStdin reports how many of paths name standard input.
func CountStdin(paths []string) int {
	n := 0
	for _, p := range paths {
		if p == Stdin {
			n++
		}
	}
	return n
}
