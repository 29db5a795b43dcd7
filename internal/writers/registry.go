// internal/writers/registry.go
package writers

import (
	"bufio"
	"fmt"
	"io"
	"sort"
)

// Options are the format-independent writer switches.
type Options struct {
	Header bool // tsv only
}

// Opener binds a format to a buffered output.
type Opener func(bw *bufio.Writer, o Options) (Encoder, error)

// Writer registry (format → opener). Formats register in init().
var openers = map[string]Opener{}

// Register adds or replaces a format (last wins).
func Register(format string, fn Opener) { openers[format] = fn }

// Formats lists the registered formats in sorted order.
func Formats() []string {
	out := make([]string, 0, len(openers))
	for f := range openers {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Start spins up a writer goroutine for format. Send items on the returned
// channel, close it, then read exactly one error from the second channel.
func Start(out io.Writer, format string, o Options, bufSize int) (chan<- Item, <-chan error) {
	fn, ok := openers[format]
	if !ok {
		return stream(out, bufSize, func(*bufio.Writer) (Encoder, error) {
			return Encoder{}, fmt.Errorf("unknown output format %q (no writer registered)", format)
		})
	}
	return stream(out, bufSize, func(bw *bufio.Writer) (Encoder, error) { return fn(bw, o) })
}
