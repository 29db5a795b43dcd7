// internal/writers/stream.go
package writers

import (
	"bufio"
	"io"
	"sync"
)

// Reuse a 64 KiB buffered writer across writers to avoid per-writer mallocs.
var bwPool = sync.Pool{
	New: func() any {
		return bufio.NewWriterSize(io.Discard, 64<<10)
	},
}

// Encoder writes one item at a time; Finish, if set, runs once after the
// last item and before the final flush.
type Encoder struct {
	Write  func(Item) error
	Finish func() error
}

// stream spins up a writer goroutine. open binds the format to the pooled
// buffer and may write a preamble. After a write error the goroutine keeps
// draining the channel so producers never block, and reports the first error.
func stream(out io.Writer, bufSize int, open func(bw *bufio.Writer) (Encoder, error)) (chan<- Item, <-chan error) {
	if bufSize <= 0 {
		bufSize = 64
	}
	in := make(chan Item, bufSize)
	done := make(chan error, 1)

	go func() {
		bw := bwPool.Get().(*bufio.Writer)
		bw.Reset(out)
		defer func() {
			bw.Reset(io.Discard)
			bwPool.Put(bw)
		}()

		err := func() error {
			enc, err := open(bw)
			if err != nil {
				return err
			}
			for it := range in {
				if err := enc.Write(it); err != nil {
					return err
				}
			}
			if enc.Finish != nil {
				if err := enc.Finish(); err != nil {
					return err
				}
			}
			return bw.Flush()
		}()
		for range in {
		}
		done <- err
	}()

	return in, done
}
