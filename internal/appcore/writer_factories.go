package appcore

import (
	"io"

	"layoutrefine/internal/writers"
)

// WriterFactory starts the output writer selected by the configuration.
type WriterFactory struct {
	Format string
	Header bool
}

func (w WriterFactory) Start(out io.Writer, bufSize int) (chan<- writers.Item, <-chan error) {
	return writers.Start(out, w.Format, writers.Options{Header: w.Header}, bufSize)
}
