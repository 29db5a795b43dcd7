package delta

import (
	"bufio"
	"fmt"
	"io"
)

// Writer emits records in the format read by Reader.
type Writer struct {
	bw *bufio.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(w)}
}

func (w *Writer) Write(a *Alignment) error {
	qs, qe := a.QueryStart, a.QueryEnd
	if a.Reverse {
		qs, qe = qe, qs
	}
	if _, err := fmt.Fprintf(w.bw, "@%d\n>%s\n%s\n%10d %10d %10d %10d %d %d %d\n",
		a.ID, a.ReferenceID, a.QueryLabel(),
		a.RefStart, a.RefEnd, qs, qe,
		a.Errors, a.SimilarityErrors, a.NonAlphas); err != nil {
		return err
	}
	for _, d := range a.Deltas {
		if _, err := fmt.Fprintf(w.bw, "%d\n", d); err != nil {
			return err
		}
	}
	_, err := w.bw.WriteString("*\n")
	return err
}

func (w *Writer) Flush() error { return w.bw.Flush() }
