package writers

import (
	"layoutrefine/internal/delta"
	"layoutrefine/pkg/api"
)

// Output formats.
const (
	FormatDelta = "delta"
	FormatJSONL = "jsonl"
	FormatJSON  = "json"
	FormatTSV   = "tsv"
)

// Item is one refined alignment and the file it came from.
type Item struct {
	File      string
	Alignment *delta.Alignment
}

// ToAPI converts an Item to its v1 wire form.
func ToAPI(it Item) api.AlignmentV1 {
	a := it.Alignment
	strand := "+"
	if a.Reverse {
		strand = "-"
	}
	return api.AlignmentV1{
		ID:               a.ID,
		ReferenceID:      a.ReferenceID,
		QueryID:          a.QueryLabel(),
		Fragment:         a.QueryID(),
		RefStart:         a.RefStart,
		RefEnd:           a.RefEnd,
		QueryStart:       a.QueryStart,
		QueryEnd:         a.QueryEnd,
		Strand:           strand,
		Errors:           a.Errors,
		SimilarityErrors: a.SimilarityErrors,
		NonAlphas:        a.NonAlphas,
		Deltas:           a.Deltas,
		SourceFile:       it.File,
	}
}
