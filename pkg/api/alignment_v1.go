// pkg/api/alignment_v1.go
package api

// AlignmentV1 is the stable JSON/JSONL schema for refined alignments.
// Keep fields, names, and types stable. Add new fields only with ",omitempty".
type AlignmentV1 struct {
	ID               int64   `json:"id"`
	ReferenceID      string  `json:"reference_id"`
	QueryID          string  `json:"query_id"`
	Fragment         string  `json:"fragment,omitempty"` // resolved query name
	RefStart         int64   `json:"ref_start"`
	RefEnd           int64   `json:"ref_end"`
	QueryStart       int64   `json:"query_start"`
	QueryEnd         int64   `json:"query_end"`
	Strand           string  `json:"strand"` // "+" | "-"
	Errors           int     `json:"errors"`
	SimilarityErrors int     `json:"similarity_errors"`
	NonAlphas        int     `json:"non_alphas"`
	Deltas           []int64 `json:"deltas,omitempty"`
	SourceFile       string  `json:"source_file,omitempty"`
}
