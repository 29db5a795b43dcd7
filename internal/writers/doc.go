// Package writers turns refined alignments into serialized outputs.
//
// Every format runs in its own goroutine fed by a channel, so the pipeline
// never blocks on formatting. JSON and JSONL go through pkg/api (v1) for a
// stable wire format; the delta format round-trips through internal/delta.
package writers
