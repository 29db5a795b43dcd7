// Package pipeline refines several delta files concurrently and hands the
// results to a visit callback, one file after another in argument order.
//
// Each file gets its own Refiner, run id and trace span. Workers stream into
// a per-file buffer, so a slow consumer applies backpressure instead of
// growing memory.
package pipeline
