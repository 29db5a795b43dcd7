package cmdutil

import (
	"context"

	"layoutrefine/internal/delta"
	"layoutrefine/internal/pipeline"
	"layoutrefine/internal/writers"
)

// RunStream runs the shared pipeline and streams every refined record via
// send. It returns the number of records sent, the per-file summaries and
// the first error encountered.
func RunStream(
	ctx context.Context,
	cfg pipeline.Config,
	deltaFiles []string,
	queries delta.QueryResolver,
	send func(writers.Item) error,
) (int, []pipeline.Summary, error) {
	total := 0
	sums, err := pipeline.ForEachRefined(ctx, cfg, deltaFiles, queries, func(file string, a *delta.Alignment) error {
		if err := send(writers.Item{File: file, Alignment: a}); err != nil {
			return err
		}
		total++
		return nil
	})
	return total, sums, err
}
