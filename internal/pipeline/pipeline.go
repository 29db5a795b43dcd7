// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"layoutrefine/internal/delta"
	"layoutrefine/internal/inputs"
	"layoutrefine/internal/logging"
	"layoutrefine/internal/metrics"
	"layoutrefine/internal/refine"
)

const tracerName = "layoutrefine/internal/pipeline"

// ErrMultipleStdin is returned when more than one input names stdin.
var ErrMultipleStdin = errors.New("pipeline: stdin may be given only once")

// Config controls the refinement pipeline.
type Config struct {
	Threads    int  // number of files refined at once (>=1)
	WindowSize int  // cache window; 0 selects refine.DefaultWindowSize
	Validate   bool // check coordinate invariants on every record
	Buffer     int  // per-file output buffer; 0 selects 256
	Logger     logging.Logger
	Metrics    metrics.Collector
	// Tracer provides the per-file spans; nil selects the global provider.
	Tracer trace.TracerProvider
}

// Summary describes one refined file.
type Summary struct {
	File  string
	RunID string
	Stats refine.Stats
	// Digest is an xxh3 hash of the emitted ids, query ids and coordinates in
	// output order. Equal inputs and settings give equal digests.
	Digest uint64
}

// DigestString formats a digest the way it is logged.
func DigestString(d uint64) string { return fmt.Sprintf("%016x", d) }

// digest accumulates Summary.Digest.
type digest struct {
	h   *xxh3.Hasher
	buf []byte
}

func newDigest() *digest { return &digest{h: xxh3.New()} }

func (d *digest) add(a *delta.Alignment) {
	b := d.buf[:0]
	for _, v := range [...]int64{a.ID, a.RefStart, a.RefEnd, a.QueryStart, a.QueryEnd} {
		b = binary.LittleEndian.AppendUint64(b, uint64(v))
	}
	b = strconv.AppendBool(b, a.Reverse)
	b = append(b, a.QueryLabel()...)
	b = append(b, 0)
	d.buf = b
	_, _ = d.h.Write(b)
}

// ForEachRefined refines every file in deltaFiles, resolving query ids
// through queries, and calls visit for each record. Records of one file are
// delivered in input order and files are delivered in argument order.
// It returns the summaries of the files that completed and the first error
// encountered (including context cancellation).
func ForEachRefined(
	ctx context.Context,
	cfg Config,
	deltaFiles []string,
	queries delta.QueryResolver,
	visit func(file string, a *delta.Alignment) error,
) ([]Summary, error) {
	if inputs.CountStdin(deltaFiles) > 1 {
		return nil, ErrMultipleStdin
	}
	if cfg.Threads < 1 {
		cfg.Threads = 1
	}
	if cfg.WindowSize == 0 {
		cfg.WindowSize = refine.DefaultWindowSize
	}
	if cfg.Buffer < 1 {
		cfg.Buffer = 256
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNop()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = otel.GetTracerProvider()
	}

	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	outs := make([]chan *delta.Alignment, len(deltaFiles))
	for i := range outs {
		outs[i] = make(chan *delta.Alignment, cfg.Buffer)
	}
	summaries := make([]Summary, len(deltaFiles))
	errs := make([]error, len(deltaFiles))

	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(cfg.Threads)
	for w := 0; w < cfg.Threads; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				summaries[i], errs[i] = refineFile(ctx, cfg, deltaFiles[i], queries, outs[i])
				close(outs[i])
			}
		}()
	}

	// Feed work
	go func() {
		defer close(jobs)
		for i := range deltaFiles {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	var (
		cerr error
		done int
	)
	for i, file := range deltaFiles {
		if cerr = collect(ctx, file, outs[i], visit); cerr != nil {
			break
		}
		// errs[i] is visible once outs[i] is closed.
		if errs[i] != nil {
			cerr = fmt.Errorf("%s: %w", file, errs[i])
			break
		}
		done++
	}
	cancel()
	wg.Wait()

	if cerr != nil && parent.Err() != nil {
		cerr = parent.Err()
	}
	return summaries[:done], cerr
}

// collect forwards one file's records until its channel closes.
func collect(ctx context.Context, file string, in <-chan *delta.Alignment, visit func(string, *delta.Alignment) error) error {
	for {
		select {
		case a, ok := <-in:
			if !ok {
				return nil
			}
			if err := visit(file, a); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// refineFile runs one Refiner over path and streams its output into out.
func refineFile(
	ctx context.Context,
	cfg Config,
	path string,
	queries delta.QueryResolver,
	out chan<- *delta.Alignment,
) (Summary, error) {
	sum := Summary{File: path, RunID: uuid.NewString()}
	ctx, span := cfg.Tracer.Tracer(tracerName).Start(ctx, "refine.file", trace.WithAttributes(
		attribute.String("layoutrefine.file", path),
		attribute.String("layoutrefine.run_id", sum.RunID),
		attribute.Int("layoutrefine.window_size", cfg.WindowSize),
	))
	defer span.End()

	err := func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		rc, err := inputs.Open(path)
		if err != nil {
			return err
		}
		defer rc.Close()

		r, err := refine.New(delta.NewReader(rc, queries),
			refine.WithWindowSize(cfg.WindowSize),
			refine.WithLogger(withRun(cfg.Logger, path, sum.RunID)),
			refine.WithMetrics(cfg.Metrics),
			refine.WithValidation(cfg.Validate),
		)
		if err != nil {
			return err
		}
		dg := newDigest()
		err = r.Run(ctx, func(a *delta.Alignment) error {
			dg.add(a)
			select {
			case out <- a:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		sum.Stats = r.Stats()
		sum.Digest = dg.h.Sum64()
		return err
	}()

	span.SetAttributes(
		attribute.Int64("layoutrefine.records", sum.Stats.Records),
		attribute.Int64("layoutrefine.gaps_closed", sum.Stats.GapsClosed),
		attribute.Int64("layoutrefine.extensions", sum.Stats.Extensions),
		attribute.Int64("layoutrefine.offset", sum.Stats.Offset),
		attribute.String("layoutrefine.digest", DigestString(sum.Digest)),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return sum, err
}

// withRun tags every record of l with the file and run id when l supports it.
func withRun(l logging.Logger, path, runID string) logging.Logger {
	if sl, ok := l.(*logging.SlogLogger); ok {
		return sl.With("file", path, "run_id", runID)
	}
	return l
}
