// internal/appcore/core.go
package appcore

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel/trace"

	"layoutrefine/internal/cmdutil"
	"layoutrefine/internal/config"
	"layoutrefine/internal/delta"
	"layoutrefine/internal/logging"
	"layoutrefine/internal/metrics"
	"layoutrefine/internal/pipeline"
	"layoutrefine/internal/queries"
	"layoutrefine/internal/runutil"
	"layoutrefine/internal/tracing"
	"layoutrefine/internal/version"
	"layoutrefine/internal/writers"
)

// memoryWarnRecords is the buffered-record total above which a run warns.
const memoryWarnRecords = 50_000_000

// Run executes a validated configuration and returns the process exit code:
// 0 success, 2 bad input before refinement starts, 3 refinement or output
// failure, 130 cancelled.
func Run(parent context.Context, stdout, stderr io.Writer, cfg config.Config, log logging.Logger) int {
	outw := bufio.NewWriter(stdout)

	thr, warns := runutil.ResolveThreads(cfg.Threads, len(cfg.DeltaFiles))
	warns = append(warns, runutil.CheckMemory(thr, cfg.WindowSize, memoryWarnRecords)...)
	for _, w := range warns {
		log.Warn(w)
	}

	var resolver delta.QueryResolver
	if len(cfg.Queries) > 0 {
		store := queries.NewStore()
		if err := store.Load(parent, cfg.Queries...); err != nil {
			fmt.Fprintln(stderr, err)
			return 2
		}
		log.Info("query fragments loaded", "files", len(cfg.Queries), "sequences", store.Len())
		resolver = store
	}

	var collector metrics.Collector = metrics.NewNop()
	if cfg.MetricsListen != "" {
		reg := metrics.NewRegistry()
		srv, err := metrics.Serve(cfg.MetricsListen, reg, log)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 2
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
		collector = metrics.NewPrometheus(reg, "")
	}

	var tp *tracing.Provider
	if cfg.Trace {
		var err error
		if tp, err = tracing.NewJSON(stderr, version.Version); err != nil {
			fmt.Fprintln(stderr, err)
			return 2
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Close(ctx); err != nil {
				log.Warn("trace flush failed", "error", err)
			}
		}()
	}

	wf := WriterFactory{Format: cfg.Output, Header: cfg.Header}
	inCh, writeErr := wf.Start(outw, thr*4)

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	start := time.Now()
	total, sums, perr := cmdutil.RunStream(
		ctx,
		pipeline.Config{
			Threads:    thr,
			WindowSize: cfg.WindowSize,
			Validate:   cfg.Validate,
			Logger:     log,
			Metrics:    collector,
			Tracer:     tracerProvider(tp),
		},
		cfg.DeltaFiles,
		resolver,
		func(it writers.Item) error {
			select {
			case inCh <- it:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	)

	close(inCh)

	if werr := <-writeErr; writers.IsBrokenPipe(werr) {
		return 0
	} else if werr != nil {
		fmt.Fprintln(stderr, werr)
		return 3
	}
	if e := outw.Flush(); writers.IsBrokenPipe(e) {
		return 0
	} else if e != nil {
		fmt.Fprintln(stderr, e)
		return 3
	}

	for _, s := range sums {
		log.Info("file refined",
			"file", s.File,
			"run_id", s.RunID,
			"records", s.Stats.Records,
			"gaps_closed", s.Stats.GapsClosed,
			"extensions", s.Stats.Extensions,
			"offset", s.Stats.Offset,
			"digest", pipeline.DigestString(s.Digest),
		)
	}

	if perr != nil {
		if errors.Is(perr, context.Canceled) {
			return 130
		}
		fmt.Fprintln(stderr, perr)
		return 3
	}
	log.Debug("run finished", "records", total, "files", len(sums), "elapsed", time.Since(start))
	return 0
}

// tracerProvider keeps a nil *tracing.Provider from becoming a non-nil
// interface.
func tracerProvider(tp *tracing.Provider) trace.TracerProvider {
	if tp == nil {
		return nil
	}
	return tp.TracerProvider
}
