// internal/app/app.go
package app

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"layoutrefine/internal/appcore"
	"layoutrefine/internal/cli"
	"layoutrefine/internal/logging"
	"layoutrefine/internal/writers"
)

const name = "layoutrefine"

// RunContext parses argv, runs the refinement and returns the exit code.
// Logs go to stderr; refined records go to stdout.
func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)
	defer func() { _ = outw.Flush() }()

	fs := cli.NewFlagSet(name)
	fs.SetOutput(io.Discard)

	if len(argv) == 0 {
		argv = []string{"-h"}
	}

	opts, err := cli.ParseArgs(fs, argv)
	if err != nil {
		code := 2
		if errors.Is(err, flag.ErrHelp) {
			code = 0
		} else {
			_, _ = fmt.Fprintln(stderr, err)
		}
		fs.SetOutput(outw)
		fs.Usage()
		return flushed(outw, stderr, code)
	}

	if opts.Version {
		_ = cli.PrintVersion(outw, name)
		return flushed(outw, stderr, 0)
	}

	cfg, err := opts.Config()
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}
	level, _ := logging.ParseLevel(cfg.LogLevel)
	log := logging.NewText(stderr, level)

	return appcore.Run(parent, stdout, stderr, cfg, log)
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

// flushed flushes w and returns code, or 3 if the flush failed for a reason
// other than a closed pipe.
func flushed(w *bufio.Writer, stderr io.Writer, code int) int {
	if err := w.Flush(); writers.IsBrokenPipe(err) {
		return 0
	} else if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 3
	}
	return code
}
