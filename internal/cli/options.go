// internal/cli/options.go
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"

	"layoutrefine/internal/config"
	"layoutrefine/internal/refine"
	"layoutrefine/internal/version"
	"layoutrefine/internal/writers"
)

// Options holds all CLI flags and arguments.
type Options struct {
	// Input
	DeltaFiles []string
	Queries    []string
	ConfigFile string

	// Refinement
	WindowSize int
	Validate   bool

	// Performance
	Threads int

	// Output
	Output string
	Header bool // true unless --no-header

	// Diagnostics
	LogLevel      string
	Quiet         bool
	MetricsListen string
	Trace         bool

	Version bool

	// set records the flags given explicitly on the command line.
	set map[string]bool
}

// NewFlagSet returns a configured FlagSet with custom usage/help.
func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, `%s: delta alignment layout refinement

Version: %s

Usage:
  %s [flags] [file.delta ...]

Corrects small indels and spurious gaps in reference-ordered delta
alignments and writes the refined records. Inputs may be given with
--delta or as positionals; globs are expanded and '-' reads STDIN.

`, name, version.Version, name)
		fs.PrintDefaults()
	}
	return fs
}

// Parse is the top-level call for CLI parsing.
func Parse() (Options, error) { return ParseArgs(flag.CommandLine, nil) }

// ParseArgs registers and parses all flags, returns an Options struct.
// Flags and positionals may be interleaved.
func ParseArgs(fs *flag.FlagSet, argv []string) (Options, error) {
	var opt Options
	var help bool

	// Input
	var deltas, queries stringSlice
	fs.Var(&deltas, "delta", "delta alignment file(s) (repeatable or '-') [*]")
	fs.Var(&queries, "queries", "FASTA file(s) with the query fragments (repeatable)")
	fs.StringVar(&opt.ConfigFile, "config", "", "YAML config file; explicit flags override it")

	// Refinement
	fs.IntVar(&opt.WindowSize, "window-size", refine.DefaultWindowSize, fmt.Sprintf("cache window; at most 1000 windows are held [%d]", refine.DefaultWindowSize))
	fs.BoolVar(&opt.Validate, "validate", false, "check coordinate invariants of every emitted record [false]")

	// Performance
	fs.IntVar(&opt.Threads, "threads", 0, "delta files refined at once (0 = all CPUs) [0]")

	// Output
	fs.StringVar(&opt.Output, "output", writers.FormatDelta, "output format: delta | json | jsonl | tsv [delta]")
	noHeader := false
	fs.BoolVar(&noHeader, "no-header", false, "suppress header line in TSV [false]")

	// Diagnostics
	fs.StringVar(&opt.LogLevel, "log-level", "info", "log level: debug | info | warn | error [info]")
	fs.BoolVar(&opt.Quiet, "quiet", false, "log errors only [false]")
	fs.StringVar(&opt.MetricsListen, "metrics-listen", "", "serve Prometheus metrics on this address, e.g. :9090")
	fs.BoolVar(&opt.Trace, "trace", false, "write an OpenTelemetry span per file as JSON to stderr [false]")

	fs.BoolVar(&opt.Version, "v", false, "print version and exit (shorthand) [false]")
	fs.BoolVar(&opt.Version, "version", false, "print version and exit [false]")
	fs.BoolVar(&help, "h", false, "show this help message (shorthand) [false]")

	flagArgs, posArgs := splitArgs(fs, argv)
	if err := fs.Parse(flagArgs); err != nil {
		return opt, err
	}
	if help {
		fs.Usage()
		return opt, flag.ErrHelp
	}
	if opt.Version {
		return opt, nil
	}

	opt.set = map[string]bool{}
	fs.Visit(func(f *flag.Flag) { opt.set[f.Name] = true })

	pos, err := expandGlobs(posArgs)
	if err != nil {
		return opt, err
	}
	opt.DeltaFiles = append([]string(deltas), pos...)
	if len(pos) > 0 {
		opt.set["delta"] = true
	}
	opt.Queries = queries
	opt.Header = !noHeader

	// Validation
	if opt.Threads < 0 {
		return opt, errors.New("--threads must be ≥ 0")
	}
	if opt.WindowSize < 1 {
		return opt, errors.New("--window-size must be ≥ 1")
	}
	return opt, nil
}

// Config merges the options over the config file (if any) and validates
// the result. Only flags given explicitly override file values.
func (o Options) Config() (config.Config, error) {
	cfg := config.Default()
	if o.ConfigFile != "" {
		var err error
		if cfg, err = config.Load(o.ConfigFile); err != nil {
			return cfg, err
		}
	}
	apply := func(name string, fn func()) {
		if o.ConfigFile == "" || o.set[name] {
			fn()
		}
	}
	apply("delta", func() { cfg.DeltaFiles = o.DeltaFiles })
	apply("queries", func() { cfg.Queries = o.Queries })
	apply("window-size", func() { cfg.WindowSize = o.WindowSize })
	apply("threads", func() { cfg.Threads = o.Threads })
	apply("validate", func() { cfg.Validate = o.Validate })
	apply("output", func() { cfg.Output = o.Output })
	apply("no-header", func() { cfg.Header = o.Header })
	apply("log-level", func() { cfg.LogLevel = o.LogLevel })
	apply("metrics-listen", func() { cfg.MetricsListen = o.MetricsListen })
	apply("trace", func() { cfg.Trace = o.Trace })
	if o.Quiet {
		cfg.LogLevel = "error"
	}
	return cfg, cfg.Validate()
}

// PrintVersion writes the version line.
func PrintVersion(w io.Writer, name string) error {
	_, err := fmt.Fprintf(w, "%s version %s\n", name, version.Version)
	return err
}
