package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"
)

// ErrNoCommand is returned when no command to run was given. Callers map
// it to a usage error (exit status 2).
var ErrNoCommand = errors.New("config: missing command")

// packageList is a custom flag type for repeatable -trace-package flags.
type packageList []string

func (p *packageList) String() string {
	return strings.Join(*p, ",")
}

func (p *packageList) Set(value string) error {
	*p = append(*p, value)
	return nil
}

// ParseFlags parses command-line arguments (without the program name) and
// returns a Config. The command and everything after it are positional;
// flags must come first.
func ParseFlags(args []string, stderr io.Writer) (*Config, error) {
	cfg := DefaultConfig()
	var packages packageList

	fs := flag.NewFlagSet("proflog", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.Usage = func() {
		fmt.Fprintf(stderr, `proflog - run a command with per-line timing and live stack sampling

Usage:
  proflog [flags] <command> [args...]

Process:
`)
		printFlagCategory(fs, stderr, []string{"workdir", "setuid", "setgid"})

		fmt.Fprintf(stderr, "\nDisplay:\n")
		printFlagCategory(fs, stderr, []string{"poll-interval"})

		fmt.Fprintf(stderr, "\nSampling:\n")
		printFlagCategory(fs, stderr, []string{
			"no-sample", "sample-interval",
			"trace-package", "trace-depth", "trace-extra",
		})

		fmt.Fprintf(stderr, "\nObservability:\n")
		printFlagCategory(fs, stderr, []string{"summary", "metrics", "v", "log-format"})

		fmt.Fprintf(stderr, `
Examples:
  # Annotate a build's output with per-line timing
  proflog make -j8

  # Watch where a slow Python process is spending its time
  proflog -trace-package myapp python manage.py migrate
`)
	}

	// Process
	fs.StringVar(&cfg.WorkDir, "workdir", cfg.WorkDir, "Working directory for the child")
	fs.IntVar(&cfg.SetUID, "setuid", cfg.SetUID, "Drop to this user id in the child (-1 = off)")
	fs.IntVar(&cfg.SetGID, "setgid", cfg.SetGID, "Drop to this group id in the child (-1 = off)")

	// Display
	fs.DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "Live render refresh interval")

	// Sampling
	fs.BoolVar(&cfg.NoSample, "no-sample", cfg.NoSample, "Disable stack sampling entirely")
	fs.DurationVar(&cfg.SampleInterval, "sample-interval", cfg.SampleInterval, "Stack sampling interval")
	fs.Var(&packages, "trace-package", "Only sample frames from this package prefix (can repeat)")
	fs.IntVar(&cfg.TraceDepth, "trace-depth", cfg.TraceDepth, "Maximum stack frames per sample (0 = unlimited)")
	fs.BoolVar(&cfg.TraceExtra, "trace-extra", cfg.TraceExtra, "Include file:line in sampled frames")

	// Observability
	fs.BoolVar(&cfg.Summary, "summary", cfg.Summary, "Print a run summary at exit")
	fs.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "Prometheus metrics address (empty = disabled)")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Verbose logging")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, `Log format: "text" or "json"`)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.TracePackages = packages

	cfg.Command = fs.Args()
	if len(cfg.Command) == 0 {
		fs.Usage()
		return nil, ErrNoCommand
	}

	return cfg, nil
}

// printFlagCategory prints the named flags in definition order (helper
// for usage).
func printFlagCategory(fs *flag.FlagSet, w io.Writer, names []string) {
	for _, name := range names {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		fmt.Fprintf(w, "  -%s %s\n    \t%s", f.Name, flagType(f), f.Usage)
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" && f.DefValue != "0s" {
			fmt.Fprintf(w, " (default %s)", f.DefValue)
		}
		fmt.Fprintln(w)
	}
}

// flagType returns a type hint for the flag value, inferred from the
// default's format.
func flagType(f *flag.Flag) string {
	switch f.DefValue {
	case "true", "false":
		return ""
	case "0":
		return "int"
	}
	if _, err := time.ParseDuration(f.DefValue); err == nil && f.DefValue != "" {
		return "duration"
	}
	var n int
	if _, err := fmt.Sscanf(f.DefValue, "%d", &n); err == nil {
		return "int"
	}
	return "string"
}
