// Package main provides the proflog CLI entry point.
//
// proflog runs a single command, annotates each output line with the time
// it stayed current, and splices periodic stack samples from cooperating
// runtimes into the live render.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/proflog/proflog/internal/config"
	"github.com/proflog/proflog/internal/launch"
	"github.com/proflog/proflog/internal/logging"
	"github.com/proflog/proflog/internal/metrics"
	"github.com/proflog/proflog/internal/mux"
	"github.com/proflog/proflog/internal/render"
	"github.com/proflog/proflog/internal/sample"
	"github.com/proflog/proflog/internal/stats"
	"github.com/proflog/proflog/internal/workspace"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0" ./cmd/proflog
var version = "dev"

// usageExitCode is the exit status for invocation errors.
const usageExitCode = 2

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) > 0 {
		switch args[0] {
		case "-version", "--version", "version":
			fmt.Printf("proflog %s\n", version)
			return 0
		}
	}

	cfg, err := config.ParseFlags(args, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		// Usage or parse error; the flag package already printed it.
		return usageExitCode
	}

	logger := logging.NewLogger(cfg.LogFormat, cfg.Verbose)
	logging.SetDefault(logger)

	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "proflog: configuration error: %v\n", err)
		return usageExitCode
	}

	ws, err := workspace.Create("", logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "proflog: %v\n", err)
		return launch.FallbackExitCode
	}
	defer ws.Cleanup()

	handle, err := launch.Start(launchRequest(cfg, ws))
	if err != nil {
		fmt.Fprintf(os.Stderr, "proflog: %v\n", err)
		return launch.FallbackExitCode
	}

	logger.Debug("child_started",
		"pid", handle.Pid,
		"command", strings.Join(cfg.Command, " "),
		"workspace", ws.Dir,
	)

	var collector *metrics.Collector
	var server *metrics.Server
	if cfg.MetricsAddr != "" {
		collector = metrics.NewCollector()
		collector.SetInfo(version, strings.Join(cfg.Command, " "))
		collector.SetChildRunning(true)
		server = metrics.NewServer(cfg.MetricsAddr, logger)
		server.Start()
	}

	tracker := stats.NewTracker()

	var sampler mux.Sampler
	if !cfg.NoSample {
		sampler = &observedSampler{
			correlator: sample.New(ws.Dir, handle.Pid, logger),
			collector:  collector,
		}
	}

	m := mux.New(mux.Config{
		Renderer:       render.New(os.Stdout),
		Sampler:        sampler,
		Logger:         logger,
		PollInterval:   cfg.PollInterval,
		SampleInterval: cfg.SampleInterval,
		OnFinalize: func(rec mux.Record, displayed time.Duration) {
			tracker.RecordLine(len(rec.Text), rec.Stream == mux.Stderr, displayed)
			if collector != nil {
				collector.ObserveLine(rec.Stream.String(), len(rec.Text))
			}
		},
		OnSample: func(string) {
			tracker.RecordSample()
			if collector != nil {
				collector.ObserveSample()
			}
		},
	})

	status, err := m.Run(handle)
	if err != nil {
		logger.Warn("wait_failed", "error", err)
	}

	if collector != nil {
		collector.SetChildRunning(false)
		collector.SetExitCode(status.Code)
	}
	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		server.Shutdown(ctx)
		cancel()
	}

	if cfg.Summary {
		fmt.Print(tracker.Summarize(status.Code).Format())
	}

	ws.Cleanup()
	return status.Code
}

// launchRequest assembles the launch request: both output streams piped
// into the multiplexer, stdin inherited, the payload contract injected
// into the environment.
func launchRequest(cfg *config.Config, ws *workspace.Workspace) launch.Request {
	env := ws.Env(os.Environ())
	if cfg.TraceExtra {
		env = overrideEnv(env, workspace.EnvTraceExtra, "1")
	}
	if cfg.TraceDepth > 0 {
		env = overrideEnv(env, workspace.EnvTraceSize, strconv.Itoa(cfg.TraceDepth))
	}
	if len(cfg.TracePackages) > 0 {
		env = overrideEnv(env, workspace.EnvTracePackages, strings.Join(cfg.TracePackages, ","))
	}

	req := launch.Request{
		Argv:   cfg.Command,
		Env:    env,
		Dir:    cfg.WorkDir,
		Stdin:  launch.Inherit,
		Stdout: launch.Pipe,
		Stderr: launch.Pipe,
	}
	if cfg.SetUID >= 0 {
		uid := uint32(cfg.SetUID)
		req.UID = &uid
	}
	if cfg.SetGID >= 0 {
		gid := uint32(cfg.SetGID)
		req.GID = &gid
	}
	return req
}

// overrideEnv replaces any existing entry for key. getenv returns the
// first match, so an inherited duplicate would shadow the new value.
func overrideEnv(env []string, key, value string) []string {
	out := env[:0]
	for _, kv := range env {
		if !strings.HasPrefix(kv, key+"=") {
			out = append(out, kv)
		}
	}
	return append(out, key+"="+value)
}

// observedSampler forwards polls to the correlator and mirrors its state
// into the metrics gauge.
type observedSampler struct {
	correlator *sample.Correlator
	collector  *metrics.Collector
}

func (s *observedSampler) Poll() string {
	out := s.correlator.Poll()
	if s.collector != nil {
		s.collector.SetSampleState(int(s.correlator.State()))
	}
	return out
}
