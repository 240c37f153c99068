package mux

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/proflog/proflog/internal/launch"
	"github.com/proflog/proflog/internal/render"
)

// Sampler supplies the stack sample to splice into the render. Poll runs
// one sampling cycle and returns "" when no sample is available.
type Sampler interface {
	Poll() string
}

// Default cadences. Rendering refreshes every few tens of milliseconds;
// sampling runs an order of magnitude coarser so the child is not flooded
// with refresh signals.
const (
	DefaultPollInterval   = 50 * time.Millisecond
	DefaultSampleInterval = 500 * time.Millisecond
)

// recordBuffer bounds the channel between the pipe readers and the
// consumer loop.
const recordBuffer = 256

// Config holds construction parameters for a Multiplexer.
type Config struct {
	Renderer *render.Renderer
	Sampler  Sampler // nil disables sampling
	Logger   *slog.Logger

	PollInterval   time.Duration
	SampleInterval time.Duration

	// OnFinalize is invoked for every scrolled line with the duration it
	// spent as the live render. Optional.
	OnFinalize func(rec Record, displayed time.Duration)

	// OnSample is invoked for every non-empty sample poll. Optional.
	OnSample func(sample string)
}

// Multiplexer owns the child's output descriptors for the process
// lifetime and drives the render surface.
type Multiplexer struct {
	renderer       *render.Renderer
	sampler        Sampler
	logger         *slog.Logger
	pollInterval   time.Duration
	sampleInterval time.Duration
	onFinalize     func(Record, time.Duration)
	onSample       func(string)
	now            func() time.Time
}

// New creates a Multiplexer.
func New(cfg Config) *Multiplexer {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.SampleInterval <= 0 {
		cfg.SampleInterval = DefaultSampleInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Multiplexer{
		renderer:       cfg.Renderer,
		sampler:        cfg.Sampler,
		logger:         cfg.Logger,
		pollInterval:   cfg.PollInterval,
		sampleInterval: cfg.SampleInterval,
		onFinalize:     cfg.OnFinalize,
		onSample:       cfg.OnSample,
		now:            time.Now,
	}
}

// Run drains the handle's output pipes until every tracked stream reports
// end of stream, then reaps the child and returns its decoded status.
//
// Display order is parent arrival order. Ordering across the two streams
// is whatever interleaving the pipes produced; no total order is invented.
func (m *Multiplexer) Run(h *launch.Handle) (launch.ExitStatus, error) {
	records := make(chan Record, recordBuffer)

	sources := []struct {
		file   *os.File
		stream Stream
	}{
		{h.Pipes.StdoutR, Stdout},
		{h.Pipes.StderrR, Stderr},
	}

	var wg sync.WaitGroup
	for _, src := range sources {
		if src.file == nil {
			continue
		}
		wg.Add(1)
		go func(f *os.File, s Stream) {
			defer wg.Done()
			readStream(f, s, records, m.now)
		}(src.file, src.stream)
	}
	go func() {
		wg.Wait()
		close(records)
	}()

	renderTick := time.NewTicker(m.pollInterval)
	defer renderTick.Stop()
	sampleTick := time.NewTicker(m.sampleInterval)
	defer sampleTick.Stop()

	var (
		current    Record
		hasCurrent bool
		sampleText string
	)

	finalize := func(at time.Time) {
		if !hasCurrent {
			return
		}
		displayed := at.Sub(current.At)
		m.renderer.Finalize(lineOf(current), displayed, sampleText)
		if m.onFinalize != nil {
			m.onFinalize(current, displayed)
		}
		hasCurrent = false
	}

	for records != nil {
		select {
		case rec, ok := <-records:
			if !ok {
				records = nil
				continue
			}
			finalize(rec.At)
			current, hasCurrent = rec, true
			m.renderer.Live(lineOf(current), 0, sampleText)

		case <-renderTick.C:
			if hasCurrent {
				m.renderer.Live(lineOf(current), m.now().Sub(current.At), sampleText)
			}

		case <-sampleTick.C:
			if m.sampler == nil {
				continue
			}
			sampleText = m.sampler.Poll()
			if sampleText != "" && m.onSample != nil {
				m.onSample(sampleText)
			}
			if hasCurrent {
				m.renderer.Live(lineOf(current), m.now().Sub(current.At), sampleText)
			}
		}
	}

	finalize(m.now())
	m.logger.Debug("streams_drained", "pid", h.Pid)

	status, err := h.Wait()
	h.Close()

	m.logger.Debug("child_reaped",
		"pid", h.Pid,
		"exit_code", status.Code,
		"signal", int(status.Signal),
	)
	return status, err
}

func lineOf(rec Record) render.Line {
	return render.Line{Text: rec.Text, Stderr: rec.Stream == Stderr}
}
