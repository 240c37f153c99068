// Package mux drains the child's output pipes, reassembles the byte
// streams into newline-delimited records, and drives the live render.
//
// One goroutine per pipe feeds a single bounded channel; a lone consumer
// loop owns the render surface and the sampling cadence. This is the
// Go-native shape of a poll-multiplexed reader loop: the bounded waits
// live in the channel select rather than a poll(2) timeout, and nothing
// blocks indefinitely on the child.
package mux

import (
	"bytes"
	"strings"
	"time"
)

// Stream identifies which pipe a record arrived on.
type Stream int

const (
	// Stdout is the child's standard output stream.
	Stdout Stream = iota

	// Stderr is the child's standard error stream.
	Stderr
)

// String returns the stream's conventional name.
func (s Stream) String() string {
	if s == Stderr {
		return "stderr"
	}
	return "stdout"
}

// Record is one newline-terminated line with its arrival timestamp.
type Record struct {
	Stream Stream
	Text   string
	At     time.Time
}

// maxRecordSize caps a single record. A stream that never emits a newline
// is force-split so the buffer cannot grow without bound.
const maxRecordSize = 1 << 20

// Framer reassembles an arbitrarily chunked byte stream into records.
// Framing is invariant to how reads split the stream: only newline
// positions in the source bytes determine record boundaries.
type Framer struct {
	stream Stream
	buf    []byte
}

// NewFramer creates a framer for one stream.
func NewFramer(stream Stream) *Framer {
	return &Framer{stream: stream}
}

// Feed appends a chunk and extracts every complete record, each stamped
// with at.
func (f *Framer) Feed(p []byte, at time.Time) []Record {
	f.buf = append(f.buf, p...)

	var records []Record
	for {
		i := bytes.IndexByte(f.buf, '\n')
		if i < 0 {
			if len(f.buf) >= maxRecordSize {
				records = append(records, f.record(f.buf, at))
				f.buf = f.buf[:0]
			}
			break
		}
		records = append(records, f.record(f.buf[:i], at))
		f.buf = f.buf[i+1:]
	}
	return records
}

// Flush emits any trailing bytes left after EOF as a final record, so a
// stream that ends without a newline still displays its last line.
func (f *Framer) Flush(at time.Time) (Record, bool) {
	if len(f.buf) == 0 {
		return Record{}, false
	}
	rec := f.record(f.buf, at)
	f.buf = nil
	return rec, true
}

func (f *Framer) record(b []byte, at time.Time) Record {
	return Record{
		Stream: f.stream,
		Text:   strings.TrimSuffix(string(b), "\r"),
		At:     at,
	}
}
