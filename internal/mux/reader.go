package mux

import (
	"io"
	"time"
)

// readBufferSize is the per-read chunk size for draining a pipe.
const readBufferSize = 32 * 1024

// readStream drains one pipe into the record channel until end of stream.
// Any read error counts as end of stream for that descriptor; it is never
// escalated. Sends block, which preserves arrival order and applies
// backpressure instead of dropping display lines.
func readStream(r io.Reader, stream Stream, out chan<- Record, now func() time.Time) {
	framer := NewFramer(stream)
	buf := make([]byte, readBufferSize)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			for _, rec := range framer.Feed(buf[:n], now()) {
				out <- rec
			}
		}
		if err != nil {
			if rec, ok := framer.Flush(now()); ok {
				out <- rec
			}
			return
		}
	}
}
