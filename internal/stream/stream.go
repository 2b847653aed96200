// Package stream implements the incremental response-assembly pipeline for OpenRouter's
// streaming chat-completions API: raw bytes are decoded into text with UTF-8 state carried
// across reads, split into SSE frames, and parsed into content deltas.
package stream

import (
	"errors"
	"fmt"
	"io"
	"iter"
)

const readChunkSize = 4096

// Events reads the SSE byte stream from r and yields content deltas in the exact order their
// frames appeared on the wire. Iteration stops at the [DONE] sentinel, even if unread bytes
// remain, or at the end of the stream. A read failure is yielded once as the final pair.
//
// The trailing partial frame of the buffer is never parsed as a complete event; it is retained
// between reads and discarded if the stream ends before its terminator arrives.
func Events(r io.Reader) iter.Seq2[Delta, error] {
	return func(yield func(Delta, error) bool) {
		var (
			dec    Decoder
			buffer string
		)
		chunk := make([]byte, readChunkSize)

		for {
			n, err := r.Read(chunk)
			if n > 0 {
				buffer += dec.Decode(chunk[:n])

				var frames []string
				frames, buffer = SplitFrames(buffer)
				for _, frame := range frames {
					for _, payload := range DataLines(frame) {
						if IsSentinel(payload) {
							return
						}
						delta, ok := ParseDelta(payload)
						if !ok || delta.Content == "" {
							continue
						}
						if !yield(delta, nil) {
							return
						}
					}
				}
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				yield(Delta{}, fmt.Errorf("error reading response: %w", err))
				return
			}
		}
	}
}
