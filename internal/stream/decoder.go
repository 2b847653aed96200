package stream

import "unicode/utf8"

// Decoder converts raw network bytes into text incrementally. A multi-byte UTF-8 sequence may be
// split across two reads, so the decoder holds back a trailing incomplete sequence and prepends
// it to the next chunk instead of emitting a corrupted character.
//
// The zero value is ready to use.
type Decoder struct {
	pending []byte
}

// Decode appends p to the carried-over bytes and returns the longest prefix that ends on a
// complete UTF-8 sequence. The remainder, at most one partial sequence, is retained for the
// next call. Invalid sequences pass through untouched.
func (d *Decoder) Decode(p []byte) string {
	d.pending = append(d.pending, p...)

	complete := len(d.pending)
	// Back up over at most utf8.UTFMax-1 trailing bytes to find the start of the final
	// sequence; if that sequence hasn't fully arrived yet, hold it back.
	for back := 1; back < utf8.UTFMax && back <= len(d.pending); back++ {
		if !utf8.RuneStart(d.pending[len(d.pending)-back]) {
			continue
		}
		if !utf8.FullRune(d.pending[len(d.pending)-back:]) {
			complete = len(d.pending) - back
		}
		break
	}

	out := string(d.pending[:complete])
	d.pending = append(d.pending[:0], d.pending[complete:]...)
	return out
}

// Flush returns whatever bytes are still held back, complete or not. Called once the stream ends.
func (d *Decoder) Flush() string {
	if len(d.pending) == 0 {
		return ""
	}
	out := string(d.pending)
	d.pending = nil
	return out
}
