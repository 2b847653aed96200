package stream

import "strings"

// SplitFrames splits an accumulated text buffer into the complete SSE frames found so far and the
// remaining unterminated tail. Frames are separated by a blank line; network chunk boundaries carry
// no meaning here, so a frame, a line, or even a single character may arrive in pieces. The caller
// retains the tail and prepends the next chunk's decoded text to it.
func SplitFrames(buf string) (frames []string, rest string) {
	for {
		idx, width := nextSeparator(buf)
		if idx < 0 {
			return frames, buf
		}
		frames = append(frames, buf[:idx])
		buf = buf[idx+width:]
	}
}

// nextSeparator locates the earliest frame separator in buf, honoring both bare and
// carriage-return line endings. It returns the separator's index and byte width, or -1
// when buf holds no complete frame.
func nextSeparator(buf string) (int, int) {
	lf := strings.Index(buf, "\n\n")
	crlf := strings.Index(buf, "\r\n\r\n")
	switch {
	case lf < 0 && crlf < 0:
		return -1, 0
	case crlf < 0:
		return lf, 2
	case lf < 0 || crlf < lf:
		return crlf, 4
	default:
		return lf, 2
	}
}
