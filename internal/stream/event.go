package stream

import (
	"encoding/json"
	"strings"
)

// Delta is one incremental fragment of a generated response, extracted from a single SSE event
// payload.
type Delta struct {
	ModelID string
	Content string
}

const (
	dataPrefix   = "data:"
	doneSentinel = "[DONE]"
)

// DataLines extracts the payloads of the data-prefixed lines in one complete frame, in order.
// The prefix and at most one following space are stripped; comment lines and other SSE fields
// are ignored.
func DataLines(frame string) []string {
	var payloads []string
	for _, line := range strings.Split(frame, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}
		payload := strings.TrimPrefix(line, dataPrefix)
		payload = strings.TrimPrefix(payload, " ")
		payloads = append(payloads, payload)
	}
	return payloads
}

// IsSentinel reports whether payload is the literal stream-termination marker.
func IsSentinel(payload string) bool {
	return payload == doneSentinel
}

// ParseDelta decodes a non-sentinel payload into a Delta. It reports ok=false when the payload
// is not a JSON event; keep-alive and processing notices interleave with real events on the
// wire, so an undecodable line is skipped rather than treated as fatal. A payload without
// choices decodes to an empty fragment.
func ParseDelta(payload string) (Delta, bool) {
	var chunk struct {
		Model   string `json:"model"`
		Choices []struct {
			Delta struct {
				Content string `json:"content"`
			} `json:"delta"`
		} `json:"choices"`
	}
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return Delta{}, false
	}

	delta := Delta{ModelID: chunk.Model}
	if len(chunk.Choices) > 0 {
		delta.Content = chunk.Choices[0].Delta.Content
	}
	return delta, true
}
