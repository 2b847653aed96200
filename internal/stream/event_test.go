package stream_test

import (
	"slices"
	"testing"

	"github.com/devirz/open-router-chat/internal/stream"
)

func TestDataLines(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  []string
	}{
		{
			name:  "single data line",
			frame: "data: {\"a\":1}",
			want:  []string{"{\"a\":1}"},
		},
		{
			name:  "prefix without space",
			frame: "data:{\"a\":1}",
			want:  []string{"{\"a\":1}"},
		},
		{
			name:  "only one space is stripped",
			frame: "data:  spaced",
			want:  []string{" spaced"},
		},
		{
			name:  "comment and id fields ignored",
			frame: ": keep-alive\nid: 42\ndata: payload",
			want:  []string{"payload"},
		},
		{
			name:  "multiple data lines in order",
			frame: "data: one\ndata: two",
			want:  []string{"one", "two"},
		},
		{
			name:  "carriage returns trimmed",
			frame: "data: one\r\ndata: two\r",
			want:  []string{"one", "two"},
		},
		{
			name:  "no data lines",
			frame: "event: ping",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stream.DataLines(tt.frame)
			if !slices.Equal(got, tt.want) {
				t.Errorf("DataLines(%q) = %q, want %q", tt.frame, got, tt.want)
			}
		})
	}
}

func TestIsSentinel(t *testing.T) {
	if !stream.IsSentinel("[DONE]") {
		t.Error("IsSentinel(\"[DONE]\") = false, want true")
	}
	for _, payload := range []string{"", "[done]", " [DONE]", "{\"choices\":[]}"} {
		if stream.IsSentinel(payload) {
			t.Errorf("IsSentinel(%q) = true, want false", payload)
		}
	}
}

func TestParseDelta(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    stream.Delta
		wantOK  bool
	}{
		{
			name:    "content fragment",
			payload: `{"model":"meta-llama/llama-3-8b-instruct:free","choices":[{"delta":{"content":"Hi"}}]}`,
			want:    stream.Delta{ModelID: "meta-llama/llama-3-8b-instruct:free", Content: "Hi"},
			wantOK:  true,
		},
		{
			name:    "missing content defaults to empty fragment",
			payload: `{"choices":[{"delta":{"role":"assistant"}}]}`,
			want:    stream.Delta{},
			wantOK:  true,
		},
		{
			name:    "no choices",
			payload: `{"model":"m"}`,
			want:    stream.Delta{ModelID: "m"},
			wantOK:  true,
		},
		{
			name:    "not json",
			payload: "not-json",
			wantOK:  false,
		},
		{
			name:    "keep-alive notice",
			payload: "OPENROUTER PROCESSING",
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := stream.ParseDelta(tt.payload)
			if ok != tt.wantOK {
				t.Fatalf("ParseDelta(%q) ok = %v, want %v", tt.payload, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParseDelta(%q) = %+v, want %+v", tt.payload, got, tt.want)
			}
		})
	}
}
