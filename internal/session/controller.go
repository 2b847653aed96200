package session

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"strings"

	"github.com/devirz/open-router-chat/internal/models"
	"github.com/devirz/open-router-chat/internal/stream"
)

// Streamer streams model responses for a conversation. Implementations yield content deltas in
// arrival order and at most one error, after which the stream is over. Refer to
// services.OpenRouter for the production implementation.
type Streamer interface {
	ChatStream(ctx context.Context, model string, messages []models.ChatMessage) iter.Seq2[stream.Delta, error]
}

// StreamState describes the lifecycle stage a message update belongs to, for observers that
// mirror the log elsewhere.
type StreamState string

// Message update states published to observers.
const (
	StateStreaming StreamState = "streaming"
	StateEnded     StreamState = "ended"
	StateFailed    StreamState = "failed"
)

// NotifyFunc observes message updates as the controller mutates the session. It is called once
// per observable change, in order, from the goroutine running Send.
type NotifyFunc func(msg models.ChatMessage, state StreamState)

// Rejections surfaced by Send before any state changes.
var (
	ErrEmptyInput = errors.New("message is empty")
	ErrBusy       = errors.New("a request is already in flight")
)

// apologyText is the fixed user-facing text of a synthesized failure message. The technical
// detail rides alongside in ErrorDetail rather than being mixed into the text.
const apologyText = "Sorry, I couldn't finish that response. Please try again."

// Controller runs a session's request lifecycle: Idle, Sending, StreamingOpen, then Done or
// Failed, and back to Idle. A session supports one lifecycle at a time, serialized by the
// sending flag.
type Controller struct {
	session *Session
	llm     Streamer
	notify  NotifyFunc
	logger  *slog.Logger
}

// NewController creates a controller over a fresh session. notify may be nil when no observer
// is interested.
func NewController(llm Streamer, notify NotifyFunc, logger *slog.Logger) *Controller {
	if notify == nil {
		notify = func(models.ChatMessage, StreamState) {}
	}
	return &Controller{
		session: New(),
		llm:     llm,
		notify:  notify,
		logger:  logger.With(slog.String("module", "session")),
	}
}

// Session exposes the controller's session for read access.
func (c *Controller) Session() *Session {
	return c.session
}

// Send runs one full request lifecycle and blocks until the stream ends, fails, or ctx is torn
// down. Whitespace-only input and overlapping sends are rejected up front with no state change.
// Transport failures are absorbed into the log as a synthesized error message, so the returned
// error is only ever one of the entry rejections.
func (c *Controller) Send(ctx context.Context, model, input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return ErrEmptyInput
	}
	if !c.session.begin() {
		return ErrBusy
	}
	defer c.session.end()

	user := c.session.appendMessage(models.ChatMessage{Role: models.RoleUser, Text: input})
	c.notify(user, StateEnded)

	// The request carries the conversation up to and including the new user message; the
	// placeholder is appended after the snapshot so it never travels on the wire.
	history := c.session.Messages()
	placeholder := c.session.appendPlaceholder(model)
	c.notify(placeholder, StateStreaming)

	for delta, err := range c.llm.ChatStream(ctx, model, history) {
		if err != nil {
			c.logger.Error("Streaming failed",
				slog.String("model", model),
				slog.String("err", err.Error()))
			errMsg := c.session.fail(placeholder.ID, model, err.Error())
			c.notify(errMsg, StateFailed)
			return nil
		}
		if msg, ok := c.session.appendDelta(placeholder.ID, delta.Content); ok {
			c.notify(msg, StateStreaming)
		}
	}

	c.session.finish()
	if final, ok := c.session.message(placeholder.ID); ok {
		c.notify(final, StateEnded)
	}
	return nil
}
