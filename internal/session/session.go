// Package session holds the per-chat message log and the request lifecycle that fills it from
// a streaming model backend.
package session

import (
	"slices"
	"sync"

	"github.com/devirz/open-router-chat/internal/models"
)

// Session is one chat's ordered message log plus its request-lifecycle flags. The log is
// append-only, with a single exception: a placeholder bot message is discarded when its stream
// fails before completing, replaced by a synthesized error message. Message ids are issued by a
// strictly increasing counter shared by every creation in the session.
//
// All methods are safe for concurrent use; the Controller and the HTTP entry points are the
// only mutators.
type Session struct {
	mu        sync.Mutex
	nextID    int64
	messages  []models.ChatMessage
	sending   bool
	streaming bool
}

// New creates an empty session.
func New() *Session {
	return &Session{}
}

// Messages returns a snapshot of the log in display order.
func (s *Session) Messages() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// Sending reports whether a request lifecycle is in flight.
func (s *Session) Sending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sending
}

// Streaming reports whether a bot message is currently receiving deltas.
func (s *Session) Streaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaming
}

// begin reserves the session's single request slot. It reports false when a send is already in
// flight; the caller must not proceed in that case.
func (s *Session) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sending {
		return false
	}
	s.sending = true
	return true
}

// end releases the request slot. Runs on every exit path of a lifecycle.
func (s *Session) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sending = false
}

// appendMessage assigns the next id to msg and appends it to the log, returning the stored copy.
func (s *Session) appendMessage(msg models.ChatMessage) models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.append(msg)
}

// appendPlaceholder appends the empty bot message that will receive this request's deltas and
// raises the streaming flag. While the flag is up this is the only in-flight bot message.
func (s *Session) appendPlaceholder(modelID string) models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streaming = true
	return s.append(models.ChatMessage{Role: models.RoleBot, ModelID: modelID})
}

func (s *Session) append(msg models.ChatMessage) models.ChatMessage {
	s.nextID++
	msg.ID = s.nextID
	s.messages = append(s.messages, msg)
	return msg
}

// appendDelta appends fragment to the text of the message identified by id, leaving every other
// message untouched. Each call is an independent append; this is how partial tokens become full
// sentences over many calls. An empty fragment changes nothing.
func (s *Session) appendDelta(id int64, fragment string) (models.ChatMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages[i].Text += fragment
			return s.messages[i], fragment != ""
		}
	}
	return models.ChatMessage{}, false
}

// message returns a snapshot of the message identified by id.
func (s *Session) message(id int64) (models.ChatMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == id {
			return s.messages[i], true
		}
	}
	return models.ChatMessage{}, false
}

// finish freezes the in-flight message by lowering the streaming flag.
func (s *Session) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streaming = false
}

// fail discards the placeholder entirely, partial content included, and appends a synthesized
// bot message carrying the fixed apology text with the technical detail alongside. The
// streaming flag is lowered.
func (s *Session) fail(placeholderID int64, modelID, detail string) models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = slices.DeleteFunc(s.messages, func(m models.ChatMessage) bool {
		return m.ID == placeholderID
	})
	s.streaming = false
	return s.append(models.ChatMessage{
		Role:        models.RoleBot,
		Text:        apologyText,
		ModelID:     modelID,
		ErrorDetail: detail,
	})
}
