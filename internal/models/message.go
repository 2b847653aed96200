package models

// ChatMessage represents an individual entry in a chat session's log. Its ID is unique within the
// session and stable for the message's lifetime, while Text grows incrementally for bot messages
// during streaming and is frozen once the stream ends or fails.
type ChatMessage struct {
	ID   int64
	Role Role
	Text string

	// ModelID identifies the model a bot message was requested from. Empty for user messages.
	ModelID string

	// ErrorDetail carries the technical detail of a failed request. It is only set on the
	// synthesized bot message that replaces a discarded placeholder.
	ErrorDetail string
}

// Role represents the role of a message participant.
type Role string

const (
	// RoleUser represents a message typed by the user.
	RoleUser Role = "user"
	// RoleBot represents a message generated by the model. The backend's wire vocabulary calls
	// this role "assistant"; the translation lives in the OpenRouter service.
	RoleBot Role = "bot"
)

// IsError reports whether the message was synthesized from a failed request.
func (m ChatMessage) IsError() bool {
	return m.ErrorDetail != ""
}
