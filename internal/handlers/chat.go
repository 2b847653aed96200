package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/devirz/open-router-chat/internal/session"
)

// HandleNewChat creates a fresh chat session and returns its id, so the browser can subscribe
// to the chat's SSE topic before posting the first message.
func (m Main) HandleNewChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	chatID, _ := m.sessions.Create()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"chat_id": chatID}); err != nil {
		m.logger.Error("Failed to encode chat id", slog.String(errLoggerKey, err.Error()))
	}
}

// HandleChats is the user-submit entry point. It accepts a "message", "chat_id", and optional
// "model" form field, rejects empty input and overlapping sends without touching session state,
// and otherwise runs the request lifecycle asynchronously. All resulting log updates reach the
// browser through the chat's SSE topic.
func (m Main) HandleChats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		m.logger.Error("Method not allowed", slog.String("method", r.Method))
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	msg := r.FormValue("message")
	if strings.TrimSpace(msg) == "" {
		http.Error(w, "Message is required", http.StatusBadRequest)
		return
	}

	chatID := r.FormValue("chat_id")
	ctrl, ok := m.sessions.Get(chatID)
	if !ok {
		m.logger.Error("Unknown chat", slog.String("chatID", chatID))
		http.Error(w, "Unknown chat", http.StatusNotFound)
		return
	}

	model := r.FormValue("model")
	if model == "" {
		model = m.defaultModel
	}

	if ctrl.Session().Sending() {
		// One outstanding request per session; the user waits rather than queueing.
		http.Error(w, "A request is already in flight", http.StatusConflict)
		return
	}

	go func() {
		// The request lifecycle outlives the HTTP exchange that triggered it.
		err := ctrl.Send(context.Background(), model, msg)
		if err != nil && !errors.Is(err, session.ErrBusy) {
			m.logger.Error("Failed to send message",
				slog.String("chatID", chatID),
				slog.String(errLoggerKey, err.Error()))
		}
	}()

	w.WriteHeader(http.StatusAccepted)
}
