package handlers

import (
	"log/slog"
	"net/http"

	"github.com/devirz/open-router-chat/internal/models"
	"github.com/devirz/open-router-chat/internal/session"
)

type homePageData struct {
	CurrentChatID string
	DefaultModel  string
	Models        []modelOption
	Messages      []message
}

type modelOption struct {
	ID       string
	Name     string
	Free     bool
	Selected bool
}

// HandleHome renders the chat page: the model selector built from the catalog, and the current
// chat's message log when a chat_id is supplied.
func (m Main) HandleHome(w http.ResponseWriter, r *http.Request) {
	catalog, err := m.catalog.Models(r.Context())
	if err != nil {
		// The page is still usable for an already-selected model; log and render without a catalog.
		m.logger.Error("Failed to fetch model catalog", slog.String(errLoggerKey, err.Error()))
	}
	if m.freeOnly {
		catalog = models.FilterFree(catalog)
	}

	opts := make([]modelOption, len(catalog))
	for i, mdl := range catalog {
		opts[i] = modelOption{
			ID:       mdl.ID,
			Name:     mdl.Name,
			Free:     mdl.IsFree(),
			Selected: mdl.ID == m.defaultModel,
		}
	}

	data := homePageData{
		DefaultModel: m.defaultModel,
		Models:       opts,
	}

	chatID := r.URL.Query().Get("chat_id")
	if chatID != "" {
		if ctrl, ok := m.sessions.Get(chatID); ok {
			data.CurrentChatID = chatID
			msgs, err := m.messageViews(ctrl)
			if err != nil {
				m.logger.Error("Failed to render messages",
					slog.String("chatID", chatID),
					slog.String(errLoggerKey, err.Error()))
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			data.Messages = msgs
		}
	}

	if err := m.templates.ExecuteTemplate(w, "home.html", data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (m Main) messageViews(ctrl *session.Controller) ([]message, error) {
	sess := ctrl.Session()
	entries := sess.Messages()
	streaming := sess.Streaming()

	views := make([]message, len(entries))
	for i, msg := range entries {
		state := session.StateEnded
		switch {
		case msg.IsError():
			state = session.StateFailed
		case streaming && i == len(entries)-1 && msg.Role == models.RoleBot:
			state = session.StateStreaming
		}
		view, err := m.messageView(msg, state)
		if err != nil {
			return nil, err
		}
		views[i] = view
	}
	return views, nil
}
