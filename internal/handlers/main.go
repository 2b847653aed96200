package handlers

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tmaxmax/go-sse"

	openrouterchat "github.com/devirz/open-router-chat"
	"github.com/devirz/open-router-chat/internal/models"
	"github.com/devirz/open-router-chat/internal/services"
	"github.com/devirz/open-router-chat/internal/session"
)

// Main wires the chat core to the browser: it owns the session manager, the SSE push server
// used for incremental message updates, and the HTML templates.
type Main struct {
	sseSrv    *sse.Server
	templates *template.Template

	sessions *session.Manager
	catalog  services.Catalog

	defaultModel string
	freeOnly     bool

	logger *slog.Logger
}

const errLoggerKey = "err"

var messagesSSEType = sse.Type("message")

func chatTopic(chatID string) string {
	return fmt.Sprintf("chat-%s", chatID)
}

// NewMain creates a Main instance around the given model backend and catalog. It parses the
// embedded templates and configures the SSE server so each browser tab subscribes to its own
// chat's topic via a query parameter.
func NewMain(
	llm session.Streamer,
	catalog services.Catalog,
	defaultModel string,
	freeOnly bool,
	logger *slog.Logger,
) (Main, error) {
	// We parse templates from three distinct directories to separate layout, pages, and partial views
	tmpl, err := template.ParseFS(
		openrouterchat.TemplateFS,
		"templates/layout/*.html",
		"templates/pages/*.html",
		"templates/partials/*.html",
	)
	if err != nil {
		return Main{}, err
	}

	m := Main{
		sseSrv: &sse.Server{
			OnSession: func(s *sse.Session) (sse.Subscription, bool) {
				topics := []string{sse.DefaultTopic}

				// A client following a particular chat subscribes to that chat's updates
				chatID := s.Req.URL.Query().Get("chat_id")
				if chatID != "" {
					topics = append(topics, chatTopic(chatID))
				}

				return sse.Subscription{
					Client:      s,
					LastEventID: s.LastEventID,
					Topics:      topics,
				}, true
			},
		},
		templates:    tmpl,
		catalog:      catalog,
		defaultModel: defaultModel,
		freeOnly:     freeOnly,
		logger:       logger.With(slog.String("module", "handlers")),
	}
	m.sessions = session.NewManager(llm, m.publishMessage, logger)

	return m, nil
}

// HandleSSE serves the push channel the browser listens on for message updates.
func (m Main) HandleSSE(w http.ResponseWriter, r *http.Request) {
	m.sseSrv.ServeHTTP(w, r)
}

// publishMessage renders one message update and publishes it on the owning chat's topic. It is
// the session manager's notify hook, invoked once per observable state change, in order.
func (m Main) publishMessage(chatID string, msg models.ChatMessage, state session.StreamState) {
	view, err := m.messageView(msg, state)
	if err != nil {
		m.logger.Error("Failed to render message",
			slog.Int64("messageID", msg.ID),
			slog.String(errLoggerKey, err.Error()))
		return
	}

	var sb strings.Builder
	if err := m.templates.ExecuteTemplate(&sb, "chat_message", view); err != nil {
		m.logger.Error("Failed to execute chat_message template",
			slog.Int64("messageID", msg.ID),
			slog.String(errLoggerKey, err.Error()))
		return
	}

	e := &sse.Message{Type: messagesSSEType}
	e.AppendData(sb.String())
	if err := m.sseSrv.Publish(e, chatTopic(chatID)); err != nil {
		m.logger.Error("Failed to publish message",
			slog.Int64("messageID", msg.ID),
			slog.String(errLoggerKey, err.Error()))
	}
}

// message is the view passed to the chat_message partial.
type message struct {
	ID          int64
	Role        string
	Content     template.HTML
	ModelID     string
	ErrorDetail string

	StreamingState string
}

func (m Main) messageView(msg models.ChatMessage, state session.StreamState) (message, error) {
	content, err := models.RenderText(msg.Text)
	if err != nil {
		return message{}, err
	}
	return message{
		ID:             msg.ID,
		Role:           string(msg.Role),
		Content:        content,
		ModelID:        msg.ModelID,
		ErrorDetail:    msg.ErrorDetail,
		StreamingState: string(state),
	}, nil
}

// Shutdown gracefully terminates the SSE server: a close message is broadcast to all connected
// clients, then connections get up to 5 seconds to terminate before being forced shut.
func (m Main) Shutdown(ctx context.Context) error {
	e := &sse.Message{Type: sse.Type("closeChat")}
	// We create a close event that complies with SSE spec requiring data
	e.AppendData("bye")

	// We ignore the error here since we're shutting down anyway
	_ = m.sseSrv.Publish(e)

	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	return m.sseSrv.Shutdown(ctx)
}
