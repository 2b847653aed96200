package session

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/devirz/open-router-chat/internal/models"
)

// ChatNotifyFunc observes message updates across all chats, tagged with the owning chat id.
type ChatNotifyFunc func(chatID string, msg models.ChatMessage, state StreamState)

// Manager tracks the live chat sessions of one server process, keyed by chat id. Sessions exist
// only in memory; a restart starts fresh.
type Manager struct {
	llm    Streamer
	notify ChatNotifyFunc
	logger *slog.Logger

	mu    sync.Mutex
	chats map[string]*Controller
}

// NewManager creates a manager that builds controllers around llm. Every controller reports its
// updates through notify, which may be nil.
func NewManager(llm Streamer, notify ChatNotifyFunc, logger *slog.Logger) *Manager {
	if notify == nil {
		notify = func(string, models.ChatMessage, StreamState) {}
	}
	return &Manager{
		llm:    llm,
		notify: notify,
		logger: logger,
		chats:  make(map[string]*Controller),
	}
}

// Create starts a new chat and returns its id along with the controller that owns it.
func (m *Manager) Create() (string, *Controller) {
	id := uuid.New().String()
	ctrl := NewController(m.llm, func(msg models.ChatMessage, state StreamState) {
		m.notify(id, msg, state)
	}, m.logger)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.chats[id] = ctrl
	return id, ctrl
}

// Get returns the controller owning the chat with the given id.
func (m *Manager) Get(id string) (*Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ctrl, ok := m.chats[id]
	return ctrl, ok
}
