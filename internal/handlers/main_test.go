package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"iter"
	"log/slog"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/devirz/open-router-chat/internal/handlers"
	"github.com/devirz/open-router-chat/internal/models"
	"github.com/devirz/open-router-chat/internal/stream"
)

type mockLLM struct {
	deltas []stream.Delta
}

func (m mockLLM) ChatStream(
	_ context.Context,
	_ string,
	_ []models.ChatMessage,
) iter.Seq2[stream.Delta, error] {
	return func(yield func(stream.Delta, error) bool) {
		for _, d := range m.deltas {
			if !yield(d, nil) {
				return
			}
		}
	}
}

type mockCatalog struct {
	catalog []models.Model
	err     error
}

func (m mockCatalog) Models(context.Context) ([]models.Model, error) {
	return m.catalog, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMain(t *testing.T, catalog mockCatalog, freeOnly bool) handlers.Main {
	t.Helper()
	m, err := handlers.NewMain(
		mockLLM{deltas: []stream.Delta{{Content: "hello"}}},
		catalog,
		"openrouter/auto",
		freeOnly,
		discardLogger(),
	)
	if err != nil {
		t.Fatalf("NewMain() error = %v", err)
	}
	return m
}

func createChat(t *testing.T, m handlers.Main) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.HandleNewChat(rec, httptest.NewRequest("POST", "/chats/new", nil))
	if rec.Code != 200 {
		t.Fatalf("HandleNewChat status = %d", rec.Code)
	}

	var body struct {
		ChatID string `json:"chat_id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode chat id: %v", err)
	}
	if body.ChatID == "" {
		t.Fatal("HandleNewChat returned empty chat id")
	}
	return body.ChatID
}

func TestNewMain(t *testing.T) {
	m := newTestMain(t, mockCatalog{}, false)
	if err := m.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestHandleNewChatWrongMethod(t *testing.T) {
	m := newTestMain(t, mockCatalog{}, false)

	rec := httptest.NewRecorder()
	m.HandleNewChat(rec, httptest.NewRequest("GET", "/chats/new", nil))
	if rec.Code != 405 {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}

func TestHandleHome(t *testing.T) {
	catalog := mockCatalog{catalog: []models.Model{
		{ID: "meta-llama/llama-3-8b-instruct:free", Name: "Llama 3 8B"},
		{ID: "openai/gpt-4o", Name: "GPT-4o", Pricing: models.Pricing{Prompt: "0.000005"}},
	}}
	m := newTestMain(t, catalog, false)

	rec := httptest.NewRecorder()
	m.HandleHome(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	page := rec.Body.String()
	for _, want := range []string{"Llama 3 8B", "GPT-4o"} {
		if !strings.Contains(page, want) {
			t.Errorf("page does not list model %q", want)
		}
	}
}

func TestHandleHomeFreeOnly(t *testing.T) {
	catalog := mockCatalog{catalog: []models.Model{
		{ID: "meta-llama/llama-3-8b-instruct:free", Name: "Llama 3 8B"},
		{ID: "openai/gpt-4o", Name: "GPT-4o", Pricing: models.Pricing{Prompt: "0.000005"}},
	}}
	m := newTestMain(t, catalog, true)

	rec := httptest.NewRecorder()
	m.HandleHome(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	page := rec.Body.String()
	if !strings.Contains(page, "Llama 3 8B") {
		t.Error("page does not list the free model")
	}
	if strings.Contains(page, "GPT-4o") {
		t.Error("page lists a paid model with the free filter on")
	}
}

func TestHandleHomeCatalogFailure(t *testing.T) {
	m := newTestMain(t, mockCatalog{err: io.ErrUnexpectedEOF}, false)

	rec := httptest.NewRecorder()
	m.HandleHome(rec, httptest.NewRequest("GET", "/", nil))

	// The page degrades to the default model instead of failing.
	if rec.Code != 200 {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "openrouter/auto") {
		t.Error("page does not fall back to the default model")
	}
}

func TestHandleChats(t *testing.T) {
	m := newTestMain(t, mockCatalog{}, false)
	chatID := createChat(t, m)

	tests := []struct {
		name       string
		method     string
		form       url.Values
		wantStatus int
	}{
		{
			name:       "wrong method",
			method:     "GET",
			form:       url.Values{"message": {"hi"}, "chat_id": {chatID}},
			wantStatus: 405,
		},
		{
			name:       "empty message",
			method:     "POST",
			form:       url.Values{"message": {"   "}, "chat_id": {chatID}},
			wantStatus: 400,
		},
		{
			name:       "unknown chat",
			method:     "POST",
			form:       url.Values{"message": {"hi"}, "chat_id": {"nope"}},
			wantStatus: 404,
		},
		{
			name:       "accepted",
			method:     "POST",
			form:       url.Values{"message": {"hi"}, "chat_id": {chatID}},
			wantStatus: 202,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/chats", strings.NewReader(tt.form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			rec := httptest.NewRecorder()
			m.HandleChats(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
