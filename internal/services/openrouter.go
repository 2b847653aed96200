// Package services implements the external collaborators of the chat core: the OpenRouter API
// client and the model-catalog cache.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"

	"github.com/devirz/open-router-chat/internal/models"
	"github.com/devirz/open-router-chat/internal/stream"
)

// OpenRouter is a client for OpenRouter's streaming chat-completions API and model catalog.
type OpenRouter struct {
	apiKey       string
	baseURL      string
	systemPrompt string

	client *http.Client

	logger *slog.Logger
}

const openRouterAPIEndpoint = "https://openrouter.ai/api/v1"

// NewOpenRouter creates a client with the specified API key, base URL, and optional system
// prompt. An empty baseURL selects the public OpenRouter endpoint. The key is passed through
// unvalidated; an unset key is still sent as an empty bearer value.
func NewOpenRouter(apiKey, baseURL, systemPrompt string, logger *slog.Logger) OpenRouter {
	if baseURL == "" {
		baseURL = openRouterAPIEndpoint
	}
	return OpenRouter{
		apiKey:       apiKey,
		baseURL:      baseURL,
		systemPrompt: systemPrompt,
		client:       &http.Client{},
		logger:       logger.With(slog.String("module", "openrouter")),
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// wireRole maps the session's display vocabulary onto the backend's: bot speaks as "assistant"
// on the wire, user stays user.
func wireRole(role models.Role) string {
	if role == models.RoleBot {
		return "assistant"
	}
	return string(role)
}

// ChatStream requests a streaming completion of the given conversation from model and returns
// an iterator over the response's content deltas, in wire order. A failed request, a non-OK
// status, or a mid-stream read failure surfaces as a single yielded error; cancellation through
// ctx ends the iteration silently.
func (o OpenRouter) ChatStream(
	ctx context.Context,
	model string,
	messages []models.ChatMessage,
) iter.Seq2[stream.Delta, error] {
	return func(yield func(stream.Delta, error) bool) {
		resp, err := o.doChatRequest(ctx, model, messages)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			yield(stream.Delta{}, fmt.Errorf("error sending request: %w", err))
			return
		}
		defer resp.Body.Close()

		for delta, err := range stream.Events(resp.Body) {
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				yield(stream.Delta{}, err)
				return
			}

			o.logger.Debug("Received delta",
				slog.String("model", delta.ModelID),
				slog.Int("length", len(delta.Content)),
			)

			if !yield(delta, nil) {
				return
			}
		}
	}
}

func (o OpenRouter) doChatRequest(
	ctx context.Context,
	model string,
	messages []models.ChatMessage,
) (*http.Response, error) {
	msgs := make([]chatMessage, 0, len(messages)+1)
	if o.systemPrompt != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: o.systemPrompt})
	}
	for _, msg := range messages {
		msgs = append(msgs, chatMessage{
			Role:    wireRole(msg.Role),
			Content: msg.Text,
		})
	}

	reqBody := chatRequest{
		Model:    model,
		Messages: msgs,
		Stream:   true,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	o.logger.Debug("Request Body", slog.String("body", string(jsonBody)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		o.baseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	return resp, nil
}

// Models retrieves the model catalog: ids mapped to display names and advertised pricing.
// This is an independent call with no bearing on any in-flight chat request.
func (o OpenRouter) Models(ctx context.Context) ([]models.Model, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/models", nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	var res struct {
		Data []models.Model `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}

	return res.Data, nil
}
