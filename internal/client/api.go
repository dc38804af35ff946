// Package client talks to the messaging server: REST calls for
// persistence and a reconnecting WebSocket for realtime events.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"skillnexus/backend/internal/apperrors"
	"skillnexus/backend/internal/models"
)

// API is an authenticated REST client. It implements session.API.
type API struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewAPI(baseURL, token string) *API {
	return &API{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (a *API) SendMessage(ctx context.Context, receiverID, content string) (models.MessageRecord, error) {
	var record models.MessageRecord
	body := map[string]string{"receiverId": receiverID, "content": content}
	err := a.doRequest(ctx, http.MethodPost, "/api/messages", body, &record)
	return record, err
}

func (a *API) Conversation(ctx context.Context, userID string) ([]models.MessageRecord, error) {
	var records []models.MessageRecord
	err := a.doRequest(ctx, http.MethodGet, "/api/messages/"+url.PathEscape(userID), nil, &records)
	return records, err
}

func (a *API) Conversations(ctx context.Context) ([]models.ConversationSummary, error) {
	var summaries []models.ConversationSummary
	err := a.doRequest(ctx, http.MethodGet, "/api/messages/conversations", nil, &summaries)
	return summaries, err
}

func (a *API) MarkRead(ctx context.Context, userID string) (int64, error) {
	var out struct {
		Updated int64 `json:"updated"`
	}
	err := a.doRequest(ctx, http.MethodPut, "/api/messages/read/"+url.PathEscape(userID), nil, &out)
	return out.Updated, err
}

func (a *API) Profile(ctx context.Context, userID string) (models.UserRef, error) {
	var ref models.UserRef
	err := a.doRequest(ctx, http.MethodGet, "/api/users/"+url.PathEscape(userID), nil, &ref)
	return ref, err
}

// doRequest runs one call and decodes the data field of the envelope into
// response. Failures come back as apperrors matching the HTTP status.
func (a *API) doRequest(ctx context.Context, method, path string, body, response any) error {
	var bodyReader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.token)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return apperrors.NewPersistenceError("Server unreachable", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return apperrors.NewPersistenceError(fmt.Sprintf("Unexpected response (status %d)", resp.StatusCode), err)
	}
	if resp.StatusCode >= 300 || !env.Success {
		return errorFor(resp.StatusCode, env.Message)
	}
	if response == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, response); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func errorFor(status int, message string) error {
	if message == "" {
		message = http.StatusText(status)
	}
	switch status {
	case http.StatusBadRequest:
		return apperrors.NewValidationError(message, nil)
	case http.StatusUnauthorized:
		return apperrors.NewUnauthorizedError(message, nil)
	case http.StatusNotFound:
		return apperrors.NewNotFoundError(message, nil)
	default:
		return apperrors.NewPersistenceError(message, nil)
	}
}
