// Package api is the HTTP transport for the remote notes service. It maps
// wire-level failures onto the apperr taxonomy; callers never see raw
// transport errors or status codes.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"notesync/internal/notes/model"
	"notesync/pkg/apperr"
	"notesync/pkg/logger"
)

// Client talks to the remote auth/notes boundary. The bearer token is owned
// by the session store, which pushes it here on login and clears it on
// logout or invalidation.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// NewClient creates a client for the boundary at baseURL. The timeout covers
// the whole request; an expired timeout surfaces as a network error.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// SetToken installs the session token sent with authenticated requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ClearToken removes the session token.
func (c *Client) ClearToken() {
	c.SetToken("")
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// AuthResponse is the boundary's answer to login and register.
type AuthResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type errorBody struct {
	Error string `json:"error"`
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	var resp AuthResponse
	err := c.do(ctx, http.MethodPost, "/login", credentials{Email: email, Password: password}, &resp)
	return resp, err
}

// Register creates a new account and returns its first session token.
func (c *Client) Register(ctx context.Context, email, password string) (AuthResponse, error) {
	var resp AuthResponse
	err := c.do(ctx, http.MethodPost, "/register", credentials{Email: email, Password: password}, &resp)
	return resp, err
}

// ListNotes fetches the full authoritative notes collection.
func (c *Client) ListNotes(ctx context.Context) ([]model.Note, error) {
	var notes []model.Note
	if err := c.do(ctx, http.MethodGet, "/notes", nil, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// CreateNote stores a new note and returns it with its server-assigned
// id and timestamps.
func (c *Client) CreateNote(ctx context.Context, draft model.Draft) (model.Note, error) {
	var note model.Note
	err := c.do(ctx, http.MethodPost, "/notes", draft, &note)
	return note, err
}

// UpdateNote replaces the draft fields of an existing note.
func (c *Client) UpdateNote(ctx context.Context, id string, draft model.Draft) (model.Note, error) {
	var note model.Note
	err := c.do(ctx, http.MethodPut, "/notes/"+id, draft, &note)
	return note, err
}

// DeleteNote removes a note. A nil return means the boundary confirmed the
// deletion.
func (c *Client) DeleteNote(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/notes/"+id, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return apperr.Wrap(err, apperr.KindValidation, "ENCODE_FAILED", "failed to encode request body")
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperr.Wrap(err, apperr.KindNetwork, "BAD_REQUEST", "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.currentToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		logger.Sugar.Errorf("Request %s %s failed: %v", method, path, err)
		return apperr.Wrap(err, apperr.KindNetwork, "REQUEST_FAILED", "request failed").
			WithUserMessage("Network error. Check your connection and try again")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.statusError(method, path, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		logger.Sugar.Errorf("Failed to decode %s %s response: %v", method, path, err)
		return apperr.Wrap(err, apperr.KindServer, "BAD_RESPONSE", "failed to decode response").
			WithUserMessage("The server returned an unexpected response")
	}
	return nil
}

// statusError converts a non-2xx response into a tagged error. 401 means the
// boundary rejected the token (or the credentials on login); everything else
// is a server-side refusal.
func (c *Client) statusError(method, path string, resp *http.Response) error {
	var body errorBody
	_ = json.NewDecoder(resp.Body).Decode(&body)

	message := body.Error
	if message == "" {
		message = fmt.Sprintf("request rejected with status %d", resp.StatusCode)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		userMsg := message
		if body.Error == "" {
			userMsg = "Your session has expired. Please log in again"
		}
		return apperr.New(apperr.KindAuth, "UNAUTHORIZED", message).WithUserMessage(userMsg)
	}

	logger.Sugar.Errorf("Request %s %s rejected: %d %s", method, path, resp.StatusCode, message)
	code := "SERVER_REJECTED"
	if resp.StatusCode == http.StatusNotFound {
		code = "NOT_FOUND"
	}
	return apperr.New(apperr.KindServer, code, message).WithUserMessage(message)
}
