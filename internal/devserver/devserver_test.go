package devserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notesync/internal/notes/model"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(NewRouter(NewStore(), "test-secret"))
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(method, url, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func registerUser(t *testing.T, server *httptest.Server, email string) string {
	t.Helper()
	resp := doJSON(t, http.MethodPost, server.URL+"/api/register", "", map[string]string{
		"email":    email,
		"password": "secret123",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var auth authResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&auth))
	require.NotEmpty(t, auth.Token)
	return auth.Token
}

func TestRegisterAndLogin(t *testing.T) {
	server := newTestServer(t)
	registerUser(t, server, "user@example.com")

	// Duplicate email conflicts.
	resp := doJSON(t, http.MethodPost, server.URL+"/api/register", "", map[string]string{
		"email": "user@example.com", "password": "secret123",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Short passwords and malformed emails are rejected.
	resp = doJSON(t, http.MethodPost, server.URL+"/api/register", "", map[string]string{
		"email": "other@example.com", "password": "short",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, server.URL+"/api/register", "", map[string]string{
		"email": "not-an-email", "password": "secret123",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Valid credentials log in, wrong ones do not.
	resp = doJSON(t, http.MethodPost, server.URL+"/api/login", "", map[string]string{
		"email": "user@example.com", "password": "secret123",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, server.URL+"/api/login", "", map[string]string{
		"email": "user@example.com", "password": "wrong-pass",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestNotesRequireToken(t *testing.T) {
	server := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/api/notes", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, server.URL+"/api/notes", "garbage-token", model.Draft{Title: "A"})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestNotesCRUDIsScopedPerUser(t *testing.T) {
	server := newTestServer(t)
	tokenA := registerUser(t, server, "a@example.com")
	tokenB := registerUser(t, server, "b@example.com")

	// Create as user A.
	resp := doJSON(t, http.MethodPost, server.URL+"/api/notes", tokenA, model.Draft{Title: "A note", Content: "body"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created model.Note
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	// User B cannot see or touch it.
	resp = doJSON(t, http.MethodGet, server.URL+"/api/notes", tokenB, nil)
	var othersNotes []model.Note
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&othersNotes))
	resp.Body.Close()
	assert.Empty(t, othersNotes)

	resp = doJSON(t, http.MethodPut, server.URL+"/api/notes/"+created.ID, tokenB, model.Draft{Title: "hijack"})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Update as user A bumps updated_at.
	resp = doJSON(t, http.MethodPut, server.URL+"/api/notes/"+created.ID, tokenA, model.Draft{Title: "renamed"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated model.Note
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	resp.Body.Close()
	assert.Equal(t, "renamed", updated.Title)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt) || updated.UpdatedAt.Equal(created.UpdatedAt))
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	// Empty titles are rejected.
	resp = doJSON(t, http.MethodPost, server.URL+"/api/notes", tokenA, model.Draft{Title: "  "})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Delete confirms with 204; a second delete is 404.
	resp = doJSON(t, http.MethodDelete, server.URL+"/api/notes/"+created.ID, tokenA, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, http.MethodDelete, server.URL+"/api/notes/"+created.ID, tokenA, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
