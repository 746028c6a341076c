package devserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"notesync/internal/notes/model"
	"notesync/pkg/logger"
)

const tokenTTL = 72 * time.Hour

// Handlers implements the auth and notes endpoints of the boundary.
type Handlers struct {
	store  *Store
	secret string
}

func NewHandlers(store *Store, secret string) *Handlers {
	return &Handlers{store: store, secret: secret}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "A valid email is required")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters long")
		return
	}

	user, err := h.store.CreateUser(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			writeError(w, http.StatusConflict, "User with this email already exists")
			return
		}
		logger.Sugar.Errorf("Failed to create user: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	h.respondWithToken(w, http.StatusCreated, user)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.store.Authenticate(strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	h.respondWithToken(w, http.StatusOK, user)
}

func (h *Handlers) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes := h.store.ListNotes(userID(r))
	writeJSON(w, http.StatusOK, notes)
}

func (h *Handlers) CreateNote(w http.ResponseWriter, r *http.Request) {
	var draft model.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(draft.Title) == "" {
		writeError(w, http.StatusBadRequest, "Title is required")
		return
	}

	note := h.store.CreateNote(userID(r), draft)
	writeJSON(w, http.StatusCreated, note)
}

func (h *Handlers) UpdateNote(w http.ResponseWriter, r *http.Request) {
	var draft model.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(draft.Title) == "" {
		writeError(w, http.StatusBadRequest, "Title is required")
		return
	}

	note, err := h.store.UpdateNote(userID(r), chi.URLParam(r, "id"), draft)
	if err != nil {
		writeError(w, http.StatusNotFound, "Note not found")
		return
	}
	writeJSON(w, http.StatusOK, note)
}

func (h *Handlers) DeleteNote(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteNote(userID(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusNotFound, "Note not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) respondWithToken(w http.ResponseWriter, status int, user model.User) {
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"exp":   time.Now().Add(tokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.secret))
	if err != nil {
		logger.Sugar.Errorf("Failed to sign token: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}
	writeJSON(w, status, authResponse{Token: token, User: user})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
