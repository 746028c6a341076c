// Package devserver is an in-process double of the remote notes service:
// the same wire surface the client consumes, backed by memory. It serves
// local development and the integration tests.
package devserver

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"notesync/internal/notes/model"
)

var (
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNoteNotFound       = errors.New("note not found")
)

type userRecord struct {
	user         model.User
	passwordHash []byte
}

// Store holds users and their notes in memory, scoped per user exactly like
// the real service.
type Store struct {
	mu           sync.Mutex
	usersByEmail map[string]*userRecord
	notesByUser  map[string][]model.Note
}

func NewStore() *Store {
	return &Store{
		usersByEmail: make(map[string]*userRecord),
		notesByUser:  make(map[string][]model.Note),
	}
}

// CreateUser registers a new account with a bcrypt-hashed password.
func (s *Store) CreateUser(email, password string) (model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.usersByEmail[email]; exists {
		return model.User{}, ErrEmailTaken
	}
	user := model.User{ID: uuid.NewString(), Email: email, CreatedAt: time.Now().UTC()}
	s.usersByEmail[email] = &userRecord{user: user, passwordHash: hash}
	return user, nil
}

// Authenticate checks credentials and returns the matching user.
func (s *Store) Authenticate(email, password string) (model.User, error) {
	s.mu.Lock()
	record, exists := s.usersByEmail[email]
	s.mu.Unlock()
	if !exists {
		return model.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(record.passwordHash, []byte(password)); err != nil {
		return model.User{}, ErrInvalidCredentials
	}
	return record.user, nil
}

// ListNotes returns the user's notes, most recently updated first.
func (s *Store) ListNotes(userID string) []model.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	notes := make([]model.Note, len(s.notesByUser[userID]))
	copy(notes, s.notesByUser[userID])
	sort.SliceStable(notes, func(i, j int) bool {
		return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
	})
	return notes
}

// CreateNote stores a new note with a server-assigned id and timestamps.
func (s *Store) CreateNote(userID string, draft model.Draft) model.Note {
	now := time.Now().UTC()
	note := model.Note{
		ID:        uuid.NewString(),
		Title:     draft.Title,
		Content:   draft.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.notesByUser[userID] = append(s.notesByUser[userID], note)
	s.mu.Unlock()
	return note
}

// UpdateNote replaces the draft fields of the user's note.
func (s *Store) UpdateNote(userID, id string, draft model.Draft) (model.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	notes := s.notesByUser[userID]
	for i := range notes {
		if notes[i].ID == id {
			notes[i].Title = draft.Title
			notes[i].Content = draft.Content
			notes[i].UpdatedAt = time.Now().UTC()
			return notes[i], nil
		}
	}
	return model.Note{}, ErrNoteNotFound
}

// DeleteNote removes the user's note.
func (s *Store) DeleteNote(userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	notes := s.notesByUser[userID]
	for i := range notes {
		if notes[i].ID == id {
			s.notesByUser[userID] = append(notes[:i], notes[i+1:]...)
			return nil
		}
	}
	return ErrNoteNotFound
}
