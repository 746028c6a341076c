// Package notes keeps the in-memory notes collection consistent with the
// remote authoritative store and tracks the inline edit/create mode.
package notes

import (
	"context"
	"strings"
	"sync"
	"time"

	"notesync/internal/api"
	"notesync/internal/notes/model"
	"notesync/internal/session"
	"notesync/pkg/apperr"
	"notesync/pkg/logger"
)

// Synchronizer owns the canonical local notes collection. All four
// operations leave the collection in a well-defined state on both success
// and failure: the list only ever changes after the boundary confirms, and
// a completing operation patches the then-current collection by id rather
// than assuming it is unchanged since the request was issued. Overlapping
// mutations on the same note resolve last-completion-wins.
type Synchronizer struct {
	client    *api.Client
	session   *session.Store
	noticeTTL time.Duration

	mu           sync.Mutex
	notes        []model.Note
	loading      bool
	lastError    string
	errSeq       int
	closed       bool
	listeners    map[int]func(model.Snapshot)
	nextListener int
}

// NewSynchronizer creates a synchronizer. noticeTTL bounds how long a
// failure message stays visible before auto-clearing.
func NewSynchronizer(client *api.Client, sess *session.Store, noticeTTL time.Duration) *Synchronizer {
	return &Synchronizer{
		client:    client,
		session:   sess,
		noticeTTL: noticeTTL,
		listeners: make(map[int]func(model.Snapshot)),
	}
}

// Subscribe registers a listener for state changes and returns a function
// that removes it.
func (s *Synchronizer) Subscribe(fn func(model.Snapshot)) func() {
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Snapshot returns a copy of the observable state.
func (s *Synchronizer) Snapshot() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Has reports whether a note with the given id is in the collection.
func (s *Synchronizer) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexLocked(id) >= 0
}

// Refresh replaces the local collection with the boundary's full list. On
// failure the previous collection is left untouched and only lastError is
// set.
func (s *Synchronizer) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	s.mu.Unlock()
	s.notifyAll()

	fetched, err := s.client.ListNotes(ctx)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.loading = false
	if err != nil {
		s.recordErrorLocked(err)
		s.mu.Unlock()
		s.notifyAll()
		s.session.HandleError(err)
		return err
	}
	if fetched == nil {
		fetched = []model.Note{}
	}
	s.notes = fetched
	s.mu.Unlock()
	s.notifyAll()
	return nil
}

// Create validates the draft locally, then asks the boundary to store it.
// The server-returned note, carrying its assigned id and timestamps, is
// prepended to the collection. An empty title never reaches the network.
func (s *Synchronizer) Create(ctx context.Context, draft model.Draft) (model.Note, error) {
	if err := validateDraft(draft); err != nil {
		s.failLocal(err)
		return model.Note{}, err
	}

	created, err := s.client.CreateNote(ctx, draft)
	if err != nil {
		s.failRemote(err)
		return model.Note{}, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return created, nil
	}
	s.notes = append([]model.Note{created}, s.notes...)
	s.mu.Unlock()
	s.notifyAll()
	return created, nil
}

// Update sends the draft to the boundary and, once confirmed, replaces the
// matching entry in place. There is no optimistic pre-update mutation; on
// failure the entry keeps its pre-update value. If the note was removed
// while the request was in flight the confirmed result is discarded.
func (s *Synchronizer) Update(ctx context.Context, id string, draft model.Draft) (model.Note, error) {
	if err := s.requireNote(id); err != nil {
		s.failLocal(err)
		return model.Note{}, err
	}
	if err := validateDraft(draft); err != nil {
		s.failLocal(err)
		return model.Note{}, err
	}

	updated, err := s.client.UpdateNote(ctx, id, draft)
	if err != nil {
		s.failRemote(err)
		return model.Note{}, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return updated, nil
	}
	if i := s.indexLocked(id); i >= 0 {
		s.notes[i] = updated
	}
	s.mu.Unlock()
	s.notifyAll()
	return updated, nil
}

// Delete removes the entry from the collection only after the boundary
// confirms the deletion.
func (s *Synchronizer) Delete(ctx context.Context, id string) error {
	if err := s.requireNote(id); err != nil {
		s.failLocal(err)
		return err
	}

	if err := s.client.DeleteNote(ctx, id); err != nil {
		s.failRemote(err)
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	if i := s.indexLocked(id); i >= 0 {
		s.notes = append(s.notes[:i], s.notes[i+1:]...)
	}
	s.mu.Unlock()
	s.notifyAll()
	return nil
}

// Close disposes the synchronizer. In-flight completions arriving after
// Close are discarded instead of mutating state nothing observes.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	s.closed = true
	s.listeners = map[int]func(model.Snapshot){}
	s.mu.Unlock()
}

func validateDraft(draft model.Draft) error {
	if strings.TrimSpace(draft.Title) == "" {
		return apperr.New(apperr.KindValidation, "EMPTY_TITLE", "title must not be empty").
			WithUserMessage("Title is required")
	}
	return nil
}

func (s *Synchronizer) requireNote(id string) error {
	if s.Has(id) {
		return nil
	}
	return apperr.New(apperr.KindValidation, "UNKNOWN_NOTE", "note is not in the collection").
		WithUserMessage("That note no longer exists")
}

// failLocal records a precondition failure. The collection is untouched and
// no request was issued.
func (s *Synchronizer) failLocal(err error) {
	s.mu.Lock()
	closed := s.closed
	if !closed {
		s.recordErrorLocked(err)
	}
	s.mu.Unlock()
	if !closed {
		s.notifyAll()
	}
}

// failRemote records a boundary failure and routes auth rejections into the
// session invalidation path.
func (s *Synchronizer) failRemote(err error) {
	s.failLocal(err)
	s.session.HandleError(err)
}

// recordErrorLocked sets lastError and schedules its auto-clear. A newer
// error bumps the sequence so a stale timer never clears it early.
func (s *Synchronizer) recordErrorLocked(err error) {
	logger.Sugar.Infof("Notes operation failed: %v", err)
	s.lastError = apperr.UserMessage(err)
	s.errSeq++
	seq := s.errSeq

	if s.noticeTTL <= 0 {
		return
	}
	time.AfterFunc(s.noticeTTL, func() {
		s.mu.Lock()
		if s.closed || s.errSeq != seq {
			s.mu.Unlock()
			return
		}
		s.lastError = ""
		s.mu.Unlock()
		s.notifyAll()
	})
}

func (s *Synchronizer) indexLocked(id string) int {
	for i := range s.notes {
		if s.notes[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Synchronizer) snapshotLocked() model.Snapshot {
	notes := make([]model.Note, len(s.notes))
	copy(notes, s.notes)
	return model.Snapshot{Notes: notes, Loading: s.loading, LastError: s.lastError}
}

func (s *Synchronizer) notifyAll() {
	s.mu.Lock()
	snapshot := s.snapshotLocked()
	listeners := make([]func(model.Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot)
	}
}
