package notes

import (
	"context"
	"sync"

	"notesync/internal/notes/model"
	"notesync/pkg/apperr"
)

// Mode is the edit-mode state. A single tagged mode makes inline editing
// and the creation form mutually exclusive.
type Mode string

const (
	ModeBrowsing Mode = "browsing"
	ModeEditing  Mode = "editing"
	ModeCreating Mode = "creating"
)

// EditorState is the observable edit-mode state. EditingID is only
// meaningful when Mode is ModeEditing.
type EditorState struct {
	Mode      Mode
	EditingID string
}

// Editor tracks which single note is in inline-edit mode and whether the
// creation form is open. It holds no copy of note data; everything flows
// through the synchronizer's operations.
type Editor struct {
	sync *Synchronizer

	mu        sync.Mutex
	mode      Mode
	editingID string
	listeners []func(EditorState)
}

// NewEditor creates an editor in browsing mode.
func NewEditor(s *Synchronizer) *Editor {
	return &Editor{sync: s, mode: ModeBrowsing}
}

// State returns the current edit-mode state.
func (e *Editor) State() EditorState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return EditorState{Mode: e.mode, EditingID: e.editingID}
}

// Subscribe registers a listener called on every mode transition.
func (e *Editor) Subscribe(fn func(EditorState)) {
	e.mu.Lock()
	e.listeners = append(e.listeners, fn)
	e.mu.Unlock()
}

// BeginEdit puts the note with the given id into inline-edit mode. The id
// must be in the synchronizer's collection; there is no remote effect.
func (e *Editor) BeginEdit(id string) error {
	if !e.sync.Has(id) {
		return apperr.New(apperr.KindValidation, "UNKNOWN_NOTE", "note is not in the collection").
			WithUserMessage("That note no longer exists")
	}
	e.transition(ModeEditing, id)
	return nil
}

// CommitEdit saves the draft of the note currently being edited. On success
// the editor returns to browsing; on failure it stays in editing so the
// user can retry or cancel.
func (e *Editor) CommitEdit(ctx context.Context, draft model.Draft) (model.Note, error) {
	e.mu.Lock()
	if e.mode != ModeEditing {
		e.mu.Unlock()
		return model.Note{}, apperr.New(apperr.KindValidation, "NOT_EDITING", "no note is being edited")
	}
	id := e.editingID
	e.mu.Unlock()

	updated, err := e.sync.Update(ctx, id, draft)
	if err != nil {
		return model.Note{}, err
	}
	e.transition(ModeBrowsing, "")
	return updated, nil
}

// CancelEdit leaves inline-edit mode without saving. Always succeeds.
func (e *Editor) CancelEdit() {
	e.mu.Lock()
	editing := e.mode == ModeEditing
	e.mu.Unlock()
	if editing {
		e.transition(ModeBrowsing, "")
	}
}

// OpenCreate opens the creation form, closing any inline edit.
func (e *Editor) OpenCreate() {
	e.transition(ModeCreating, "")
}

// CloseCreate closes the creation form. Always succeeds.
func (e *Editor) CloseCreate() {
	e.mu.Lock()
	creating := e.mode == ModeCreating
	e.mu.Unlock()
	if creating {
		e.transition(ModeBrowsing, "")
	}
}

func (e *Editor) transition(mode Mode, editingID string) {
	e.mu.Lock()
	e.mode = mode
	e.editingID = editingID
	state := EditorState{Mode: mode, EditingID: editingID}
	listeners := append([]func(EditorState){}, e.listeners...)
	e.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}
