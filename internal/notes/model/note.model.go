package model

import "time"

// Note is a single note as returned by the remote boundary. ID, CreatedAt
// and UpdatedAt are server-assigned and never set locally.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Draft is the user-editable part of a note.
type Draft struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// User identifies the account behind a session.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Snapshot is the observable state of the notes synchronizer.
type Snapshot struct {
	Notes     []Note `json:"notes"`
	Loading   bool   `json:"loading"`
	LastError string `json:"last_error,omitempty"`
}
