package session

import (
	"encoding/json"
	"os"
	"path/filepath"

	"notesync/pkg/logger"
)

// CredentialStore is the single durable slot for the session token. It is
// read once at startup, written on login/register and cleared on logout or
// invalidation.
type CredentialStore struct {
	path string
}

type storedCredentials struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

// NewCredentialStore creates a store backed by the file at path.
func NewCredentialStore(path string) *CredentialStore {
	return &CredentialStore{path: path}
}

// Save writes the token and email to the slot, creating parent directories
// as needed. The file is only readable by the current user.
func (c *CredentialStore) Save(token, email string) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		logger.Sugar.Errorf("Failed to create credentials directory: %v", err)
		return err
	}
	payload, err := json.Marshal(storedCredentials{Token: token, Email: email})
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.path, payload, 0o600); err != nil {
		logger.Sugar.Errorf("Failed to write credentials file: %v", err)
		return err
	}
	return nil
}

// Load reads the slot. A missing or unreadable file reports ok=false rather
// than an error; startup proceeds unauthenticated in that case.
func (c *CredentialStore) Load() (token, email string, ok bool) {
	payload, err := os.ReadFile(c.path)
	if err != nil {
		return "", "", false
	}
	var creds storedCredentials
	if err := json.Unmarshal(payload, &creds); err != nil {
		logger.Sugar.Errorf("Corrupt credentials file, ignoring: %v", err)
		return "", "", false
	}
	if creds.Token == "" {
		return "", "", false
	}
	return creds.Token, creds.Email, true
}

// Clear removes the slot. Clearing an empty slot succeeds.
func (c *CredentialStore) Clear() error {
	err := os.Remove(c.path)
	if err != nil && !os.IsNotExist(err) {
		logger.Sugar.Errorf("Failed to clear credentials file: %v", err)
		return err
	}
	return nil
}
