// Package session owns the authenticated identity for the process: the
// store that establishes and tears down sessions, the durable credential
// slot, and the gate that decides which screens are reachable.
package session

import (
	"context"
	"sync"

	"notesync/internal/api"
	"notesync/internal/notes/model"
	"notesync/pkg/apperr"
	"notesync/pkg/logger"
)

// Identity is the current authenticated user plus the token proving it.
type Identity struct {
	Token string
	User  model.User
}

// Listener receives the new identity on every session change. A nil
// identity means logged out. Notification is synchronous: by the time a
// session operation returns, every listener has observed the change.
type Listener func(identity *Identity)

// Store holds the process-wide session state. It is constructed once at
// startup and injected into its consumers.
type Store struct {
	client *api.Client
	creds  *CredentialStore

	mu           sync.Mutex
	identity     *Identity
	listeners    map[int]Listener
	nextListener int
}

// NewStore creates a session store. The store owns the client's bearer
// token from here on.
func NewStore(client *api.Client, creds *CredentialStore) *Store {
	return &Store{
		client:    client,
		creds:     creds,
		listeners: make(map[int]Listener),
	}
}

// Subscribe registers a listener and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) func() {
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

// Current returns the identity, or nil when logged out.
func (s *Store) Current() *Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// Authenticated reports whether a session is established.
func (s *Store) Authenticated() bool {
	return s.Current() != nil
}

// Login exchanges credentials for a session. On success the identity is
// held in memory, the token is installed on the transport and persisted to
// the durable slot, and subscribers are notified. On failure nothing is
// stored and the returned error carries a user-facing message.
func (s *Store) Login(ctx context.Context, email, password string) (*Identity, error) {
	resp, err := s.client.Login(ctx, email, password)
	if err != nil {
		logger.Sugar.Infof("Login failed for %s: %v", email, err)
		return nil, err
	}
	return s.establish(resp), nil
}

// Register creates a new account. Same contract as Login; the boundary
// rejects an already-registered email with a distinct message.
func (s *Store) Register(ctx context.Context, email, password string) (*Identity, error) {
	resp, err := s.client.Register(ctx, email, password)
	if err != nil {
		logger.Sugar.Infof("Registration failed for %s: %v", email, err)
		return nil, err
	}
	return s.establish(resp), nil
}

func (s *Store) establish(resp api.AuthResponse) *Identity {
	identity := &Identity{Token: resp.Token, User: resp.User}

	s.client.SetToken(resp.Token)
	if err := s.creds.Save(resp.Token, resp.User.Email); err != nil {
		// The in-memory session still stands; only restore-on-restart is lost.
		logger.Sugar.Errorf("Session established but not persisted: %v", err)
	}

	s.mu.Lock()
	s.identity = identity
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(identity)
	}
	return identity
}

// Logout clears the in-memory and durable session synchronously. It always
// succeeds; logging out twice is a no-op.
func (s *Store) Logout() {
	s.Invalidate()
}

// Invalidate tears the session down: memory, transport token and durable
// slot, then notifies subscribers. It is idempotent — concurrent failing
// operations that both report an auth rejection clear the slot exactly
// once, and subscribers hear about it exactly once.
func (s *Store) Invalidate() {
	s.mu.Lock()
	if s.identity == nil {
		s.mu.Unlock()
		return
	}
	s.identity = nil
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	s.client.ClearToken()
	if err := s.creds.Clear(); err != nil {
		logger.Sugar.Errorf("Failed to clear persisted session: %v", err)
	}

	for _, fn := range listeners {
		fn(nil)
	}
}

// Restore attempts to resume a persisted session at startup. A present
// token is trusted without contacting the boundary; the first protected
// request that fails with an auth rejection invalidates it (lazy
// validation). Returns whether a session was restored.
func (s *Store) Restore() bool {
	token, email, ok := s.creds.Load()
	if !ok {
		return false
	}

	identity := &Identity{Token: token, User: model.User{Email: email}}
	s.client.SetToken(token)

	s.mu.Lock()
	s.identity = identity
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(identity)
	}
	logger.Sugar.Infof("Restored session for %s", email)
	return true
}

// HandleError routes an operation failure through the session: an auth
// rejection from any request tears the session down, everything else is
// left to the caller. The returned bool reports whether invalidation ran.
func (s *Store) HandleError(err error) bool {
	if !apperr.IsAuth(err) {
		return false
	}
	s.Invalidate()
	return true
}

// snapshotListeners must be called with mu held. Listeners are invoked
// after unlock so they may call back into the store.
func (s *Store) snapshotListeners() []Listener {
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	return listeners
}
