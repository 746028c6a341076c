package session

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notesync/internal/api"
	"notesync/internal/devserver"
	"notesync/pkg/apperr"
)

const testSecret = "test-secret"

func newTestStore(t *testing.T) (*Store, *CredentialStore, string) {
	t.Helper()

	server := httptest.NewServer(devserver.NewRouter(devserver.NewStore(), testSecret))
	t.Cleanup(server.Close)

	credsPath := filepath.Join(t.TempDir(), "credentials.json")
	creds := NewCredentialStore(credsPath)
	client := api.NewClient(server.URL+"/api", 2*time.Second)
	return NewStore(client, creds), creds, credsPath
}

func TestRegisterEstablishesSession(t *testing.T) {
	store, _, credsPath := newTestStore(t)

	var notified []*Identity
	store.Subscribe(func(identity *Identity) {
		notified = append(notified, identity)
	})

	identity, err := store.Register(context.Background(), "user@example.com", "secret123")
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, "user@example.com", identity.User.Email)
	assert.NotEmpty(t, identity.Token)

	// Subscribers hear about the change before Register returns.
	require.Len(t, notified, 1)
	assert.Equal(t, identity, notified[0])

	// The durable slot holds the token.
	_, err = os.Stat(credsPath)
	assert.NoError(t, err)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	store, _, _ := newTestStore(t)

	_, err := store.Register(context.Background(), "user@example.com", "secret123")
	require.NoError(t, err)
	store.Logout()

	_, err = store.Register(context.Background(), "user@example.com", "secret123")
	require.Error(t, err)
	assert.Equal(t, apperr.KindServer, apperr.KindOf(err))
	assert.Equal(t, "User with this email already exists", apperr.UserMessage(err))
	assert.False(t, store.Authenticated())
}

func TestLoginFailureStoresNothing(t *testing.T) {
	store, _, credsPath := newTestStore(t)

	_, err := store.Login(context.Background(), "nobody@example.com", "wrong-pass")
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password", apperr.UserMessage(err))
	assert.False(t, store.Authenticated())
	_, statErr := os.Stat(credsPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLogoutClearsEverything(t *testing.T) {
	store, _, credsPath := newTestStore(t)

	_, err := store.Register(context.Background(), "user@example.com", "secret123")
	require.NoError(t, err)

	var lastNotified *Identity
	notifications := 0
	store.Subscribe(func(identity *Identity) {
		lastNotified = identity
		notifications++
	})

	store.Logout()
	assert.False(t, store.Authenticated())
	assert.Nil(t, lastNotified)
	assert.Equal(t, 1, notifications)
	_, statErr := os.Stat(credsPath)
	assert.True(t, os.IsNotExist(statErr))

	// Logging out twice is a no-op.
	store.Logout()
	assert.Equal(t, 1, notifications)
}

func TestRestoreResumesPersistedSession(t *testing.T) {
	store, creds, _ := newTestStore(t)

	identity, err := store.Register(context.Background(), "user@example.com", "secret123")
	require.NoError(t, err)

	// A fresh store over the same slot, as after a process restart. The
	// token is trusted without contacting the boundary.
	restored := NewStore(api.NewClient("http://localhost:0", time.Second), creds)
	require.True(t, restored.Restore())
	require.NotNil(t, restored.Current())
	assert.Equal(t, identity.Token, restored.Current().Token)
	assert.Equal(t, "user@example.com", restored.Current().User.Email)
}

func TestRestoreWithEmptySlot(t *testing.T) {
	store, _, _ := newTestStore(t)
	assert.False(t, store.Restore())
	assert.False(t, store.Authenticated())
}

func TestInvalidateIsIdempotentUnderConcurrency(t *testing.T) {
	store, _, credsPath := newTestStore(t)

	_, err := store.Register(context.Background(), "user@example.com", "secret123")
	require.NoError(t, err)

	var mu sync.Mutex
	notifications := 0
	store.Subscribe(func(identity *Identity) {
		mu.Lock()
		defer mu.Unlock()
		if identity == nil {
			notifications++
		}
	})

	// Two operations failing with an auth rejection at the same time must
	// clear the session exactly once.
	var wg sync.WaitGroup
	authErr := apperr.New(apperr.KindAuth, "UNAUTHORIZED", "token rejected")
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.HandleError(authErr)
		}()
	}
	wg.Wait()

	assert.False(t, store.Authenticated())
	assert.Equal(t, 1, notifications)
	_, statErr := os.Stat(credsPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestHandleErrorIgnoresNonAuthFailures(t *testing.T) {
	store, _, _ := newTestStore(t)

	_, err := store.Register(context.Background(), "user@example.com", "secret123")
	require.NoError(t, err)

	assert.False(t, store.HandleError(apperr.New(apperr.KindServer, "NOT_FOUND", "note not found")))
	assert.False(t, store.HandleError(apperr.New(apperr.KindNetwork, "REQUEST_FAILED", "boom")))
	assert.True(t, store.Authenticated())
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	store, _, _ := newTestStore(t)

	notifications := 0
	unsubscribe := store.Subscribe(func(*Identity) { notifications++ })
	unsubscribe()

	_, err := store.Register(context.Background(), "user@example.com", "secret123")
	require.NoError(t, err)
	assert.Zero(t, notifications)
}
