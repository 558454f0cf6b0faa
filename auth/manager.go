// Package auth holds the client's authentication state: who is logged
// in, the bearer token, and their durable copies on disk. A single
// Manager is constructed in main and passed to everything that needs
// it; there is no package-level state.
package auth

import (
	"context"
	"sync"

	"github.com/puyokura/philoterm/api"
	"github.com/puyokura/philoterm/model"
)

// Result is what Login and Register resolve to. They never return an
// error: failures become a human-readable Message.
type Result struct {
	OK      bool
	Message string
}

// Manager is the single source of truth for the authenticated user.
type Manager struct {
	client *api.Client
	store  *Store

	mu    sync.RWMutex
	user  *model.User
	token string
}

// NewManager wires the manager to the API client it injects tokens into
// and the store it persists credentials with.
func NewManager(client *api.Client, store *Store) *Manager {
	return &Manager{client: client, store: store}
}

// Restore loads credentials saved by a previous run. Called once before
// the UI starts, so routing never observes a half-initialized state. If
// nothing (or only half a pair) is stored, the manager starts
// unauthenticated.
func (m *Manager) Restore() {
	token, user, ok := m.store.Load()
	if !ok {
		return
	}
	m.mu.Lock()
	m.token = token
	m.user = &user
	m.mu.Unlock()
	m.client.SetToken(token)
}

// Login authenticates and, on success, stores the token and user in
// memory and on disk and attaches the token to future requests.
func (m *Manager) Login(ctx context.Context, username, password string) Result {
	auth, err := m.client.Login(ctx, model.Credentials{Username: username, Password: password})
	if err != nil {
		return Result{Message: loginMessage(err)}
	}
	m.establish(auth)
	return Result{OK: true}
}

// Register creates an account and logs it in with the same persistence
// as Login.
func (m *Manager) Register(ctx context.Context, reg model.Registration) Result {
	auth, err := m.client.Register(ctx, reg)
	if err != nil {
		return Result{Message: registerMessage(err)}
	}
	m.establish(auth)
	return Result{OK: true}
}

func (m *Manager) establish(auth *model.AuthResponse) {
	m.mu.Lock()
	m.token = auth.Access
	user := auth.User
	m.user = &user
	m.mu.Unlock()

	m.client.SetToken(auth.Access)
	// A failed write only costs the next run its restored session.
	_ = m.store.Save(auth.Access, auth.User)
}

// Logout clears the in-memory state, the durable entries, and the token
// attached to outbound requests.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.token = ""
	m.user = nil
	m.mu.Unlock()

	m.client.ClearToken()
	_ = m.store.Clear()
}

// Authenticated reports whether a token is present.
func (m *Manager) Authenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token != ""
}

// User returns the current user, or nil when logged out.
func (m *Manager) User() *model.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user
}
