package state

import (
	"sync"

	"ticketly-client/internal/models"
)

// AuthSnapshot is the immutable view of the auth container at one
// instant. Transitions produce a new snapshot; the container only
// swaps the current one under its lock.
type AuthSnapshot struct {
	User        *models.User
	Token       string
	Loading     bool
	Error       string
	ForcedLogin bool
}

// Pure transition functions. Kept free of the container so the auth
// lifecycle can be unit-tested without any locking involved.

func authPending(s AuthSnapshot) AuthSnapshot {
	s.Loading = true
	s.Error = ""
	return s
}

func authFulfilled(s AuthSnapshot, user models.User, token string) AuthSnapshot {
	s.Loading = false
	s.User = &user
	s.Token = token
	s.Error = ""
	s.ForcedLogin = false
	return s
}

func authRejected(s AuthSnapshot, message string) AuthSnapshot {
	s.Loading = false
	s.Error = message
	return s
}

func authCleared(s AuthSnapshot, forced bool) AuthSnapshot {
	return AuthSnapshot{ForcedLogin: forced}
}

// Auth holds the client-wide session state: who is signed in and
// whether the client was forced back to the login entry point by a 401.
type Auth struct {
	mu   sync.RWMutex
	snap AuthSnapshot
}

func NewAuth() *Auth {
	return &Auth{}
}

// Restore seeds the container from a persisted session at startup.
func (a *Auth) Restore(user models.User, token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.snap = authFulfilled(a.snap, user, token)
}

func (a *Auth) BeginLogin() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.snap = authPending(a.snap)
}

func (a *Auth) CompleteLogin(user models.User, token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.snap = authFulfilled(a.snap, user, token)
}

func (a *Auth) FailLogin(message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.snap = authRejected(a.snap, message)
}

// Logout clears the session. forced marks a 401-driven logout, which
// the view reports as a redirect to the login entry point.
func (a *Auth) Logout(forced bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.snap = authCleared(a.snap, forced)
}

func (a *Auth) Snapshot() AuthSnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snap
}

// Token returns the current bearer token, empty when signed out.
func (a *Auth) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snap.Token
}

// CurrentUser returns a copy of the signed-in user, nil when signed out.
func (a *Auth) CurrentUser() *models.User {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.snap.User == nil {
		return nil
	}
	u := *a.snap.User
	return &u
}

func (a *Auth) IsAdmin() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snap.User != nil && a.snap.User.Role == models.RoleAdmin
}
