// Package users tracks registered identities, their reputation and
// lifetime counters. Every lifecycle transition of the market engine
// mutates the registry; reputation decrements saturate at zero.
package users

import (
	"math"
	"sync"
	"time"

	"github.com/workstake-network/workstake/internal/domain"
)

// Registry is the in-memory user store. The market engine serializes all
// writes; the RWMutex guards concurrent readers (API, CLI).
type Registry struct {
	mu    sync.RWMutex
	users map[domain.Identity]*domain.User
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{users: make(map[domain.Identity]*domain.User)}
}

// New builds a fresh registration record without installing it. Profile
// fields are immutable once set; a re-registration after unregistration
// restarts all counters at zero.
func New(id domain.Identity, displayName, contact string, initialReputation int64, now time.Time) (domain.User, error) {
	if id.IsZero() {
		return domain.User{}, domain.ErrZeroIdentity
	}
	return domain.User{
		ID:           id,
		DisplayName:  displayName,
		Contact:      contact,
		Reputation:   initialReputation,
		Registered:   true,
		RegisteredAt: now,
	}, nil
}

// Register creates and installs a user record.
func (r *Registry) Register(id domain.Identity, displayName, contact string, initialReputation int64, now time.Time) (domain.User, error) {
	u, err := New(id, displayName, contact, initialReputation, now)
	if err != nil {
		return domain.User{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.users[id]; ok && existing.Registered {
		return domain.User{}, domain.ErrAlreadyRegistered
	}
	r.users[id] = &u
	return u, nil
}

// Unregister clears the record. Single use: a second call fails.
func (r *Registry) Unregister(id domain.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok || !u.Registered {
		return domain.ErrNotRegistered
	}
	delete(r.users, id)
	return nil
}

// Get returns a copy of the user record.
func (r *Registry) Get(id domain.Identity) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return *u, nil
}

// IsRegistered reports whether the identity has an active registration.
func (r *Registry) IsRegistered(id domain.Identity) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	return ok && u.Registered
}

// Put installs a staged user copy (post-persist install path).
func (r *Registry) Put(u domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copy := u
	r.users[u.ID] = &copy
}

// Count returns the number of registered users.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

// All returns copies of every user record.
func (r *Registry) All() []domain.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out
}

// ─── Staged mutation helpers ────────────────────────────────────────────────
// These operate on copies; the engine persists the copy and installs it
// back via Put.

// AdjustReputation applies a delta, saturating at zero below and at
// MaxInt64 above.
func AdjustReputation(u *domain.User, delta int64) {
	if delta < 0 && u.Reputation < -delta {
		u.Reputation = 0
		return
	}
	if delta > 0 && u.Reputation > math.MaxInt64-delta {
		u.Reputation = math.MaxInt64
		return
	}
	u.Reputation += delta
}
