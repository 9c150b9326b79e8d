// Package sessions provides the storage side of controller's session
// support: a Store interface with in-memory and Redis implementations, and
// the Session value an invocation mutates. The controller package owns the
// cookie plumbing; nothing here touches HTTP.
package sessions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound reports an unknown or expired session ID.
var ErrNotFound = errors.New("session not found")

// Store persists session values between requests. Implementations must be
// safe for concurrent use and must return maps the caller may keep.
type Store interface {
	Find(ctx context.Context, id string) (map[string]any, error)
	Save(ctx context.Context, id string, values map[string]any, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// Options shapes the cookie an action issues for its sessions.
type Options struct {
	Cookie string        // cookie name, defaults to "_session_id"
	Path   string        // cookie path, defaults to "/"
	TTL    time.Duration // store and cookie lifetime, 0 keeps both unbounded
	Secure bool
}

// Normalized fills in the defaults.
func (o Options) Normalized() Options {
	if o.Cookie == "" {
		o.Cookie = "_session_id"
	}
	if o.Path == "" {
		o.Path = "/"
	}
	return o
}

// Session is one request's view of its stored values. It tracks mutations,
// so Commit only touches the store when something actually changed.
type Session struct {
	id        string
	values    map[string]any
	dirty     bool
	destroyed bool
}

// Open loads the session stored under id. An empty id, an unknown id and a
// failing store all yield a usable blank session; the error comes back for
// logging only.
func Open(ctx context.Context, store Store, id string) (*Session, error) {
	if id != "" {
		values, err := store.Find(ctx, id)
		if err == nil {
			if values == nil {
				values = map[string]any{}
			}
			return &Session{id: id, values: values}, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return &Session{values: map[string]any{}}, err
		}
	}
	return &Session{values: map[string]any{}}, nil
}

// ID returns the session's storage key; "" until a fresh session is
// committed for the first time.
func (s *Session) ID() string {
	return s.id
}

// Get returns a stored value, or nil.
func (s *Session) Get(key string) any {
	return s.values[key]
}

// GetString returns a stored value as a string, or "".
func (s *Session) GetString(key string) string {
	v, _ := s.values[key].(string)
	return v
}

// Set stores a value and marks the session dirty.
func (s *Session) Set(key string, value any) {
	s.values[key] = value
	s.dirty = true
}

// Delete removes a value and marks the session dirty.
func (s *Session) Delete(key string) {
	delete(s.values, key)
	s.dirty = true
}

// Destroy schedules the session for removal at commit time and empties it
// for the rest of the invocation.
func (s *Session) Destroy() {
	s.values = map[string]any{}
	s.destroyed = true
}

// Dirty reports whether anything was written this request.
func (s *Session) Dirty() bool {
	return s.dirty
}

// Destroyed reports whether Destroy was called this request.
func (s *Session) Destroyed() bool {
	return s.destroyed
}

// Commit writes the session back: destroyed sessions are deleted, dirty
// ones saved under their ID, minting a fresh one for sessions born this
// request. Clean sessions never touch the store.
func (s *Session) Commit(ctx context.Context, store Store, ttl time.Duration) error {
	if s.destroyed {
		if s.id == "" {
			return nil
		}
		return store.Delete(ctx, s.id)
	}
	if !s.dirty {
		return nil
	}
	if s.id == "" {
		s.id = uuid.New().String()
	}
	return store.Save(ctx, s.id, s.values, ttl)
}
