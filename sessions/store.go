package sessions

import (
	"context"
	"time"
)

// Store persists the session of a single tenant. Implementations must write
// identity and credentials in one operation so that a reader never sees one
// without the other.
type Store interface {
	// Save replaces the stored session.
	Save(ctx context.Context, identity Identity, credentials Credentials) error
	// Load returns the stored session. Absent, malformed or outdated data
	// yields false; Load never fails past this boundary.
	Load(ctx context.Context) (*Session, bool)
	// Clear removes the stored session. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// NowTimeFunc stamps SavedAt. It can be overridden in tests.
var NowTimeFunc = time.Now

// New builds a Session stamped with the current time.
func New(identity Identity, credentials Credentials) Session {
	return Session{
		Identity:    identity,
		Credentials: credentials,
		SavedAt:     NowTimeFunc().UTC(),
	}
}
