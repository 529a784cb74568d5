// Package tokenstore provides the storage backends for the session token
// keyring: an in-memory session-scoped backend and durable file/redis backends.
package tokenstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prepflow/prepflow-go/internal/domain/identity"
)

// Record is the whole session record a backend persists. Records are swapped
// atomically as a unit, never mutated in place.
type Record struct {
	Access     string          `json:"access_token"`
	Refresh    string          `json:"refresh_token"`
	Persistent bool            `json:"persistent"`
	User       json.RawMessage `json:"user,omitempty"`
	ActiveRole identity.Role   `json:"active_role,omitempty"`
	SavedAt    time.Time       `json:"saved_at"`
}

// Backend is one storage surface holding at most one session record.
type Backend interface {
	Save(ctx context.Context, rec Record) error
	Load(ctx context.Context) (Record, error)
	Clear(ctx context.Context) error
}

// ErrNotFound is returned when a backend holds no session record.
type notFoundError struct{}

func (notFoundError) Error() string { return "session record not found" }

var ErrNotFound error = notFoundError{}
