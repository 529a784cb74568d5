// Package ports defines interfaces (hexagonal ports) for the session core.
// Implementations live in internal/adapters and internal/gateway; orchestration
// in internal/service.
package ports

import (
	"context"
	"encoding/json"

	"github.com/prepflow/prepflow-go/internal/domain/identity"
)

// TokenStore persists the access/refresh token pair and the cached identity
// record. Two logically identical backends exist (durable vs session-scoped);
// the persistence flag chosen at login time selects one and stays sticky for
// every renewal until the next explicit login.
type TokenStore interface {
	// SetTokens stores a new token pair and establishes the persistence mode.
	SetTokens(ctx context.Context, access, refresh string, persistent bool) error

	// Renew replaces the token pair under the previously established
	// persistence mode. It fails if no mode has been established.
	Renew(ctx context.Context, access, refresh string) error

	// AccessToken returns the stored access token, or "" when absent.
	AccessToken(ctx context.Context) (string, error)

	// RefreshToken returns the stored refresh token, or "" when absent.
	RefreshToken(ctx context.Context) (string, error)

	// SetIdentity caches the serialized user record and active-role tag
	// alongside the tokens.
	SetIdentity(ctx context.Context, user json.RawMessage, active identity.Role) error

	// Identity returns the cached user record and active-role tag.
	Identity(ctx context.Context) (json.RawMessage, identity.Role, error)

	// Clear wipes both backends unconditionally. A residual record in the
	// unused backend is a session leak.
	Clear(ctx context.Context) error
}

// Request describes one platform API call.
type Request struct {
	Method string
	// Path is relative to the configured API base URL, e.g. "roles".
	Path string
	// Body, when non-nil, is JSON-encoded as the request body.
	Body any
	// NoAuth skips the bearer header (login and refresh style calls).
	NoAuth bool
}

// Response is a decoded-enough server response: status plus raw JSON body.
type Response struct {
	Status int
	Body   []byte
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Gateway is the single choke-point for platform API calls. It owns bearer
// attachment and the 401-refresh-retry state machine; callers receive typed
// *apperrors.AppError failures.
type Gateway interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// EventKind tags identity lifecycle notifications.
type EventKind string

const (
	// EventIdentityChanged fires after a role switch or request approval has
	// been fully persisted; consumers must re-read session state.
	EventIdentityChanged EventKind = "identity_changed"
	// EventLoggedOut fires after session state has been wiped.
	EventLoggedOut EventKind = "logged_out"
)

// IdentityEvent is broadcast to all session-dependent consumers.
type IdentityEvent struct {
	Kind       EventKind
	ActiveRole identity.Role
}

// IdentityNotifier broadcasts identity lifecycle events so session-dependent
// consumers can re-read state instead of polling.
type IdentityNotifier interface {
	Broadcast(ev IdentityEvent)
}
