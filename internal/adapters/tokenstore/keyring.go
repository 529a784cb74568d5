package tokenstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prepflow/prepflow-go/internal/domain/identity"
)

// ErrNoSession indicates a renewal or identity write was attempted before any
// login established a session record.
var ErrNoSession = errors.New("no session record established")

// Keyring binds the durable and session-scoped backends into the single
// ports.TokenStore the rest of the core consumes. The persistence mode chosen
// by SetTokens is sticky: Renew and SetIdentity keep writing to the same
// backend until Clear or a new SetTokens.
type Keyring struct {
	durable Backend
	session Backend

	mu sync.Mutex
	// mode is the active backend once known; nil until a record is seen.
	mode *bool
	now  func() time.Time
}

// NewKeyring creates a keyring over the two backends.
func NewKeyring(durable, session Backend) *Keyring {
	return &Keyring{
		durable: durable,
		session: session,
		now:     time.Now,
	}
}

func (k *Keyring) backendFor(persistent bool) Backend {
	if persistent {
		return k.durable
	}
	return k.session
}

// load returns the current record, probing the durable backend first when the
// active mode is not yet known, and caches the mode of whichever record it finds.
func (k *Keyring) load(ctx context.Context) (Record, error) {
	k.mu.Lock()
	mode := k.mode
	k.mu.Unlock()

	if mode != nil {
		return k.backendFor(*mode).Load(ctx)
	}

	for _, persistent := range []bool{true, false} {
		rec, err := k.backendFor(persistent).Load(ctx)
		if err == nil {
			k.rememberMode(rec.Persistent)
			return rec, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Record{}, err
		}
	}
	return Record{}, ErrNotFound
}

func (k *Keyring) rememberMode(persistent bool) {
	k.mu.Lock()
	k.mode = &persistent
	k.mu.Unlock()
}

func (k *Keyring) forgetMode() {
	k.mu.Lock()
	k.mode = nil
	k.mu.Unlock()
}

// SetTokens stores a fresh token pair under the chosen persistence mode and
// wipes the other backend so no stale record can shadow the new session.
func (k *Keyring) SetTokens(ctx context.Context, access, refresh string, persistent bool) error {
	rec := Record{
		Access:     access,
		Refresh:    refresh,
		Persistent: persistent,
		SavedAt:    k.now(),
	}
	if err := k.backendFor(persistent).Save(ctx, rec); err != nil {
		return fmt.Errorf("save session record: %w", err)
	}
	if err := k.backendFor(!persistent).Clear(ctx); err != nil {
		return fmt.Errorf("clear inactive backend: %w", err)
	}
	k.rememberMode(persistent)
	return nil
}

// Renew swaps the token pair, preserving the persistence mode and the cached
// identity of the existing record.
func (k *Keyring) Renew(ctx context.Context, access, refresh string) error {
	rec, err := k.load(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNoSession
		}
		return err
	}

	rec.Access = access
	rec.Refresh = refresh
	rec.SavedAt = k.now()
	return k.backendFor(rec.Persistent).Save(ctx, rec)
}

// AccessToken returns the stored access token, or "" when no session exists.
func (k *Keyring) AccessToken(ctx context.Context) (string, error) {
	rec, err := k.load(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return rec.Access, nil
}

// RefreshToken returns the stored refresh token, or "" when no session exists.
func (k *Keyring) RefreshToken(ctx context.Context) (string, error) {
	rec, err := k.load(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return rec.Refresh, nil
}

// SetIdentity caches the serialized user record and active-role tag alongside
// the tokens.
func (k *Keyring) SetIdentity(ctx context.Context, user json.RawMessage, active identity.Role) error {
	rec, err := k.load(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNoSession
		}
		return err
	}

	rec.User = user
	rec.ActiveRole = active
	rec.SavedAt = k.now()
	return k.backendFor(rec.Persistent).Save(ctx, rec)
}

// Identity returns the cached user record and active-role tag. Both are zero
// when no session exists.
func (k *Keyring) Identity(ctx context.Context) (json.RawMessage, identity.Role, error) {
	rec, err := k.load(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, "", nil
		}
		return nil, "", err
	}
	return rec.User, rec.ActiveRole, nil
}

// Clear wipes both backends unconditionally.
func (k *Keyring) Clear(ctx context.Context) error {
	durableErr := k.durable.Clear(ctx)
	sessionErr := k.session.Clear(ctx)
	k.forgetMode()
	return errors.Join(durableErr, sessionErr)
}
