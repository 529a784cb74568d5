package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prepflow/prepflow-go/internal/apperrors"
	"github.com/prepflow/prepflow-go/internal/domain/identity"
	"github.com/prepflow/prepflow-go/internal/ports"
)

// AuthenticatorOptions groups dependencies for Authenticator.
type AuthenticatorOptions struct {
	Gateway  ports.Gateway
	Store    ports.TokenStore
	Registry *Registry
	Notifier ports.IdentityNotifier
	Logger   *slog.Logger
}

// Authenticator establishes and tears down sessions. Login is the one moment
// the persistence mode is chosen; every later renewal and switch reuses it.
type Authenticator struct {
	gw       ports.Gateway
	store    ports.TokenStore
	registry *Registry
	notifier ports.IdentityNotifier
	logger   *slog.Logger
}

// NewAuthenticator constructs an Authenticator.
func NewAuthenticator(opts AuthenticatorOptions) (*Authenticator, error) {
	if opts.Gateway == nil {
		return nil, errors.New("Gateway is required")
	}
	if opts.Store == nil {
		return nil, errors.New("Store is required")
	}
	if opts.Registry == nil {
		return nil, errors.New("Registry is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Authenticator{
		gw:       opts.Gateway,
		store:    opts.Store,
		registry: opts.Registry,
		notifier: opts.Notifier,
		logger:   logger.With("component", "authenticator"),
	}, nil
}

// LoginInput carries the credentials and the persistence choice.
type LoginInput struct {
	Email    string
	Password string
	// Remember selects the durable token backend; otherwise the session
	// record dies with the process.
	Remember bool
}

// Login authenticates, stores the token pair under the chosen persistence
// mode, and loads the initial identity snapshot.
func (a *Authenticator) Login(ctx context.Context, in LoginInput) (identity.Snapshot, error) {
	if in.Email == "" || in.Password == "" {
		return identity.Snapshot{}, apperrors.ValidationFields("credentials are required", map[string][]string{
			"email":    {"required"},
			"password": {"required"},
		})
	}

	resp, err := a.gw.Do(ctx, ports.Request{
		Method: http.MethodPost,
		Path:   "auth/login",
		Body:   map[string]string{"email": in.Email, "password": in.Password},
		NoAuth: true,
	})
	if err != nil {
		return identity.Snapshot{}, err
	}

	var env loginEnvelope
	if err := resp.Decode(&env); err != nil {
		return identity.Snapshot{}, apperrors.Parse("decode login response", err)
	}
	if env.AccessToken == "" || env.RefreshToken == "" {
		return identity.Snapshot{}, apperrors.Parse("login response missing token pair", nil)
	}

	if err := a.store.SetTokens(ctx, env.AccessToken, env.RefreshToken, in.Remember); err != nil {
		return identity.Snapshot{}, err
	}

	snap, err := a.registry.Load(ctx)
	if err != nil {
		return identity.Snapshot{}, err
	}

	if a.notifier != nil {
		a.notifier.Broadcast(ports.IdentityEvent{
			Kind:       ports.EventIdentityChanged,
			ActiveRole: snap.ActiveRole,
		})
	}
	a.logger.InfoContext(ctx, "logged in", "active_role", snap.ActiveRole, "persistent", in.Remember)
	return snap, nil
}

// Logout revokes the session server-side on a best-effort basis, then wipes
// both token backends unconditionally and broadcasts the logout.
func (a *Authenticator) Logout(ctx context.Context) error {
	if _, err := a.gw.Do(ctx, ports.Request{Method: http.MethodPost, Path: "auth/logout"}); err != nil {
		a.logger.WarnContext(ctx, "server-side logout failed", "error", err)
	}

	if err := a.store.Clear(ctx); err != nil {
		return err
	}
	if a.notifier != nil {
		a.notifier.Broadcast(ports.IdentityEvent{Kind: ports.EventLoggedOut})
	}
	return nil
}
