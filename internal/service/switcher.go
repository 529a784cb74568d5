package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prepflow/prepflow-go/internal/apperrors"
	"github.com/prepflow/prepflow-go/internal/domain/identity"
	"github.com/prepflow/prepflow-go/internal/ports"
)

// SwitcherOptions groups dependencies for Switcher.
type SwitcherOptions struct {
	Gateway  ports.Gateway
	Store    ports.TokenStore
	Registry *Registry
	Notifier ports.IdentityNotifier
	Logger   *slog.Logger
}

// Switcher exchanges the active role for a freshly scoped token pair and
// propagates the identity change. Ordering guarantee: token write happens
// before the snapshot update, which happens before the identity-changed
// broadcast, so no consumer can observe a stale identity with new tokens.
type Switcher struct {
	gw       ports.Gateway
	store    ports.TokenStore
	registry *Registry
	notifier ports.IdentityNotifier
	logger   *slog.Logger
}

// NewSwitcher constructs a Switcher.
func NewSwitcher(opts SwitcherOptions) (*Switcher, error) {
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

	return &Switcher{
		gw:       opts.Gateway,
		store:    opts.Store,
		registry: opts.Registry,
		notifier: opts.Notifier,
		logger:   logger.With("component", "role_switcher"),
	}, nil
}

// Switch moves the session to target. Preconditions are checked against the
// cached snapshot without any network call: the target must be held, and
// switching to the already-active role is a guarded no-op. A server rejection
// leaves the prior token pair and active role untouched.
func (s *Switcher) Switch(ctx context.Context, target identity.Role) (identity.Snapshot, error) {
	snap, ok := s.registry.Snapshot()
	if !ok {
		var err error
		if snap, err = s.registry.Load(ctx); err != nil {
			return identity.Snapshot{}, err
		}
	}

	if !snap.CanManageRoles() {
		return identity.Snapshot{}, apperrors.Validation("role switching is not available for this session")
	}
	if !snap.HasRole(target) {
		return identity.Snapshot{}, apperrors.Validationf("role %q is not held", target)
	}
	if target == snap.ActiveRole {
		return snap, nil
	}

	resp, err := s.gw.Do(ctx, ports.Request{
		Method: http.MethodPost,
		Path:   "switch-role",
		Body:   map[string]identity.Role{"role": target},
	})
	if err != nil {
		return identity.Snapshot{}, err
	}

	var env switchEnvelope
	if err := resp.Decode(&env); err != nil {
		return identity.Snapshot{}, apperrors.Parse("decode switch-role response", err)
	}
	if env.AccessToken == "" || env.RefreshToken == "" {
		return identity.Snapshot{}, apperrors.Parse("switch-role response missing token pair", nil)
	}

	active := env.Data.ActiveRole
	if active == "" {
		active = target
	}

	// Renew keeps the persistence mode established at login.
	if err := s.store.Renew(ctx, env.AccessToken, env.RefreshToken); err != nil {
		return identity.Snapshot{}, fmt.Errorf("persist switched tokens: %w", err)
	}

	s.registry.setActiveRole(active)
	if err := s.store.SetIdentity(ctx, env.User, active); err != nil {
		s.logger.WarnContext(ctx, "cache switched identity", "error", err)
	}

	if s.notifier != nil {
		s.notifier.Broadcast(ports.IdentityEvent{
			Kind:       ports.EventIdentityChanged,
			ActiveRole: active,
		})
	}
	s.logger.InfoContext(ctx, "switched active role", "role", active)

	snap, _ = s.registry.Snapshot()
	return snap, nil
}
