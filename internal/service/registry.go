package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prepflow/prepflow-go/internal/apperrors"
	"github.com/prepflow/prepflow-go/internal/domain/identity"
	"github.com/prepflow/prepflow-go/internal/ports"
)

// RegistryOptions groups dependencies for Registry.
type RegistryOptions struct {
	Gateway  ports.Gateway
	Store    ports.TokenStore
	Notifier ports.IdentityNotifier
	Logger   *slog.Logger
}

// Registry maintains the in-memory model of the principal's identity graph.
// Load assembles a fresh snapshot from the server; consumers read the cached
// snapshot without touching the network.
type Registry struct {
	gw       ports.Gateway
	store    ports.TokenStore
	notifier ports.IdentityNotifier
	logger   *slog.Logger

	mu      sync.RWMutex
	current *identity.Snapshot
}

// NewRegistry constructs a Registry.
func NewRegistry(opts RegistryOptions) (*Registry, error) {
	if opts.Gateway == nil {
		return nil, errors.New("Gateway is required")
	}
	if opts.Store == nil {
		return nil, errors.New("Store is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		gw:       opts.Gateway,
		store:    opts.Store,
		notifier: opts.Notifier,
		logger:   logger.With("component", "role_registry"),
	}, nil
}

// Load fetches the identity graph and replaces the cached snapshot. When the
// server leaves the active role unset, the primary identity's role applies.
func (r *Registry) Load(ctx context.Context) (identity.Snapshot, error) {
	resp, err := r.gw.Do(ctx, ports.Request{Method: http.MethodGet, Path: "roles"})
	if err != nil {
		return identity.Snapshot{}, err
	}

	var env rolesEnvelope
	if err := resp.Decode(&env); err != nil {
		return identity.Snapshot{}, apperrors.Parse("decode roles response", err)
	}

	snap := identity.Snapshot{
		Primary:    env.Data.PrimaryUser.toIdentity(true),
		ActiveRole: env.Data.ActiveRole,
		AllRoles:   env.Data.AllRoles,
	}
	for _, u := range env.Data.LinkedUsers {
		snap.Linked = append(snap.Linked, u.toIdentity(false))
	}
	if snap.ActiveRole == "" {
		snap.ActiveRole = snap.Primary.Role
	}
	if len(snap.AllRoles) == 0 {
		snap.AllRoles = []identity.Role{snap.Primary.Role}
	}

	if err := snap.Validate(); err != nil {
		return identity.Snapshot{}, apperrors.Parse(
			fmt.Sprintf("roles response violates identity invariants: %v", err), err)
	}

	r.setSnapshot(snap)
	r.cacheIdentity(ctx, env.Data.PrimaryUser, snap.ActiveRole)
	return snap, nil
}

// Snapshot returns the cached snapshot; ok is false before the first Load.
func (r *Registry) Snapshot() (identity.Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return identity.Snapshot{}, false
	}
	return *r.current, true
}

// AvailableRolesToAdd derives the addable roles from the cached snapshot.
func (r *Registry) AvailableRolesToAdd() []identity.Role {
	snap, ok := r.Snapshot()
	if !ok {
		return nil
	}
	return snap.AvailableRolesToAdd()
}

// AvailableRoles fetches the server-annotated candidate list (firm-name and
// approval requirements, pending markers).
func (r *Registry) AvailableRoles(ctx context.Context) ([]CandidateRole, error) {
	resp, err := r.gw.Do(ctx, ports.Request{Method: http.MethodGet, Path: "available-roles"})
	if err != nil {
		return nil, err
	}

	var env availableRolesEnvelope
	if err := resp.Decode(&env); err != nil {
		return nil, apperrors.Parse("decode available-roles response", err)
	}
	return env.Data.AvailableRoles, nil
}

// RemoveRole drops a linked role from the principal and reloads the snapshot.
// The primary identity's role and the currently active role cannot be removed,
// and super_admin sessions are offered no role management at all.
func (r *Registry) RemoveRole(ctx context.Context, role identity.Role) (identity.Snapshot, error) {
	snap, ok := r.Snapshot()
	if !ok {
		var err error
		if snap, err = r.Load(ctx); err != nil {
			return identity.Snapshot{}, err
		}
	}

	switch {
	case !snap.CanManageRoles():
		return identity.Snapshot{}, apperrors.Validation("role management is not available for this session")
	case !snap.HasRole(role):
		return identity.Snapshot{}, apperrors.Validationf("role %q is not held", role)
	case role == snap.Primary.Role:
		return identity.Snapshot{}, apperrors.Validation("the primary role cannot be removed")
	case role == snap.ActiveRole:
		return identity.Snapshot{}, apperrors.Validation("the active role cannot be removed; switch first")
	}

	_, err := r.gw.Do(ctx, ports.Request{
		Method: http.MethodDelete,
		Path:   "roles/remove",
		Body:   map[string]identity.Role{"role": role},
	})
	if err != nil {
		return identity.Snapshot{}, err
	}

	updated, err := r.Load(ctx)
	if err != nil {
		return identity.Snapshot{}, err
	}
	if r.notifier != nil {
		r.notifier.Broadcast(ports.IdentityEvent{
			Kind:       ports.EventIdentityChanged,
			ActiveRole: updated.ActiveRole,
		})
	}
	return updated, nil
}

// setSnapshot atomically replaces the cached snapshot.
func (r *Registry) setSnapshot(snap identity.Snapshot) {
	r.mu.Lock()
	r.current = &snap
	r.mu.Unlock()
}

// setActiveRole updates the cached snapshot after a switch.
func (r *Registry) setActiveRole(role identity.Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return
	}
	snap := *r.current
	snap.ActiveRole = role
	r.current = &snap
}

func (r *Registry) cacheIdentity(ctx context.Context, user userWire, active identity.Role) {
	data, err := json.Marshal(user)
	if err != nil {
		return
	}
	if err := r.store.SetIdentity(ctx, data, active); err != nil {
		r.logger.WarnContext(ctx, "cache identity snapshot", "error", err)
	}
}
