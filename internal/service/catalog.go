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

// CatalogOptions groups dependencies for Catalog.
type CatalogOptions struct {
	Gateway ports.Gateway
	Logger  *slog.Logger
}

// Catalog reads the firm-scoped catalog of custom roles. The workflow consumes
// it to resolve "custom_role_<id>" tokens to requestable roles.
type Catalog struct {
	gw     ports.Gateway
	logger *slog.Logger
}

// NewCatalog constructs a Catalog.
func NewCatalog(opts CatalogOptions) (*Catalog, error) {
	if opts.Gateway == nil {
		return nil, errors.New("Gateway is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Catalog{
		gw:     opts.Gateway,
		logger: logger.With("component", "custom_role_catalog"),
	}, nil
}

// List fetches the firm's custom roles, inactive ones included.
func (c *Catalog) List(ctx context.Context) ([]identity.CustomRole, error) {
	resp, err := c.gw.Do(ctx, ports.Request{Method: http.MethodGet, Path: "custom-roles"})
	if err != nil {
		return nil, err
	}

	var env customRolesEnvelope
	if err := resp.Decode(&env); err != nil {
		return nil, apperrors.Parse("decode custom roles response", err)
	}
	return env.Data.CustomRoles, nil
}

// ListActive fetches only the custom roles currently offered for request.
func (c *Catalog) ListActive(ctx context.Context) ([]identity.CustomRole, error) {
	roles, err := c.List(ctx)
	if err != nil {
		return nil, err
	}

	active := roles[:0]
	for _, role := range roles {
		if role.Active {
			active = append(active, role)
		}
	}
	return active, nil
}

// Get resolves one custom role by id.
func (c *Catalog) Get(ctx context.Context, id int64) (identity.CustomRole, error) {
	roles, err := c.List(ctx)
	if err != nil {
		return identity.CustomRole{}, err
	}
	for _, role := range roles {
		if role.ID == id {
			return role, nil
		}
	}
	return identity.CustomRole{}, apperrors.NotFound("custom role not found")
}
