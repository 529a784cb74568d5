package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/prepflow/prepflow-go/config"
	"github.com/prepflow/prepflow-go/internal/adapters/broadcast"
	"github.com/prepflow/prepflow-go/internal/adapters/tokenstore"
	"github.com/prepflow/prepflow-go/internal/gateway"
	"github.com/prepflow/prepflow-go/internal/service"
)

// Session is the explicit session context injected into every consumer.
// There is no module-level state: consumers hold this object and subscribe
// to Bus for identity-changed notifications.
type Session struct {
	Store    *tokenstore.Keyring
	Gateway  *gateway.Client
	Bus      *broadcast.Bus
	Auth     *service.Authenticator
	Registry *service.Registry
	Switcher *service.Switcher
	Requests *service.Workflow
	Catalog  *service.Catalog
}

// SessionDeps groups inputs for NewSession.
type SessionDeps struct {
	Config     *config.AppConfig
	Logger     *slog.Logger
	HTTPClient *http.Client
}

// NewSession wires the token keyring, gateway, and role services.
func NewSession(deps SessionDeps) (*Session, error) {
	if deps.Config == nil {
		return nil, errors.New("config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	durable, err := durableBackend(deps.Config)
	if err != nil {
		return nil, err
	}
	keyring := tokenstore.NewKeyring(durable, tokenstore.NewMemoryStore())
	bus := broadcast.NewBus()

	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: deps.Config.API.Timeout}
	}

	gw, err := gateway.New(gateway.Options{
		BaseURL:     deps.Config.API.BaseURL,
		RefreshPath: deps.Config.API.RefreshPath,
		HTTPClient:  httpClient,
		Store:       keyring,
		Notifier:    bus,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build gateway: %w", err)
	}

	registry, err := service.NewRegistry(service.RegistryOptions{
		Gateway:  gw,
		Store:    keyring,
		Notifier: bus,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	auth, err := service.NewAuthenticator(service.AuthenticatorOptions{
		Gateway:  gw,
		Store:    keyring,
		Registry: registry,
		Notifier: bus,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	switcher, err := service.NewSwitcher(service.SwitcherOptions{
		Gateway:  gw,
		Store:    keyring,
		Registry: registry,
		Notifier: bus,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	requests, err := service.NewWorkflow(service.WorkflowOptions{
		Gateway:  gw,
		Registry: registry,
		Notifier: bus,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	catalog, err := service.NewCatalog(service.CatalogOptions{
		Gateway: gw,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	return &Session{
		Store:    keyring,
		Gateway:  gw,
		Bus:      bus,
		Auth:     auth,
		Registry: registry,
		Switcher: switcher,
		Requests: requests,
		Catalog:  catalog,
	}, nil
}

// durableBackend selects the "remembered session" store by configured mode.
func durableBackend(cfg *config.AppConfig) (tokenstore.Backend, error) {
	switch cfg.Storage.Mode {
	case config.StorageModeFile:
		return tokenstore.NewFileStore(cfg.Storage.FilePath), nil
	case config.StorageModeRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return tokenstore.NewRedisStore(tokenstore.RedisStoreOptions{
			Client: client,
			Key:    cfg.Storage.RedisKey,
		})
	case config.StorageModeMemory:
		return tokenstore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported storage mode %q", cfg.Storage.Mode)
	}
}
