package service

// Shared fixtures for the service tests: gomock request matchers, canned
// envelope bodies, and constructors wired to in-memory adapters.

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/prepflow/prepflow-go/internal/adapters/broadcast"
	"github.com/prepflow/prepflow-go/internal/adapters/tokenstore"
	"github.com/prepflow/prepflow-go/internal/mocks"
	"github.com/prepflow/prepflow-go/internal/ports"
)

// reqMatch matches a ports.Request by method and path.
type reqMatch struct {
	method string
	path   string
}

func (m reqMatch) Matches(x any) bool {
	req, ok := x.(ports.Request)
	return ok && req.Method == m.method && req.Path == m.path
}

func (m reqMatch) String() string {
	return fmt.Sprintf("request %s %s", m.method, m.path)
}

func matchReq(method, path string) gomock.Matcher {
	return reqMatch{method: method, path: path}
}

func jsonResponse(body string) *ports.Response {
	return &ports.Response{Status: http.StatusOK, Body: []byte(body)}
}

// rolesBody is a roles envelope for a client+staff principal, active client.
const rolesBody = `{
	"success": true,
	"data": {
		"primary_user": {"id": 1, "role": "client", "display_name": "Dana Doe"},
		"linked_users": [{"id": 2, "role": "staff", "display_name": "Dana Doe"}],
		"active_role": "client",
		"all_roles": ["client", "staff"]
	}
}`

type serviceFixture struct {
	gw    *mocks.MockGateway
	store *tokenstore.Keyring
	bus   *broadcast.Bus

	registry *Registry
	switcher *Switcher
	workflow *Workflow
	auth     *Authenticator
	catalog  *Catalog
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	ctrl := gomock.NewController(t)
	gw := mocks.NewMockGateway(ctrl)
	store := tokenstore.NewKeyring(tokenstore.NewMemoryStore(), tokenstore.NewMemoryStore())
	bus := broadcast.NewBus()

	registry, err := NewRegistry(RegistryOptions{Gateway: gw, Store: store, Notifier: bus})
	require.NoError(t, err)
	switcher, err := NewSwitcher(SwitcherOptions{Gateway: gw, Store: store, Registry: registry, Notifier: bus})
	require.NoError(t, err)
	workflow, err := NewWorkflow(WorkflowOptions{Gateway: gw, Registry: registry, Notifier: bus})
	require.NoError(t, err)
	auth, err := NewAuthenticator(AuthenticatorOptions{Gateway: gw, Store: store, Registry: registry, Notifier: bus})
	require.NoError(t, err)
	catalog, err := NewCatalog(CatalogOptions{Gateway: gw})
	require.NoError(t, err)

	return &serviceFixture{
		gw:       gw,
		store:    store,
		bus:      bus,
		registry: registry,
		switcher: switcher,
		workflow: workflow,
		auth:     auth,
		catalog:  catalog,
	}
}

// login seeds the token keyring as a session-scoped login would.
func (f *serviceFixture) login(t *testing.T) {
	t.Helper()
	require.NoError(t, f.store.SetTokens(context.Background(), "acc-1", "ref-1", false))
}

// loadSnapshot primes the registry cache with rolesBody.
func (f *serviceFixture) loadSnapshot(t *testing.T) {
	t.Helper()
	f.gw.EXPECT().
		Do(gomock.Any(), matchReq(http.MethodGet, "roles")).
		Return(jsonResponse(rolesBody), nil)
	_, err := f.registry.Load(context.Background())
	require.NoError(t, err)
}
