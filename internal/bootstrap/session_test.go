package bootstrap

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepflow/prepflow-go/config"
)

func testConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	cfg := &config.AppConfig{}
	cfg.API.BaseURL = "http://localhost:8000/api"
	cfg.Storage.Mode = config.StorageModeMemory
	cfg.Sanitize()
	return cfg
}

func TestNewSessionRequiresConfig(t *testing.T) {
	_, err := NewSession(SessionDeps{})
	assert.Error(t, err)
}

func TestNewSessionMemoryMode(t *testing.T) {
	session, err := NewSession(SessionDeps{Config: testConfig(t)})
	require.NoError(t, err)

	assert.NotNil(t, session.Store)
	assert.NotNil(t, session.Gateway)
	assert.NotNil(t, session.Bus)
	assert.NotNil(t, session.Auth)
	assert.NotNil(t, session.Registry)
	assert.NotNil(t, session.Switcher)
	assert.NotNil(t, session.Requests)
	assert.NotNil(t, session.Catalog)
}

func TestNewSessionFileMode(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Mode = config.StorageModeFile
	cfg.Storage.FilePath = filepath.Join(t.TempDir(), "session.json")

	_, err := NewSession(SessionDeps{Config: cfg})
	require.NoError(t, err)
}

func TestNewSessionRejectsUnknownStorageMode(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Mode = config.StorageMode("carrier-pigeon")

	_, err := NewSession(SessionDeps{Config: cfg})
	assert.Error(t, err)
}
