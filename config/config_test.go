package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "order_events", cfg.Kafka.Topic)
	assert.Equal(t, 30*24*time.Hour, cfg.Auth.TokenTTL)
	assert.False(t, cfg.Orders.StrictTransitions)
	assert.False(t, cfg.Orders.TrustClientTotal)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
database:
  driver: postgres
  name: shopdb
orders:
  strict_transitions: true
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv("MARKETPLACE_DATABASE_HOST", "db.internal")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.True(t, cfg.Orders.StrictTransitions)
	assert.Equal(t,
		"host=db.internal port=5432 user=postgres password=postgres dbname=shopdb sslmode=disable",
		cfg.Database.DSN())
}

func TestLoadConfig_RejectsUnknownDriver(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MARKETPLACE_DATABASE_DRIVER", "mongo")

	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
