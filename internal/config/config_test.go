package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishkumarchandala/clean-India/internal/priority"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	cfg := FromViper(v)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "*", cfg.CORSOrigins)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.IsProduction())
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("GO_ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://civic@localhost/issues")
	t.Setenv("SHUTDOWN_TIMEOUT", "12s")

	v := viper.New()
	SetDefaults(v)
	cfg := FromViper(v)

	assert.Equal(t, "9090", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "postgres://civic@localhost/issues", cfg.DatabaseURL)
	assert.Equal(t, 12*time.Second, cfg.ShutdownTimeout)
}

func TestPolicy(t *testing.T) {
	cfg := &Config{}
	p, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, priority.DefaultPolicy(), p)

	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("levels: {high: 80, medium: 50}\n"), 0o600))
	cfg.PolicyFile = path
	p, err = cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, 80.0, p.Levels.High)

	cfg.PolicyFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = cfg.Policy()
	assert.Error(t, err)
}
