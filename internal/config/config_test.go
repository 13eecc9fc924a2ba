package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveDefaults(t *testing.T) {
	cfg := NewForTesting()
	require.NoError(t, cfg.ResolveDefaults())

	cfg = NewForTesting()
	cfg.DBDriver = "postgres"
	require.Error(t, cfg.ResolveDefaults(), "postgres without DSN must fail")

	cfg = NewForTesting()
	cfg.DBDriver = "postgres"
	cfg.PostgresDSN = "postgres://localhost:5432/vaults"
	require.NoError(t, cfg.ResolveDefaults())

	cfg = NewForTesting()
	cfg.DBDriver = "oracle"
	require.Error(t, cfg.ResolveDefaults())

	cfg = NewForTesting()
	cfg.VectorStore = "pinecone"
	require.Error(t, cfg.ResolveDefaults())

	cfg = NewForTesting()
	cfg.MaxVaultSize = 0
	require.Error(t, cfg.ResolveDefaults())
}

func TestNewReadsEnvPrefix(t *testing.T) {
	t.Setenv("VAULT_SERVICE_HTTP_PORT", "9191")
	t.Setenv("VAULT_SERVICE_MAX_VAULT_SIZE", "1024")
	cfg, err := New()
	require.NoError(t, err)
	require.Equal(t, 9191, cfg.HTTPPort)
	require.Equal(t, int64(1024), cfg.MaxVaultSize)
	require.Equal(t, ":9191", cfg.GetHTTPAddr())
}

func TestMaxAttemptsFloor(t *testing.T) {
	cfg := NewForTesting()
	cfg.MaxAttempts = 0
	require.NoError(t, cfg.ResolveDefaults())
	require.Equal(t, 3, cfg.MaxAttempts)
}
