package postgres

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPoolConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := &PoolConfig{ConnString: "postgres://localhost/test"}
		cfg.ApplyDefaults()

		require.Equal(t, int32(20), cfg.MaxConns)
		require.Equal(t, int32(5), cfg.MinConns)
		require.Equal(t, int32(30), cfg.StartupRetryTimeout)
		require.NoError(t, cfg.Validate())
	})

	t.Run("connection string required", func(t *testing.T) {
		cfg := &PoolConfig{}
		require.Error(t, cfg.Validate())
	})
}
