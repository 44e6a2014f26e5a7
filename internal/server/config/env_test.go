package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetOnCleanup removes variables godotenv may have set during the test.
func unsetOnCleanup(t *testing.T, keys ...string) {
	t.Helper()
	t.Cleanup(func() {
		for _, k := range keys {
			_ = os.Unsetenv(k)
		}
	})
}

func Test_parseEnv(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("process environment", func(t *testing.T) {
		t.Chdir(t.TempDir())
		os.Args = []string{"testbin"}
		t.Setenv("LOSSKEEPER_SECRET_KEY", "from-env")
		t.Setenv("LOSSKEEPER_ACCESS_TOKEN_VALIDITY_DURATION", "90s")
		t.Setenv("LOSSKEEPER_RATE_BURST", "3")

		cfg := &Config{}
		cfg.LoadDefaults()
		parseEnv(cfg)

		assert.Equal(t, "from-env", cfg.SecretKey)
		assert.Equal(t, 90*time.Second, cfg.AccessTokenValidityDuration)
		assert.Equal(t, 3, cfg.RateBurst)
		assert.Equal(t, ":50051", cfg.EndpointAddrGRPC)
	})

	t.Run("explicit env file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "server.env")
		require.NoError(t, os.WriteFile(path, []byte("LOSSKEEPER_LOG_LEVEL=debug\nLOSSKEEPER_ENDPOINT_ADDR_GRPC=:6000\n"), 0o600))
		unsetOnCleanup(t, "LOSSKEEPER_LOG_LEVEL", "LOSSKEEPER_ENDPOINT_ADDR_GRPC")
		os.Args = []string{"testbin", "-e", path}

		cfg := &Config{}
		parseEnv(cfg)

		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, ":6000", cfg.EndpointAddrGRPC)
	})

	t.Run("default .env in working dir", func(t *testing.T) {
		dir := t.TempDir()
		t.Chdir(dir)
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LOSSKEEPER_DATABASE_DSN=postgres://dotenv\n"), 0o600))
		unsetOnCleanup(t, "LOSSKEEPER_DATABASE_DSN")
		os.Args = []string{"testbin"}

		cfg := &Config{}
		parseEnv(cfg)

		assert.Equal(t, "postgres://dotenv", cfg.DatabaseDSN)
	})

	t.Run("missing explicit file panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-env-file", filepath.Join(t.TempDir(), "absent.env")}
		require.Panics(t, func() { parseEnv(&Config{}) })
	})

	t.Run("malformed value panics", func(t *testing.T) {
		t.Chdir(t.TempDir())
		os.Args = []string{"testbin"}
		t.Setenv("LOSSKEEPER_RATE_BURST", "lots")
		require.Panics(t, func() { parseEnv(&Config{}) })
	})
}
