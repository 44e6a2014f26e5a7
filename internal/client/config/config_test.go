package config

import (
	"os"
	"testing"
	"time"

	"github.com/dmitrijs2005/losskeeper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "127.0.0.1:50051", c.ServerEndpointAddr)
	assert.Equal(t, 3*time.Second, c.OnlineCheckInterval)
	assert.Equal(t, 30*time.Second, c.SyncInterval)
	assert.Equal(t, models.LocalWins, c.Policy())
	require.NoError(t, c.Validate())
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"testbin"}

	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "127.0.0.1:50051", cfg.ServerEndpointAddr)
	assert.Equal(t, 3*time.Second, cfg.OnlineCheckInterval)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty endpoint", func(c *Config) { c.ServerEndpointAddr = "" }},
		{"empty db path", func(c *Config) { c.DatabasePath = "" }},
		{"zero sync interval", func(c *Config) { c.SyncInterval = 0 }},
		{"negative timeout", func(c *Config) { c.RequestTimeout = -time.Second }},
		{"unknown policy", func(c *Config) { c.ConflictPolicy = "newest-wins" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}

	var c Config
	c.LoadDefaults()
	c.ConflictPolicy = "server-wins"
	require.NoError(t, c.Validate())
	assert.Equal(t, models.ServerWins, c.Policy())
}
