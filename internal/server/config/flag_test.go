package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		start       *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{"cmd",
			"-a", "127.0.0.1:9090", "-d", "db", "-s", "secret",
			"-t", "1", "-r", "3", "-q", "12.5", "-b", "20", "-l", "debug",
		}, start: &Config{},
			expected: &Config{
				EndpointAddrGRPC:             "127.0.0.1:9090",
				DatabaseDSN:                  "db",
				SecretKey:                    "secret",
				AccessTokenValidityDuration:  1 * time.Minute,
				RefreshTokenValidityDuration: 3 * time.Minute,
				RateLimit:                    12.5,
				RateBurst:                    20,
				LogLevel:                     "debug",
			}},
		{name: "unrelated flags ignored, sub-minute lifetimes kept",
			args:  []string{"cmd", "-c", "cfg.json", "-e", ".env.test", "-a", ":1"},
			start: &Config{AccessTokenValidityDuration: 90 * time.Second, RefreshTokenValidityDuration: time.Hour},
			expected: &Config{
				EndpointAddrGRPC:             ":1",
				AccessTokenValidityDuration:  90 * time.Second,
				RefreshTokenValidityDuration: time.Hour,
			}},
		{name: "bad int", args: []string{"cmd", "-t", "soon"}, start: &Config{}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			config := tt.start

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
