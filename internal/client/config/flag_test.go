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
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{"cmd", "-a", "127.0.0.1:9090", "-d", "/tmp/l.db", "-i", "10", "-s", "60", "-t", "5", "-p", "server-wins", "-l", "debug"},
			expected: &Config{
				ServerEndpointAddr:  "127.0.0.1:9090",
				DatabasePath:        "/tmp/l.db",
				OnlineCheckInterval: 10 * time.Second,
				SyncInterval:        time.Minute,
				RequestTimeout:      5 * time.Second,
				ConflictPolicy:      "server-wins",
				LogLevel:            "debug",
			}},
		{name: "unrelated flags ignored", args: []string{"cmd", "-c", "x.json", "-i", "7"},
			expected: &Config{OnlineCheckInterval: 7 * time.Second}},
		{name: "incorrect check interval", args: []string{"cmd", "-a", "127.0.0.1:9090", "-i", "abc"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config) })
				return
			}
			require.NotPanics(t, func() { parseFlags(config) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
