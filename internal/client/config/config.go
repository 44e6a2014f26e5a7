package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/losskeeper/internal/models"
)

// Config holds runtime settings for the losskeeper CLI.
//
// Units: every interval is a time.Duration (e.g., 3*time.Second).
type Config struct {
	ServerEndpointAddr  string
	DatabasePath        string
	OnlineCheckInterval time.Duration
	SyncInterval        time.Duration
	RequestTimeout      time.Duration
	ConflictPolicy      string
	LogLevel            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.DatabasePath = "losskeeper.db"
	c.OnlineCheckInterval = 3 * time.Second
	c.SyncInterval = 30 * time.Second
	c.RequestTimeout = 10 * time.Second
	c.ConflictPolicy = string(models.LocalWins)
	c.LogLevel = "warn"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

// Policy returns the parsed conflict policy.
func (c *Config) Policy() models.ConflictPolicy {
	p, _ := models.ParseConflictPolicy(c.ConflictPolicy)
	return p
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if c.ServerEndpointAddr == "" {
		return fmt.Errorf("server endpoint address is empty")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database path is empty")
	}
	for name, d := range map[string]time.Duration{
		"online check interval": c.OnlineCheckInterval,
		"sync interval":         c.SyncInterval,
		"request timeout":       c.RequestTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	if _, ok := models.ParseConflictPolicy(c.ConflictPolicy); !ok {
		return fmt.Errorf("unknown conflict policy %q (want %s or %s)", c.ConflictPolicy, models.LocalWins, models.ServerWins)
	}
	return nil
}
