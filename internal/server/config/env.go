package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/dmitrijs2005/losskeeper/internal/flagx"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// envPrefix namespaces every variable, e.g. LOSSKEEPER_DATABASE_DSN.
const envPrefix = "LOSSKEEPER"

// EnvConfig mirrors Config for envconfig. Unset variables stay zero and do
// not override earlier layers.
type EnvConfig struct {
	EndpointAddrGRPC             string        `envconfig:"ENDPOINT_ADDR_GRPC"`
	DatabaseDSN                  string        `envconfig:"DATABASE_DSN"`
	SecretKey                    string        `envconfig:"SECRET_KEY"`
	AccessTokenValidityDuration  time.Duration `envconfig:"ACCESS_TOKEN_VALIDITY_DURATION"`
	RefreshTokenValidityDuration time.Duration `envconfig:"REFRESH_TOKEN_VALIDITY_DURATION"`
	RateLimit                    float64       `envconfig:"RATE_LIMIT"`
	RateBurst                    int           `envconfig:"RATE_BURST"`
	LogLevel                     string        `envconfig:"LOG_LEVEL"`
}

// parseEnv loads the dotenv file named by -e/-env-file (or ./.env when the
// flag is absent) and overlays LOSSKEEPER_* variables onto config.
// An explicitly named file that cannot be loaded panics; a missing default
// .env is ignored. Malformed variable values panic.
func parseEnv(config *Config) {
	if file := flagx.EnvFileFlag(); file != "" {
		if err := godotenv.Load(file); err != nil {
			panic(err)
		}
	} else if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	var c EnvConfig
	if err := envconfig.Process(envPrefix, &c); err != nil {
		panic(err)
	}

	overlay(config, c.EndpointAddrGRPC, c.DatabaseDSN, c.SecretKey,
		c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration,
		c.RateLimit, c.RateBurst, c.LogLevel)
}

// overlay copies the non-zero values onto config.
func overlay(config *Config, addr, dsn, secret string, access, refresh time.Duration, rateLimit float64, burst int, level string) {
	if addr != "" {
		config.EndpointAddrGRPC = addr
	}
	if dsn != "" {
		config.DatabaseDSN = dsn
	}
	if secret != "" {
		config.SecretKey = secret
	}
	if access > 0 {
		config.AccessTokenValidityDuration = access
	}
	if refresh > 0 {
		config.RefreshTokenValidityDuration = refresh
	}
	if rateLimit > 0 {
		config.RateLimit = rateLimit
	}
	if burst > 0 {
		config.RateBurst = burst
	}
	if level != "" {
		config.LogLevel = level
	}
}
