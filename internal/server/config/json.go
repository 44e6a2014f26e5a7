package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/losskeeper/internal/flagx"
	"github.com/dmitrijs2005/losskeeper/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for lifetimes, which allows parsing both
// string values such as "15m" and integer seconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, non-zero fields are copied
// into the runtime Config.
type JsonConfig struct {
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	RateLimit                    float64        `json:"rate_limit"`
	RateBurst                    int            `json:"rate_burst"`
	LogLevel                     string         `json:"log_level"`
}

// parseJson loads configuration values from the JSON file named by the
// -c or -config flag into config. Without the flag nothing is loaded.
// If the file cannot be read or contains invalid JSON, the function panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	overlay(config, c.EndpointAddrGRPC, c.DatabaseDSN, c.SecretKey,
		c.AccessTokenValidityDuration.Duration, c.RefreshTokenValidityDuration.Duration,
		c.RateLimit, c.RateBurst, c.LogLevel)
}
