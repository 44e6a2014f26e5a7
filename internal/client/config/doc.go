// Package config loads runtime configuration for the losskeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "database_path": "losskeeper.db",
//	  "online_check_interval": "3s",
//	  "sync_interval": "30s",
//	  "request_timeout": "10s",
//	  "conflict_policy": "local-wins",
//	  "log_level": "warn"
//	}
package config
