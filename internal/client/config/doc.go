// Package config loads runtime configuration for the GophAgenda CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON or YAML file (see parseFile) selected via -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string    base URL of the relay
//	-t duration  request timeout
//	-cache dir   local cache directory, relative to the working directory
//	-insecure    skip TLS verification (development only)
//	-l string    log level
//
// # File schema
//
// Durations use timex.Duration, so values can be strings like "10s" or
// integer nanoseconds:
//
//	{
//	  "server_url": "https://127.0.0.1:8443",
//	  "request_timeout": "10s",
//	  "cache_dir": ".gophagenda",
//	  "token_validity": "15m"
//	}
package config
