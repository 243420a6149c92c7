// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package config

import (
	"time"
)

// Config represents the complete configuration for the redlite engine.
type Config struct {
	Storage StorageConfig
	Server  ServerConfig
	History HistoryConfig
	Search  SearchConfig
	Logging LoggingConfig
	Metrics MetricsConfig
}

// StorageConfig controls StorageBackend (spec.md §4.1).
type StorageConfig struct {
	// Backend selects the relational engine: "sqlite" or "postgres".
	Backend string `json:"backend" yaml:"backend"`

	// Path is the storage file (or DSN for postgres). ":memory:" is
	// permitted for the sqlite backend.
	Path string `json:"path" yaml:"path"`

	// CacheMB is the page-cache tuning knob.
	CacheMB int `json:"cache_mb" yaml:"cache_mb"`

	// BusyTimeout bounds how long a writer waits on lock contention before
	// failing with BUSY.
	BusyTimeout time.Duration `json:"busy_timeout" yaml:"busy_timeout"`

	// AutovacuumInterval is the background sweep interval; 0 disables the
	// background task (lazy expiry and explicit VACUUM still work).
	AutovacuumInterval time.Duration `json:"autovacuum_interval" yaml:"autovacuum_interval"`
}

// ServerConfig controls TCP server mode.
type ServerConfig struct {
	// Addr is the listen address, e.g. "127.0.0.1:6379".
	Addr string `json:"addr" yaml:"addr"`

	// Password enables AUTH when non-empty.
	Password string `json:"password" yaml:"password"`

	// AdminAddr is the admin HTTP surface (/metrics, /health/live,
	// /health/ready, /health/startup); empty disables it.
	AdminAddr string `json:"admin_addr" yaml:"admin_addr"`

	// RateLimit is a commands/sec figure that is loaded and validated as
	// non-negative; no component reads it, so connections are not
	// rate-limited whatever its value.
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit"`
}

// HistoryConfig controls the default HistorySubsystem retention policy
// (per-key and per-db overrides are set at runtime via HISTORY commands).
type HistoryConfig struct {
	Enabled  bool          `json:"enabled" yaml:"enabled"`
	Policy   string        `json:"policy" yaml:"policy"` // "unlimited" | "by-age" | "by-count"
	MaxAge   time.Duration `json:"max_age" yaml:"max_age"`
	MaxCount int           `json:"max_count" yaml:"max_count"`
}

// SearchConfig controls SearchIndexRegistry defaults.
type SearchConfig struct {
	DefaultTokenizer string `json:"default_tokenizer" yaml:"default_tokenizer"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "console" selects the zap console logger; "json" and "text" both select the JSON StructuredLogger
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// DefaultConfig returns a configuration with default values matching
// spec.md §6's CLI defaults.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend:            "sqlite",
			Path:               "redlite.db",
			CacheMB:            64,
			BusyTimeout:        5 * time.Second,
			AutovacuumInterval: 0,
		},
		Server: ServerConfig{
			Addr:      "127.0.0.1:6379",
			AdminAddr: "",
			RateLimit: 0,
		},
		History: HistoryConfig{
			Enabled: false,
			Policy:  "unlimited",
		},
		Search: SearchConfig{
			DefaultTokenizer: "standard",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Path:    "/metrics",
		},
	}
}

// NewConfig creates a new default configuration. Alias for DefaultConfig.
func NewConfig() *Config {
	return DefaultConfig()
}
