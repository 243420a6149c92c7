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
	"fmt"
)

// Validate validates the entire configuration.
func (c *Config) Validate() error {
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// validateStorage validates storage configuration.
func (c *Config) validateStorage() error {
	validBackends := map[string]bool{"sqlite": true, "postgres": true}
	if !validBackends[c.Storage.Backend] {
		return fmt.Errorf("storage backend must be one of: sqlite, postgres")
	}

	if c.Storage.Path == "" {
		return fmt.Errorf("storage path must not be empty")
	}

	if c.Storage.CacheMB < 0 {
		return fmt.Errorf("storage cache_mb must not be negative")
	}

	if c.Storage.BusyTimeout <= 0 {
		return fmt.Errorf("storage busy_timeout must be positive")
	}

	if c.Storage.AutovacuumInterval != 0 && c.Storage.AutovacuumInterval < 1000*1e6 {
		return fmt.Errorf("storage autovacuum_interval must be >= 1000ms when enabled")
	}

	return nil
}

// validateServer validates server configuration.
func (c *Config) validateServer() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr must not be empty")
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server rate_limit must not be negative")
	}
	return nil
}

// validateHistory validates history configuration.
func (c *Config) validateHistory() error {
	validPolicies := map[string]bool{"unlimited": true, "by-age": true, "by-count": true}
	if !validPolicies[c.History.Policy] {
		return fmt.Errorf("history policy must be one of: unlimited, by-age, by-count")
	}
	if c.History.Policy == "by-age" && c.History.MaxAge <= 0 {
		return fmt.Errorf("history max_age must be positive when policy is by-age")
	}
	if c.History.Policy == "by-count" && c.History.MaxCount <= 0 {
		return fmt.Errorf("history max_count must be positive when policy is by-count")
	}
	return nil
}

// validateLogging validates logging configuration.
func (c *Config) validateLogging() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "console": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging format must be one of: json, console, text")
	}
	return nil
}
