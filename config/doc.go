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

// Package config provides configuration management for the redlite engine.
//
// Precedence, lowest to highest: default values, configuration file (YAML or
// JSON), environment variables (prefixed REDLITE_), CLI flags (applied by
// cmd/redlite after loading).
//
// # Usage
//
//	cfg, err := config.LoadFromFile("redlite.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Validation
//
// All configuration is validated before use; see Config.Validate.
package config
