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

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/redlite-io/redlite/config"
	"github.com/redlite-io/redlite/engine/supervisor"
)

var (
	vacuumDB      string
	vacuumBackend string
)

var vacuumCmd = &cobra.Command{
	Use:   "vacuum",
	Short: "Run an explicit VACUUM against a redlite database",
	Long: `Sweeps every expired key across all logical databases and compacts free pages
(spec.md §4.4), independent of any configured background autovacuum interval.`,
	RunE: runVacuum,
}

func init() {
	vacuumCmd.Flags().StringVar(&vacuumDB, "db", "redlite.db", "storage file to vacuum")
	vacuumCmd.Flags().StringVar(&vacuumBackend, "backend", "sqlite", "storage backend: sqlite|postgres")
}

func runVacuum(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	cfg.Storage.Path = vacuumDB
	cfg.Storage.Backend = vacuumBackend
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	sup, err := supervisor.Open(ctx, cfg, true)
	if err != nil {
		return fmt.Errorf("open engine: %w", err)
	}
	defer sup.Close(ctx)

	n, err := sup.Vacuum(ctx)
	if err != nil {
		return fmt.Errorf("vacuum: %w", err)
	}
	fmt.Printf("reclaimed %d expired key(s)\n", n)
	return nil
}
