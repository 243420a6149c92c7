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
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/redlite-io/redlite/config"
	"github.com/redlite-io/redlite/engine/supervisor"
	"github.com/redlite-io/redlite/observability/logging"
	"github.com/redlite-io/redlite/server"
	"github.com/redlite-io/redlite/server/admin"
)

var (
	serveAddr     string
	serveDB       string
	serveStorage  string
	serveBackend  string
	servePassword string
	serveCacheMB  int
	serveAdmin    string
	serveConfig   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the redlite TCP server",
	Long: `Start a RESP-speaking TCP server in front of an embedded relational store.

Configuration can come from a config file (--config), environment variables
(REDLITE_*), or these flags, in increasing priority order.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfig, "config", "", "path to a YAML or JSON config file")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address, e.g. 127.0.0.1:6379")
	serveCmd.Flags().StringVar(&serveDB, "db", "", "storage file (\":memory:\" permitted)")
	serveCmd.Flags().StringVar(&serveStorage, "storage", "", "storage location: file|memory")
	serveCmd.Flags().StringVar(&serveBackend, "backend", "", "storage backend: sqlite|postgres")
	serveCmd.Flags().StringVar(&servePassword, "password", "", "enable AUTH with this password")
	serveCmd.Flags().IntVar(&serveCacheMB, "cache", 0, "page cache budget in MB")
	serveCmd.Flags().StringVar(&serveAdmin, "admin-addr", "", "admin HTTP surface address (empty disables it)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadServeConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sup, err := supervisor.Open(ctx, cfg, false)
	if err != nil {
		return fmt.Errorf("open engine: %w", err)
	}
	logger := sup.Logger()

	srv := server.New(cfg.Server.Addr, sup.Router(), logger)

	var adminSrv *http.Server
	if cfg.Server.AdminAddr != "" {
		mux := admin.Mux(sup.Collector(), sup.LivenessChecker(), sup.ReadinessChecker(), sup.StartupChecker())
		adminSrv = &http.Server{Addr: cfg.Server.AdminAddr, Handler: mux}
		go func() {
			if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error(ctx, "admin server failed", logging.Error(err))
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Serve(ctx); err != nil {
			errChan <- err
		}
	}()

	logger.Info(ctx, "redlite listening", logging.String("addr", cfg.Server.Addr))

	select {
	case <-sigChan:
		logger.Info(ctx, "shutdown signal received")
	case err := <-errChan:
		cancel()
		return fmt.Errorf("server error: %w", err)
	}

	cancel()
	if err := srv.Close(); err != nil {
		logger.Warn(ctx, "error closing listener", logging.Error(err))
	}
	if adminSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		adminSrv.Shutdown(shutdownCtx)
	}

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer closeCancel()
	return sup.Close(closeCtx)
}

func loadServeConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if serveConfig != "" {
		cfg, err = config.LoadFromFile(serveConfig)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.DefaultConfig()
		if err := cfg.LoadEnv(); err != nil {
			return nil, err
		}
	}

	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if serveStorage == "memory" {
		cfg.Storage.Path = ":memory:"
	} else if serveDB != "" {
		cfg.Storage.Path = serveDB
	}
	if serveBackend != "" {
		cfg.Storage.Backend = serveBackend
	}
	if servePassword != "" {
		cfg.Server.Password = servePassword
	}
	if serveCacheMB > 0 {
		cfg.Storage.CacheMB = serveCacheMB
	}
	if serveAdmin != "" {
		cfg.Server.AdminAddr = serveAdmin
	}

	return cfg, cfg.Validate()
}
