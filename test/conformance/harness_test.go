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

//go:build integration
// +build integration

// Package conformance runs spec.md §8's literal end-to-end scenarios
// against a live redlite TCP server via go-redis/v9.
package conformance

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/redlite-io/redlite/config"
	"github.com/redlite-io/redlite/engine/supervisor"
	"github.com/redlite-io/redlite/server"
)

// testServer bundles a running Supervisor/Server pair and the go-redis
// client pointed at it, torn down together via Close.
type testServer struct {
	sup    *supervisor.Supervisor
	srv    *server.Server
	client *redis.Client
	cancel context.CancelFunc
}

func (ts *testServer) Close() {
	ts.client.Close()
	ts.cancel()
	ts.srv.Close()
	ts.sup.Close(context.Background())
}

// startServer opens an in-memory sqlite-backed Supervisor, serves it over
// a TCP listener bound to a free loopback port, and returns a connected
// go-redis client. cfg may be nil for defaults.
func startServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	cfg.Storage.Backend = "sqlite"
	cfg.Storage.Path = ":memory:"
	cfg.Server.Addr = addr
	require.NoError(t, cfg.Validate())

	ctx, cancel := context.WithCancel(context.Background())

	sup, err := supervisor.Open(ctx, cfg, false)
	require.NoError(t, err)

	srv := server.New(addr, sup.Router(), sup.Logger())
	go srv.Serve(ctx)

	var client *redis.Client
	require.Eventually(t, func() bool {
		client = redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Server.Password, Protocol: 2})
		return client.Ping(ctx).Err() == nil
	}, 2*time.Second, 10*time.Millisecond, "server never became reachable at %s", addr)

	return &testServer{sup: sup, srv: srv, client: client, cancel: cancel}
}

// historyEnabledConfig returns a config with by-count history retention
// enabled globally, for the time-travel scenario.
func historyEnabledConfig(maxCount int) *config.Config {
	cfg := config.DefaultConfig()
	cfg.History.Enabled = true
	cfg.History.Policy = "by-count"
	cfg.History.MaxCount = maxCount
	return cfg
}

func requireOK(t *testing.T, cmd *redis.StatusCmd) {
	t.Helper()
	require.NoError(t, cmd.Err())
	require.Equal(t, "OK", cmd.Val())
}

func bulkString(v interface{}) string {
	return fmt.Sprintf("%v", v)
}
