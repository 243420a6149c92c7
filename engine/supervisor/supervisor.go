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

// Package supervisor wires every Engine subsystem (spec.md §4) into one
// object from a single config.Config: it opens the storage.Backend the
// config selects, builds KeyRegistry/DataTypeOps/HistorySubsystem/
// NotificationBus/the AUTH Gate on top of it, assembles the
// CommandRouter, and owns the background TTL sweeper plus the
// observability surface (logger, metrics collector, health checkers).
// It is the same "one struct owns every collaborator, built from one
// config object" shape observability.Manager uses to assemble a logger,
// metrics collector, and health checkers from one ManagerConfig; here
// it is generalized from HTTP-agent observability to the whole storage
// engine lifecycle.
package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/redlite-io/redlite/config"
	"github.com/redlite-io/redlite/engine/auth"
	"github.com/redlite-io/redlite/engine/datatype"
	"github.com/redlite-io/redlite/engine/history"
	"github.com/redlite-io/redlite/engine/keyregistry"
	"github.com/redlite-io/redlite/engine/notify"
	"github.com/redlite-io/redlite/engine/router"
	"github.com/redlite-io/redlite/engine/ttl"
	"github.com/redlite-io/redlite/observability/health"
	"github.com/redlite-io/redlite/observability/logging"
	"github.com/redlite-io/redlite/observability/metrics"
	"github.com/redlite-io/redlite/storage"
)

// Supervisor owns the full Engine dependency graph for one opened
// database, in either embedded (library) or server mode.
type Supervisor struct {
	cfg *config.Config

	backend  storage.Backend
	registry *keyregistry.Registry
	ops      *datatype.Ops
	history  *history.Recorder
	notify   *notify.Bus
	gate     *auth.Gate
	router   *router.Router
	sweeper  *ttl.Sweeper

	logger    logging.Logger
	collector metrics.Collector
	metrics   *metrics.EngineMetrics

	liveness  *health.LivenessChecker
	startup   *health.StartupChecker
	readiness *health.ReadinessChecker

	stopSweeper func()
}

// backendHealthCheck adapts storage.Backend.Ping to health.Checker so the
// readiness probe fails whenever the database stops answering.
type backendHealthCheck struct {
	backend storage.Backend
}

// Name identifies this check in a ReadinessChecker's aggregated result.
func (c backendHealthCheck) Name() string { return "storage" }

// Check pings the backend; spec.md §4.1's BUSY/connection failures surface
// here as an unhealthy readiness probe rather than only at query time.
func (c backendHealthCheck) Check(ctx context.Context) health.CheckResult {
	if err := c.backend.Ping(ctx); err != nil {
		return health.CheckResult{Name: c.Name(), Status: health.StatusUnhealthy, Message: err.Error()}
	}
	return health.CheckResult{Name: c.Name(), Status: health.StatusHealthy}
}

// Open builds every Engine subsystem from cfg and returns a running
// Supervisor. embedded selects library mode: the NotificationBus and
// CommandRouter both reject blocking/pub-sub commands with
// pkg/errors.ErrUnsupportedInEmbedded rather than spinning up channels
// nothing will ever read from a client connection.
func Open(ctx context.Context, cfg *config.Config, embedded bool) (*Supervisor, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	logger := newLogger(cfg.Logging)
	collector := metrics.NewPrometheusCollector()
	engineMetrics := metrics.NewEngineMetrics(collector)

	backend, err := openBackend(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("supervisor: open storage backend: %w", err)
	}

	clock := keyregistry.WallClockMillis
	registry := keyregistry.New(backend, clock)
	recorder := history.New(backend, clock)
	if cfg.History.Enabled {
		if err := recorder.SetGlobalConfig(ctx, true, historyPolicy(cfg.History.Policy), cfg.History.MaxAge, int64(cfg.History.MaxCount)); err != nil {
			backend.Close()
			return nil, fmt.Errorf("supervisor: apply default history policy: %w", err)
		}
	}

	bus := notify.New(embedded)

	gate, err := auth.NewGate(cfg.Server.Password)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("supervisor: build auth gate: %w", err)
	}

	ops := datatype.New(backend, registry,
		datatype.WithHistory(recorder),
		datatype.WithNotifier(bus),
		datatype.WithClock(clock),
	)

	sweeper := ttl.New(backend, clock, cfg.Storage.AutovacuumInterval)

	rt := router.New(ops, registry, backend, bus,
		router.WithHistory(recorder),
		router.WithGate(gate),
		router.WithEmbedded(embedded),
		router.WithClock(clock),
	)

	liveness := health.NewLivenessChecker()
	startup := health.NewStartupChecker()
	readiness := health.NewReadinessChecker(startup, backendHealthCheck{backend: backend})
	liveness.MarkRunning()

	sup := &Supervisor{
		cfg:       cfg,
		backend:   backend,
		registry:  registry,
		ops:       ops,
		history:   recorder,
		notify:    bus,
		gate:      gate,
		router:    rt,
		sweeper:   sweeper,
		logger:    logger,
		collector: collector,
		metrics:   engineMetrics,
		liveness:  liveness,
		startup:   startup,
		readiness: readiness,
	}

	sup.stopSweeper = sweeper.Start(ctx)
	startup.MarkReady()
	logger.Info(ctx, "engine supervisor started",
		logging.String("backend", cfg.Storage.Backend),
		logging.Bool("embedded", embedded),
		logging.Bool("history_enabled", cfg.History.Enabled),
	)

	return sup, nil
}

// historyPolicy translates config.HistoryConfig's redis-flavored policy
// names ("unlimited"/"by-age"/"by-count", enforced by config/validation.go)
// into engine/history's own Policy constants ("unlimited"/"age"/"count");
// the two packages spell the same three policies differently, and
// HISTORY CONFIG SET (commands_history.go) takes the engine's spelling
// directly from wire clients, so only this config-to-engine boundary
// needs the translation.
func historyPolicy(cfgPolicy string) history.Policy {
	switch cfgPolicy {
	case "by-age":
		return history.PolicyByAge
	case "by-count":
		return history.PolicyByCount
	default:
		return history.PolicyUnlimited
	}
}

// openBackend selects and constructs the storage.Backend per
// StorageConfig.Backend (spec.md §4.1, §6's --backend flag).
func openBackend(cfg config.StorageConfig) (storage.Backend, error) {
	switch cfg.Backend {
	case "", "sqlite":
		return storage.NewSQLiteBackend(storage.SQLiteConfig{
			Path:        cfg.Path,
			CacheMB:     cfg.CacheMB,
			BusyTimeout: cfg.BusyTimeout,
		})
	case "postgres":
		return storage.NewPostgresBackend(storage.PostgresConfig{
			DSN:         cfg.Path,
			BusyTimeout: cfg.BusyTimeout,
		})
	default:
		return nil, fmt.Errorf("supervisor: unknown storage backend %q", cfg.Backend)
	}
}

// newLogger picks the concrete logging.Logger per LoggingConfig.Format:
// "console" gets the human-readable zap encoder, anything else (including the default
// "json") gets the dependency-free StructuredLogger, which already emits
// JSON.
func newLogger(cfg config.LoggingConfig) logging.Logger {
	level := logging.Level(cfg.Level)
	if level == "" {
		level = logging.LevelInfo
	}
	if cfg.Format == "console" {
		return logging.NewZapLogger(level, true)
	}
	return logging.NewStructuredLogger(level)
}

// Router returns the CommandRouter every session's Dispatch calls go
// through.
func (s *Supervisor) Router() *router.Router { return s.router }

// Ops returns the DataTypeOps, for embedded callers that want direct
// access without going through RESP encoding.
func (s *Supervisor) Ops() *datatype.Ops { return s.ops }

// Registry returns the KeyRegistry.
func (s *Supervisor) Registry() *keyregistry.Registry { return s.registry }

// History returns the HistorySubsystem.
func (s *Supervisor) History() *history.Recorder { return s.history }

// Notify returns the NotificationBus.
func (s *Supervisor) Notify() *notify.Bus { return s.notify }

// Backend returns the underlying StorageBackend.
func (s *Supervisor) Backend() storage.Backend { return s.backend }

// Logger returns the structured logger configured for this instance.
func (s *Supervisor) Logger() logging.Logger { return s.logger }

// Collector returns the metrics collector backing EngineMetrics.
func (s *Supervisor) Collector() metrics.Collector { return s.collector }

// Metrics returns the EngineMetrics recorder.
func (s *Supervisor) Metrics() *metrics.EngineMetrics { return s.metrics }

// LivenessChecker reports whether the process is still running.
func (s *Supervisor) LivenessChecker() *health.LivenessChecker { return s.liveness }

// ReadinessChecker reports whether the engine is ready to serve traffic,
// including the backend connectivity check registered at Open.
func (s *Supervisor) ReadinessChecker() *health.ReadinessChecker { return s.readiness }

// StartupChecker reports whether Open has finished building the engine.
func (s *Supervisor) StartupChecker() *health.StartupChecker { return s.startup }

// Vacuum runs an explicit VACUUM (spec.md §4.4), regardless of the
// configured autovacuum interval.
func (s *Supervisor) Vacuum(ctx context.Context) (int64, error) {
	return s.sweeper.Vacuum(ctx)
}

// Close stops the background sweeper and closes the storage backend. It
// is safe to call once; a second call closes an already-closed backend
// and returns that error, matching *sql.DB's own Close semantics.
func (s *Supervisor) Close(ctx context.Context) error {
	if s.stopSweeper != nil {
		s.stopSweeper()
	}
	s.liveness.MarkStopped()
	s.logger.Info(ctx, "engine supervisor stopped")
	return s.backend.Close()
}

// autovacuumFloor is the minimum accepted background sweep interval
// (spec.md §4.4); Open does not enforce it (a shorter interval just
// means ttl.Sweeper never lets MaybeSweep fire faster than once per
// interval). config.Validate enforces the same 1000ms floor on its own;
// this constant is not referenced elsewhere.
const autovacuumFloor = time.Second
