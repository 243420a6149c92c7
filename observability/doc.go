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

// Package observability provides monitoring, logging, and health-check
// capabilities for the redlite engine.
//
// # Overview
//
// This package enables comprehensive observability for a redlite server
// process through:
//   - Metrics collection (Prometheus)
//   - Structured logging
//   - Health checks (liveness, readiness, startup)
//
// # Metrics
//
// Collect and expose metrics for monitoring:
//
//	collector := metrics.NewPrometheusCollector()
//	engineMetrics := metrics.NewEngineMetrics(collector)
//
//	// Record a handled command
//	engineMetrics.RecordCommand("GET", "ok", 0.042)
//
//	// Expose metrics
//	http.Handle("/metrics", collector.Handler())
//
// # Logging
//
// Structured logging with context propagation:
//
//	logger := logging.NewStructuredLogger(logging.LevelInfo)
//
//	ctx := logging.WithRequestID(ctx, "req-123")
//	logger.Info(ctx, "command handled",
//	    logging.String("client_id", "client-1"),
//	    logging.Int("duration_ms", 42),
//	)
//
// # Health Checks
//
// Liveness, readiness, and startup probes:
//
//	liveness := health.NewLivenessChecker()
//	readiness := health.NewReadinessChecker(
//	    storageCheck, // any health.Checker, e.g. one that pings the backend
//	)
//
//	http.Handle("/health/live", health.Handler(liveness))
//	http.Handle("/health/ready", health.Handler(readiness))
//
// # Putting It Together
//
//	manager, err := observability.NewManager(&observability.ManagerConfig{
//	    Config: observability.DefaultConfig(),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer manager.Shutdown(context.Background())
//
//	go http.ListenAndServe(cfg.Server.AdminAddr, manager.HTTPHandler())
package observability
