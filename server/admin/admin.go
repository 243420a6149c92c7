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

// Package admin implements the admin HTTP surface (spec.md §6
// --admin-addr): Prometheus metrics and the liveness/readiness/startup
// health probes, mirroring the route set observability.Manager.HTTPHandler
// mounts for an agent process, routed here with gorilla/mux instead of a
// bare http.ServeMux.
package admin

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/redlite-io/redlite/observability/health"
	"github.com/redlite-io/redlite/observability/metrics"
)

// Mux builds the admin router against collector and the three health
// checkers a supervisor.Supervisor exposes.
func Mux(collector metrics.Collector, liveness *health.LivenessChecker, readiness *health.ReadinessChecker, startup *health.StartupChecker) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", collector.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health/live", health.Handler(liveness)).Methods(http.MethodGet)
	r.HandleFunc("/health/ready", health.Handler(readiness)).Methods(http.MethodGet)
	r.HandleFunc("/health/startup", health.Handler(startup)).Methods(http.MethodGet)
	return r
}
