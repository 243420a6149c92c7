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

package metrics

import "strconv"

const (
	// Command metrics
	MetricCommandsTotal   = "redlite_commands_total"
	MetricCommandDuration = "redlite_command_duration_seconds"
	MetricCommandErrors   = "redlite_command_errors_total"

	// Session metrics
	MetricSessionsActive = "redlite_sessions_active"
	MetricSessionsTotal  = "redlite_sessions_total"

	// Key-space metrics
	MetricKeysTotal        = "redlite_keys_total"
	MetricExpiredKeysTotal = "redlite_expired_keys_total"
	MetricEvictedKeysTotal = "redlite_evicted_keys_total"

	// History subsystem metrics
	MetricHistoryRowsTotal = "redlite_history_rows_total"
	MetricHistoryPruned    = "redlite_history_pruned_total"

	// Search subsystem metrics
	MetricSearchQueriesTotal  = "redlite_search_queries_total"
	MetricSearchQueryDuration = "redlite_search_query_duration_seconds"
	MetricSearchIndexedDocs   = "redlite_search_indexed_documents"

	// Storage backend metrics
	MetricStorageBusyTotal  = "redlite_storage_busy_total"
	MetricStorageOpDuration = "redlite_storage_operation_duration_seconds"
)

// EngineMetrics provides redlite-specific metric helpers over a Collector.
// Within this repository only observability.Middleware records through it.
type EngineMetrics struct {
	collector Collector
}

// NewEngineMetrics creates a new engine metrics recorder.
func NewEngineMetrics(collector Collector) *EngineMetrics {
	return &EngineMetrics{collector: collector}
}

// RecordCommand records a command execution with its outcome and duration.
func (m *EngineMetrics) RecordCommand(cmd, status string, duration float64) {
	labels := NewLabels("cmd", cmd, "status", status)
	m.collector.IncrementCounter(MetricCommandsTotal, labels)
	m.collector.ObserveHistogram(MetricCommandDuration, duration, labels)
	if status != "ok" {
		m.collector.IncrementCounter(MetricCommandErrors, NewLabels("cmd", cmd, "tag", status))
	}
}

// SetSessionsActive sets the current number of open client connections.
func (m *EngineMetrics) SetSessionsActive(count float64) {
	m.collector.SetGauge(MetricSessionsActive, count, NoLabels())
}

// RecordSessionOpened records a newly accepted connection.
func (m *EngineMetrics) RecordSessionOpened() {
	m.collector.IncrementCounter(MetricSessionsTotal, NoLabels())
}

// SetKeysTotal sets the total key count for a database index.
func (m *EngineMetrics) SetKeysTotal(db int, count float64) {
	m.collector.SetGauge(MetricKeysTotal, count, NewLabels("db", dbLabel(db)))
}

// RecordExpiredKeys records keys reclaimed by the TTL sweeper (spec.md §4.4).
func (m *EngineMetrics) RecordExpiredKeys(n float64) {
	m.collector.AddCounter(MetricExpiredKeysTotal, n, NoLabels())
}

// RecordHistoryRows records rows appended to key_history.
func (m *EngineMetrics) RecordHistoryRows(n float64) {
	m.collector.AddCounter(MetricHistoryRowsTotal, n, NoLabels())
}

// RecordHistoryPruned records rows removed by the history retention policy.
func (m *EngineMetrics) RecordHistoryPruned(n float64) {
	m.collector.AddCounter(MetricHistoryPruned, n, NoLabels())
}

// RecordSearchQuery records an FT.SEARCH/FT.AGGREGATE query.
func (m *EngineMetrics) RecordSearchQuery(index string, duration float64) {
	labels := NewLabels("index", index)
	m.collector.IncrementCounter(MetricSearchQueriesTotal, labels)
	m.collector.ObserveHistogram(MetricSearchQueryDuration, duration, labels)
}

// SetSearchIndexedDocs sets the document count of a full-text index.
func (m *EngineMetrics) SetSearchIndexedDocs(index string, count float64) {
	m.collector.SetGauge(MetricSearchIndexedDocs, count, NewLabels("index", index))
}

// RecordStorageBusy records a SQLITE_BUSY/lock-timeout event from the
// single-writer storage backend.
func (m *EngineMetrics) RecordStorageBusy() {
	m.collector.IncrementCounter(MetricStorageBusyTotal, NoLabels())
}

// RecordStorageOp records the duration of a storage backend round trip.
func (m *EngineMetrics) RecordStorageOp(op string, duration float64) {
	m.collector.ObserveHistogram(MetricStorageOpDuration, duration, NewLabels("op", op))
}

func dbLabel(db int) string {
	if db < 0 {
		return "0"
	}
	return strconv.Itoa(db)
}
