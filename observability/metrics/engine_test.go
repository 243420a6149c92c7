// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package metrics

import "testing"

func TestRecordCommandOK(t *testing.T) {
	c := NewPrometheusCollector()
	m := NewEngineMetrics(c)

	m.RecordCommand("GET", "ok", 0.001)

	// Counter and histogram should both be registered with no panic and be
	// retrievable on a second call (exercises getOrCreate* caching).
	m.RecordCommand("GET", "ok", 0.002)
}

func TestRecordCommandError(t *testing.T) {
	c := NewPrometheusCollector()
	m := NewEngineMetrics(c)

	m.RecordCommand("SET", "WRONGTYPE", 0.001)
}

func TestSessionGauges(t *testing.T) {
	c := NewPrometheusCollector()
	m := NewEngineMetrics(c)

	m.RecordSessionOpened()
	m.SetSessionsActive(3)
}

func TestKeyspaceMetrics(t *testing.T) {
	c := NewPrometheusCollector()
	m := NewEngineMetrics(c)

	m.SetKeysTotal(0, 100)
	m.RecordExpiredKeys(5)
}

func TestHistoryMetrics(t *testing.T) {
	c := NewPrometheusCollector()
	m := NewEngineMetrics(c)

	m.RecordHistoryRows(10)
	m.RecordHistoryPruned(2)
}

func TestSearchMetrics(t *testing.T) {
	c := NewPrometheusCollector()
	m := NewEngineMetrics(c)

	m.RecordSearchQuery("idx:docs", 0.05)
	m.SetSearchIndexedDocs("idx:docs", 1000)
}

func TestStorageMetrics(t *testing.T) {
	c := NewPrometheusCollector()
	m := NewEngineMetrics(c)

	m.RecordStorageBusy()
	m.RecordStorageOp("exec", 0.0001)
}

func TestDBLabel(t *testing.T) {
	if dbLabel(-1) != "0" {
		t.Errorf("expected 0 for negative db, got %s", dbLabel(-1))
	}
	if dbLabel(3) != "3" {
		t.Errorf("expected 3, got %s", dbLabel(3))
	}
}
