// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

//go:build integration
// +build integration

package conformance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHistoryTimeTravel is spec.md §8 scenario 7: with by-count retention
// of 3 enabled, HISTORY STATS reports exactly 3 rows, HISTORY GETAT
// resolves the snapshot that was live at a timestamp between two writes,
// and HISTORY GET returns the surviving entries newest-first.
func TestHistoryTimeTravel(t *testing.T) {
	ts := startServer(t, historyEnabledConfig(3))
	defer ts.Close()
	ctx := context.Background()

	requireOK(t, ts.client.Set(ctx, "h", "a", 0))
	time.Sleep(5 * time.Millisecond)
	requireOK(t, ts.client.Set(ctx, "h", "b", 0))
	tsBetweenBAndC := time.Now().UnixMilli()
	time.Sleep(5 * time.Millisecond)
	requireOK(t, ts.client.Set(ctx, "h", "c", 0))
	time.Sleep(5 * time.Millisecond)
	requireOK(t, ts.client.Set(ctx, "h", "d", 0))

	stats, err := ts.client.Do(ctx, "HISTORY", "STATS", "h").Slice()
	require.NoError(t, err)
	require.Len(t, stats, 4)
	assert.EqualValues(t, 3, stats[0])

	snap, err := ts.client.Do(ctx, "HISTORY", "GETAT", "h", tsBetweenBAndC).Slice()
	require.NoError(t, err)
	require.Len(t, snap, 6)
	assert.Equal(t, "b", bulkString(snap[5]))

	entries, err := ts.client.Do(ctx, "HISTORY", "GET", "h", "LIMIT", 10).Slice()
	require.NoError(t, err)
	require.Len(t, entries, 3)

	values := make([]string, len(entries))
	for i, e := range entries {
		row, ok := e.([]interface{})
		require.True(t, ok)
		require.Len(t, row, 6)
		values[i] = bulkString(row[5])
	}
	assert.Equal(t, []string{"d", "c", "b"}, values)
}
