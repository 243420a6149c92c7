// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

//go:build integration
// +build integration

package conformance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestListLIFOFIFO is spec.md §8 scenario 3: LPUSH pushes in LIFO order,
// RPUSH appends, LREM removes the first matching occurrence.
func TestListLIFOFIFO(t *testing.T) {
	ts := startServer(t, nil)
	defer ts.Close()
	ctx := context.Background()

	n, err := ts.client.LPush(ctx, "l", "a", "b", "c").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	vals, err := ts.client.LRange(ctx, "l", 0, -1).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, vals)

	n, err = ts.client.RPush(ctx, "l", "x").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	vals, err = ts.client.LRange(ctx, "l", 0, -1).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a", "x"}, vals)

	removed, err := ts.client.LRem(ctx, "l", 0, "b").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	vals, err = ts.client.LRange(ctx, "l", 0, -1).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "x"}, vals)
}
