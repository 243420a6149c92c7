// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

//go:build integration
// +build integration

package conformance

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSortedSetOrder is spec.md §8 scenario 4: ZADD, ascending
// (score, member) iteration via ZRANGE WITHSCORES, and an exclusive-lower
// bound ZRANGEBYSCORE.
func TestSortedSetOrder(t *testing.T) {
	ts := startServer(t, nil)
	defer ts.Close()
	ctx := context.Background()

	n, err := ts.client.ZAdd(ctx, "z",
		redis.Z{Score: 2, Member: "b"},
		redis.Z{Score: 1, Member: "a"},
		redis.Z{Score: 3, Member: "c"},
	).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	withScores, err := ts.client.ZRangeWithScores(ctx, "z", 0, -1).Result()
	require.NoError(t, err)
	require.Len(t, withScores, 3)
	assert.Equal(t, []redis.Z{
		{Score: 1, Member: "a"},
		{Score: 2, Member: "b"},
		{Score: 3, Member: "c"},
	}, withScores)

	byScore, err := ts.client.ZRangeByScore(ctx, "z", &redis.ZRangeBy{Min: "(1", Max: "3"}).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, byScore)
}
