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

// TestStreamConsumerGroup is spec.md §8 scenario 5: XADD, XGROUP CREATE
// with MKSTREAM, a group read that only sees entries added after the
// group's "$" cursor, and XACK clearing the pending-entries list.
func TestStreamConsumerGroup(t *testing.T) {
	ts := startServer(t, nil)
	defer ts.Close()
	ctx := context.Background()

	id1, err := ts.client.XAdd(ctx, &redis.XAddArgs{
		Stream: "s",
		ID:     "*",
		Values: map[string]interface{}{"f1": "v1"},
	}).Result()
	require.NoError(t, err)
	assert.NotEmpty(t, id1)

	require.NoError(t, ts.client.XGroupCreateMkStream(ctx, "s", "g", "$").Err())

	id2, err := ts.client.XAdd(ctx, &redis.XAddArgs{
		Stream: "s",
		ID:     "*",
		Values: map[string]interface{}{"f1": "v2"},
	}).Result()
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	streams, err := ts.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    "g",
		Consumer: "c1",
		Streams:  []string{"s", ">"},
		Count:    10,
	}).Result()
	require.NoError(t, err)
	require.Len(t, streams, 1)
	require.Len(t, streams[0].Messages, 1)
	msg := streams[0].Messages[0]
	assert.Equal(t, id2, msg.ID)
	assert.Equal(t, "v2", msg.Values["f1"])

	acked, err := ts.client.XAck(ctx, "s", "g", id2).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), acked)

	summary, err := ts.client.XPending(ctx, "s", "g").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.Count)
}
