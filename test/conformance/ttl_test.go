// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

//go:build integration
// +build integration

package conformance

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTTLExpiry is spec.md §8 scenario 1: SET with EX, read before and
// after expiry, TTL reporting -2 for an absent/expired key.
func TestTTLExpiry(t *testing.T) {
	ts := startServer(t, nil)
	defer ts.Close()
	ctx := context.Background()

	requireOK(t, ts.client.Set(ctx, "s", "x", time.Second))

	got, err := ts.client.Get(ctx, "s").Result()
	require.NoError(t, err)
	assert.Equal(t, "x", got)

	time.Sleep(1100 * time.Millisecond)

	_, err = ts.client.Get(ctx, "s").Result()
	assert.ErrorIs(t, err, redis.Nil)

	n, err := ts.client.Exists(ctx, "s").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	ttl, err := ts.client.TTL(ctx, "s").Result()
	require.NoError(t, err)
	assert.Equal(t, -2*time.Second, ttl)
}
