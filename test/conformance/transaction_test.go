// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

//go:build integration
// +build integration

package conformance

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTransactionPartialError is spec.md §8 scenario 6: a queued command
// that fails at EXEC time (INCR on a non-integer string) does not abort
// the rest of the transaction; every other queued command still applies.
func TestTransactionPartialError(t *testing.T) {
	ts := startServer(t, nil)
	defer ts.Close()
	ctx := context.Background()

	pipe := ts.client.TxPipeline()
	setK1 := pipe.Set(ctx, "k1", "ok", 0)
	incrK1 := pipe.Incr(ctx, "k1")
	setK2 := pipe.Set(ctx, "k2", "ok", 0)

	_, err := pipe.Exec(ctx)
	assert.Error(t, err, "EXEC should surface the queued INCR failure")

	require.NoError(t, setK1.Err())
	assert.Equal(t, "OK", setK1.Val())

	require.Error(t, incrK1.Err())
	assert.Contains(t, strings.ToUpper(incrK1.Err().Error()), "NOT_INTEGER")

	require.NoError(t, setK2.Err())
	assert.Equal(t, "OK", setK2.Val())

	v1, err := ts.client.Get(ctx, "k1").Result()
	require.NoError(t, err)
	assert.Equal(t, "ok", v1)

	v2, err := ts.client.Get(ctx, "k2").Result()
	require.NoError(t, err)
	assert.Equal(t, "ok", v2)
}

// TestWatchAbort is spec.md §8 scenario 2: a concurrent write to a
// watched key between WATCH and EXEC aborts the transaction with a null
// array reply, leaving the concurrent writer's value as the final state.
// connA is pinned to one physical connection (via Conn) so WATCH/MULTI/
// queued-SET/EXEC all run against the same session; connB's SET runs on
// a separate connection, simulating session B's concurrent write.
func TestWatchAbort(t *testing.T) {
	ts := startServer(t, nil)
	defer ts.Close()
	ctx := context.Background()

	require.NoError(t, ts.client.Set(ctx, "k", "v0", 0).Err())

	connA := ts.client.Conn()
	defer connA.Close()

	require.NoError(t, connA.Do(ctx, "WATCH", "k").Err())
	require.NoError(t, connA.Do(ctx, "MULTI").Err())
	require.NoError(t, connA.Do(ctx, "SET", "k", "fromA").Err())

	require.NoError(t, ts.client.Set(ctx, "k", "fromB", 0).Err())

	execResult, err := connA.Do(ctx, "EXEC").Result()
	require.NoError(t, err)
	assert.Nil(t, execResult, "EXEC must return a null array once a watched key changed")

	final, err := ts.client.Get(ctx, "k").Result()
	require.NoError(t, err)
	assert.Equal(t, "fromB", final)
}
