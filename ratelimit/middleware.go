// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package ratelimit

import (
	"context"
	"fmt"
)

// CommandHandler executes one RESP command for a session and returns its
// reply (see server/resp.Value) or an error.
type CommandHandler func(ctx context.Context, clientID, cmd string) (interface{}, error)

// Middleware is the middleware function type.
type Middleware func(CommandHandler) CommandHandler

// MiddlewareConfig holds middleware configuration.
type MiddlewareConfig struct {
	// Limiter is the rate limiter to use.
	Limiter Limiter

	// KeyFunc generates the rate limit key from the client id and command.
	KeyFunc func(ctx context.Context, clientID, cmd string) string

	// OnRateLimitExceeded is called when the rate limit is exceeded.
	OnRateLimitExceeded func(ctx context.Context, clientID, cmd, key string) (interface{}, error)
}

// DefaultMiddlewareConfig returns default middleware configuration: one
// bucket per client id, -ERR max requests reached response on rejection.
func DefaultMiddlewareConfig() MiddlewareConfig {
	return MiddlewareConfig{
		KeyFunc: PerClientKeyFunc,
		OnRateLimitExceeded: func(_ context.Context, _, _, key string) (interface{}, error) {
			return nil, fmt.Errorf("max requests reached for client: %s", key)
		},
	}
}

// NewMiddleware creates a new command rate-limiting middleware.
func NewMiddleware(config MiddlewareConfig) Middleware {
	if config.KeyFunc == nil {
		config = DefaultMiddlewareConfig()
	}

	return func(next CommandHandler) CommandHandler {
		return func(ctx context.Context, clientID, cmd string) (interface{}, error) {
			key := config.KeyFunc(ctx, clientID, cmd)

			if !config.Limiter.Allow(key) {
				if config.OnRateLimitExceeded != nil {
					return config.OnRateLimitExceeded(ctx, clientID, cmd, key)
				}
				return nil, fmt.Errorf("max requests reached")
			}

			return next(ctx, clientID, cmd)
		}
	}
}

// NewTokenBucketMiddleware creates a token bucket rate-limiting middleware.
// The server does not install it.
func NewTokenBucketMiddleware(config TokenBucketConfig, keyFunc func(context.Context, string, string) string) Middleware {
	limiter := NewTokenBucket(config)

	middlewareConfig := DefaultMiddlewareConfig()
	middlewareConfig.Limiter = limiter
	if keyFunc != nil {
		middlewareConfig.KeyFunc = keyFunc
	}

	return NewMiddleware(middlewareConfig)
}

// NewSlidingWindowMiddleware creates a sliding window rate-limiting middleware.
func NewSlidingWindowMiddleware(config SlidingWindowConfig, keyFunc func(context.Context, string, string) string) Middleware {
	limiter := NewSlidingWindow(config)

	middlewareConfig := DefaultMiddlewareConfig()
	middlewareConfig.Limiter = limiter
	if keyFunc != nil {
		middlewareConfig.KeyFunc = keyFunc
	}

	return NewMiddleware(middlewareConfig)
}

// PerClientKeyFunc generates a key from the connection's client id, giving
// every connection its own bucket.
func PerClientKeyFunc(_ context.Context, clientID, _ string) string {
	if clientID == "" {
		return "anonymous"
	}
	return fmt.Sprintf("client:%s", clientID)
}

// PerCommandKeyFunc generates a key from the command name, so e.g. KEYS or
// FT.SEARCH can be throttled independently of cheap commands.
func PerCommandKeyFunc(_ context.Context, _, cmd string) string {
	return fmt.Sprintf("cmd:%s", cmd)
}

// GlobalKeyFunc generates a single global key shared by all clients.
func GlobalKeyFunc(_ context.Context, _, _ string) string {
	return "global"
}
