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

package logging

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger implements Logger on top of go.uber.org/zap. The Supervisor
// builds one when the logging format is "console".
type ZapLogger struct {
	base  *zap.Logger
	level zap.AtomicLevel
}

// NewZapLogger builds a ZapLogger. console selects the human-readable
// development encoder; otherwise the JSON production encoder is used.
func NewZapLogger(level Level, console bool) *ZapLogger {
	var cfg zap.Config
	if console {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	cfg.Level = zap.NewAtomicLevelAt(toZapLevel(level))

	logger := zap.Must(cfg.Build(zap.AddCallerSkip(1)))

	return &ZapLogger{base: logger, level: cfg.Level}
}

func (l *ZapLogger) Debug(_ context.Context, msg string, fields ...Field) {
	l.base.Debug(msg, toZapFields(fields)...)
}

func (l *ZapLogger) Info(_ context.Context, msg string, fields ...Field) {
	l.base.Info(msg, toZapFields(fields)...)
}

func (l *ZapLogger) Warn(_ context.Context, msg string, fields ...Field) {
	l.base.Warn(msg, toZapFields(fields)...)
}

func (l *ZapLogger) Error(_ context.Context, msg string, fields ...Field) {
	l.base.Error(msg, toZapFields(fields)...)
}

func (l *ZapLogger) Fatal(_ context.Context, msg string, fields ...Field) {
	l.base.Fatal(msg, toZapFields(fields)...)
}

func (l *ZapLogger) With(fields ...Field) Logger {
	return &ZapLogger{base: l.base.With(toZapFields(fields)...), level: l.level}
}

func (l *ZapLogger) SetLevel(level Level) {
	l.level.SetLevel(toZapLevel(level))
}

// SetSamplingRate is a no-op for ZapLogger: zap's sampler is configured at
// construction time, not adjusted at runtime; kept to satisfy Logger.
func (l *ZapLogger) SetSamplingRate(float64) {}

// Sync flushes any buffered log entries. Supervisor.Close does not call
// it.
func (l *ZapLogger) Sync() error {
	return l.base.Sync()
}

func toZapLevel(level Level) zapcore.Level {
	switch level {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	case LevelFatal:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func toZapFields(fields []Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}
