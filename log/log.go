// Copyright (c) 2025 The Subtide developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package log provides structured key/value logging on top of log/slog.
// The process-wide handler defaults to discarding everything; binaries opt
// in via SetDefault.
package log

import (
	"context"
	"log/slog"
	"sync"
)

var (
	mu   sync.RWMutex
	root = slog.New(DiscardHandler())
)

// SetDefault installs the process-wide handler.
func SetDefault(h slog.Handler) {
	mu.Lock()
	defer mu.Unlock()
	root = slog.New(h)
}

// Logger is a leveled key/value logger carrying bound context attributes.
type Logger struct {
	ctx []any
}

// WithContext returns a logger with the given key/value pairs bound.
func WithContext(ctx ...any) *Logger {
	return &Logger{ctx: ctx}
}

// New returns a child logger with additional bound context.
func (l *Logger) New(ctx ...any) *Logger {
	merged := make([]any, 0, len(l.ctx)+len(ctx))
	merged = append(merged, l.ctx...)
	merged = append(merged, ctx...)
	return &Logger{ctx: merged}
}

func (l *Logger) write(level slog.Level, msg string, kv []any) {
	mu.RLock()
	r := root
	mu.RUnlock()
	if !r.Enabled(context.Background(), level) {
		return
	}
	args := make([]any, 0, len(l.ctx)+len(kv))
	args = append(args, l.ctx...)
	args = append(args, kv...)
	r.Log(context.Background(), level, msg, args...)
}

// Trace logs at the debug level; kept for parity with verbose call sites.
func (l *Logger) Trace(msg string, kv ...any) { l.write(slog.LevelDebug, msg, kv) }

// Debug logs at the debug level.
func (l *Logger) Debug(msg string, kv ...any) { l.write(slog.LevelDebug, msg, kv) }

// Info logs at the info level.
func (l *Logger) Info(msg string, kv ...any) { l.write(slog.LevelInfo, msg, kv) }

// Warn logs at the warn level.
func (l *Logger) Warn(msg string, kv ...any) { l.write(slog.LevelWarn, msg, kv) }

// Error logs at the error level.
func (l *Logger) Error(msg string, kv ...any) { l.write(slog.LevelError, msg, kv) }
