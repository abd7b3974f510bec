// Package logging defines the context-aware structured logger used across the
// module, with log/slog and zap implementations.
package logging

import (
	"context"
	"slices"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "switched account", "account_id", id)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

// Nop returns a Logger that discards everything.
func Nop() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) Debug(context.Context, string, ...any) {}
func (nopLogger) Info(context.Context, string, ...any)  {}
func (nopLogger) Warn(context.Context, string, ...any)  {}
func (nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) Logger                  { return n }

// Redacted replaces the value of any secret key passed to a Logger.
const Redacted = "[REDACTED]"

var secretKeys = []string{"token", "access_token", "password"}

// redact returns args with the values of secret keys replaced. args is not
// modified.
func redact(args []any) []any {
	var out []any
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok || !slices.Contains(secretKeys, key) {
			continue
		}
		if out == nil {
			out = slices.Clone(args)
		}
		out[i+1] = Redacted
	}
	if out == nil {
		return args
	}
	return out
}
