// Package log passes a logr.Logger through context. The cache layer itself
// never logs; only the validators emit diagnostics, at V(1).
package log

import (
	"context"

	"github.com/go-logr/logr"
)

// FromContext returns the logger stored in ctx, or a discarding logger.
func FromContext(ctx context.Context) logr.Logger {
	return logr.FromContextOrDiscard(ctx)
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger logr.Logger) context.Context {
	return logr.NewContext(ctx, logger)
}
