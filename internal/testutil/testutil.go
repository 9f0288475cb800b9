// Package testutil provides small helpers shared by package tests.
package testutil

import (
	"context"
	"io"
	"log/slog"

	"github.com/specialistvlad/rungridgo/internal/ctxlog"
)

// Context returns a context carrying a quiet logger, for exercising code
// paths that pull their logger from the context.
func Context() context.Context {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return ctxlog.WithLogger(context.Background(), logger)
}
