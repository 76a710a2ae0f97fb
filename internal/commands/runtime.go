package commands

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-publication/internal/logging"
	"github.com/goliatone/go-publication/pkg/interfaces"
)

const (
	// DefaultCommandTimeout bounds a single variant transition.
	DefaultCommandTimeout = 30 * time.Second
	// RelocationCommandTimeout bounds operations that call the folder or
	// archive collaborators.
	RelocationCommandTimeout = time.Minute
	// BatchCommandTimeout bounds commands walking the job queue or audit log.
	BatchCommandTimeout = 5 * time.Minute
)

var operationTimeouts = map[string]time.Duration{
	"publication.delete":         RelocationCommandTimeout,
	"publication.copy":           RelocationCommandTimeout,
	"publication.move":           RelocationCommandTimeout,
	"publication.rename":         RelocationCommandTimeout,
	"publication.request.accept": RelocationCommandTimeout,
	"scheduler.process":          BatchCommandTimeout,
	"audit.export":               BatchCommandTimeout,
	"audit.cleanup":              BatchCommandTimeout,
}

// TimeoutFor returns the timeout a handler of operation runs with unless one
// is set explicitly.
func TimeoutFor(operation string) time.Duration {
	if timeout, ok := operationTimeouts[strings.TrimSpace(operation)]; ok {
		return timeout
	}
	return DefaultCommandTimeout
}

// EnsureContext returns a non-nil context.
func EnsureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// WithCommandTimeout applies timeout unless it is zero or negative. A parent
// deadline that is already sooner wins.
func WithCommandTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) <= timeout {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// EnsureLogger returns a usable logger.
func EnsureLogger(logger interfaces.Logger) interfaces.Logger {
	if logger == nil {
		return logging.NoOp()
	}
	return logger
}
