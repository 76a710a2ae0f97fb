package logging

import (
	"context"

	"github.com/goliatone/go-publication/pkg/interfaces"
	"github.com/google/uuid"
)

const (
	rootModule      = "publication"
	workflowModule  = "publication.workflow"
	schedulerModule = "publication.scheduler"
	storageModule   = "publication.storage"
	commandsModule  = "publication.commands"
)

const (
	fieldHandle    = "handle_id"
	fieldActor     = "actor"
	fieldOperation = "operation"
	fieldRequest   = "request_id"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The module identifier is
// attached as a structured field.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// WorkflowLogger returns the logger used by the workflow executor.
func WorkflowLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, workflowModule)
}

// SchedulerLogger returns the logger used by scheduled request workers.
func SchedulerLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, schedulerModule)
}

// StorageLogger returns the logger used by storage bootstrapping.
func StorageLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, storageModule)
}

// CommandsLogger returns the logger used by command handlers.
func CommandsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, commandsModule)
}

// WithOperation enriches logger with the handle, actor and operation of a
// workflow call. Zero values are skipped.
func WithOperation(logger interfaces.Logger, handle uuid.UUID, actor, operation string) interfaces.Logger {
	fields := map[string]any{}
	if handle != uuid.Nil {
		fields[fieldHandle] = handle.String()
	}
	if actor != "" {
		fields[fieldActor] = actor
	}
	if operation != "" {
		fields[fieldOperation] = operation
	}
	return WithFields(logger, fields)
}

// WithRequest attaches a request identifier.
func WithRequest(logger interfaces.Logger, request uuid.UUID) interfaces.Logger {
	if request == uuid.Nil {
		return logger
	}
	return WithFields(logger, map[string]any{fieldRequest: request.String()})
}

// NoOp returns a logger that drops every log entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
