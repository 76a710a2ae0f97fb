package commands

import (
	"strings"

	"github.com/goliatone/go-publication/internal/logging"
	"github.com/goliatone/go-publication/pkg/interfaces"
	"github.com/google/uuid"
)

const commandModuleRoot = "publication.commands"

// Targeted is implemented by messages addressing one handle on behalf of an
// actor. Handlers add both to every log entry and telemetry record.
type Targeted interface {
	TargetHandle() uuid.UUID
	TargetActor() string
}

// CommandLogger returns a module-scoped logger for command handlers.
func CommandLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	name := strings.TrimSpace(module)
	if name == "" {
		name = "workflow"
	}
	logger := logging.ModuleLogger(provider, commandModuleRoot+"."+name)
	return logging.WithFields(logger, map[string]any{
		"component":      "command",
		"command_module": name,
	})
}

// commandFields builds the structured fields of one execution.
func commandFields(msgType, operation string, msg any) map[string]any {
	fields := map[string]any{"command": msgType}
	if operation != "" {
		fields["operation"] = operation
	}
	target, ok := msg.(Targeted)
	if !ok {
		return fields
	}
	if handle := target.TargetHandle(); handle != uuid.Nil {
		fields["handle_id"] = handle.String()
	}
	if actor := strings.TrimSpace(target.TargetActor()); actor != "" {
		fields["actor"] = actor
	}
	return fields
}
