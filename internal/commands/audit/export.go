package auditcmd

import (
	"context"
	"slices"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-publication/internal/commands"
	"github.com/goliatone/go-publication/internal/jobs"
	"github.com/goliatone/go-publication/internal/logging"
	"github.com/goliatone/go-publication/pkg/interfaces"
	"github.com/google/uuid"
)

const exportAuditMessageType = "publication.audit.export"

// AuditLog exposes read operations for recorded audit events.
type AuditLog interface {
	List(ctx context.Context) ([]jobs.AuditEvent, error)
}

// ExportAuditCommand writes recorded scheduler events to the logger. Every
// filter is optional.
type ExportAuditCommand struct {
	HandleID   uuid.UUID  `json:"handle_id,omitempty"`
	Action     string     `json:"action,omitempty"`
	Since      *time.Time `json:"since,omitempty"`
	MaxRecords *int       `json:"max_records,omitempty"`
}

// Type implements command.Message.
func (ExportAuditCommand) Type() string { return exportAuditMessageType }

// Validate ensures the command payload is well-formed.
func (m ExportAuditCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Action, validation.In(
			jobs.ActionAccepted, jobs.ActionStale, jobs.ActionSkipped, jobs.ActionFailed,
		).Error("unknown audit action")),
		validation.Field(&m.MaxRecords, validation.By(func(any) error {
			if m.MaxRecords != nil && *m.MaxRecords < 0 {
				return validation.NewError("publication.audit.export.max_records_invalid", "max_records must be zero or positive")
			}
			return nil
		})),
	)
}

// matches reports whether event passes every filter set on the command.
func (m ExportAuditCommand) matches(event jobs.AuditEvent) bool {
	if m.HandleID != uuid.Nil && event.HandleID != m.HandleID {
		return false
	}
	if action := strings.TrimSpace(m.Action); action != "" && event.Action != action {
		return false
	}
	if m.Since != nil && event.OccurredAt.Before(*m.Since) {
		return false
	}
	return true
}

// ExportAuditHandler logs the audit trail of fired scheduled requests.
type ExportAuditHandler struct {
	inner *commands.Handler[ExportAuditCommand]
}

// ExportHandlerOption customises the export handler.
type ExportHandlerOption = commands.HandlerOption[ExportAuditCommand]

// NewExportAuditHandler constructs a handler reading from log.
func NewExportAuditHandler(log AuditLog, logger interfaces.Logger, opts ...ExportHandlerOption) *ExportAuditHandler {
	baseLogger := logging.WithFields(commands.EnsureLogger(logger), map[string]any{
		"operation": "audit.export",
	})

	exec := func(ctx context.Context, msg ExportAuditCommand) error {
		events, err := log.List(ctx)
		if err != nil {
			return err
		}
		total := len(events)
		events = slices.DeleteFunc(events, func(event jobs.AuditEvent) bool {
			return !msg.matches(event)
		})
		if msg.MaxRecords != nil && *msg.MaxRecords < len(events) {
			events = events[:*msg.MaxRecords]
		}

		for idx, event := range events {
			logging.WithFields(baseLogger, map[string]any{
				"index":       idx,
				"handle_id":   event.HandleID.String(),
				"request_id":  event.RequestID.String(),
				"job_id":      event.JobID,
				"action":      event.Action,
				"actor":       event.Actor,
				"occurred_at": event.OccurredAt.Format(time.RFC3339),
				"metadata":    event.Metadata,
			}).Info("audit.command.export.event")
		}
		logging.WithFields(baseLogger, map[string]any{
			"exported": len(events),
			"total":    total,
		}).Info("audit.command.export.completed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[ExportAuditCommand]{
		commands.WithLogger[ExportAuditCommand](baseLogger),
		commands.WithOperation[ExportAuditCommand]("audit.export"),
	}
	return &ExportAuditHandler{
		inner: commands.NewHandler(exec, append(handlerOpts, opts...)...),
	}
}

// Execute satisfies command.Commander[ExportAuditCommand].
func (h *ExportAuditHandler) Execute(ctx context.Context, msg ExportAuditCommand) error {
	return h.inner.Execute(ctx, msg)
}

// CLIHandler satisfies command.CLICommand by returning the handler.
func (h *ExportAuditHandler) CLIHandler() any {
	return h
}

// CLIOptions describes the CLI metadata for audit export.
func (h *ExportAuditHandler) CLIOptions() command.CLIConfig {
	return command.CLIConfig{
		Path:        []string{"audit", "export"},
		Group:       "audit",
		Description: "Export scheduler audit events to the configured logger",
	}
}
