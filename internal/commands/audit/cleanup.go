package auditcmd

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-publication/internal/commands"
	"github.com/goliatone/go-publication/internal/jobs"
	"github.com/goliatone/go-publication/internal/logging"
	"github.com/goliatone/go-publication/pkg/interfaces"
)

const cleanupAuditMessageType = "publication.audit.cleanup"

// DefaultAuditRetention is how long cron triggered cleanups keep events.
const DefaultAuditRetention = 30 * 24 * time.Hour

// AuditPruner removes audit events past their retention.
type AuditPruner interface {
	AuditLog
	Prune(ctx context.Context, cutoff time.Time) (int, error)
}

// CleanupAuditCommand prunes scheduler audit events older than OlderThan.
// A zero OlderThan prunes everything recorded so far.
type CleanupAuditCommand struct {
	OlderThan time.Duration `json:"older_than,omitempty"`
	DryRun    bool          `json:"dry_run,omitempty"`
}

// Type implements command.Message.
func (CleanupAuditCommand) Type() string { return cleanupAuditMessageType }

// Validate satisfies command.Message.
func (m CleanupAuditCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.OlderThan, validation.Min(time.Duration(0)).Error("older_than must be zero or positive")),
	)
}

type cleanupConfig struct {
	cronConfig  command.HandlerConfig
	retention   time.Duration
	now         func() time.Time
	handlerOpts []commands.HandlerOption[CleanupAuditCommand]
}

// CleanupHandlerOption customises the cleanup handler.
type CleanupHandlerOption func(*cleanupConfig)

// CleanupWithCronExpression overrides the cron expression, "@daily" by default.
func CleanupWithCronExpression(expression string) CleanupHandlerOption {
	return func(cfg *cleanupConfig) {
		if trimmed := strings.TrimSpace(expression); trimmed != "" {
			cfg.cronConfig.Expression = trimmed
		}
	}
}

// CleanupWithRetention sets the age cron runs prune at.
func CleanupWithRetention(retention time.Duration) CleanupHandlerOption {
	return func(cfg *cleanupConfig) {
		if retention >= 0 {
			cfg.retention = retention
		}
	}
}

// CleanupWithClock overrides the clock cutoffs are computed from.
func CleanupWithClock(now func() time.Time) CleanupHandlerOption {
	return func(cfg *cleanupConfig) {
		if now != nil {
			cfg.now = now
		}
	}
}

// CleanupWithHandlerOptions forwards options to the wrapped command handler.
func CleanupWithHandlerOptions(opts ...commands.HandlerOption[CleanupAuditCommand]) CleanupHandlerOption {
	return func(cfg *cleanupConfig) {
		cfg.handlerOpts = append(cfg.handlerOpts, opts...)
	}
}

// CleanupAuditHandler prunes the audit trail of fired scheduled requests.
type CleanupAuditHandler struct {
	inner      *commands.Handler[CleanupAuditCommand]
	cronConfig command.HandlerConfig
	retention  time.Duration
}

// NewCleanupAuditHandler constructs a handler pruning pruner.
func NewCleanupAuditHandler(pruner AuditPruner, logger interfaces.Logger, opts ...CleanupHandlerOption) *CleanupAuditHandler {
	cfg := cleanupConfig{
		cronConfig: command.HandlerConfig{Expression: "@daily"},
		retention:  DefaultAuditRetention,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	baseLogger := logging.WithFields(commands.EnsureLogger(logger), map[string]any{
		"operation": "audit.cleanup",
	})

	exec := func(ctx context.Context, msg CleanupAuditCommand) error {
		cutoff := cfg.now().Add(-msg.OlderThan)
		if msg.DryRun {
			events, err := pruner.List(ctx)
			if err != nil {
				return err
			}
			expired := make([]jobs.AuditEvent, 0, len(events))
			for _, event := range events {
				if !event.OccurredAt.After(cutoff) {
					expired = append(expired, event)
				}
			}
			logging.WithFields(baseLogger, map[string]any{
				"dry_run":   true,
				"cutoff":    cutoff.Format(time.RFC3339),
				"expired":   len(expired),
				"by_action": countByAction(expired),
			}).Info("audit.command.cleanup.dry_run")
			return nil
		}

		removed, err := pruner.Prune(ctx, cutoff)
		if err != nil {
			return err
		}
		logging.WithFields(baseLogger, map[string]any{
			"cutoff":  cutoff.Format(time.RFC3339),
			"removed": removed,
		}).Info("audit.command.cleanup.removed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[CleanupAuditCommand]{
		commands.WithLogger[CleanupAuditCommand](baseLogger),
		commands.WithOperation[CleanupAuditCommand]("audit.cleanup"),
	}
	return &CleanupAuditHandler{
		inner:      commands.NewHandler(exec, append(handlerOpts, cfg.handlerOpts...)...),
		cronConfig: cfg.cronConfig,
		retention:  cfg.retention,
	}
}

// Execute satisfies command.Commander[CleanupAuditCommand].
func (h *CleanupAuditHandler) Execute(ctx context.Context, msg CleanupAuditCommand) error {
	return h.inner.Execute(ctx, msg)
}

// CronHandler prunes events older than the configured retention.
func (h *CleanupAuditHandler) CronHandler() func() error {
	return func() error {
		return h.Execute(context.Background(), CleanupAuditCommand{OlderThan: h.retention})
	}
}

// CronOptions satisfies command.CronCommand.
func (h *CleanupAuditHandler) CronOptions() command.HandlerConfig {
	return h.cronConfig
}

// CLIHandler exposes the cleanup handler to CLI integrations.
func (h *CleanupAuditHandler) CLIHandler() any {
	return h
}

// CLIOptions describes the CLI metadata for audit cleanup.
func (h *CleanupAuditHandler) CLIOptions() command.CLIConfig {
	return command.CLIConfig{
		Path:        []string{"audit", "cleanup"},
		Group:       "audit",
		Description: "Prune scheduler audit events past their retention",
	}
}

func countByAction(events []jobs.AuditEvent) map[string]int {
	counts := make(map[string]int)
	for _, event := range events {
		counts[event.Action]++
	}
	return counts
}
