package auditcmd

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-publication/internal/commands"
	"github.com/goliatone/go-publication/internal/logging"
	"github.com/goliatone/go-publication/pkg/interfaces"
)

const processDueJobsMessageType = "publication.scheduler.process"

// Worker exposes the subset of jobs.Worker behaviour required by the scheduler commands.
type Worker interface {
	Process(ctx context.Context) error
}

// ProcessDueJobsCommand fires every scheduled request that is due.
type ProcessDueJobsCommand struct{}

// Type implements command.Message.
func (ProcessDueJobsCommand) Type() string { return processDueJobsMessageType }

// Validate satisfies command.Message.
func (ProcessDueJobsCommand) Validate() error {
	return validation.ValidateStruct(&ProcessDueJobsCommand{})
}

// ProcessDueJobsHandler runs one worker pass. Hosts that do not run the
// worker loop can bind it to cron instead.
type ProcessDueJobsHandler struct {
	inner      *commands.Handler[ProcessDueJobsCommand]
	cronConfig command.HandlerConfig
}

// ProcessOption customises the process handler.
type ProcessOption func(*processConfig)

type processConfig struct {
	cronConfig  command.HandlerConfig
	handlerOpts []commands.HandlerOption[ProcessDueJobsCommand]
}

// ProcessWithCronExpression overrides the cron expression, "@every 1m" by default.
func ProcessWithCronExpression(expression string) ProcessOption {
	return func(cfg *processConfig) {
		if trimmed := strings.TrimSpace(expression); trimmed != "" {
			cfg.cronConfig.Expression = trimmed
		}
	}
}

// ProcessWithHandlerOptions forwards options to the wrapped command handler.
func ProcessWithHandlerOptions(opts ...commands.HandlerOption[ProcessDueJobsCommand]) ProcessOption {
	return func(cfg *processConfig) {
		cfg.handlerOpts = append(cfg.handlerOpts, opts...)
	}
}

// NewProcessDueJobsHandler constructs a handler that delegates to worker.
func NewProcessDueJobsHandler(worker Worker, logger interfaces.Logger, opts ...ProcessOption) *ProcessDueJobsHandler {
	cfg := processConfig{
		cronConfig: command.HandlerConfig{Expression: "@every 1m"},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, _ ProcessDueJobsCommand) error {
		if err := worker.Process(ctx); err != nil {
			return err
		}
		logging.WithFields(baseLogger, map[string]any{
			"operation": "scheduler.process",
		}).Debug("scheduler.command.process.completed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[ProcessDueJobsCommand]{
		commands.WithLogger[ProcessDueJobsCommand](baseLogger),
		commands.WithOperation[ProcessDueJobsCommand]("scheduler.process"),
	}
	handlerOpts = append(handlerOpts, cfg.handlerOpts...)

	return &ProcessDueJobsHandler{
		inner:      commands.NewHandler(exec, handlerOpts...),
		cronConfig: cfg.cronConfig,
	}
}

// Execute satisfies command.Commander[ProcessDueJobsCommand].
func (h *ProcessDueJobsHandler) Execute(ctx context.Context, msg ProcessDueJobsCommand) error {
	return h.inner.Execute(ctx, msg)
}

// CronHandler satisfies command.CronCommand.
func (h *ProcessDueJobsHandler) CronHandler() func() error {
	return func() error {
		return h.Execute(context.Background(), ProcessDueJobsCommand{})
	}
}

// CronOptions satisfies command.CronCommand.
func (h *ProcessDueJobsHandler) CronOptions() command.HandlerConfig {
	return h.cronConfig
}

// CLIHandler exposes the handler to CLI integrations.
func (h *ProcessDueJobsHandler) CLIHandler() any {
	return h
}

// CLIOptions describes the CLI metadata for a worker pass.
func (h *ProcessDueJobsHandler) CLIOptions() command.CLIConfig {
	return command.CLIConfig{
		Path:        []string{"scheduler", "process"},
		Group:       "scheduler",
		Description: "Fire scheduled publication requests that are due",
	}
}
