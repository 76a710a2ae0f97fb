package di

import (
	"errors"
	"strings"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-publication/internal/commands"
	auditcmd "github.com/goliatone/go-publication/internal/commands/audit"
	publicationcmd "github.com/goliatone/go-publication/internal/commands/publication"
	"github.com/goliatone/go-publication/pkg/interfaces"
)

// CommandRegistry records command handlers so hosts can expose them via CLI or cron.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CommandDispatcher subscribes command handlers to a dispatcher implementation.
type CommandDispatcher interface {
	RegisterCommand(handler any) (CommandSubscription, error)
}

// CommandSubscription allows hosts to tear down dispatcher subscriptions.
type CommandSubscription interface {
	Unsubscribe()
}

// CronRegistrar registers command handlers with a cron scheduler.
type CronRegistrar func(command.HandlerConfig, any) error

// RegistrationOptions configures how handlers are registered.
type RegistrationOptions struct {
	Registry       CommandRegistry
	Dispatcher     CommandDispatcher
	CronRegistrar  CronRegistrar
	LoggerProvider interfaces.LoggerProvider
	// ProcessJobsCron overrides the cron expression of the due job handler.
	ProcessJobsCron string
	// CommandOptions are applied to every workflow handler.
	CommandOptions []publicationcmd.Option
}

// RegistrationResult captures the constructed handlers and dispatcher subscriptions.
type RegistrationResult struct {
	Workflow      *publicationcmd.HandlerSet
	ProcessJobs   *auditcmd.ProcessDueJobsHandler
	ExportAudit   *auditcmd.ExportAuditHandler
	CleanupAudit  *auditcmd.CleanupAuditHandler
	Handlers      []any
	Subscriptions []CommandSubscription
}

// RegisterCommands builds the command handlers exposed by the container and
// registers them with the registry, dispatcher and cron integrations that
// are set in opts.
func (c *Container) RegisterCommands(opts RegistrationOptions) (*RegistrationResult, error) {
	if c == nil || c.service == nil {
		return &RegistrationResult{}, nil
	}
	cfg := c.Config

	provider := opts.LoggerProvider
	if provider == nil {
		provider = c.loggerProvider
	}

	if opts.Registry != nil && opts.CronRegistrar != nil {
		if reg, ok := opts.Registry.(interface {
			SetCronRegister(func(command.HandlerConfig, any) error) *command.Registry
		}); ok && reg != nil {
			reg.SetCronRegister(opts.CronRegistrar)
		}
	}

	result := &RegistrationResult{
		Handlers:      make([]any, 0),
		Subscriptions: make([]CommandSubscription, 0),
	}

	var errs error
	register := func(handler any) {
		if handler == nil {
			return
		}
		result.Handlers = append(result.Handlers, handler)

		if opts.Registry != nil {
			if err := opts.Registry.RegisterCommand(handler); err != nil {
				errs = errors.Join(errs, err)
			}
		}
		if opts.Dispatcher != nil {
			subscription, err := opts.Dispatcher.RegisterCommand(handler)
			if err != nil {
				errs = errors.Join(errs, err)
			} else if subscription != nil {
				result.Subscriptions = append(result.Subscriptions, subscription)
			}
		}
		if opts.CronRegistrar != nil {
			if cronCmd, ok := handler.(command.CronCommand); ok {
				if err := opts.CronRegistrar(cronCmd.CronOptions(), cronCmd.CronHandler()); err != nil {
					errs = errors.Join(errs, err)
				}
			}
		}
	}

	gates := publicationcmd.FeatureGates{
		RequestsEnabled:   func() bool { return cfg.Features.Requests },
		SchedulingEnabled: func() bool { return cfg.Features.Scheduling },
	}
	set, err := publicationcmd.RegisterPublicationCommands(nil, c.service, provider, gates, opts.CommandOptions...)
	if err != nil {
		return nil, err
	}
	result.Workflow = set
	for _, handler := range set.All() {
		register(handler)
	}

	if c.worker != nil {
		logger := commands.CommandLogger(provider, "scheduler")
		var processOpts []auditcmd.ProcessOption
		if expr := strings.TrimSpace(opts.ProcessJobsCron); expr != "" {
			processOpts = append(processOpts, auditcmd.ProcessWithCronExpression(expr))
		}
		result.ProcessJobs = auditcmd.NewProcessDueJobsHandler(c.worker, logger, processOpts...)
		register(result.ProcessJobs)
	}
	if c.audit != nil {
		logger := commands.CommandLogger(provider, "audit")
		result.ExportAudit = auditcmd.NewExportAuditHandler(c.audit, logger)
		result.CleanupAudit = auditcmd.NewCleanupAuditHandler(c.audit, logger, auditcmd.CleanupWithClock(c.clock))
		register(result.ExportAudit)
		register(result.CleanupAudit)
	}

	if errs != nil {
		for _, sub := range result.Subscriptions {
			sub.Unsubscribe()
		}
		result.Subscriptions = nil
		return result, errs
	}
	return result, nil
}
