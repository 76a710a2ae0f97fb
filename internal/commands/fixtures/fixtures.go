// Package fixtures provides recording doubles for the command registration
// contracts exposed by the di container.
package fixtures

import (
	"sync"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-publication/internal/di"
)

// RecordingRegistry captures command handlers registered through DI.
type RecordingRegistry struct {
	mu       sync.Mutex
	Handlers []any
	Err      error
}

func NewRecordingRegistry() *RecordingRegistry {
	return &RecordingRegistry{Handlers: make([]any, 0)}
}

// RegisterCommand satisfies di.CommandRegistry.
func (r *RecordingRegistry) RegisterCommand(handler any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Handlers = append(r.Handlers, handler)
	return nil
}

// Count reports how many handlers were recorded.
func (r *RecordingRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Handlers)
}

// CronRegistration captures a single cron wiring invocation.
type CronRegistration struct {
	Config  command.HandlerConfig
	Handler any
}

// CronRecorder records calls to a di.CronRegistrar.
type CronRecorder struct {
	Registrations []CronRegistration
	err           error
}

func NewCronRecorder() *CronRecorder {
	return &CronRecorder{Registrations: make([]CronRegistration, 0)}
}

// Fail makes every following registration return err.
func (c *CronRecorder) Fail(err error) {
	c.err = err
}

// Registrar returns a di.CronRegistrar that records invocations.
func (c *CronRecorder) Registrar() di.CronRegistrar {
	return func(cfg command.HandlerConfig, handler any) error {
		if c.err != nil {
			return c.err
		}
		c.Registrations = append(c.Registrations, CronRegistration{Config: cfg, Handler: handler})
		return nil
	}
}

// RecordingDispatcher captures handlers registered with a dispatcher.
type RecordingDispatcher struct {
	Handlers      []any
	Subscriptions []*RecordingSubscription
	Err           error
}

func NewRecordingDispatcher() *RecordingDispatcher {
	return &RecordingDispatcher{
		Handlers:      make([]any, 0),
		Subscriptions: make([]*RecordingSubscription, 0),
	}
}

// RegisterCommand satisfies di.CommandDispatcher.
func (d *RecordingDispatcher) RegisterCommand(handler any) (di.CommandSubscription, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	d.Handlers = append(d.Handlers, handler)
	sub := &RecordingSubscription{Handler: handler}
	d.Subscriptions = append(d.Subscriptions, sub)
	return sub, nil
}

// RecordingSubscription tracks unsubscribe calls.
type RecordingSubscription struct {
	Handler      any
	Unsubscribed bool
}

func (s *RecordingSubscription) Unsubscribe() {
	s.Unsubscribed = true
}
