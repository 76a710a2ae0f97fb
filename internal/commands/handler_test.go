package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	command "github.com/goliatone/go-command"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

type testMessage struct{}

func (testMessage) Type() string { return "publication.test.message" }

func (testMessage) Validate() error { return nil }

type targetedMessage struct {
	handle uuid.UUID
	actor  string
}

func (targetedMessage) Type() string { return "publication.test.targeted" }

func (targetedMessage) Validate() error { return nil }

func (m targetedMessage) TargetHandle() uuid.UUID { return m.handle }

func (m targetedMessage) TargetActor() string { return m.actor }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "publication.test.invalid" }

func (invalidMessage) Validate() error {
	return validationError()
}

func validationError() error {
	return errors.New("invalid")
}

func TestHandlerExecuteSuccess(t *testing.T) {
	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	if err := h.Execute(context.Background(), testMessage{}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !called {
		t.Fatal("expected handler to be invoked")
	}
}

func TestHandlerValidationShortCircuitsExecution(t *testing.T) {
	called := false
	h := NewHandler[invalidMessage](func(ctx context.Context, msg invalidMessage) error {
		called = true
		return nil
	})

	err := h.Execute(context.Background(), invalidMessage{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when validation fails")
	}
}

func TestHandlerContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		called = true
		return nil
	})

	err := h.Execute(ctx, testMessage{})
	if err == nil {
		t.Fatal("expected context cancellation error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if called {
		t.Fatal("expected handler not to run when context is cancelled")
	}
}

func TestHandlerWrapsExecutionError(t *testing.T) {
	execErr := errors.New("boom")
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		return execErr
	})

	err := h.Execute(context.Background(), testMessage{})
	if err == nil {
		t.Fatal("expected wrapped execution error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if !goerrors.HasCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category to propagate, got %v", err)
	}
}

func TestHandlerHonoursTimeoutOption(t *testing.T) {
	h := NewHandler[testMessage](func(ctx context.Context, msg testMessage) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(20 * time.Millisecond):
			return nil
		}
	}, WithTimeout[testMessage](10*time.Millisecond))

	err := h.Execute(context.Background(), testMessage{})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category for timeout, got %v", err)
	}
}

func TestHandlerReportsTelemetry(t *testing.T) {
	tick := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		tick = tick.Add(250 * time.Millisecond)
		return tick
	}

	cases := []struct {
		name   string
		exec   command.CommandFunc[testMessage]
		status TelemetryStatus
	}{
		{name: "success", exec: func(context.Context, testMessage) error { return nil }, status: TelemetryStatusSuccess},
		{name: "failure", exec: func(context.Context, testMessage) error { return errors.New("boom") }, status: TelemetryStatusFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got []TelemetryInfo
			h := NewHandler(tc.exec,
				WithOperation[testMessage]("publication.publish"),
				WithHandlerClock[testMessage](clock),
				WithTelemetry(func(_ context.Context, _ testMessage, info TelemetryInfo) {
					got = append(got, info)
				}),
			)
			_ = h.Execute(context.Background(), testMessage{})

			if len(got) != 1 {
				t.Fatalf("expected one telemetry callback, got %d", len(got))
			}
			info := got[0]
			if info.Status != tc.status {
				t.Fatalf("expected status %s, got %s", tc.status, info.Status)
			}
			if info.Command != "publication.test.message" || info.Operation != "publication.publish" {
				t.Fatalf("unexpected telemetry identity: %+v", info)
			}
			if info.Duration != 250*time.Millisecond {
				t.Fatalf("expected duration 250ms, got %s", info.Duration)
			}
		})
	}
}

func TestHandlerSkipsTelemetryOnValidationFailure(t *testing.T) {
	calls := 0
	h := NewHandler(func(context.Context, invalidMessage) error { return nil },
		WithTelemetry(func(context.Context, invalidMessage, TelemetryInfo) { calls++ }),
	)
	if err := h.Execute(context.Background(), invalidMessage{}); err == nil {
		t.Fatal("expected validation error")
	}
	if calls != 0 {
		t.Fatalf("expected no telemetry for rejected messages, got %d", calls)
	}
}

func TestTimeoutForOperation(t *testing.T) {
	cases := map[string]time.Duration{
		"publication.publish":        DefaultCommandTimeout,
		"publication.delete":         RelocationCommandTimeout,
		"publication.request.accept": RelocationCommandTimeout,
		"scheduler.process":          BatchCommandTimeout,
		"audit.cleanup":              BatchCommandTimeout,
		"":                           DefaultCommandTimeout,
	}
	for operation, want := range cases {
		if got := TimeoutFor(operation); got != want {
			t.Fatalf("TimeoutFor(%q) = %s, want %s", operation, got, want)
		}
	}

	h := NewHandler(func(context.Context, testMessage) error { return nil },
		WithOperation[testMessage]("publication.move"),
	)
	if h.timeout != RelocationCommandTimeout {
		t.Fatalf("expected operation timeout, got %s", h.timeout)
	}
	disabled := NewHandler(func(context.Context, testMessage) error { return nil },
		WithOperation[testMessage]("publication.move"),
		WithTimeout[testMessage](0),
	)
	if disabled.timeout != 0 {
		t.Fatalf("explicit zero timeout must win, got %s", disabled.timeout)
	}
}

func TestWithCommandTimeoutKeepsSoonerDeadline(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	want, _ := parent.Deadline()

	ctx, release := WithCommandTimeout(parent, time.Hour)
	defer release()
	got, ok := ctx.Deadline()
	if !ok || !got.Equal(want) {
		t.Fatalf("expected parent deadline %s, got %s", want, got)
	}
}

func TestHandlerTelemetryCarriesTarget(t *testing.T) {
	handle := uuid.New()
	var fields map[string]any
	h := NewHandler(func(context.Context, targetedMessage) error { return nil },
		WithOperation[targetedMessage]("publication.publish"),
		WithTelemetry(func(_ context.Context, _ targetedMessage, info TelemetryInfo) {
			fields = info.Fields
		}),
	)
	if err := h.Execute(context.Background(), targetedMessage{handle: handle, actor: " alice "}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if fields["handle_id"] != handle.String() || fields["actor"] != "alice" {
		t.Fatalf("expected target fields, got %v", fields)
	}
	if fields["command"] != "publication.test.targeted" || fields["operation"] != "publication.publish" {
		t.Fatalf("unexpected identity fields %v", fields)
	}
}
