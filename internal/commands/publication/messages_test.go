package publicationcmd

import (
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

func TestMessagesValidate(t *testing.T) {
	target := Target{HandleID: uuid.New(), Actor: "alice"}
	at := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	before := at.Add(-time.Hour)
	var zero time.Time

	cases := []struct {
		name   string
		msg    interface{ Validate() error }
		fields []string
	}{
		{name: "publish ok", msg: PublishCommand{Target: target}},
		{name: "publish missing target", msg: PublishCommand{}, fields: []string{"handle_id", "actor"}},
		{name: "blank actor", msg: DeleteCommand{Target: Target{HandleID: target.HandleID, Actor: "  "}}, fields: []string{"actor"}},
		{name: "save without content", msg: SaveDraftCommand{Target: target}, fields: []string{"content"}},
		{name: "save ok", msg: SaveDraftCommand{Target: target, Content: map[string]any{}}},
		{name: "schedule without date", msg: SchedulePublishCommand{Target: target}, fields: []string{"at"}},
		{name: "schedule end before start", msg: SchedulePublishCommand{Target: target, At: at, Until: &before}, fields: []string{"until"}},
		{name: "schedule depublish ok", msg: ScheduleDepublishCommand{Target: target, At: at}},
		{name: "copy needs destination and name", msg: CopyCommand{Target: target}, fields: []string{"destination", "new_name"}},
		{name: "move name optional", msg: MoveCommand{Target: target, Destination: "/archive"}},
		{name: "rename needs name", msg: RenameCommand{Target: target}, fields: []string{"new_name"}},
		{name: "request zero date", msg: RequestPublicationCommand{Target: target, At: &zero}, fields: []string{"at"}},
		{name: "request depublish ok", msg: RequestDepublicationCommand{Target: target}},
		{name: "accept needs request", msg: AcceptRequestCommand{Target: target}, fields: []string{"request_id"}},
		{name: "reject ok", msg: RejectRequestCommand{Target: target, RequestID: uuid.New(), Reason: "typo"}},
		{name: "cancel needs request", msg: CancelRequestCommand{Target: target}, fields: []string{"request_id"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.msg.Validate()
			if len(tc.fields) == 0 {
				if err != nil {
					t.Fatalf("expected valid message, got %v", err)
				}
				return
			}
			errs, ok := err.(validation.Errors)
			if !ok {
				t.Fatalf("expected validation.Errors, got %T (%v)", err, err)
			}
			if len(errs) != len(tc.fields) {
				t.Fatalf("expected %d field errors, got %v", len(tc.fields), errs)
			}
			for _, field := range tc.fields {
				if _, ok := errs[field]; !ok {
					t.Fatalf("expected error for %s, got %v", field, errs)
				}
			}
		})
	}
}

func TestMessageTypesAreUnique(t *testing.T) {
	types := []string{
		ObtainDraftCommand{}.Type(), SaveDraftCommand{}.Type(), CommitDraftCommand{}.Type(),
		DisposeDraftCommand{}.Type(), UnlockDraftCommand{}.Type(), PublishCommand{}.Type(),
		DepublishCommand{}.Type(), SchedulePublishCommand{}.Type(), ScheduleDepublishCommand{}.Type(),
		DeleteCommand{}.Type(), CopyCommand{}.Type(), MoveCommand{}.Type(), RenameCommand{}.Type(),
		RequestPublicationCommand{}.Type(), RequestDepublicationCommand{}.Type(), RequestDeletionCommand{}.Type(),
		AcceptRequestCommand{}.Type(), RejectRequestCommand{}.Type(), CancelRequestCommand{}.Type(),
	}
	seen := make(map[string]bool, len(types))
	for _, typ := range types {
		if seen[typ] {
			t.Fatalf("duplicate message type %q", typ)
		}
		seen[typ] = true
	}
}
