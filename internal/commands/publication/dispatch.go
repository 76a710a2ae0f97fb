package publicationcmd

import (
	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-publication/internal/commands"
)

// Subscription is returned for every handler bound to the dispatcher.
type Subscription interface {
	Unsubscribe()
}

// Subscribe binds every handler in set to the process-wide go-command
// dispatcher so callers can use dispatcher.Dispatch with the messages of
// this package.
func Subscribe(set *HandlerSet) []Subscription {
	if set == nil {
		return nil
	}
	subs := make([]Subscription, 0, 19)
	subscribe(&subs, set.ObtainDraft)
	subscribe(&subs, set.SaveDraft)
	subscribe(&subs, set.CommitDraft)
	subscribe(&subs, set.DisposeDraft)
	subscribe(&subs, set.UnlockDraft)
	subscribe(&subs, set.Publish)
	subscribe(&subs, set.Depublish)
	subscribe(&subs, set.SchedulePublish)
	subscribe(&subs, set.ScheduleDepublish)
	subscribe(&subs, set.Delete)
	subscribe(&subs, set.Copy)
	subscribe(&subs, set.Move)
	subscribe(&subs, set.Rename)
	subscribe(&subs, set.RequestPublication)
	subscribe(&subs, set.RequestDepublication)
	subscribe(&subs, set.RequestDeletion)
	subscribe(&subs, set.AcceptRequest)
	subscribe(&subs, set.RejectRequest)
	subscribe(&subs, set.CancelRequest)
	return subs
}

func subscribe[T command.Message](subs *[]Subscription, handler *commands.Handler[T]) {
	if handler == nil {
		return
	}
	*subs = append(*subs, dispatcher.SubscribeCommand[T](handler))
}
