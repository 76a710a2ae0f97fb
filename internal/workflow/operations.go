package workflow

// Operation names a lifecycle operation understood by the workflow.
type Operation string

const (
	OpEdit                 Operation = "edit"
	OpSave                 Operation = "save"
	OpCommit               Operation = "commit"
	OpDispose              Operation = "dispose"
	OpPublish              Operation = "publish"
	OpSchedulePublish      Operation = "schedulePublish"
	OpDepublish            Operation = "depublish"
	OpScheduleDepublish    Operation = "scheduleDepublish"
	OpDelete               Operation = "delete"
	OpRename               Operation = "rename"
	OpMove                 Operation = "move"
	OpCopy                 Operation = "copy"
	OpRequestPublication   Operation = "requestPublication"
	OpRequestDepublication Operation = "requestDepublication"
	OpRequestDeletion      Operation = "requestDeletion"
	OpCancelRequest        Operation = "cancelRequest"
	OpAcceptRequest        Operation = "acceptRequest"
	OpRejectRequest        Operation = "rejectRequest"
	OpUnlock               Operation = "unlock"
)

// Operations lists every operation in the catalogue, in a stable order.
func Operations() []Operation {
	return []Operation{
		OpEdit,
		OpSave,
		OpCommit,
		OpDispose,
		OpPublish,
		OpSchedulePublish,
		OpDepublish,
		OpScheduleDepublish,
		OpDelete,
		OpRename,
		OpMove,
		OpCopy,
		OpRequestPublication,
		OpRequestDepublication,
		OpRequestDeletion,
		OpCancelRequest,
		OpAcceptRequest,
		OpRejectRequest,
		OpUnlock,
	}
}

// Predicate names the guard condition that failed.
type Predicate string

const (
	PredicateDraftInUse         Predicate = "draftInUse"
	PredicateDraftMissing       Predicate = "draftMissing"
	PredicateNotDraftOwner      Predicate = "notDraftOwner"
	PredicateNothingToPublish   Predicate = "nothingToPublish"
	PredicatePublishedMissing   Predicate = "publishedMissing"
	PredicateRequestPending     Predicate = "requestPending"
	PredicateLive               Predicate = "live"
	PredicateEditing            Predicate = "editing"
	PredicateNoCopySource       Predicate = "noCopySource"
	PredicateNoPendingRequest   Predicate = "noPendingRequest"
	PredicateNotRequestOwner    Predicate = "notRequestOwner"
	PredicateDraftNotHeld       Predicate = "draftNotHeld"
	PredicateRequestsDisabled   Predicate = "requestsDisabled"
	PredicateSchedulingDisabled Predicate = "schedulingDisabled"
)

func (p Predicate) describe() string {
	switch p {
	case PredicateDraftInUse:
		return "document is being edited by another user"
	case PredicateDraftMissing:
		return "document has no draft"
	case PredicateNotDraftOwner:
		return "draft is held by another user"
	case PredicateNothingToPublish:
		return "document has no unpublished or offline variant"
	case PredicatePublishedMissing:
		return "document has no published variant"
	case PredicateRequestPending:
		return "document has a pending request"
	case PredicateLive:
		return "document is live"
	case PredicateEditing:
		return "document is being edited"
	case PredicateNoCopySource:
		return "document has no unpublished or published variant"
	case PredicateNoPendingRequest:
		return "document has no pending request"
	case PredicateNotRequestOwner:
		return "request belongs to another user"
	case PredicateDraftNotHeld:
		return "draft is not held by anyone"
	case PredicateRequestsDisabled:
		return "requests are disabled"
	case PredicateSchedulingDisabled:
		return "scheduling is disabled"
	default:
		return string(p)
	}
}
