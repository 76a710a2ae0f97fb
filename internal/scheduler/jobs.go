package scheduler

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-publication/internal/domain"
	"github.com/goliatone/go-publication/pkg/interfaces"
	"github.com/google/uuid"
)

// JobTypeRequestFire fires a scheduled publication request.
const JobTypeRequestFire = "publication.request.fire"

const (
	payloadHandle  = "handle_id"
	payloadRequest = "request_id"
	payloadType    = "request_type"
	payloadOwner   = "owner"
)

// ErrInvalidPayload reports a job payload that does not describe a trigger.
var ErrInvalidPayload = errors.New("scheduler: invalid job payload")

// RequestJobKey derives the unique job key of a request. Scheduling the same
// request twice replaces the earlier job.
func RequestJobKey(request uuid.UUID) string {
	return "request:" + request.String() + ":fire"
}

// EncodeTrigger renders a trigger as a job payload of plain strings so it
// survives JSON persistence.
func EncodeTrigger(trigger interfaces.ScheduledTrigger) map[string]any {
	return map[string]any{
		payloadHandle:  trigger.HandleID.String(),
		payloadRequest: trigger.RequestID.String(),
		payloadType:    string(trigger.Type),
		payloadOwner:   trigger.Owner,
	}
}

// DecodeTrigger reverses EncodeTrigger.
func DecodeTrigger(payload map[string]any) (interfaces.ScheduledTrigger, error) {
	handle, err := payloadUUID(payload, payloadHandle)
	if err != nil {
		return interfaces.ScheduledTrigger{}, err
	}
	request, err := payloadUUID(payload, payloadRequest)
	if err != nil {
		return interfaces.ScheduledTrigger{}, err
	}
	kind, _ := payload[payloadType].(string)
	owner, _ := payload[payloadOwner].(string)
	return interfaces.ScheduledTrigger{
		HandleID:  handle,
		RequestID: request,
		Type:      domain.NormalizeRequestType(kind),
		Owner:     owner,
	}, nil
}

func payloadUUID(payload map[string]any, key string) (uuid.UUID, error) {
	raw, ok := payload[key].(string)
	if !ok || raw == "" {
		return uuid.Nil, fmt.Errorf("%w: missing %s", ErrInvalidPayload, key)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, key, err)
	}
	return id, nil
}
