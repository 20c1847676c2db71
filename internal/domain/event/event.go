package event

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const CategoryWorkflow = "workflow"

const (
	ActionRequestCreated  = "request_created"
	ActionApprovalGranted = "approval_granted"
	ActionRequestRejected = "request_rejected"
	ActionRequestApproved = "request_approved"
	ActionRequestExpired  = "request_expired"
	ActionRequestExecuted = "request_executed"
	ActionExecutionFailed = "execution_failed"
	ActionConfigUpdated   = "config_updated"
)

// Event is the observability record emitted for each workflow transition.
type Event struct {
	ID        string    `json:"id"`
	Category  string    `json:"category"`
	Action    string    `json:"action"`
	RequestID string    `json:"request_id"`
	Actor     string    `json:"actor"`
	Scope     string    `json:"scope,omitempty"`
	Status    string    `json:"status,omitempty"`
	At        time.Time `json:"at"`
}

func New(action, requestID, actor string, at time.Time) Event {
	return Event{
		ID:        uuid.NewString(),
		Category:  CategoryWorkflow,
		Action:    action,
		RequestID: requestID,
		Actor:     actor,
		At:        at.UTC(),
	}
}

type Sink interface {
	Publish(ctx context.Context, ev Event) error
}
