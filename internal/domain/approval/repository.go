package approval

import (
	"context"
	"time"
)

type Repository interface {
	// Create inserts the request row only; votes are appended separately.
	Create(ctx context.Context, r *Request) error

	// GetByRequestID returns the request with votes in vote order.
	GetByRequestID(ctx context.Context, requestID string) (*Request, error)

	// Same as GetByRequestID but takes a row lock for the rest of the tx.
	GetByRequestIDForUpdate(ctx context.Context, requestID string) (*Request, error)

	// GetUnresolvedBySubject locks and returns the request still holding
	// subject, or ErrRequestNotFound.
	GetUnresolvedBySubject(ctx context.Context, subject string) (*Request, error)

	// Save updates the request row without touching votes.
	Save(ctx context.Context, r *Request) error

	AppendVote(ctx context.Context, v *Vote) error

	// ListOverdue returns ids of stored-Pending requests whose deadline is before now.
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]string, error)
}

// PendingIndex is the per-approver projection of requests awaiting a vote.
type PendingIndex interface {
	Add(ctx context.Context, requestID string, approvers []string) error
	Remove(ctx context.Context, requestID, actor string) error
	Clear(ctx context.Context, requestID string) error

	// ListFor returns ids still Pending and not past their deadline at now,
	// oldest first.
	ListFor(ctx context.Context, actor string, now time.Time) ([]string, error)
}

// Table: approval_pending
type PendingEntry struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	Actor     string    `gorm:"column:actor;size:64;not null;uniqueIndex:ux_pending_actor_request,priority:1"`
	RequestID string    `gorm:"column:request_id;type:char(64);not null;uniqueIndex:ux_pending_actor_request,priority:2;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (PendingEntry) TableName() string { return "approval_pending" }
