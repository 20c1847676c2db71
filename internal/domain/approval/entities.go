package approval

import (
	"encoding/json"
	"slices"
	"time"

	"credential-approval/internal/domain/credential"
	"credential-approval/internal/domain/policy"

	"gorm.io/datatypes"
)

type Status string

const (
	StatusPending         Status = "pending"
	StatusApproved        Status = "approved"
	StatusRejected        Status = "rejected"
	StatusExpired         Status = "expired"
	StatusExecuted        Status = "executed"
	StatusExecutionFailed Status = "execution_failed"
)

// Terminal states never change again.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusExpired || s == StatusExecuted
}

// Unresolved states still hold the subject: a second request for the same
// subject is refused while one of these exists.
var Unresolved = []Status{StatusPending, StatusApproved, StatusExecutionFailed}

// Table: approval_votes. A vote is immutable once inserted.
type Vote struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	RequestID string    `gorm:"column:request_id;type:char(64);not null;uniqueIndex:ux_votes_request_actor,priority:1" json:"-"`
	Actor     string    `gorm:"column:actor;size:64;not null;uniqueIndex:ux_votes_request_actor,priority:2" json:"actor"`
	Seq       uint32    `gorm:"column:seq;not null" json:"seq"`
	Approved  bool      `gorm:"column:approved;not null" json:"approved"`
	Evidence  *string   `gorm:"column:evidence;type:char(64)" json:"evidence,omitempty"`
	Comment   string    `gorm:"column:comment;size:500" json:"comment"`
	VotedAt   time.Time `gorm:"column:voted_at;not null" json:"voted_at"`
}

func (Vote) TableName() string { return "approval_votes" }

// Table: approval_requests
type Request struct {
	ID                uint64                      `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	RequestID         string                      `gorm:"column:request_id;type:char(64);not null;uniqueIndex:ux_requests_request_id" json:"request_id"`
	Scope             string                      `gorm:"column:scope;size:100;not null;index" json:"scope"`
	Subject           string                      `gorm:"column:subject;size:64;not null;index:idx_requests_subject_status,priority:1" json:"subject"`
	Payload           datatypes.JSON              `gorm:"column:payload;not null" json:"payload"`
	Requester         string                      `gorm:"column:requester;size:64;not null" json:"requester"`
	Reason            string                      `gorm:"column:reason;size:500" json:"reason"`
	RequiredApprovals uint32                      `gorm:"column:required_approvals;not null" json:"required_approvals"`
	CurrentApprovals  uint32                      `gorm:"column:current_approvals;not null;default:0" json:"current_approvals"`
	Approvers         datatypes.JSONSlice[string] `gorm:"column:approvers;not null" json:"approvers"`
	AutoExecute       bool                        `gorm:"column:auto_execute;not null" json:"auto_execute"`
	Priority          policy.Priority             `gorm:"column:priority;size:16;not null" json:"priority"`
	Status            Status                      `gorm:"column:status;size:20;not null;index:idx_requests_subject_status,priority:2;index:idx_requests_status_expires,priority:1" json:"status"`
	CreatedAt         time.Time                   `gorm:"column:created_at;not null" json:"created_at"`
	ExpiresAt         time.Time                   `gorm:"column:expires_at;not null;index:idx_requests_status_expires,priority:2" json:"expires_at"`
	ResolvedAt        *time.Time                  `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
	ExecutedAt        *time.Time                  `gorm:"column:executed_at" json:"executed_at,omitempty"`
	UpdatedAt         time.Time                   `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	Votes             []Vote                      `gorm:"foreignKey:RequestID;references:RequestID" json:"votes"`
}

func (Request) TableName() string { return "approval_requests" }

// NewRequest snapshots the policy into a Pending request created at now.
// The id is left for the caller to derive.
func NewRequest(pol *policy.Policy, params credential.MintParams, requester, reason string, now time.Time) (*Request, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	now = now.UTC()
	return &Request{
		Scope:             params.Scope(),
		Subject:           params.Subject(),
		Payload:           datatypes.JSON(raw),
		Requester:         requester,
		Reason:            reason,
		RequiredApprovals: pol.RequiredApprovals,
		Approvers:         slices.Clone(pol.Approvers),
		AutoExecute:       pol.AutoExecute,
		Priority:          pol.Priority,
		Status:            StatusPending,
		CreatedAt:         now,
		ExpiresAt:         now.Add(pol.Timeout()),
		Votes:             []Vote{},
	}, nil
}

// Params decodes the gated payload.
func (r *Request) Params() (credential.MintParams, error) {
	var p credential.MintParams
	err := json.Unmarshal(r.Payload, &p)
	return p, err
}

func (r *Request) IsApprover(actor string) bool { return slices.Contains(r.Approvers, actor) }

func (r *Request) HasVoted(actor string) bool {
	for _, v := range r.Votes {
		if v.Actor == actor {
			return true
		}
	}
	return false
}

// Overdue reports whether the deadline has passed at now.
func (r *Request) Overdue(now time.Time) bool { return now.After(r.ExpiresAt) }

// EffectiveStatus is the status a reader should see: a Pending request past
// its deadline is Expired even before anyone writes that down.
func (r *Request) EffectiveStatus(now time.Time) Status {
	if r.Status == StatusPending && r.Overdue(now) {
		return StatusExpired
	}
	return r.Status
}
