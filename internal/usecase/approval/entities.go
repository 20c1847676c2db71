package approval

import (
	"time"

	domain "credential-approval/internal/domain/approval"
	"credential-approval/internal/domain/audit"
	"credential-approval/internal/domain/credential"
)

// SystemActor is recorded for transitions nobody asked for, such as the expiry sweep.
const SystemActor = "system"

type CreateInput struct {
	Requester string
	Params    credential.MintParams
	Reason    string
}

type VoteInput struct {
	Actor     string
	RequestID string
	Approved  bool
	Comment   string
	Evidence  *string // opaque 64-hex hash, carried not verified
}

type ExecuteInput struct {
	Actor     string
	RequestID string
}

type VoteDTO struct {
	Actor    string    `json:"actor"`
	Approved bool      `json:"approved"`
	Comment  string    `json:"comment,omitempty"`
	Evidence *string   `json:"evidence,omitempty"`
	VotedAt  time.Time `json:"voted_at"`
}

type RequestDTO struct {
	RequestID         string                `json:"request_id"`
	Scope             string                `json:"scope"`
	Subject           string                `json:"subject"`
	Requester         string                `json:"requester"`
	Reason            string                `json:"reason"`
	Params            credential.MintParams `json:"params"`
	RequiredApprovals uint32                `json:"required_approvals"`
	CurrentApprovals  uint32                `json:"current_approvals"`
	Approvers         []string              `json:"approvers"`
	AutoExecute       bool                  `json:"auto_execute"`
	Priority          string                `json:"priority"`
	Status            domain.Status         `json:"status"`
	Votes             []VoteDTO             `json:"votes"`
	CreatedAt         time.Time             `json:"created_at"`
	ExpiresAt         time.Time             `json:"expires_at"`
	ResolvedAt        *time.Time            `json:"resolved_at,omitempty"`
	ExecutedAt        *time.Time            `json:"executed_at,omitempty"`
}

type VoteResult struct {
	RequestID         string        `json:"request_id"`
	Status            domain.Status `json:"status"`
	CurrentApprovals  uint32        `json:"current_approvals"`
	RequiredApprovals uint32        `json:"required_approvals"`
}

type AuditTrailDTO struct {
	RequestID string        `json:"request_id"`
	Entries   []audit.Entry `json:"entries"`
	Verified  bool          `json:"verified"`
}

// toDTO renders req as a reader at now sees it.
func toDTO(req *domain.Request, now time.Time) (*RequestDTO, error) {
	params, err := req.Params()
	if err != nil {
		return nil, err
	}
	votes := make([]VoteDTO, 0, len(req.Votes))
	for _, v := range req.Votes {
		votes = append(votes, VoteDTO{Actor: v.Actor, Approved: v.Approved, Comment: v.Comment, Evidence: v.Evidence, VotedAt: v.VotedAt})
	}
	return &RequestDTO{
		RequestID:         req.RequestID,
		Scope:             req.Scope,
		Subject:           req.Subject,
		Requester:         req.Requester,
		Reason:            req.Reason,
		Params:            params,
		RequiredApprovals: req.RequiredApprovals,
		CurrentApprovals:  req.CurrentApprovals,
		Approvers:         append([]string{}, req.Approvers...),
		AutoExecute:       req.AutoExecute,
		Priority:          string(req.Priority),
		Status:            req.EffectiveStatus(now),
		Votes:             votes,
		CreatedAt:         req.CreatedAt,
		ExpiresAt:         req.ExpiresAt,
		ResolvedAt:        req.ResolvedAt,
		ExecutedAt:        req.ExecutedAt,
	}, nil
}
