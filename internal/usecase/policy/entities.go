package policy

import (
	"time"

	domain "credential-approval/internal/domain/policy"
)

type SetPolicyInput struct {
	Actor             string
	Scope             string
	RequiredApprovals uint32
	Approvers         []string
	TimeoutSeconds    uint64
	Priority          string
	AutoExecute       bool
}

type PolicyDTO struct {
	Scope             string    `json:"scope"`
	RequiredApprovals uint32    `json:"required_approvals"`
	Approvers         []string  `json:"approvers"`
	TimeoutSeconds    uint64    `json:"timeout_seconds"`
	Priority          string    `json:"priority"`
	PriorityWeight    uint32    `json:"priority_weight"`
	AutoExecute       bool      `json:"auto_execute"`
	UpdatedBy         string    `json:"updated_by"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func toDTO(p *domain.Policy) *PolicyDTO {
	return &PolicyDTO{
		Scope:             p.Scope,
		RequiredApprovals: p.RequiredApprovals,
		Approvers:         append([]string{}, p.Approvers...),
		TimeoutSeconds:    p.TimeoutSeconds,
		Priority:          string(p.Priority),
		PriorityWeight:    p.Priority.Weight(),
		AutoExecute:       p.AutoExecute,
		UpdatedBy:         p.UpdatedBy,
		UpdatedAt:         p.UpdatedAt,
	}
}
