package policy

import (
	"errors"
	"sort"
	"strings"
	"time"

	"gorm.io/datatypes"
)

var (
	ErrPolicyNotFound    = errors.New("approval policy not found")
	ErrInvalidThreshold  = errors.New("required approvals must be between 1 and the number of approvers")
	ErrTimeoutOutOfRange = errors.New("timeout out of range")
	ErrInvalidPriority   = errors.New("invalid priority")
)

type Priority string

const (
	PriorityStandard      Priority = "standard"
	PriorityPremium       Priority = "premium"
	PriorityEnterprise    Priority = "enterprise"
	PriorityInstitutional Priority = "institutional"
)

// Weight is informational only; nothing in the workflow enforces it.
func (p Priority) Weight() uint32 {
	switch p {
	case PriorityPremium:
		return 2
	case PriorityEnterprise:
		return 3
	case PriorityInstitutional:
		return 5
	default:
		return 1
	}
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityStandard, PriorityPremium, PriorityEnterprise, PriorityInstitutional:
		return true
	}
	return false
}

// Bounds limits the timeout window a policy may configure, in seconds.
type Bounds struct {
	MinTimeout uint64
	MaxTimeout uint64
}

var DefaultBounds = Bounds{MinTimeout: 3600, MaxTimeout: 30 * 24 * 3600}

// Table: approval_policies, one row per scope.
type Policy struct {
	ID                uint64                      `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	Scope             string                      `gorm:"column:scope;size:100;not null;uniqueIndex:ux_policies_scope" json:"scope"`
	RequiredApprovals uint32                      `gorm:"column:required_approvals;not null" json:"required_approvals"`
	Approvers         datatypes.JSONSlice[string] `gorm:"column:approvers;not null" json:"approvers"`
	TimeoutSeconds    uint64                      `gorm:"column:timeout_seconds;not null" json:"timeout_seconds"`
	Priority          Priority                    `gorm:"column:priority;size:16;not null;default:'standard'" json:"priority"`
	AutoExecute       bool                        `gorm:"column:auto_execute;not null;default:false" json:"auto_execute"`
	UpdatedBy         string                      `gorm:"column:updated_by;size:64" json:"updated_by"`
	CreatedAt         time.Time                   `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time                   `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Policy) TableName() string { return "approval_policies" }

// NormalizeApprovers trims, drops blanks, de-duplicates and sorts, since the
// approver set has no order.
func NormalizeApprovers(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, a := range in {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// Validate checks threshold, timeout and priority. Approvers are expected to be normalized.
func (p *Policy) Validate(b Bounds) error {
	if p.RequiredApprovals == 0 || int(p.RequiredApprovals) > len(p.Approvers) {
		return ErrInvalidThreshold
	}
	if p.TimeoutSeconds < b.MinTimeout || p.TimeoutSeconds > b.MaxTimeout {
		return ErrTimeoutOutOfRange
	}
	if p.Priority == "" {
		p.Priority = PriorityStandard
	}
	if !p.Priority.Valid() {
		return ErrInvalidPriority
	}
	return nil
}

func (p *Policy) Timeout() time.Duration { return time.Duration(p.TimeoutSeconds) * time.Second }
