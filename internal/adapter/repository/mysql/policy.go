package mysql

import (
	"context"

	policyDomain "credential-approval/internal/domain/policy"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PolicyRepository struct{ db *gorm.DB }

func NewPolicyRepository(db *gorm.DB) *PolicyRepository { return &PolicyRepository{db: db} }

func (r *PolicyRepository) Upsert(ctx context.Context, p *policyDomain.Policy) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "scope"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"required_approvals", "approvers", "timeout_seconds",
				"priority", "auto_execute", "updated_by", "updated_at",
			}),
		}).
		Create(p).Error
}

func (r *PolicyRepository) GetByScope(ctx context.Context, scope string) (*policyDomain.Policy, error) {
	var out policyDomain.Policy
	if err := r.db.WithContext(ctx).Where("scope = ?", scope).First(&out).Error; err != nil {
		return nil, notFound(err, policyDomain.ErrPolicyNotFound)
	}
	return &out, nil
}
