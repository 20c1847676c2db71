package mysql

import (
	"context"

	"credential-approval/internal/domain/authz"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GrantRepository backs the permission oracle with the actor_grants table.
type GrantRepository struct{ db *gorm.DB }

func NewGrantRepository(db *gorm.DB) *GrantRepository { return &GrantRepository{db: db} }

func (r *GrantRepository) IsAuthorized(ctx context.Context, actor string, c authz.Capability) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&authz.Grant{}).
		Where("actor = ? AND capability = ?", actor, c).
		Count(&n).Error
	return n > 0, err
}

func (r *GrantRepository) Grant(ctx context.Context, actor string, c authz.Capability) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&authz.Grant{Actor: actor, Capability: c}).Error
}

func (r *GrantRepository) Revoke(ctx context.Context, actor string, c authz.Capability) error {
	return r.db.WithContext(ctx).
		Where("actor = ? AND capability = ?", actor, c).
		Delete(&authz.Grant{}).Error
}
