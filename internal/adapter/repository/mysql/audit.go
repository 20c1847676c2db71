package mysql

import (
	"context"
	"errors"
	"fmt"

	auditDomain "credential-approval/internal/domain/audit"

	"gorm.io/gorm"
)

type AuditRepository struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) *AuditRepository { return &AuditRepository{db: db} }

// Append locks the chain head of e.RequestID (a next-key lock when the chain
// is empty) so concurrent writers of a shared chain, such as the policy
// sentinel, queue instead of sealing the same seq.
func (r *AuditRepository) Append(ctx context.Context, e *auditDomain.Entry) error {
	var last auditDomain.Entry
	var prev *auditDomain.Entry

	err := r.db.WithContext(ctx).
		Clauses(forUpdate()).
		Where("request_id = ?", e.RequestID).
		Order("seq DESC").
		Take(&last).Error
	switch {
	case err == nil:
		prev = &last
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return err
	}

	if err := auditDomain.Seal(e, prev); err != nil {
		return err
	}
	return r.insert(ctx, e)
}

func (r *AuditRepository) insert(ctx context.Context, e *auditDomain.Entry) error {
	err := r.db.WithContext(ctx).Create(e).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %s seq %d", auditDomain.ErrSeqConflict, e.RequestID, e.Seq)
	}
	return err
}

func (r *AuditRepository) History(ctx context.Context, requestID string) ([]auditDomain.Entry, error) {
	out := []auditDomain.Entry{}
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("seq ASC").
		Find(&out).Error
	return out, err
}
