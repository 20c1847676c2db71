package mysql

import (
	"context"
	"time"

	approvalDomain "credential-approval/internal/domain/approval"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PendingRepository struct{ db *gorm.DB }

func NewPendingRepository(db *gorm.DB) *PendingRepository { return &PendingRepository{db: db} }

func (r *PendingRepository) Add(ctx context.Context, requestID string, approvers []string) error {
	if len(approvers) == 0 {
		return nil
	}
	rows := make([]approvalDomain.PendingEntry, 0, len(approvers))
	for _, a := range approvers {
		rows = append(rows, approvalDomain.PendingEntry{Actor: a, RequestID: requestID})
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (r *PendingRepository) Remove(ctx context.Context, requestID, actor string) error {
	return r.db.WithContext(ctx).
		Where("request_id = ? AND actor = ?", requestID, actor).
		Delete(&approvalDomain.PendingEntry{}).Error
}

func (r *PendingRepository) Clear(ctx context.Context, requestID string) error {
	return r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Delete(&approvalDomain.PendingEntry{}).Error
}

func (r *PendingRepository) ListFor(ctx context.Context, actor string, now time.Time) ([]string, error) {
	ids := []string{}
	err := r.db.WithContext(ctx).
		Table("approval_pending AS p").
		Joins("JOIN approval_requests AS r ON r.request_id = p.request_id").
		Where("p.actor = ? AND r.status = ? AND r.expires_at >= ?", actor, approvalDomain.StatusPending, now.UTC()).
		Order("r.created_at ASC, p.id ASC").
		Pluck("p.request_id", &ids).Error
	return ids, err
}
