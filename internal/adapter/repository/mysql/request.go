package mysql

import (
	"context"
	"time"

	approvalDomain "credential-approval/internal/domain/approval"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RequestRepository struct{ db *gorm.DB }

func NewRequestRepository(db *gorm.DB) *RequestRepository { return &RequestRepository{db: db} }

func votesInOrder(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }

func (r *RequestRepository) Create(ctx context.Context, req *approvalDomain.Request) error {
	err := r.db.WithContext(ctx).Omit(clause.Associations).Create(req).Error
	if isDuplicate(err) {
		return approvalDomain.ErrDuplicateRequest
	}
	return err
}

func (r *RequestRepository) get(q *gorm.DB, requestID string) (*approvalDomain.Request, error) {
	var out approvalDomain.Request
	err := q.Preload("Votes", votesInOrder).
		Where("request_id = ?", requestID).
		First(&out).Error
	if err != nil {
		return nil, notFound(err, approvalDomain.ErrRequestNotFound)
	}
	return &out, nil
}

func (r *RequestRepository) GetByRequestID(ctx context.Context, requestID string) (*approvalDomain.Request, error) {
	return r.get(r.db.WithContext(ctx), requestID)
}

func (r *RequestRepository) GetByRequestIDForUpdate(ctx context.Context, requestID string) (*approvalDomain.Request, error) {
	return r.get(r.db.WithContext(ctx).Clauses(forUpdate()), requestID)
}

func (r *RequestRepository) GetUnresolvedBySubject(ctx context.Context, subject string) (*approvalDomain.Request, error) {
	var out approvalDomain.Request
	err := r.db.WithContext(ctx).
		Clauses(forUpdate()).
		Preload("Votes", votesInOrder).
		Where("subject = ? AND status IN ?", subject, approvalDomain.Unresolved).
		Order("id DESC").
		First(&out).Error
	if err != nil {
		return nil, notFound(err, approvalDomain.ErrRequestNotFound)
	}
	return &out, nil
}

func (r *RequestRepository) Save(ctx context.Context, req *approvalDomain.Request) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(req).Error
}

func (r *RequestRepository) AppendVote(ctx context.Context, v *approvalDomain.Vote) error {
	err := r.db.WithContext(ctx).Create(v).Error
	if isDuplicate(err) {
		return approvalDomain.ErrDuplicateVote
	}
	return err
}

func (r *RequestRepository) ListOverdue(ctx context.Context, now time.Time, limit int) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&approvalDomain.Request{}).
		Where("status = ? AND expires_at < ?", approvalDomain.StatusPending, now.UTC()).
		Order("expires_at ASC, id ASC").
		Limit(limit).
		Pluck("request_id", &ids).Error
	return ids, err
}
