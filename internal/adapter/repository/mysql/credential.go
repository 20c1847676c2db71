package mysql

import (
	"context"
	"time"

	approvalDomain "credential-approval/internal/domain/approval"
	credentialDomain "credential-approval/internal/domain/credential"

	"gorm.io/gorm"
)

// CredentialRepository stores issued credentials and is the Issuer used by
// the execution step.
type CredentialRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewCredentialRepository(db *gorm.DB) *CredentialRepository {
	return &CredentialRepository{db: db, now: time.Now}
}

func (r *CredentialRepository) Exists(ctx context.Context, certificateID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&credentialDomain.Credential{}).
		Where("certificate_id = ?", certificateID).
		Count(&n).Error
	return n > 0, err
}

func (r *CredentialRepository) Issue(ctx context.Context, p credentialDomain.MintParams, requestID, issuer string) (*credentialDomain.Credential, error) {
	c := credentialDomain.FromParams(p, requestID, issuer, r.now())
	err := r.db.WithContext(ctx).Create(c).Error
	if isDuplicate(err) {
		return nil, approvalDomain.ErrAlreadyExists
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CredentialRepository) GetByCertificateID(ctx context.Context, certificateID string) (*credentialDomain.Credential, error) {
	var out credentialDomain.Credential
	if err := r.db.WithContext(ctx).Where("certificate_id = ?", certificateID).First(&out).Error; err != nil {
		return nil, notFound(err, credentialDomain.ErrNotFound)
	}
	return &out, nil
}
