package credential

import (
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("credential not found")
	ErrInvalidParams = errors.New("invalid credential params")
)

// MintParams is the gated payload carried by an approval request. The
// workflow stores it opaquely; only the Issuer interprets it.
type MintParams struct {
	CertificateID string `json:"certificate_id"`
	CourseID      string `json:"course_id"`
	Student       string `json:"student"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	MetadataURI   string `json:"metadata_uri"`
	// unix seconds, 0 = never expires
	ExpiryDate int64 `json:"expiry_date"`
}

func (p MintParams) Scope() string   { return p.CourseID }
func (p MintParams) Subject() string { return p.CertificateID }

type Status string

const (
	StatusActive  Status = "active"
	StatusRevoked Status = "revoked"
)

// Table: credentials
type Credential struct {
	ID            uint64     `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	CertificateID string     `gorm:"column:certificate_id;size:64;not null;uniqueIndex:ux_credentials_certificate_id" json:"certificate_id"`
	CourseID      string     `gorm:"column:course_id;size:100;not null;index" json:"course_id"`
	Student       string     `gorm:"column:student;size:64;not null;index" json:"student"`
	Issuer        string     `gorm:"column:issuer;size:64;not null" json:"issuer"`
	Title         string     `gorm:"column:title;size:200;not null" json:"title"`
	Description   string     `gorm:"column:description;type:text" json:"description"`
	MetadataURI   string     `gorm:"column:metadata_uri;size:500;not null" json:"metadata_uri"`
	Status        Status     `gorm:"column:status;size:16;not null;default:'active'" json:"status"`
	ExpiresAt     *time.Time `gorm:"column:expires_at" json:"expires_at,omitempty"`
	RequestID     string     `gorm:"column:request_id;type:char(64);not null" json:"request_id"`
	IssuedAt      time.Time  `gorm:"column:issued_at;not null" json:"issued_at"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime" json:"-"`
}

func (Credential) TableName() string { return "credentials" }

// FromParams builds the credential record minted for an executed request.
func FromParams(p MintParams, requestID, issuer string, at time.Time) *Credential {
	c := &Credential{
		CertificateID: p.CertificateID,
		CourseID:      p.CourseID,
		Student:       p.Student,
		Issuer:        issuer,
		Title:         p.Title,
		Description:   p.Description,
		MetadataURI:   p.MetadataURI,
		Status:        StatusActive,
		RequestID:     requestID,
		IssuedAt:      at.UTC(),
	}
	if p.ExpiryDate > 0 {
		exp := time.Unix(p.ExpiryDate, 0).UTC()
		c.ExpiresAt = &exp
	}
	return c
}
