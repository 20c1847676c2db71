package mysql

import (
	"credential-approval/internal/domain/approval"
	"credential-approval/internal/domain/audit"
	"credential-approval/internal/domain/authz"
	"credential-approval/internal/domain/credential"
	"credential-approval/internal/domain/policy"

	"gorm.io/gorm"
)

// Models lists every table owned by the service, parents first.
func Models() []any {
	return []any{
		&policy.Policy{},
		&approval.Request{},
		&approval.Vote{},
		&approval.PendingEntry{},
		&audit.Entry{},
		&credential.Credential{},
		&authz.Grant{},
	}
}

func AutoMigrate(db *gorm.DB) error { return db.AutoMigrate(Models()...) }
