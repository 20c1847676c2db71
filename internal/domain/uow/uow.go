package uow

import (
	"context"

	"credential-approval/internal/domain/approval"
	"credential-approval/internal/domain/audit"
	"credential-approval/internal/domain/credential"
	"credential-approval/internal/domain/policy"
)

// Repos are bound to one transaction.
type Repos struct {
	Policies    policy.Repository
	Requests    approval.Repository
	Pending     approval.PendingIndex
	Audit       audit.Repository
	Credentials credential.Issuer
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// lock the request row first, then pass it in; ErrRequestNotFound if absent
	WithinRequestTx(ctx context.Context, requestID string, fn func(r Repos, req *approval.Request) error) error
}
