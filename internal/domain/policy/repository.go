package policy

import "context"

type Repository interface {
	// Upsert overwrites the policy stored for p.Scope.
	Upsert(ctx context.Context, p *Policy) error

	// GetByScope returns ErrPolicyNotFound when the scope has no policy.
	GetByScope(ctx context.Context, scope string) (*Policy, error)
}
