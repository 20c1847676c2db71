package approvalmock

import (
	"context"
	"time"

	domain "credential-approval/internal/domain/approval"
)

var (
	_ domain.Repository   = (*Repo)(nil)
	_ domain.PendingIndex = (*Pending)(nil)
)

// Repo is a function-backed mock that satisfies domain.Repository.
// Writes default to no-op success, reads to ErrRequestNotFound.
type Repo struct {
	CreateFn                  func(ctx context.Context, r *domain.Request) error
	GetByRequestIDFn          func(ctx context.Context, requestID string) (*domain.Request, error)
	GetByRequestIDForUpdateFn func(ctx context.Context, requestID string) (*domain.Request, error)
	GetUnresolvedBySubjectFn  func(ctx context.Context, subject string) (*domain.Request, error)
	SaveFn                    func(ctx context.Context, r *domain.Request) error
	AppendVoteFn              func(ctx context.Context, v *domain.Vote) error
	ListOverdueFn             func(ctx context.Context, now time.Time, limit int) ([]string, error)
}

func (m *Repo) Create(ctx context.Context, r *domain.Request) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, r)
	}
	return nil
}

func (m *Repo) GetByRequestID(ctx context.Context, requestID string) (*domain.Request, error) {
	if m.GetByRequestIDFn != nil {
		return m.GetByRequestIDFn(ctx, requestID)
	}
	return nil, domain.ErrRequestNotFound
}

func (m *Repo) GetByRequestIDForUpdate(ctx context.Context, requestID string) (*domain.Request, error) {
	if m.GetByRequestIDForUpdateFn != nil {
		return m.GetByRequestIDForUpdateFn(ctx, requestID)
	}
	return nil, domain.ErrRequestNotFound
}

func (m *Repo) GetUnresolvedBySubject(ctx context.Context, subject string) (*domain.Request, error) {
	if m.GetUnresolvedBySubjectFn != nil {
		return m.GetUnresolvedBySubjectFn(ctx, subject)
	}
	return nil, domain.ErrRequestNotFound
}

func (m *Repo) Save(ctx context.Context, r *domain.Request) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, r)
	}
	return nil
}

func (m *Repo) AppendVote(ctx context.Context, v *domain.Vote) error {
	if m.AppendVoteFn != nil {
		return m.AppendVoteFn(ctx, v)
	}
	return nil
}

func (m *Repo) ListOverdue(ctx context.Context, now time.Time, limit int) ([]string, error) {
	if m.ListOverdueFn != nil {
		return m.ListOverdueFn(ctx, now, limit)
	}
	return nil, nil
}

// Pending is a function-backed domain.PendingIndex.
type Pending struct {
	AddFn     func(ctx context.Context, requestID string, approvers []string) error
	RemoveFn  func(ctx context.Context, requestID, actor string) error
	ClearFn   func(ctx context.Context, requestID string) error
	ListForFn func(ctx context.Context, actor string, now time.Time) ([]string, error)
}

func (m *Pending) Add(ctx context.Context, requestID string, approvers []string) error {
	if m.AddFn != nil {
		return m.AddFn(ctx, requestID, approvers)
	}
	return nil
}

func (m *Pending) Remove(ctx context.Context, requestID, actor string) error {
	if m.RemoveFn != nil {
		return m.RemoveFn(ctx, requestID, actor)
	}
	return nil
}

func (m *Pending) Clear(ctx context.Context, requestID string) error {
	if m.ClearFn != nil {
		return m.ClearFn(ctx, requestID)
	}
	return nil
}

func (m *Pending) ListFor(ctx context.Context, actor string, now time.Time) ([]string, error) {
	if m.ListForFn != nil {
		return m.ListForFn(ctx, actor, now)
	}
	return []string{}, nil
}
