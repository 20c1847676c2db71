package approvalmock

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "credential-approval/internal/domain/approval"
)

func TestRepo_Defaults(t *testing.T) {
	ctx := context.Background()
	m := &Repo{}

	if err := m.Create(ctx, &domain.Request{}); err != nil {
		t.Fatalf("Create default: want nil, got %v", err)
	}
	if err := m.Save(ctx, &domain.Request{}); err != nil {
		t.Fatalf("Save default: want nil, got %v", err)
	}
	if _, err := m.GetByRequestID(ctx, "x"); !errors.Is(err, domain.ErrRequestNotFound) {
		t.Fatalf("GetByRequestID default: want ErrRequestNotFound, got %v", err)
	}
	if _, err := m.GetUnresolvedBySubject(ctx, "x"); !errors.Is(err, domain.ErrRequestNotFound) {
		t.Fatalf("GetUnresolvedBySubject default: want ErrRequestNotFound, got %v", err)
	}
	if ids, err := m.ListOverdue(ctx, time.Now(), 10); err != nil || len(ids) != 0 {
		t.Fatalf("ListOverdue default: %v %v", ids, err)
	}
}

func TestRepo_UsesProvidedFuncs(t *testing.T) {
	ctx := context.Background()
	wantErr := errors.New("boom")
	called := false
	m := &Repo{
		AppendVoteFn: func(gotCtx context.Context, v *domain.Vote) error {
			called = true
			if gotCtx != ctx || v.Actor != "A" {
				t.Fatalf("arg mismatch")
			}
			return wantErr
		},
	}
	if err := m.AppendVote(ctx, &domain.Vote{Actor: "A"}); !errors.Is(err, wantErr) {
		t.Fatalf("AppendVote: want %v, got %v", wantErr, err)
	}
	if !called {
		t.Fatalf("AppendVoteFn not called")
	}
}

func TestPending_Defaults(t *testing.T) {
	ctx := context.Background()
	m := &Pending{}
	if err := m.Add(ctx, "r", []string{"a"}); err != nil {
		t.Fatalf("Add default: %v", err)
	}
	ids, err := m.ListFor(ctx, "a", time.Now())
	if err != nil || ids == nil || len(ids) != 0 {
		t.Fatalf("ListFor default: %v %v", ids, err)
	}
}
