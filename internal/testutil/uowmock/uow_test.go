package uowmock

import (
	"context"
	"errors"
	"testing"

	"credential-approval/internal/domain/approval"
	"credential-approval/internal/domain/uow"
	"credential-approval/internal/testutil/approvalmock"
)

func TestUoW_WithinTx_Happy(t *testing.T) {
	ctx := context.Background()

	reqs := &approvalmock.Repo{}
	pend := &approvalmock.Pending{}
	repos := uow.Repos{Requests: reqs, Pending: pend}

	innerCalled := false
	m := &UoW{
		WithinTxFn: func(gotCtx context.Context, fn func(r uow.Repos) error) error {
			if gotCtx != ctx {
				t.Fatalf("WithinTx: ctx mismatch")
			}
			return fn(repos)
		},
	}

	err := m.WithinTx(ctx, func(r uow.Repos) error {
		innerCalled = true
		if r.Requests != reqs || r.Pending != pend {
			t.Fatalf("WithinTx: repos not forwarded correctly")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithinTx: unexpected err: %v", err)
	}
	if !innerCalled {
		t.Fatalf("WithinTx: inner fn not called")
	}
}

func TestUoW_Defaults_Unimplemented(t *testing.T) {
	ctx := context.Background()
	m := New()
	if err := m.WithinTx(ctx, func(uow.Repos) error { return nil }); !errors.Is(err, errUnimplemented) {
		t.Fatalf("WithinTx default: want errUnimplemented, got %v", err)
	}
	if err := m.WithinRequestTx(ctx, "r", func(uow.Repos, *approval.Request) error { return nil }); !errors.Is(err, errUnimplemented) {
		t.Fatalf("WithinRequestTx default: want errUnimplemented, got %v", err)
	}
}

func TestUoW_FluentSettersAndReset(t *testing.T) {
	sentinel := errors.New("boom")
	m := New().
		WithWithinTx(func(context.Context, func(uow.Repos) error) error { return sentinel }).
		WithWithinRequestTx(func(context.Context, string, func(uow.Repos, *approval.Request) error) error { return sentinel })

	if err := m.WithinTx(context.Background(), nil); !errors.Is(err, sentinel) {
		t.Fatalf("WithinTx: want sentinel, got %v", err)
	}
	if err := m.WithinRequestTx(context.Background(), "r", nil); !errors.Is(err, sentinel) {
		t.Fatalf("WithinRequestTx: want sentinel, got %v", err)
	}
	m.Reset()
	if m.WithinTxFn != nil || m.WithinRequestTxFn != nil {
		t.Fatalf("Reset did not clear funcs")
	}
}

func TestPassthrough_LoadsRequest(t *testing.T) {
	ctx := context.Background()
	want := &approval.Request{RequestID: "R-1", Status: approval.StatusPending}
	reqs := &approvalmock.Repo{
		GetByRequestIDForUpdateFn: func(_ context.Context, id string) (*approval.Request, error) {
			if id != "R-1" {
				return nil, approval.ErrRequestNotFound
			}
			return want, nil
		},
	}
	m := Passthrough(uow.Repos{Requests: reqs})

	var got *approval.Request
	if err := m.WithinRequestTx(ctx, "R-1", func(_ uow.Repos, r *approval.Request) error { got = r; return nil }); err != nil {
		t.Fatalf("WithinRequestTx: %v", err)
	}
	if got != want {
		t.Fatalf("request not forwarded: %+v", got)
	}

	err := m.WithinRequestTx(ctx, "R-404", func(uow.Repos, *approval.Request) error {
		t.Fatalf("callback must not run for missing request")
		return nil
	})
	if !errors.Is(err, approval.ErrRequestNotFound) {
		t.Fatalf("want ErrRequestNotFound, got %v", err)
	}
}
