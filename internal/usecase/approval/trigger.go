package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "credential-approval/internal/domain/approval"
	"credential-approval/internal/domain/audit"
	"credential-approval/internal/domain/event"
	"credential-approval/internal/domain/uow"
)

// trigger runs the gated effect for req inside the caller's transaction.
//
// A failed issuance is persisted as ExecutionFailed and reported as
// ErrExecutionFailed; the caller commits and may retry later. An existing
// credential leaves req untouched and reports ErrAlreadyExists.
func (u *Usecase) trigger(ctx context.Context, r uow.Repos, j *journal, req *domain.Request, actor string, now time.Time) error {
	if !req.Executable() {
		if req.Status == domain.StatusPending {
			return domain.ErrInsufficientApprovals
		}
		return domain.StateError(req.Status)
	}
	params, err := req.Params()
	if err != nil {
		return err
	}
	exists, err := r.Credentials.Exists(ctx, params.CertificateID)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrAlreadyExists
	}

	prev := req.Status
	if _, ierr := r.Credentials.Issue(ctx, params, req.RequestID, req.Requester); ierr != nil {
		if errors.Is(ierr, domain.ErrAlreadyExists) {
			return ierr
		}
		if err := req.MarkExecutionFailed(now); err != nil {
			return err
		}
		if err := r.Requests.Save(ctx, req); err != nil {
			return err
		}
		if err := appendAudit(ctx, r, req.RequestID, audit.ActionExecutionFailed, actor, ierr.Error(), prev, req.Status, now); err != nil {
			return err
		}
		j.add(event.ActionExecutionFailed, req, actor, now)
		return fmt.Errorf("%w: %v", domain.ErrExecutionFailed, ierr)
	}

	if err := req.MarkExecuted(now); err != nil {
		return err
	}
	if err := r.Requests.Save(ctx, req); err != nil {
		return err
	}
	if err := appendAudit(ctx, r, req.RequestID, audit.ActionExecuted, actor, "credential issued", prev, req.Status, now); err != nil {
		return err
	}
	j.add(event.ActionRequestExecuted, req, actor, now)
	return nil
}

// committable reports whether trigger's error still leaves a transaction
// worth committing.
func committable(err error) bool {
	return err == nil || errors.Is(err, domain.ErrExecutionFailed)
}
