package approval

import (
	"context"
	"errors"

	domain "credential-approval/internal/domain/approval"
	"credential-approval/internal/domain/audit"
	"credential-approval/internal/domain/authz"
	"credential-approval/internal/domain/event"
	"credential-approval/internal/domain/uow"
	"credential-approval/pkg/id"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Create opens a Pending request for in.Params under the policy of its scope.
// At most one unresolved request may exist per subject; an overdue Pending
// predecessor is expired on the way.
func (u *Usecase) Create(ctx context.Context, in CreateInput) (dto *RequestDTO, err error) {
	ctx, span := u.start(ctx, "Create",
		attribute.String("scope", in.Params.Scope()),
		attribute.String("subject", in.Params.Subject()))
	defer func() { finish(span, err) }()

	now := u.clock()
	if err = in.Params.Validate(now); err != nil {
		return nil, err
	}
	if err = authz.Require(ctx, u.oracle, in.Requester, authz.CapSubmitRequest); err != nil {
		return nil, err
	}

	var j journal
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		pol, err := r.Policies.GetByScope(ctx, in.Params.Scope())
		if err != nil {
			return err
		}

		held, err := r.Requests.GetUnresolvedBySubject(ctx, in.Params.Subject())
		switch {
		case errors.Is(err, domain.ErrRequestNotFound):
		case err != nil:
			return err
		case held.Status == domain.StatusPending && held.Overdue(now):
			if err := held.Expire(now); err != nil {
				return err
			}
			if err := persistExpiry(ctx, r, &j, held, in.Requester, now); err != nil {
				return err
			}
		default:
			return domain.ErrDuplicateRequest
		}

		exists, err := r.Credentials.Exists(ctx, in.Params.CertificateID)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrAlreadyExists
		}

		req, err := domain.NewRequest(pol, in.Params, in.Requester, in.Reason, now)
		if err != nil {
			return err
		}
		if req.RequestID, err = id.Derive(in.Params, now); err != nil {
			return err
		}
		if err := r.Requests.Create(ctx, req); err != nil {
			return err
		}
		if err := r.Pending.Add(ctx, req.RequestID, req.Approvers); err != nil {
			return err
		}
		if err := appendAudit(ctx, r, req.RequestID, audit.ActionCreated, in.Requester, in.Reason, "", domain.StatusPending, now); err != nil {
			return err
		}
		j.add(event.ActionRequestCreated, req, in.Requester, now)

		dto, err = toDTO(req, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	u.publish(ctx, &j)
	u.log.Info("approval request created",
		zap.String("request_id", dto.RequestID),
		zap.String("scope", dto.Scope),
		zap.String("requester", in.Requester),
		zap.Uint32("required_approvals", dto.RequiredApprovals))
	return dto, nil
}
