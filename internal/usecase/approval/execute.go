package approval

import (
	"context"

	domain "credential-approval/internal/domain/approval"
	"credential-approval/internal/domain/authz"
	"credential-approval/internal/domain/uow"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Execute issues the credential of an Approved (or previously failed)
// request. The requester, any approver of the request, or an actor holding
// submit_request may call it. A second call after success returns
// ErrAlreadyExecuted and issues nothing.
func (u *Usecase) Execute(ctx context.Context, in ExecuteInput) (dto *RequestDTO, err error) {
	ctx, span := u.start(ctx, "Execute",
		attribute.String("request_id", in.RequestID),
		attribute.String("actor", in.Actor))
	defer func() { finish(span, err) }()

	now := u.clock()
	canSubmit := authz.Require(ctx, u.oracle, in.Actor, authz.CapSubmitRequest) == nil

	var (
		j       journal
		outcome error
	)
	err = u.uow.WithinRequestTx(ctx, in.RequestID, func(r uow.Repos, req *domain.Request) error {
		if in.Actor != req.Requester && !req.IsApprover(in.Actor) && !canSubmit {
			return authz.ErrUnauthorized
		}
		if req.Status == domain.StatusPending {
			if !req.Overdue(now) {
				return domain.ErrInsufficientApprovals
			}
			if err := req.Expire(now); err != nil {
				return err
			}
			if err := persistExpiry(ctx, r, &j, req, in.Actor, now); err != nil {
				return err
			}
			outcome = domain.ErrAlreadyExpired
		} else {
			outcome = u.trigger(ctx, r, &j, req, in.Actor, now)
			if !committable(outcome) {
				return outcome
			}
		}
		var err error
		dto, err = toDTO(req, now)
		return err
	})
	if err != nil {
		return nil, err
	}

	u.publish(ctx, &j)
	u.log.Info("execution attempted",
		zap.String("request_id", in.RequestID),
		zap.String("actor", in.Actor),
		zap.String("status", string(dto.Status)))
	return dto, outcome
}
