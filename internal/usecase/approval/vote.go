package approval

import (
	"context"
	"errors"

	domain "credential-approval/internal/domain/approval"
	"credential-approval/internal/domain/audit"
	"credential-approval/internal/domain/event"
	"credential-approval/internal/domain/uow"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Vote records in.Actor's decision on a Pending request.
//
// Some outcomes are committed and still returned as errors alongside a
// result: a vote on an overdue request (ErrAlreadyExpired), and the
// threshold vote whose auto-execution failed (ErrExecutionFailed) or found
// the credential already issued (ErrAlreadyExists, request stays Approved).
func (u *Usecase) Vote(ctx context.Context, in VoteInput) (res *VoteResult, err error) {
	ctx, span := u.start(ctx, "Vote",
		attribute.String("request_id", in.RequestID),
		attribute.String("actor", in.Actor),
		attribute.Bool("approved", in.Approved))
	defer func() { finish(span, err) }()

	now := u.clock()
	var (
		j       journal
		outcome error
	)
	err = u.uow.WithinRequestTx(ctx, in.RequestID, func(r uow.Repos, req *domain.Request) error {
		out, err := req.Cast(in.Actor, in.Approved, in.Comment, in.Evidence, now)
		if out.Expired {
			if err := persistExpiry(ctx, r, &j, req, in.Actor, now); err != nil {
				return err
			}
			res, outcome = voteResult(req), err
			return nil
		}
		if err != nil {
			return err
		}

		if err := r.Requests.AppendVote(ctx, out.Vote); err != nil {
			return err
		}
		if err := r.Requests.Save(ctx, req); err != nil {
			return err
		}
		if out.Next == domain.StatusPending {
			err = r.Pending.Remove(ctx, req.RequestID, in.Actor)
		} else {
			err = r.Pending.Clear(ctx, req.RequestID)
		}
		if err != nil {
			return err
		}

		action, ev := audit.ActionApprovalGranted, event.ActionApprovalGranted
		if !in.Approved {
			action, ev = audit.ActionRejected, event.ActionRequestRejected
		}
		if err := appendAudit(ctx, r, req.RequestID, action, in.Actor, in.Comment, out.Prev, out.Next, now); err != nil {
			return err
		}
		j.add(ev, req, in.Actor, now)

		if out.Next == domain.StatusApproved {
			j.add(event.ActionRequestApproved, req, in.Actor, now)
			if req.AutoExecute {
				outcome = u.trigger(ctx, r, &j, req, in.Actor, now)
				if !committable(outcome) && !errors.Is(outcome, domain.ErrAlreadyExists) {
					return outcome
				}
			}
		}
		res = voteResult(req)
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.publish(ctx, &j)
	u.log.Info("vote recorded",
		zap.String("request_id", in.RequestID),
		zap.String("actor", in.Actor),
		zap.Bool("approved", in.Approved),
		zap.String("status", string(res.Status)),
		zap.Uint32("current_approvals", res.CurrentApprovals))
	if outcome != nil {
		u.log.Warn("vote committed with error", zap.String("request_id", in.RequestID), zap.Error(outcome))
	}
	return res, outcome
}

func voteResult(req *domain.Request) *VoteResult {
	return &VoteResult{
		RequestID:         req.RequestID,
		Status:            req.Status,
		CurrentApprovals:  req.CurrentApprovals,
		RequiredApprovals: req.RequiredApprovals,
	}
}
