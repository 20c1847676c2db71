package policy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"credential-approval/internal/domain/audit"
	"credential-approval/internal/domain/authz"
	"credential-approval/internal/domain/event"
	domain "credential-approval/internal/domain/policy"
	"credential-approval/internal/domain/uow"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// maxWriteAttempts bounds retries after losing the sentinel chain race.
const maxWriteAttempts = 3

type Deps struct {
	Policies domain.Repository
	UoW      uow.UnitOfWork
	Oracle   authz.Oracle
	Sink     event.Sink
	Logger   *zap.Logger
	Bounds   domain.Bounds
}

type Usecase struct {
	policies domain.Repository
	uow      uow.UnitOfWork
	oracle   authz.Oracle
	sink     event.Sink
	log      *zap.Logger
	tracer   trace.Tracer
	bounds   domain.Bounds
	now      func() time.Time
}

type Option func(*Usecase)

func WithClock(now func() time.Time) Option { return func(u *Usecase) { u.now = now } }

func NewUsecase(d Deps, opts ...Option) *Usecase {
	u := &Usecase{
		policies: d.Policies,
		uow:      d.UoW,
		oracle:   d.Oracle,
		sink:     d.Sink,
		log:      d.Logger,
		tracer:   otel.Tracer("credential-approval/usecase/policy"),
		bounds:   d.Bounds,
		now:      time.Now,
	}
	if u.bounds == (domain.Bounds{}) {
		u.bounds = domain.DefaultBounds
	}
	if u.log == nil {
		u.log = zap.NewNop()
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

// SetPolicy creates or replaces the policy of in.Scope. Requests already
// open keep the snapshot they were created with.
func (u *Usecase) SetPolicy(ctx context.Context, in SetPolicyInput) (dto *PolicyDTO, err error) {
	ctx, span := u.tracer.Start(ctx, "policy.SetPolicy", trace.WithAttributes(
		attribute.String("scope", in.Scope),
		attribute.String("actor", in.Actor)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err = authz.Require(ctx, u.oracle, in.Actor, authz.CapManagePolicy); err != nil {
		return nil, err
	}

	now := u.now().UTC().Truncate(time.Second)
	p := &domain.Policy{
		Scope:             in.Scope,
		RequiredApprovals: in.RequiredApprovals,
		Approvers:         domain.NormalizeApprovers(in.Approvers),
		TimeoutSeconds:    in.TimeoutSeconds,
		Priority:          domain.Priority(in.Priority),
		AutoExecute:       in.AutoExecute,
		UpdatedBy:         in.Actor,
		UpdatedAt:         now,
	}
	if err = p.Validate(u.bounds); err != nil {
		return nil, err
	}

	// every scope shares the sentinel audit chain; a writer that lost the
	// race for the next seq starts over
	for attempt := 1; ; attempt++ {
		err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
			// a rolled-back attempt may have assigned an id
			p.ID = 0
			if err := r.Policies.Upsert(ctx, p); err != nil {
				return err
			}
			return r.Audit.Append(ctx, &audit.Entry{
				RequestID: audit.SentinelRequestID,
				Action:    audit.ActionConfigUpdated,
				Actor:     in.Actor,
				Detail: fmt.Sprintf("scope=%s required=%d approvers=%d timeout=%d auto_execute=%t",
					p.Scope, p.RequiredApprovals, len(p.Approvers), p.TimeoutSeconds, p.AutoExecute),
				At: now,
			})
		})
		if !errors.Is(err, audit.ErrSeqConflict) || attempt == maxWriteAttempts {
			break
		}
		u.log.Debug("retry policy write", zap.String("scope", p.Scope), zap.Int("attempt", attempt), zap.Error(err))
	}
	if err != nil {
		return nil, err
	}

	if u.sink != nil {
		ev := event.New(event.ActionConfigUpdated, audit.SentinelRequestID, in.Actor, now)
		ev.Scope = p.Scope
		if perr := u.sink.Publish(ctx, ev); perr != nil {
			u.log.Warn("publish workflow event", zap.String("action", ev.Action), zap.Error(perr))
		}
	}
	u.log.Info("policy updated",
		zap.String("scope", p.Scope),
		zap.String("actor", in.Actor),
		zap.Uint32("required_approvals", p.RequiredApprovals),
		zap.Strings("approvers", p.Approvers))
	return toDTO(p), nil
}

func (u *Usecase) GetPolicy(ctx context.Context, scope string) (*PolicyDTO, error) {
	ctx, span := u.tracer.Start(ctx, "policy.GetPolicy", trace.WithAttributes(attribute.String("scope", scope)))
	defer span.End()

	p, err := u.policies.GetByScope(ctx, scope)
	if err != nil {
		return nil, err
	}
	return toDTO(p), nil
}
