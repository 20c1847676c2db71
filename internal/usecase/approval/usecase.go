package approval

import (
	"context"
	"time"

	domain "credential-approval/internal/domain/approval"
	"credential-approval/internal/domain/audit"
	"credential-approval/internal/domain/authz"
	"credential-approval/internal/domain/event"
	"credential-approval/internal/domain/uow"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const defaultSweepBatch = 100

type Deps struct {
	Requests domain.Repository
	Pending  domain.PendingIndex
	Audit    audit.Repository
	UoW      uow.UnitOfWork
	Oracle   authz.Oracle
	Sink     event.Sink
	Logger   *zap.Logger
}

type Usecase struct {
	requests domain.Repository
	pending  domain.PendingIndex
	audit    audit.Repository
	uow      uow.UnitOfWork
	oracle   authz.Oracle
	sink     event.Sink
	log      *zap.Logger
	tracer   trace.Tracer

	now        func() time.Time
	sweepBatch int
}

type Option func(*Usecase)

func WithClock(now func() time.Time) Option { return func(u *Usecase) { u.now = now } }

func WithTracer(t trace.Tracer) Option { return func(u *Usecase) { u.tracer = t } }

// WithSweepBatch caps how many overdue requests one ExpireOverdue call handles.
func WithSweepBatch(n int) Option {
	return func(u *Usecase) {
		if n > 0 {
			u.sweepBatch = n
		}
	}
}

func NewUsecase(d Deps, opts ...Option) *Usecase {
	u := &Usecase{
		requests:   d.Requests,
		pending:    d.Pending,
		audit:      d.Audit,
		uow:        d.UoW,
		oracle:     d.Oracle,
		sink:       d.Sink,
		log:        d.Logger,
		tracer:     otel.Tracer("credential-approval/usecase/approval"),
		now:        time.Now,
		sweepBatch: defaultSweepBatch,
	}
	if u.log == nil {
		u.log = zap.NewNop()
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

// clock is second-granular; deadlines and ids are derived from it.
func (u *Usecase) clock() time.Time { return u.now().UTC().Truncate(time.Second) }

func (u *Usecase) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return u.tracer.Start(ctx, "approval."+op, trace.WithAttributes(attrs...))
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// journal collects the events of one transaction; they go out after commit.
type journal struct{ events []event.Event }

func (j *journal) add(action string, req *domain.Request, actor string, at time.Time) {
	ev := event.New(action, req.RequestID, actor, at)
	ev.Scope = req.Scope
	ev.Status = string(req.Status)
	j.events = append(j.events, ev)
}

func (u *Usecase) publish(ctx context.Context, j *journal) {
	if u.sink == nil {
		return
	}
	for _, ev := range j.events {
		if err := u.sink.Publish(ctx, ev); err != nil {
			u.log.Warn("publish workflow event",
				zap.String("action", ev.Action),
				zap.String("request_id", ev.RequestID),
				zap.Error(err))
		}
	}
}

func appendAudit(ctx context.Context, r uow.Repos, requestID string, action audit.Action, actor, detail string, prev, next domain.Status, at time.Time) error {
	return r.Audit.Append(ctx, &audit.Entry{
		RequestID:  requestID,
		Action:     action,
		Actor:      actor,
		Detail:     detail,
		PrevStatus: string(prev),
		NewStatus:  string(next),
		At:         at,
	})
}

// persistExpiry writes an Expired transition already applied to req.
func persistExpiry(ctx context.Context, r uow.Repos, j *journal, req *domain.Request, actor string, now time.Time) error {
	if err := r.Requests.Save(ctx, req); err != nil {
		return err
	}
	if err := r.Pending.Clear(ctx, req.RequestID); err != nil {
		return err
	}
	if err := appendAudit(ctx, r, req.RequestID, audit.ActionExpired, actor, "deadline passed", domain.StatusPending, domain.StatusExpired, now); err != nil {
		return err
	}
	j.add(event.ActionRequestExpired, req, actor, now)
	return nil
}
