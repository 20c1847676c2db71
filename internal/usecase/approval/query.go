package approval

import (
	"context"
	"errors"

	"credential-approval/internal/domain/audit"

	"go.opentelemetry.io/otel/attribute"
)

// GetRequest returns the request with its effective status; an overdue
// Pending request reads as Expired before anything persisted that.
func (u *Usecase) GetRequest(ctx context.Context, requestID string) (dto *RequestDTO, err error) {
	ctx, span := u.start(ctx, "GetRequest", attribute.String("request_id", requestID))
	defer func() { finish(span, err) }()

	req, err := u.requests.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	return toDTO(req, u.clock())
}

// GetPendingFor lists the ids of live Pending requests actor may still vote
// on, oldest first.
func (u *Usecase) GetPendingFor(ctx context.Context, actor string) (ids []string, err error) {
	ctx, span := u.start(ctx, "GetPendingFor", attribute.String("actor", actor))
	defer func() { finish(span, err) }()

	ids, err = u.pending.ListFor(ctx, actor, u.clock())
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// GetAuditTrail returns every entry recorded for requestID in order, and
// whether the hash chain over them holds.
func (u *Usecase) GetAuditTrail(ctx context.Context, requestID string) (trail *AuditTrailDTO, err error) {
	ctx, span := u.start(ctx, "GetAuditTrail", attribute.String("request_id", requestID))
	defer func() { finish(span, err) }()

	entries, err := u.audit.History(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 && requestID != audit.SentinelRequestID {
		if _, err := u.requests.GetByRequestID(ctx, requestID); err != nil {
			return nil, err
		}
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	verr := audit.Verify(entries)
	if verr != nil && !errors.Is(verr, audit.ErrChainBroken) {
		return nil, verr
	}
	return &AuditTrailDTO{RequestID: requestID, Entries: entries, Verified: verr == nil}, nil
}
