package approval

import (
	"context"
	"errors"
	"fmt"

	domain "credential-approval/internal/domain/approval"
	"credential-approval/internal/domain/uow"

	"go.uber.org/zap"
)

// ExpireOverdue persists the Expired status of Pending requests whose
// deadline passed. Reads already see them as Expired; this makes the audit
// trail and the pending index agree. Returns how many were expired.
func (u *Usecase) ExpireOverdue(ctx context.Context) (n int, err error) {
	ctx, span := u.start(ctx, "ExpireOverdue")
	defer func() { finish(span, err) }()

	now := u.clock()
	ids, err := u.requests.ListOverdue(ctx, now, u.sweepBatch)
	if err != nil {
		return 0, err
	}

	var errs error
	for _, rid := range ids {
		var (
			j       journal
			expired bool
		)
		terr := u.uow.WithinRequestTx(ctx, rid, func(r uow.Repos, req *domain.Request) error {
			// a vote may have resolved it since the listing
			if req.Status != domain.StatusPending || !req.Overdue(now) {
				return nil
			}
			if err := req.Expire(now); err != nil {
				return err
			}
			expired = true
			return persistExpiry(ctx, r, &j, req, SystemActor, now)
		})
		if terr != nil {
			errs = errors.Join(errs, fmt.Errorf("expire %s: %w", rid, terr))
			continue
		}
		if expired {
			n++
			u.publish(ctx, &j)
		}
	}
	if n > 0 {
		u.log.Info("expired overdue requests", zap.Int("count", n))
	}
	return n, errs
}
