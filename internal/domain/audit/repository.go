package audit

import "context"

type Repository interface {
	// Append seals e after the latest entry of e.RequestID and stores it.
	// It returns ErrSeqConflict if a concurrent Append took the same seq.
	Append(ctx context.Context, e *Entry) error

	// History returns the entries of a request in seq order.
	History(ctx context.Context, requestID string) ([]Entry, error)
}
