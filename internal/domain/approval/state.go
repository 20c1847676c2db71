package approval

import (
	"fmt"
	"slices"
	"time"
)

var transitions = map[Status][]Status{
	StatusPending:         {StatusApproved, StatusRejected, StatusExpired},
	StatusApproved:        {StatusExecuted, StatusExecutionFailed},
	StatusExecutionFailed: {StatusExecuted, StatusExecutionFailed},
}

// CanTransition reports whether from -> to is an edge of the request state
// machine. Nothing leads back to Pending.
func CanTransition(from, to Status) bool {
	return slices.Contains(transitions[from], to)
}

// Decide folds the votes of a pending request into its next status and the
// number of approvals. A single rejection vetoes; otherwise the threshold
// decides. The result does not depend on vote order.
func Decide(required uint32, votes []Vote) (Status, uint32) {
	var approvals uint32
	rejected := false
	for _, v := range votes {
		if v.Approved {
			approvals++
		} else {
			rejected = true
		}
	}
	switch {
	case rejected:
		return StatusRejected, approvals
	case approvals >= required:
		return StatusApproved, approvals
	default:
		return StatusPending, approvals
	}
}

// Outcome describes what a Cast did to the request.
type Outcome struct {
	Prev Status
	Next Status
	// Expired is set when this call observed the deadline and moved the
	// request to Expired; the change must still be persisted.
	Expired bool
	Vote    *Vote
}

// Cast applies actor's vote in memory. Checks run in a fixed order: stored
// state, deadline, approver membership, duplicate vote.
func (r *Request) Cast(actor string, approved bool, comment string, evidence *string, now time.Time) (Outcome, error) {
	out := Outcome{Prev: r.Status, Next: r.Status}
	if r.Status != StatusPending {
		return out, StateError(r.Status)
	}
	if r.Overdue(now) {
		if err := r.Expire(now); err != nil {
			return out, err
		}
		out.Next, out.Expired = StatusExpired, true
		return out, ErrAlreadyExpired
	}
	if !r.IsApprover(actor) {
		return out, ErrApproverNotAuthorized
	}
	if r.HasVoted(actor) {
		return out, ErrDuplicateVote
	}

	r.Votes = append(r.Votes, Vote{
		RequestID: r.RequestID,
		Actor:     actor,
		Seq:       uint32(len(r.Votes) + 1),
		Approved:  approved,
		Evidence:  evidence,
		Comment:   comment,
		VotedAt:   now.UTC(),
	})
	out.Vote = &r.Votes[len(r.Votes)-1]

	next, approvals := Decide(r.RequiredApprovals, r.Votes)
	r.CurrentApprovals = approvals
	if next != StatusPending {
		if err := r.transition(next, now); err != nil {
			return out, err
		}
	}
	out.Next = next
	return out, nil
}

// Executable reports whether the gated effect may run for r.
func (r *Request) Executable() bool {
	return r.Status == StatusApproved || r.Status == StatusExecutionFailed
}

func (r *Request) Expire(now time.Time) error              { return r.transition(StatusExpired, now) }
func (r *Request) MarkExecuted(now time.Time) error        { return r.transition(StatusExecuted, now) }
func (r *Request) MarkExecutionFailed(now time.Time) error { return r.transition(StatusExecutionFailed, now) }

func (r *Request) transition(to Status, now time.Time) error {
	if !CanTransition(r.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, to)
	}
	r.Status = to
	t := now.UTC()
	switch to {
	case StatusApproved, StatusRejected, StatusExpired:
		r.ResolvedAt = &t
	case StatusExecuted:
		r.ExecutedAt = &t
	}
	return nil
}
