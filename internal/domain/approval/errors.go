package approval

import "errors"

var (
	ErrRequestNotFound       = errors.New("approval request not found")
	ErrApproverNotAuthorized = errors.New("actor is not an approver of this request")
	ErrAlreadyApproved       = errors.New("request already approved")
	ErrAlreadyRejected       = errors.New("request already rejected")
	ErrAlreadyExecuted       = errors.New("request already executed")
	ErrAlreadyExpired        = errors.New("request expired")
	ErrDuplicateVote         = errors.New("actor already voted on this request")
	ErrDuplicateRequest      = errors.New("an unresolved request already exists for this subject")
	ErrInsufficientApprovals = errors.New("request has not reached its approval threshold")
	ErrAlreadyExists         = errors.New("credential already exists")
	ErrExecutionFailed       = errors.New("credential issuance failed")
	ErrInvalidTransition     = errors.New("invalid status transition")
)

// StateError is the error a vote gets when the request already left Pending.
func StateError(s Status) error {
	switch s {
	case StatusApproved, StatusExecutionFailed:
		return ErrAlreadyApproved
	case StatusRejected:
		return ErrAlreadyRejected
	case StatusExecuted:
		return ErrAlreadyExecuted
	case StatusExpired:
		return ErrAlreadyExpired
	}
	return ErrInvalidTransition
}

// Retryable reports whether repeating the failed call may succeed.
// State conflicts never are; a failed issuance is.
func Retryable(err error) bool {
	return errors.Is(err, ErrExecutionFailed)
}
