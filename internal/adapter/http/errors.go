package http

import (
	"errors"
	"net/http"

	"credential-approval/internal/adapter/middleware"
	"credential-approval/internal/domain/approval"
	"credential-approval/internal/domain/audit"
	"credential-approval/internal/domain/authz"
	"credential-approval/internal/domain/credential"
	"credential-approval/internal/domain/policy"

	"github.com/labstack/echo/v4"
)

// statusFor maps domain errors to HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, approval.ErrRequestNotFound),
		errors.Is(err, policy.ErrPolicyNotFound),
		errors.Is(err, credential.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, authz.ErrUnauthorized),
		errors.Is(err, approval.ErrApproverNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, approval.ErrAlreadyApproved),
		errors.Is(err, approval.ErrAlreadyRejected),
		errors.Is(err, approval.ErrAlreadyExecuted),
		errors.Is(err, approval.ErrAlreadyExpired),
		errors.Is(err, approval.ErrDuplicateVote),
		errors.Is(err, approval.ErrDuplicateRequest),
		errors.Is(err, approval.ErrInsufficientApprovals),
		errors.Is(err, approval.ErrAlreadyExists),
		errors.Is(err, approval.ErrInvalidTransition),
		errors.Is(err, audit.ErrSeqConflict):
		return http.StatusConflict
	case errors.Is(err, credential.ErrInvalidParams),
		errors.Is(err, policy.ErrInvalidThreshold),
		errors.Is(err, policy.ErrTimeoutOutOfRange),
		errors.Is(err, policy.ErrInvalidPriority):
		return http.StatusUnprocessableEntity
	case errors.Is(err, approval.ErrExecutionFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondError writes err; status names the request state the call left behind, if any.
func respondError(c echo.Context, err error, status string) error {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		middleware.SetInternalError(c, err)
		msg = "internal error"
	}
	return c.JSON(code, ErrorResponse{Error: msg, Status: status, Retryable: approval.Retryable(err)})
}

// bindAndValidate fills dst from the body; a non-nil response means reject.
func bindAndValidate(c echo.Context, dst any) (int, *ErrorResponse) {
	if err := c.Bind(dst); err != nil {
		return http.StatusBadRequest, &ErrorResponse{Error: "invalid body"}
	}
	if err := c.Validate(dst); err != nil {
		return http.StatusUnprocessableEntity, &ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		}
	}
	return 0, nil
}
