package http

import (
	"errors"
	"net/http"

	"tradeerp/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

// statusFor maps an error kind to the HTTP status reported to the caller.
func statusFor(kind errs.Kind) int {
	switch kind {
	case errs.KindNotFound:
		return http.StatusNotFound
	case errs.KindInvalid, errs.KindMalformedIdentifier:
		return http.StatusBadRequest
	case errs.KindIllegalTransition, errs.KindConflict:
		return http.StatusConflict
	case errs.KindApprovalRequired:
		return http.StatusForbidden
	case errs.KindOverAllocation:
		return http.StatusUnprocessableEntity
	case errs.KindSequenceAllocationFailed:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(ctx echo.Context, err error) error {
	kind := errs.KindOf(err)
	code := statusFor(kind)

	body := Error{
		Code:    code,
		Kind:    kind.String(),
		Message: err.Error(),
	}
	if code == http.StatusInternalServerError {
		ctx.Logger().Error(err)
		body.Kind = ""
		body.Message = "Internal server error"
	}

	var illegal *errs.IllegalTransitionError
	if errors.As(err, &illegal) {
		body.LegalTargets = nonNil(illegal.LegalTargets)
	}
	var approval *errs.ApprovalRequiredError
	if errors.As(err, &approval) {
		body.ApprovalRoles = nonNil(approval.ApprovalRoles)
	}
	var over *errs.OverAllocationError
	if errors.As(err, &over) {
		body.Requested = &over.Requested
		body.Remaining = &over.Remaining
	}

	return ctx.JSON(code, body)
}

func writeBadRequest(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusBadRequest, Error{
		Code:    http.StatusBadRequest,
		Kind:    errs.KindInvalid.String(),
		Message: message,
	})
}

// writeInvalid reports a request that could not be turned into a command or
// query. Constructor errors without a kind are validation failures.
func writeInvalid(ctx echo.Context, err error) error {
	if errs.KindOf(err) == errs.KindUnknown {
		return ctx.JSON(http.StatusBadRequest, Error{
			Code:    http.StatusBadRequest,
			Kind:    errs.KindInvalid.String(),
			Message: err.Error(),
		})
	}
	return writeError(ctx, err)
}
