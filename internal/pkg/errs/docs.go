// Package errs holds the error types shared by the order service.
//
// Two families live here. The generic validation errors (ValueIsRequiredError,
// ValueIsInvalidError, ValueIsOutOfRangeError, ObjectNotFoundError) are
// returned by constructors and repositories. The lifecycle errors
// (SequenceAllocationFailedError, MalformedIdentifierError,
// IllegalTransitionError, ApprovalRequiredError, OverAllocationError) carry
// what a caller needs to react, for example the legal targets of a rejected
// transition or the quantity still open on a line item.
//
// Every type unwraps to a sentinel, so callers match with errors.Is and read
// details with errors.As:
//
//	var over *errs.OverAllocationError
//	if errors.As(err, &over) {
//	    // offer over.Remaining
//	}
//
// KindOf maps any error chain to a Kind for transport adapters.
package errs
