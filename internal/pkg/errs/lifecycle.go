package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrSequenceAllocationFailed = errors.New("sequence allocation failed")
	ErrMalformedIdentifier      = errors.New("malformed identifier")
	ErrIllegalTransition        = errors.New("illegal transition")
	ErrApprovalRequired         = errors.New("approval required")
	ErrOverAllocation           = errors.New("over allocation")
)

// Kind classifies an error by the failure it reports to callers.
type Kind int

const (
	KindUnknown Kind = iota
	KindSequenceAllocationFailed
	KindMalformedIdentifier
	KindIllegalTransition
	KindApprovalRequired
	KindOverAllocation
	KindNotFound
	KindInvalid
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindSequenceAllocationFailed:
		return "SequenceAllocationFailed"
	case KindMalformedIdentifier:
		return "MalformedIdentifier"
	case KindIllegalTransition:
		return "IllegalTransition"
	case KindApprovalRequired:
		return "ApprovalRequired"
	case KindOverAllocation:
		return "OverAllocation"
	case KindNotFound:
		return "NotFound"
	case KindInvalid:
		return "Invalid"
	case KindConflict:
		return "Conflict"
	default:
		return "Unknown"
	}
}

// KindOf walks the error chain and returns the first matching Kind.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrSequenceAllocationFailed):
		return KindSequenceAllocationFailed
	case errors.Is(err, ErrMalformedIdentifier):
		return KindMalformedIdentifier
	case errors.Is(err, ErrIllegalTransition):
		return KindIllegalTransition
	case errors.Is(err, ErrApprovalRequired):
		return KindApprovalRequired
	case errors.Is(err, ErrOverAllocation):
		return KindOverAllocation
	case errors.Is(err, ErrObjectNotFound):
		return KindNotFound
	case errors.Is(err, ErrObjectAlreadyExists):
		return KindConflict
	case errors.Is(err, ErrValueIsInvalid),
		errors.Is(err, ErrValueIsRequired),
		errors.Is(err, ErrValueIsOutOfRange):
		return KindInvalid
	default:
		return KindUnknown
	}
}

// SequenceAllocationFailedError is returned when the order number counter
// could not be advanced. There is no fallback numbering.
type SequenceAllocationFailedError struct {
	PeriodKey string
	Cause     error
}

func NewSequenceAllocationFailedError(periodKey string, cause error) *SequenceAllocationFailedError {
	return &SequenceAllocationFailedError{
		PeriodKey: periodKey,
		Cause:     cause,
	}
}

func (e *SequenceAllocationFailedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: period %s (cause: %v)", ErrSequenceAllocationFailed, e.PeriodKey, e.Cause)
	}
	return fmt.Sprintf("%s: period %s", ErrSequenceAllocationFailed, e.PeriodKey)
}

func (e *SequenceAllocationFailedError) Unwrap() []error {
	if e.Cause != nil {
		return []error{ErrSequenceAllocationFailed, e.Cause}
	}
	return []error{ErrSequenceAllocationFailed}
}

// MalformedIdentifierError is returned when a rendered order number cannot be parsed
// or the parts cannot be rendered under the requested scheme.
type MalformedIdentifierError struct {
	Value  string
	Scheme string
	Cause  error
}

func NewMalformedIdentifierError(value, scheme string, cause error) *MalformedIdentifierError {
	return &MalformedIdentifierError{
		Value:  value,
		Scheme: scheme,
		Cause:  cause,
	}
}

func (e *MalformedIdentifierError) Error() string {
	msg := fmt.Sprintf("%s: %q is not a valid %s order number", ErrMalformedIdentifier, sanitize(e.Value), e.Scheme)
	if e.Cause != nil {
		return fmt.Sprintf("%s (cause: %v)", msg, e.Cause)
	}
	return msg
}

func (e *MalformedIdentifierError) Unwrap() error {
	return ErrMalformedIdentifier
}

// IllegalTransitionError carries the legal targets from the current status so
// that callers can offer a valid choice.
type IllegalTransitionError struct {
	From         string
	To           string
	LegalTargets []string
}

func NewIllegalTransitionError(from, to string, legalTargets []string) *IllegalTransitionError {
	return &IllegalTransitionError{
		From:         from,
		To:           to,
		LegalTargets: legalTargets,
	}
}

func (e *IllegalTransitionError) Error() string {
	if len(e.LegalTargets) == 0 {
		return fmt.Sprintf("%s: %s -> %s (%s is terminal)", ErrIllegalTransition, e.From, e.To, e.From)
	}
	return fmt.Sprintf("%s: %s -> %s (legal targets: %s)",
		ErrIllegalTransition, e.From, e.To, strings.Join(e.LegalTargets, ", "))
}

func (e *IllegalTransitionError) Unwrap() error {
	return ErrIllegalTransition
}

// ApprovalRequiredError is returned when a gated edge is requested by an actor
// holding none of the approval roles.
type ApprovalRequiredError struct {
	From          string
	To            string
	ApprovalRoles []string
}

func NewApprovalRequiredError(from, to string, approvalRoles []string) *ApprovalRequiredError {
	return &ApprovalRequiredError{
		From:          from,
		To:            to,
		ApprovalRoles: approvalRoles,
	}
}

func (e *ApprovalRequiredError) Error() string {
	return fmt.Sprintf("%s: %s -> %s requires one of roles [%s]",
		ErrApprovalRequired, e.From, e.To, strings.Join(e.ApprovalRoles, ", "))
}

func (e *ApprovalRequiredError) Unwrap() error {
	return ErrApprovalRequired
}

// OverAllocationError is returned when a batch quantity does not fit into the
// remaining allocatable quantity of its line item.
type OverAllocationError struct {
	LineItemID string
	Requested  int
	Remaining  int
}

func NewOverAllocationError(lineItemID string, requested, remaining int) *OverAllocationError {
	return &OverAllocationError{
		LineItemID: lineItemID,
		Requested:  requested,
		Remaining:  remaining,
	}
}

func (e *OverAllocationError) Error() string {
	return fmt.Sprintf("%s: line item %s requested %d, remaining %d",
		ErrOverAllocation, e.LineItemID, e.Requested, e.Remaining)
}

func (e *OverAllocationError) Unwrap() error {
	return ErrOverAllocation
}
