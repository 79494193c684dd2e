package ports

import (
	"context"

	"tradeerp/internal/core/domain/model/ordernumber"
)

// SequenceRepository issues order number sequences.
type SequenceRepository interface {
	// Next returns the previous maximum for (scheme, periodKey) plus one, or 1.
	// Two callers never receive the same value. Storage failures are returned
	// as errs.SequenceAllocationFailedError; there is no fallback numbering.
	Next(ctx context.Context, scheme ordernumber.Scheme, periodKey string) (int, error)
}
