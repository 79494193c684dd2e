package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"tradeerp/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectNotFoundError(t *testing.T) {
	t.Run("without cause prints the id only", func(t *testing.T) {
		err := errs.NewObjectNotFoundError("order", "550e8400-e29b-41d4-a716-446655440000")

		assert.Equal(t, "order", err.ParamName)
		require.NoError(t, err.Cause)
		assert.Equal(t, "object not found: 550e8400-e29b-41d4-a716-446655440000", err.Error())
		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})

	t.Run("with cause names the parameter", func(t *testing.T) {
		cause := errors.New("record not found")
		err := errs.NewObjectNotFoundErrorWithCause("lineItem", "L-1", cause)

		assert.Equal(t,
			"object not found: param is: lineItem, ID is: L-1 (cause: record not found)",
			err.Error())
		assert.Equal(t, errs.ErrObjectNotFound, err.Unwrap())
	})
}

func TestObjectAlreadyExistsError(t *testing.T) {
	err := errs.NewObjectAlreadyExistsError("order", "550e8400-e29b-41d4-a716-446655440000")

	assert.Equal(t, "object already exists: order 550e8400-e29b-41d4-a716-446655440000", err.Error())
	require.ErrorIs(t, err, errs.ErrObjectAlreadyExists)

	withCause := errs.NewObjectAlreadyExistsErrorWithCause("order", "x", errors.New("unique violation"))
	assert.Equal(t,
		"object already exists: param is: order, ID is: x (cause: unique violation)",
		withCause.Error())
	assert.Equal(t, errs.ErrObjectAlreadyExists, withCause.Unwrap())
}

func TestValidationErrors(t *testing.T) {
	cause := errors.New("must be positive")

	tests := []struct {
		name     string
		err      error
		sentinel error
		message  string
	}{
		{
			name:     "invalid",
			err:      errs.NewValueIsInvalidError("currency"),
			sentinel: errs.ErrValueIsInvalid,
			message:  "value is invalid: currency",
		},
		{
			name:     "invalid with cause",
			err:      errs.NewValueIsInvalidErrorWithCause("quantity", cause),
			sentinel: errs.ErrValueIsInvalid,
			message:  "value is invalid: quantity (cause: must be positive)",
		},
		{
			name:     "required",
			err:      errs.NewValueIsRequiredError("partNo"),
			sentinel: errs.ErrValueIsRequired,
			message:  "value is required: partNo",
		},
		{
			name:     "required with cause",
			err:      errs.NewValueIsRequiredErrorWithCause("approval roles", cause),
			sentinel: errs.ErrValueIsRequired,
			message:  "value is required: approval roles (cause: must be positive)",
		},
		{
			name:     "out of range",
			err:      errs.NewValueIsOutOfRangeError("sequence", 100000, 1, 99999),
			sentinel: errs.ErrValueIsOutOfRange,
			message:  "value is invalid: 100000 is sequence, min value is 1, max value is 99999",
		},
		{
			name:     "out of range with cause",
			err:      errs.NewValueIsOutOfRangeErrorWithCause("month", 13, 1, 12, cause),
			sentinel: errs.ErrValueIsOutOfRange,
			message:  "value is invalid: 13 is month, min value is 1, max value is 12 (cause: must be positive)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.message, tt.err.Error())
			require.ErrorIs(t, tt.err, tt.sentinel)
			assert.Equal(t, errs.KindInvalid, errs.KindOf(tt.err))
		})
	}
}

func TestValueIsOutOfRangeError_SanitizesValues(t *testing.T) {
	err := errs.NewValueIsOutOfRangeError("trackingNumber", "SF123\nSF456", 0, 64)

	assert.Contains(t, err.Error(), "SF123 SF456")
	assert.NotContains(t, err.Error(), "\n")
}

func TestErrorsSurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("load order: %w", errs.NewObjectNotFoundError("order", "42"))

	var notFound *errs.ObjectNotFoundError
	require.ErrorAs(t, wrapped, &notFound)
	assert.Equal(t, "42", notFound.ID)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(wrapped))
}
