package kernel_test

import (
	"encoding/json"
	"testing"

	"tradeerp/internal/core/domain/model/kernel"
	"tradeerp/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validUUID = "550e8400-e29b-41d4-a716-446655440000"

func TestNewUUID(t *testing.T) {
	a := kernel.NewUUID()
	b := kernel.NewUUID()

	require.NoError(t, a.Validate())
	assert.False(t, a.IsEqual(b))
}

func TestUUIDFromString(t *testing.T) {
	t.Run("accepts canonical and alternate forms", func(t *testing.T) {
		for _, in := range []string{
			validUUID,
			"{" + validUUID + "}",
			"urn:uuid:" + validUUID,
			"550e8400e29b41d4a716446655440000",
		} {
			id, err := kernel.UUIDFromString(in)
			require.NoError(t, err, in)
			assert.Equal(t, validUUID, id.String())
		}
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		for _, in := range []string{"", "not-a-uuid", "550e8400-e29b-41d4-a716", validUUID + "-extra"} {
			_, err := kernel.UUIDFromString(in)
			require.Error(t, err, in)
			require.ErrorIs(t, err, errs.ErrValueIsInvalid)
			assert.Contains(t, err.Error(), "invalid UUID format")
		}
	})

	t.Run("rejects nil uuid", func(t *testing.T) {
		_, err := kernel.UUIDFromString("00000000-0000-0000-0000-000000000000")
		assert.Equal(t, kernel.ErrUUIDIsNotConstructed, err)
	})
}

func TestUUIDFromBytes(t *testing.T) {
	t.Run("round trips through Bytes", func(t *testing.T) {
		original := kernel.NewUUID()
		raw := original.Bytes()

		restored, err := kernel.UUIDFromBytes(raw[:])

		require.NoError(t, err)
		assert.True(t, original.IsEqual(restored))
	})

	t.Run("rejects short input", func(t *testing.T) {
		_, err := kernel.UUIDFromBytes([]byte{0x55, 0x0e})
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("rejects nil uuid bytes", func(t *testing.T) {
		_, err := kernel.UUIDFromBytes(make([]byte, 16))
		assert.Equal(t, kernel.ErrUUIDIsNotConstructed, err)
	})
}

func TestUUID_ZeroValue(t *testing.T) {
	var id kernel.UUID

	assert.True(t, id.IsZero())
	assert.Equal(t, kernel.ErrUUIDIsNotConstructed, id.Validate())
}

func TestUUID_JSON(t *testing.T) {
	type payload struct {
		OrderID kernel.UUID `json:"orderId"`
	}

	t.Run("marshals as string", func(t *testing.T) {
		id, err := kernel.UUIDFromString(validUUID)
		require.NoError(t, err)

		data, err := json.Marshal(payload{OrderID: id})

		require.NoError(t, err)
		assert.JSONEq(t, `{"orderId":"`+validUUID+`"}`, string(data))
	})

	t.Run("unmarshals and validates", func(t *testing.T) {
		var p payload
		require.NoError(t, json.Unmarshal([]byte(`{"orderId":"`+validUUID+`"}`), &p))
		assert.Equal(t, validUUID, p.OrderID.String())

		err := json.Unmarshal([]byte(`{"orderId":"nope"}`), &p)
		require.Error(t, err)
	})
}
