package kernel_test

import (
	"testing"

	"tradeerp/internal/core/domain/model/kernel"
	"tradeerp/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRole(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    kernel.Role
		wantErr error
	}{
		{name: "plain", raw: "manager", want: "manager"},
		{name: "trimmed", raw: "  sales ", want: "sales"},
		{name: "empty", raw: "   ", wantErr: errs.ErrValueIsRequired},
		{name: "with comma", raw: "sales,finance", wantErr: errs.ErrValueIsInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := kernel.NewRole(tt.raw)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewActor(t *testing.T) {
	t.Run("requires id", func(t *testing.T) {
		_, err := kernel.NewActor(" ")
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("rejects invalid role", func(t *testing.T) {
		_, err := kernel.NewActor("u-1", kernel.Role(""))
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("roles are copied", func(t *testing.T) {
		roles := []kernel.Role{"sales"}
		actor, err := kernel.NewActor("u-1", roles...)
		require.NoError(t, err)

		roles[0] = "manager"
		got := actor.Roles()
		got[0] = "finance"

		assert.Equal(t, []kernel.Role{"sales"}, actor.Roles())
	})
}

func TestActor_HasAnyRole(t *testing.T) {
	actor, err := kernel.NewActor("u-1", "sales", "logistics")
	require.NoError(t, err)

	assert.True(t, actor.HasAnyRole([]kernel.Role{"manager", "logistics"}))
	assert.False(t, actor.HasAnyRole([]kernel.Role{"manager"}))
	assert.False(t, actor.HasAnyRole(nil))
}

func TestSystemActor(t *testing.T) {
	actor := kernel.SystemActor()

	assert.True(t, actor.IsSystem())
	assert.Equal(t, kernel.SystemActorID, actor.ID())
	assert.Empty(t, actor.Roles())
}
