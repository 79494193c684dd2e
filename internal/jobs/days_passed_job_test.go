package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"tradeerp/internal/core/application/usecases/commands"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDaysPassedHandler struct{ mock.Mock }

func (m *MockDaysPassedHandler) Handle(
	ctx context.Context,
	cmd commands.EmitDaysPassedCommand,
) (commands.DaysPassedResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.DaysPassedResult), args.Error(1)
}

func TestDaysPassedJob_Run(t *testing.T) {
	now := time.Date(2025, 7, 1, 3, 0, 0, 0, time.UTC)

	t.Run("sweeps with the job clock", func(t *testing.T) {
		handler := new(MockDaysPassedHandler)
		handler.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.EmitDaysPassedCommand) bool {
			return cmd.Now().Equal(now) && cmd.Limit() == commands.DefaultDaysPassedBatchSize
		})).Return(commands.DaysPassedResult{Scanned: 2, Emitted: 1, Applied: 1}, nil).Once()

		job := NewDaysPassedJob(handler, "", slog.New(slog.DiscardHandler))
		job.now = func() time.Time { return now }

		job.run(t.Context())

		handler.AssertExpectations(t)
	})

	t.Run("survives handler errors", func(t *testing.T) {
		handler := new(MockDaysPassedHandler)
		handler.On("Handle", mock.Anything, mock.Anything).
			Return(commands.DaysPassedResult{}, errors.New("db down")).Twice()

		job := NewDaysPassedJob(handler, "", slog.New(slog.DiscardHandler))
		job.now = func() time.Time { return now }

		job.run(t.Context())
		job.run(t.Context())

		handler.AssertExpectations(t)
	})
}

func TestDaysPassedJob_StartStop(t *testing.T) {
	t.Run("default schedule", func(t *testing.T) {
		job := NewDaysPassedJob(new(MockDaysPassedHandler), "", slog.New(slog.DiscardHandler))

		require.NoError(t, job.Start())
		job.Stop()

		assert.Equal(t, DefaultDaysPassedSchedule, job.schedule)
	})

	t.Run("rejects a malformed schedule", func(t *testing.T) {
		jm := NewJobManager(new(MockDaysPassedHandler), "every tuesday", slog.New(slog.DiscardHandler))

		err := jm.StartAll()

		require.ErrorContains(t, err, "failed to start days passed job")
	})
}
