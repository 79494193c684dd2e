package commands

import (
	"errors"
	"time"

	"tradeerp/internal/pkg/errs"
	"tradeerp/internal/pkg/guard"
)

// DefaultDaysPassedBatchSize bounds how many orders one sweep looks at.
const DefaultDaysPassedBatchSize = 500

var ErrEmitDaysPassedCommandIsNotConstructed = errors.New(
	"EmitDaysPassedCommand must be created via NewEmitDaysPassedCommand constructor",
)

// EmitDaysPassedCommand asks for one sweep over orders waiting on a time edge.
type EmitDaysPassedCommand struct {
	now   time.Time
	limit int

	guard guard.ConstructorGuard
}

// NewEmitDaysPassedCommand measures elapsed time against now. A zero limit
// means DefaultDaysPassedBatchSize.
func NewEmitDaysPassedCommand(now time.Time, limit int) (EmitDaysPassedCommand, error) {
	if now.IsZero() {
		return EmitDaysPassedCommand{}, errs.NewValueIsRequiredError("now")
	}
	if limit < 0 {
		return EmitDaysPassedCommand{}, errs.NewValueIsOutOfRangeError("limit", limit, 0, "unbounded")
	}
	if limit == 0 {
		limit = DefaultDaysPassedBatchSize
	}
	return EmitDaysPassedCommand{
		now:   now,
		limit: limit,
		guard: guard.NewConstructorGuard(),
	}, nil
}

func (c EmitDaysPassedCommand) Validate() error {
	return c.guard.Validate(ErrEmitDaysPassedCommandIsNotConstructed)
}

func (c EmitDaysPassedCommand) Now() time.Time { return c.now }
func (c EmitDaysPassedCommand) Limit() int     { return c.limit }
