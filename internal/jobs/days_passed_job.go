package jobs

import (
	"context"
	"log/slog"
	"time"

	"tradeerp/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// DefaultDaysPassedSchedule runs the sweep every ten minutes.
const DefaultDaysPassedSchedule = "0 */10 * * * *"

// DaysPassedHandler runs one elapsed-time sweep.
type DaysPassedHandler interface {
	Handle(ctx context.Context, cmd commands.EmitDaysPassedCommand) (commands.DaysPassedResult, error)
}

// DaysPassedJob periodically emits DAYS_PASSED events for orders waiting on
// a time-triggered edge.
type DaysPassedJob struct {
	handler  DaysPassedHandler
	schedule string
	cron     *cron.Cron
	now      func() time.Time
	logger   *slog.Logger
}

// NewDaysPassedJob creates the job. An empty schedule means DefaultDaysPassedSchedule.
// The schedule is a six-field cron expression with seconds.
func NewDaysPassedJob(handler DaysPassedHandler, schedule string, logger *slog.Logger) *DaysPassedJob {
	if schedule == "" {
		schedule = DefaultDaysPassedSchedule
	}
	return &DaysPassedJob{
		handler:  handler,
		schedule: schedule,
		cron:     cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		now:      time.Now,
		logger:   logger.With("component", "days_passed_job"),
	}
}

// Start registers the sweep and starts the scheduler.
func (j *DaysPassedJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() { j.run(context.Background()) }); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Days passed job started", "schedule", j.schedule)
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (j *DaysPassedJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Days passed job stopped")
}

func (j *DaysPassedJob) run(ctx context.Context) {
	cmd, err := commands.NewEmitDaysPassedCommand(j.now(), 0)
	if err != nil {
		j.logger.ErrorContext(ctx, "Days passed job failed", "error", err)
		return
	}

	result, err := j.handler.Handle(ctx, cmd)
	if err != nil {
		j.logger.ErrorContext(ctx, "Days passed job failed", "error", err)
		return
	}
	if result.Emitted > 0 {
		j.logger.InfoContext(ctx, "Days passed sweep finished",
			"scanned", result.Scanned,
			"emitted", result.Emitted,
			"applied", result.Applied,
			"failed", result.Failed,
		)
	}
}
