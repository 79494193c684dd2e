package jobs

import (
	"fmt"
	"log/slog"
)

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	daysPassedJob *DaysPassedJob
}

// NewJobManager creates a new job manager with all required jobs.
// schedule is the cron expression of the DAYS_PASSED sweep.
func NewJobManager(daysPassedHandler DaysPassedHandler, schedule string, logger *slog.Logger) *JobManager {
	return &JobManager{
		daysPassedJob: NewDaysPassedJob(daysPassedHandler, schedule, logger),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.daysPassedJob.Start(); err != nil {
		return fmt.Errorf("failed to start days passed job: %w", err)
	}
	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.daysPassedJob.Stop()
}
