// Package jobs provides scheduled background tasks for the order service.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3.
//
// # Available Jobs
//
// 1. DaysPassedJob - sweeps orders whose current status has an outgoing time
// edge (for example paid -> closed after DAYS_PASSED:30) and feeds a
// DAYS_PASSED lifecycle event for each one through the event handler
//
// # Usage
//
// Jobs are managed through JobManager which provides a unified interface:
//
//	jobManager := jobs.NewJobManager(daysPassedHandler, cfg.DaysPassedSchedule, logger)
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//
//	defer jobManager.StopAll()
//
// # Scheduling
//
// Schedules use six fields with seconds. The default "0 */10 * * * *" runs
// every ten minutes; overlapping runs are skipped.
//
// # Error Handling
//
// A failed sweep is logged and retried on the next tick. Events are idempotent,
// so an order seen by two sweeps still transitions once.
package jobs
