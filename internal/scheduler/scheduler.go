// Package scheduler runs the recurring accrual and notification jobs on
// independent cron cadences. Jobs are non-reentrant: a run still in flight
// causes the next trigger to be skipped rather than overlapped.
package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler wraps the cron runner shared by all recurring jobs
type Scheduler struct {
	cron *cron.Cron
	log  *logrus.Logger
}

// New creates a scheduler whose jobs skip overlapping runs and recover
// from panics.
func New(log *logrus.Logger) *Scheduler {
	cronLog := cron.PrintfLogger(log)
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cronLog),
			cron.Recover(cronLog),
		)),
		log: log,
	}
}

// Add registers a job on the given cron spec
func (s *Scheduler) Add(spec string, job cron.Job) error {
	_, err := s.cron.AddJob(spec, job)
	return err
}

// Start begins running scheduled jobs in their own goroutines
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling; the returned context is done once in-flight runs
// complete.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
