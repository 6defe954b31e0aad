package schedule

import (
	"context"

	"github.com/robfig/cron/v3"

	"procsync/internal/etl"
	"procsync/pkg/errors"
	"procsync/pkg/models"
)

// RunFunc executes one ETL run in the given mode
type RunFunc func(ctx context.Context, mode etl.Mode) error

// Scheduler maps the configured cron cadences onto ETL run modes. It is a
// thin wrapper; overlapping runs are already serialized by the advisory
// run lock.
type Scheduler struct {
	cron *cron.Cron
	run  RunFunc
}

// New creates a scheduler that invokes run on each configured cadence
func New(cfg models.Schedule, run RunFunc) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(),
		run:  run,
	}

	cadences := []struct {
		spec string
		mode etl.Mode
	}{
		{cfg.Daily, etl.ModeDaily},
		{cfg.Weekly, etl.ModeWeekly},
		{cfg.Monthly, etl.ModeMonthly},
	}

	for _, c := range cadences {
		if c.spec == "" {
			continue
		}
		mode := c.mode
		if _, err := s.cron.AddFunc(c.spec, func() {
			_ = s.run(context.Background(), mode)
		}); err != nil {
			return nil, errors.ConfigError(
				"Invalid cron expression for "+string(mode)+" schedule",
				"schedule."+string(mode))
		}
	}

	return s, nil
}

// Start begins dispatching scheduled runs
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for an in-flight run to return
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Entries returns the scheduled entries, for status display
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}
