// Package scheduler runs the periodic jobs of the API: meeting reminders.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/meeting"
)

const jobTimeout = 5 * time.Minute

var nowFunc = time.Now // mockable

type Scheduler struct {
	cron       *cron.Cron
	meetingSvc meeting.Service
	logger     core.Logger
}

// New registers the jobs configured in conf; it does not start them.
func New(conf *core.Config, meetingSvc meeting.Service, logger core.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:       cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger))),
		meetingSvc: meetingSvc,
		logger:     logger,
	}
	if _, err := s.cron.AddFunc(conf.Scheduler.MeetingReminderSpec, s.sendMeetingReminders); err != nil {
		return nil, errors.Wrapf(err, "scheduling meeting reminders %q", conf.Scheduler.MeetingReminderSpec)
	}
	return s, nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops the scheduler and waits for running jobs, at most until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) sendMeetingReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	if _, err := s.RemindMeetings(ctx); err != nil {
		s.logger.Error(fmt.Sprintf("scheduler: meeting reminders: %v", err), err)
	}
}

// RemindMeetings emails the audiences of today's meetings.
func (s *Scheduler) RemindMeetings(ctx context.Context) (int, error) {
	today := core.DateOf(nowFunc().UTC())
	sent, err := s.meetingSvc.SendReminders(ctx, today)
	if err != nil {
		return sent, errors.Wrap(err, "sending reminders")
	}
	s.logger.Info(fmt.Sprintf("scheduler: %d meeting reminders sent for %s", sent, today))
	return sent, nil
}
