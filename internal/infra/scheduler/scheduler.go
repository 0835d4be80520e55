package scheduler

import (
	"context"
	"fmt"
	"time"

	"care_reminder_service/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const jobTimeout = 5 * time.Minute

// ReminderScheduler fires the daily digest and the weekly summary on their
// cron specs, evaluated in the service's default time zone.
type ReminderScheduler struct {
	cronEngine     *cron.Cron
	digests        app.DigestRunner
	logger         *logrus.Entry
	cronSpecDaily  string
	cronSpecWeekly string
}

func NewReminderScheduler(
	digests app.DigestRunner,
	logger *logrus.Entry,
	loc *time.Location,
	cronSpecDaily string, // e.g. "0 8 * * *" (08:00 every day)
	cronSpecWeekly string, // e.g. "0 0 * * 0" (midnight on Sunday)
) *ReminderScheduler {
	return &ReminderScheduler{
		cronEngine:     cron.New(cron.WithLocation(loc)),
		digests:        digests,
		logger:         logger.WithField("component", "scheduler"),
		cronSpecDaily:  cronSpecDaily,
		cronSpecWeekly: cronSpecWeekly,
	}
}

// Start registers the jobs and starts the cron engine. An invalid spec is
// returned before anything runs.
func (s *ReminderScheduler) Start() error {
	s.logger.Info("Starting reminder scheduler")

	if _, err := s.cronEngine.AddFunc(s.cronSpecDaily, func() {
		s.execute("daily_digest", s.digests.SendDailyDigests)
	}); err != nil {
		return fmt.Errorf("could not add daily digest cron job %q: %w", s.cronSpecDaily, err)
	}

	if _, err := s.cronEngine.AddFunc(s.cronSpecWeekly, func() {
		s.execute("weekly_summary", s.digests.SendWeeklySummaries)
	}); err != nil {
		return fmt.Errorf("could not add weekly summary cron job %q: %w", s.cronSpecWeekly, err)
	}

	s.cronEngine.Start()
	s.logger.WithFields(logrus.Fields{
		"daily_spec":  s.cronSpecDaily,
		"weekly_spec": s.cronSpecWeekly,
	}).Info("Reminder scheduler started")
	return nil
}

func (s *ReminderScheduler) execute(job string, run func(context.Context) (*app.RunReport, error)) {
	logCtx := s.logger.WithField("job", job)
	logCtx.Info("Cron job triggered")

	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	report, err := run(ctx)
	if err != nil {
		logCtx.WithError(err).Error("Cron job failed")
		return
	}
	logCtx.WithFields(logrus.Fields{
		"run_id":  report.RunID,
		"sent":    report.Sent,
		"failed":  report.Failed,
		"skipped": report.Skipped,
	}).Info("Cron job finished")
}

// Stop stops scheduling new jobs and waits for running ones to finish.
func (s *ReminderScheduler) Stop() {
	s.logger.Info("Stopping reminder scheduler")
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.logger.Info("Reminder scheduler gracefully stopped")
}
