package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"care_reminder_service/internal/domain/notification"
	"care_reminder_service/internal/domain/reminder"
	"care_reminder_service/internal/domain/subject"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// DigestRunner is what the periodic driver triggers.
type DigestRunner interface {
	SendDailyDigests(ctx context.Context) (*RunReport, error)
	SendWeeklySummaries(ctx context.Context) (*RunReport, error)
}

// RunReport summarises one periodic run.
type RunReport struct {
	RunID   uuid.UUID
	Type    notification.RunType
	RunDate time.Time
	Sent    int
	Failed  int
	Skipped int
}

// DigestItem is one reminder line inside a notification.
type DigestItem struct {
	ID          string
	Title       string
	Kind        string
	DueDate     string
	DaysOverdue int
	Completable bool
}

// DigestService polls the reminder queries for every subject and sends the
// daily digest and the weekly summary. Subjects are independent: a failure
// for one is recorded and the run moves on.
type DigestService struct {
	reminders  *ReminderService
	subjects   subject.Repository
	runs       notification.Repository
	sender     notification.Sender
	defaultLoc *time.Location
	clock      func() time.Time
	logger     *logrus.Entry
}

func NewDigestService(
	reminders *ReminderService,
	subjects subject.Repository,
	runs notification.Repository,
	sender notification.Sender,
	defaultLoc *time.Location,
	logger *logrus.Entry,
) *DigestService {
	return &DigestService{
		reminders:  reminders,
		subjects:   subjects,
		runs:       runs,
		sender:     sender,
		defaultLoc: defaultLoc,
		clock:      time.Now,
		logger:     logger.WithField("component", "digest_service"),
	}
}

// composeFunc builds the variables for one subject. ok is false when there
// is nothing worth sending.
type composeFunc func(ctx context.Context, subj *subject.Subject) (vars map[string]any, ok bool, err error)

func (s *DigestService) SendDailyDigests(ctx context.Context) (*RunReport, error) {
	return s.run(ctx, notification.RunTypeDailyDigest, notification.TemplateDailyDigest,
		func(p subject.Preferences) bool { return p.DailyDigestEnabled },
		s.composeDaily)
}

func (s *DigestService) SendWeeklySummaries(ctx context.Context) (*RunReport, error) {
	return s.run(ctx, notification.RunTypeWeeklySummary, notification.TemplateWeeklySummary,
		func(p subject.Preferences) bool { return p.NotificationsEnabled },
		s.composeWeekly)
}

// SendWelcome greets the owner of a freshly registered subject. Delivery
// problems are logged and otherwise ignored.
func (s *DigestService) SendWelcome(ctx context.Context, subj *subject.Subject, seeded int) {
	msg := notification.Message{
		Recipient: recipientOf(subj),
		Template:  notification.TemplateWelcome,
		Variables: map[string]any{
			"firstName":   subj.Owner.FirstName,
			"subjectName": subj.Name,
			"seeded":      seeded,
		},
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.WithField("subject_id", subj.ID).WithError(err).Warn("Welcome message not delivered")
	}
}

func (s *DigestService) run(
	ctx context.Context,
	runType notification.RunType,
	template notification.TemplateID,
	enabled func(subject.Preferences) bool,
	compose composeFunc,
) (*RunReport, error) {
	run, err := s.findOrCreateRun(ctx, runType)
	if err != nil {
		return nil, err
	}
	logCtx := s.logger.WithFields(logrus.Fields{
		"run_id":   run.ID,
		"run_type": runType,
		"run_date": run.RunDate.Format(time.DateOnly),
	})
	report := &RunReport{RunID: run.ID, Type: runType, RunDate: run.RunDate}

	subjects, err := s.subjects.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}
	logCtx.WithField("subjects", len(subjects)).Info("Notification run started")

	for _, subj := range subjects {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		subjCtx := logCtx.WithField("subject_id", subj.ID)

		if !enabled(subj.Owner.Preferences) {
			report.Skipped++
			continue
		}
		sent, err := s.runs.HasSentDelivery(ctx, run.ID, subj.ID)
		if err != nil {
			subjCtx.WithError(err).Error("Failed to check earlier deliveries, skipping subject")
			report.Failed++
			continue
		}
		if sent {
			subjCtx.Debug("Already notified in this run")
			report.Skipped++
			continue
		}

		vars, ok, err := compose(ctx, subj)
		if err != nil {
			subjCtx.WithError(err).Error("Failed to compose notification")
			s.record(ctx, subjCtx, run.ID, subj.ID, template, notification.DeliveryFailed, err)
			report.Failed++
			continue
		}
		if !ok {
			report.Skipped++
			continue
		}

		msg := notification.Message{Recipient: recipientOf(subj), Template: template, Variables: vars}
		if err := s.sender.Send(ctx, msg); err != nil {
			subjCtx.WithError(err).Warn("Notification not delivered")
			s.record(ctx, subjCtx, run.ID, subj.ID, template, notification.DeliveryFailed, err)
			report.Failed++
			continue
		}
		s.record(ctx, subjCtx, run.ID, subj.ID, template, notification.DeliverySent, nil)
		report.Sent++
	}

	logCtx.WithFields(logrus.Fields{
		"sent":    report.Sent,
		"failed":  report.Failed,
		"skipped": report.Skipped,
	}).Info("Notification run finished")
	return report, nil
}

// findOrCreateRun reuses the run of the same type for today, so a job that
// fires twice resumes instead of notifying everybody again.
func (s *DigestService) findOrCreateRun(ctx context.Context, runType notification.RunType) (*notification.Run, error) {
	runDate := reminder.StartOfDay(s.clock().In(s.defaultLoc))

	run, err := s.runs.GetRunByDateAndType(ctx, runDate, runType)
	if err == nil {
		return run, nil
	}
	if !errors.Is(err, notification.ErrRunNotFound) {
		return nil, fmt.Errorf("failed to get notification run: %w", err)
	}

	run = &notification.Run{ID: uuid.New(), RunDate: runDate, Type: runType}
	if err := s.runs.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create notification run: %w", err)
	}
	return run, nil
}

func (s *DigestService) record(
	ctx context.Context,
	logCtx *logrus.Entry,
	runID, subjectID uuid.UUID,
	template notification.TemplateID,
	status notification.DeliveryStatus,
	cause error,
) {
	d := &notification.Delivery{
		ID:        uuid.New(),
		RunID:     runID,
		SubjectID: subjectID,
		Template:  template,
		Status:    status,
	}
	if cause != nil {
		d.Error = cause.Error()
	}
	if err := s.runs.RecordDelivery(ctx, d); err != nil {
		logCtx.WithError(err).Error("Failed to record delivery")
	}
}

func (s *DigestService) composeDaily(ctx context.Context, subj *subject.Subject) (map[string]any, bool, error) {
	today, err := s.reminders.ListToday(ctx, subj.ID)
	if err != nil {
		return nil, false, err
	}
	if len(today) == 0 {
		return nil, false, nil
	}
	medical, err := s.reminders.ListMedical(ctx, subj.ID)
	if err != nil {
		return nil, false, err
	}

	now := s.reminders.now(subj)
	return map[string]any{
		"firstName":   subj.Owner.FirstName,
		"subjectName": subj.Name,
		"date":        now.Format(time.DateOnly),
		"today":       toItems(today, now),
		"medical":     toItems(medical, now),
	}, true, nil
}

// composeWeekly lists overdue non-daily tasks and overdue vaccinations that
// were never completed.
func (s *DigestService) composeWeekly(ctx context.Context, subj *subject.Subject) (map[string]any, bool, error) {
	overdue, err := s.reminders.ListOverdueRecurring(ctx, subj.ID)
	if err != nil {
		return nil, false, err
	}

	var tasks, vaccinations []View
	for _, v := range overdue {
		switch v.Reminder.Kind {
		case reminder.Task:
			tasks = append(tasks, v)
		case reminder.Vaccination:
			if v.Reminder.CompletedOn == nil {
				vaccinations = append(vaccinations, v)
			}
		}
	}
	if len(tasks) == 0 && len(vaccinations) == 0 {
		return nil, false, nil
	}

	now := s.reminders.now(subj)
	return map[string]any{
		"firstName":           subj.Owner.FirstName,
		"subjectName":         subj.Name,
		"overdueTasks":        toItems(tasks, now),
		"overdueVaccinations": toItems(vaccinations, now),
	}, true, nil
}

func toItems(views []View, now time.Time) []DigestItem {
	items := make([]DigestItem, 0, len(views))
	for _, v := range views {
		item := DigestItem{
			ID:          v.Reminder.ID.String(),
			Title:       v.Reminder.Title,
			Kind:        v.Reminder.Kind.String(),
			Completable: v.Reminder.Kind == reminder.Task,
		}
		if v.NextDue != nil {
			due := v.NextDue.In(now.Location())
			item.DueDate = due.Format(time.DateOnly)
			if overdue := reminder.DaysBetween(due, now); overdue > 0 {
				item.DaysOverdue = overdue
			}
		}
		items = append(items, item)
	}
	return items
}

func recipientOf(subj *subject.Subject) notification.Recipient {
	return notification.Recipient{
		Name:           subj.Owner.FirstName,
		Email:          subj.Owner.Email,
		TelegramChatID: subj.Owner.TelegramChatID,
	}
}
