package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"care_reminder_service/internal/domain/reminder"
	"care_reminder_service/internal/domain/subject"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CatalogLoader returns the baseline reminder definitions used for seeding.
type CatalogLoader interface {
	Load(ctx context.Context) ([]reminder.Template, error)
}

// View is a reminder together with its derived fields. NextDue is nil and
// Range empty when the due date cannot be computed. Milestones never carry a
// Range.
type View struct {
	Reminder *reminder.Reminder
	NextDue  *time.Time
	Range    reminder.Range
}

// CreateInput describes a custom reminder added by a person.
type CreateInput struct {
	Kind                 reminder.Kind
	Title                string
	Description          string
	Notes                string
	Frequency            reminder.Frequency
	OccurrenceOffsetDays int
	StartDate            *time.Time
}

// ReminderService seeds, mutates and answers queries about reminders. Every
// "now" is read once per call from the injected clock and converted into the
// subject's time zone before reaching the engine.
type ReminderService struct {
	reminders  reminder.Repository
	subjects   subject.Repository
	catalog    CatalogLoader
	defaultLoc *time.Location
	clock      func() time.Time
	logger     *logrus.Entry
}

type ReminderServiceOption func(*ReminderService)

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) ReminderServiceOption {
	return func(s *ReminderService) { s.clock = clock }
}

func NewReminderService(
	rr reminder.Repository,
	sr subject.Repository,
	catalog CatalogLoader,
	defaultLoc *time.Location,
	logger *logrus.Entry,
	opts ...ReminderServiceOption,
) *ReminderService {
	s := &ReminderService{
		reminders:  rr,
		subjects:   sr,
		catalog:    catalog,
		defaultLoc: defaultLoc,
		clock:      time.Now,
		logger:     logger.WithField("component", "reminder_service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// --- Mutations ---

// RegisterSubject stores a new subject and seeds its baseline reminders.
// A failed seed leaves the subject registered with no reminders.
func (s *ReminderService) RegisterSubject(ctx context.Context, subj *subject.Subject) (int, error) {
	if subj.ID == uuid.Nil {
		subj.ID = uuid.New()
	}
	if strings.TrimSpace(subj.Name) == "" {
		return 0, fmt.Errorf("%w: subject name is required", ErrInvalidOperation)
	}
	if err := s.subjects.Create(ctx, subj); err != nil {
		return 0, fmt.Errorf("failed to create subject: %w", err)
	}
	return s.SeedBaseline(ctx, subj.ID)
}

// SeedBaseline attaches every catalog reminder whose title the subject does
// not have yet. Recurring tasks get a backfilled completion when the date of
// birth is known. Either all new reminders are stored or none.
func (s *ReminderService) SeedBaseline(ctx context.Context, subjectID uuid.UUID) (int, error) {
	logCtx := s.logger.WithField("subject_id", subjectID)

	subj, err := s.loadSubject(ctx, subjectID)
	if err != nil {
		return 0, err
	}

	templates, err := s.catalog.Load(ctx)
	if err != nil {
		logCtx.WithError(err).Error("Baseline catalog load failed, nothing seeded")
		return 0, fmt.Errorf("%w: %w", ErrCatalogLoad, err)
	}

	existing, err := s.reminders.ListBySubject(ctx, subjectID)
	if err != nil {
		return 0, fmt.Errorf("failed to list reminders for subject %s: %w", subjectID, err)
	}
	seen := make(map[string]struct{}, len(existing)+len(templates))
	for _, r := range existing {
		seen[r.Title] = struct{}{}
	}

	now := s.now(subj)
	var toSave []*reminder.Reminder
	for _, tmpl := range templates {
		if _, dup := seen[tmpl.Title]; dup {
			logCtx.WithField("title", tmpl.Title).Debug("Reminder already present, skipping")
			continue
		}
		seen[tmpl.Title] = struct{}{}

		r := tmpl.Instantiate(subjectID)
		if r.Kind == reminder.Task && subj.DateOfBirth != nil {
			anchor := reminder.AnchorDate(*subj.DateOfBirth, now.Location())
			if last, ok := reminder.LastCompletionBefore(anchor, now, r.Frequency, r.OccurrenceOffsetDays); ok {
				r.CompletedOn = &last
			}
		}
		toSave = append(toSave, r)
	}

	if len(toSave) == 0 {
		logCtx.Info("Baseline already seeded, nothing to add")
		return 0, nil
	}
	if err := s.reminders.SaveAll(ctx, toSave); err != nil {
		return 0, fmt.Errorf("failed to save baseline reminders: %w", err)
	}
	logCtx.WithField("count", len(toSave)).Info("Baseline reminders seeded")
	return len(toSave), nil
}

// CreateCustom adds a user-created task or vaccination.
func (s *ReminderService) CreateCustom(ctx context.Context, subjectID uuid.UUID, in CreateInput) (*View, error) {
	if in.Kind == nil || !reminder.Mutable(in.Kind) {
		return nil, fmt.Errorf("%w: only tasks and vaccinations can be created", ErrInvalidOperation)
	}
	if !in.Frequency.Valid() {
		return nil, fmt.Errorf("%w: %w: %q", ErrInvalidOperation, reminder.ErrInvalidFrequency, in.Frequency)
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidOperation)
	}

	subj, err := s.loadSubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	now := s.now(subj)
	r := &reminder.Reminder{
		ID:                   uuid.New(),
		SubjectID:            subjectID,
		Kind:                 in.Kind,
		Title:                in.Title,
		Description:          in.Description,
		Notes:                in.Notes,
		Frequency:            in.Frequency,
		OccurrenceOffsetDays: in.OccurrenceOffsetDays,
		RequiresAction:       true,
		UserCreated:          true,
	}
	if in.StartDate != nil {
		reanchor(r, subj, *in.StartDate, now)
	}

	if err := s.reminders.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to save reminder: %w", err)
	}
	s.logger.WithFields(logrus.Fields{
		"subject_id":  subjectID,
		"reminder_id": r.ID,
		"kind":        r.Kind.String(),
	}).Info("Custom reminder created")

	return s.view(r, subj, now)
}

// Update applies a partial edit. Changing the frequency drops the previous
// completion unless the patch supplies one. A start date re-anchors the
// reminder after that.
func (s *ReminderService) Update(ctx context.Context, id uuid.UUID, patch reminder.Patch) (*View, error) {
	r, err := s.loadReminder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !reminder.Mutable(r.Kind) {
		return nil, fmt.Errorf("%w: %s reminders cannot be edited", ErrInvalidOperation, r.Kind)
	}
	if patch.Frequency != nil && !patch.Frequency.Valid() {
		return nil, fmt.Errorf("%w: %w: %q", ErrInvalidOperation, reminder.ErrInvalidFrequency, *patch.Frequency)
	}

	subj, err := s.loadSubject(ctx, r.SubjectID)
	if err != nil {
		return nil, err
	}
	now := s.now(subj)

	if changed := patch.Apply(r); changed && patch.CompletedOn == nil {
		r.CompletedOn = nil
	}
	if patch.StartDate != nil {
		reanchor(r, subj, *patch.StartDate, now)
	}
	r.UserCreated = true

	if err := s.reminders.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to update reminder %s: %w", id, err)
	}
	return s.view(r, subj, now)
}

// MarkComplete records a completion now. With taskOnly set, anything but a
// task is rejected.
func (s *ReminderService) MarkComplete(ctx context.Context, id uuid.UUID, taskOnly bool) (*View, error) {
	r, err := s.loadReminder(ctx, id)
	if err != nil {
		return nil, err
	}
	if taskOnly && r.Kind != reminder.Task {
		return nil, fmt.Errorf("%w: only tasks can be completed this way", ErrInvalidOperation)
	}

	subj, err := s.loadSubject(ctx, r.SubjectID)
	if err != nil {
		return nil, err
	}
	now := s.now(subj)

	r.MarkComplete(now)
	if err := s.reminders.Save(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to mark reminder %s complete: %w", id, err)
	}
	return s.view(r, subj, now)
}

func (s *ReminderService) Delete(ctx context.Context, id uuid.UUID) error {
	r, err := s.loadReminder(ctx, id)
	if err != nil {
		return err
	}
	if !reminder.Mutable(r.Kind) {
		return fmt.Errorf("%w: %s reminders cannot be deleted", ErrInvalidOperation, r.Kind)
	}
	if err := s.reminders.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete reminder %s: %w", id, err)
	}
	return nil
}

// reanchor rewrites the stored anchor fields so the reminder first comes due
// on the date of start. Vaccinations and one-off tasks move their offset from
// birth; recurring tasks get a completion one cycle before the next boundary.
func reanchor(r *reminder.Reminder, subj *subject.Subject, start, now time.Time) {
	loc := now.Location()
	switch {
	case r.Kind == reminder.Task && r.Frequency.Repeats():
		if last, ok := reminder.LastCompletedFromStart(start, r.Frequency, now); ok {
			r.CompletedOn = &last
		}
	case subj.DateOfBirth != nil:
		r.OccurrenceOffsetDays = reminder.OffsetFromBirth(*subj.DateOfBirth, start, loc)
	case r.Kind == reminder.Task:
		// without a birth date a one-off task is based on today
		r.OccurrenceOffsetDays = reminder.DaysBetween(now, start.In(loc))
	}
}

// --- Queries ---

func (s *ReminderService) Get(ctx context.Context, id uuid.UUID) (*View, error) {
	r, err := s.loadReminder(ctx, id)
	if err != nil {
		return nil, err
	}
	subj, err := s.loadSubject(ctx, r.SubjectID)
	if err != nil {
		return nil, err
	}
	return s.view(r, subj, s.now(subj))
}

// EstimateNextDue returns the derived due date of one reminder.
func (s *ReminderService) EstimateNextDue(ctx context.Context, id uuid.UUID) (*time.Time, error) {
	v, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return v.NextDue, nil
}

// ListForSubject returns every reminder of the subject with derived fields.
func (s *ReminderService) ListForSubject(ctx context.Context, subjectID uuid.UUID) ([]View, error) {
	return s.listViews(ctx, subjectID, nil)
}

// ListToday returns reminders due today or earlier that have not been
// completed ahead of their due date. Daily tasks are always considered.
func (s *ReminderService) ListToday(ctx context.Context, subjectID uuid.UUID) ([]View, error) {
	return s.listViews(ctx, subjectID, func(v View, now time.Time) bool {
		if v.NextDue == nil || v.Reminder.Kind == reminder.Milestone {
			return false
		}
		dueByToday := !reminder.StartOfDay(v.NextDue.In(now.Location())).After(reminder.StartOfDay(now))
		if !dueByToday && v.Reminder.Frequency != reminder.Daily {
			return false
		}
		return v.Reminder.CompletedOn == nil || !v.NextDue.After(now)
	})
}

// ListUpcoming returns classified, non-milestone reminders. A non-nil
// horizon keeps only those due within [today, today+horizon].
func (s *ReminderService) ListUpcoming(ctx context.Context, subjectID uuid.UUID, horizonDays *int) ([]View, error) {
	if err := checkHorizon(horizonDays); err != nil {
		return nil, err
	}
	return s.listViews(ctx, subjectID, func(v View, now time.Time) bool {
		if v.NextDue == nil || v.Reminder.Kind == reminder.Milestone {
			return false
		}
		return horizonDays == nil || reminder.WithinHorizon(*v.NextDue, now, *horizonDays)
	})
}

const medicalHorizonDays = 30

// ListMedical returns vaccinations due within the next 30 days.
func (s *ReminderService) ListMedical(ctx context.Context, subjectID uuid.UUID) ([]View, error) {
	return s.listViews(ctx, subjectID, func(v View, now time.Time) bool {
		return v.Reminder.Kind == reminder.Vaccination &&
			v.NextDue != nil &&
			reminder.WithinHorizon(*v.NextDue, now, medicalHorizonDays)
	})
}

// ListOverdueRecurring returns tasks and vaccinations past their due instant,
// leaving out daily tasks which are due every day anyway.
func (s *ReminderService) ListOverdueRecurring(ctx context.Context, subjectID uuid.UUID) ([]View, error) {
	return s.listViews(ctx, subjectID, func(v View, now time.Time) bool {
		if v.Reminder.Kind == reminder.Milestone || v.Reminder.Frequency == reminder.Daily {
			return false
		}
		return v.NextDue != nil && v.NextDue.Before(now)
	})
}

// ClassifyRange derives the range of one reminder. ok is false when the
// reminder has no computable due date, is a milestone, or falls outside the
// optional horizon.
func (s *ReminderService) ClassifyRange(ctx context.Context, id uuid.UUID, horizonDays *int) (v *View, ok bool, err error) {
	if err := checkHorizon(horizonDays); err != nil {
		return nil, false, err
	}
	r, err := s.loadReminder(ctx, id)
	if err != nil {
		return nil, false, err
	}
	subj, err := s.loadSubject(ctx, r.SubjectID)
	if err != nil {
		return nil, false, err
	}
	now := s.now(subj)
	v, err = s.view(r, subj, now)
	if err != nil {
		return nil, false, err
	}
	if v.Range == "" {
		return v, false, nil
	}
	if horizonDays != nil && !reminder.WithinHorizon(*v.NextDue, now, *horizonDays) {
		return v, false, nil
	}
	return v, true, nil
}

// CurrentMilestone returns the latest milestone the subject has reached by
// age. ok is false when the birth date is unknown or none was reached yet.
func (s *ReminderService) CurrentMilestone(ctx context.Context, subjectID uuid.UUID) (v *View, ok bool, err error) {
	subj, err := s.loadSubject(ctx, subjectID)
	if err != nil {
		return nil, false, err
	}
	if subj.DateOfBirth == nil {
		return nil, false, nil
	}

	rs, err := s.reminders.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list reminders for subject %s: %w", subjectID, err)
	}

	now := s.now(subj)
	age := reminder.AgeInDays(*subj.DateOfBirth, now)
	var best *reminder.Reminder
	for _, r := range rs {
		if r.Kind != reminder.Milestone || r.OccurrenceOffsetDays > age {
			continue
		}
		if best == nil || r.OccurrenceOffsetDays > best.OccurrenceOffsetDays {
			best = r
		}
	}
	if best == nil {
		return nil, false, nil
	}
	v, err = s.view(best, subj, now)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// Subject exposes the subject lookup to adapters that only hold the service.
func (s *ReminderService) Subject(ctx context.Context, id uuid.UUID) (*subject.Subject, error) {
	return s.loadSubject(ctx, id)
}

// SubjectsForChat lists the subjects linked to a Telegram chat.
func (s *ReminderService) SubjectsForChat(ctx context.Context, chatID int64) ([]*subject.Subject, error) {
	subjects, err := s.subjects.ListByChatID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects for chat %d: %w", chatID, err)
	}
	return subjects, nil
}

// --- helpers ---

func checkHorizon(days *int) error {
	if days != nil && *days < 0 {
		return fmt.Errorf("%w: horizon must not be negative", ErrInvalidOperation)
	}
	return nil
}

// listViews derives every reminder of the subject and keeps those accepted
// by keep. A reminder whose due date cannot be derived is logged and left
// out; it never fails the listing.
func (s *ReminderService) listViews(ctx context.Context, subjectID uuid.UUID, keep func(View, time.Time) bool) ([]View, error) {
	subj, err := s.loadSubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	rs, err := s.reminders.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders for subject %s: %w", subjectID, err)
	}

	now := s.now(subj)
	views := make([]View, 0, len(rs))
	for _, r := range rs {
		v, err := s.view(r, subj, now)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"subject_id":  subjectID,
				"reminder_id": r.ID,
			}).WithError(err).Warn("Skipping reminder with corrupt schedule")
			continue
		}
		if keep == nil || keep(*v, now) {
			views = append(views, *v)
		}
	}
	return views, nil
}

func (s *ReminderService) view(r *reminder.Reminder, subj *subject.Subject, now time.Time) (*View, error) {
	due, err := reminder.NextDue(*r, subj.DateOfBirth, now)
	if err != nil {
		return nil, err
	}
	v := &View{Reminder: r, NextDue: due}
	if due != nil && reminder.Ranged(r.Kind) {
		v.Range = reminder.Classify(*due, r.CompletedOn, r.UserCreated, now)
	}
	return v, nil
}

func (s *ReminderService) now(subj *subject.Subject) time.Time {
	return s.clock().In(subj.Location(s.defaultLoc))
}

func (s *ReminderService) loadSubject(ctx context.Context, id uuid.UUID) (*subject.Subject, error) {
	subj, err := s.subjects.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, subject.ErrNotFound) {
			return nil, fmt.Errorf("%w: subject %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get subject %s: %w", id, err)
	}
	return subj, nil
}

func (s *ReminderService) loadReminder(ctx context.Context, id uuid.UUID) (*reminder.Reminder, error) {
	r, err := s.reminders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, reminder.ErrNotFound) {
			return nil, fmt.Errorf("%w: reminder %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get reminder %s: %w", id, err)
	}
	return r, nil
}
