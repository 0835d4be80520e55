package app

import (
	"context"
	"errors"
	"fmt"

	"care_reminder_service/internal/domain/subject"

	"github.com/google/uuid"
)

var ErrAdminNotAuthorized = errors.New("performing user is not authorized as an admin")

// AdminService guards maintenance operations behind the configured admin
// Telegram ID.
type AdminService struct {
	reminders       *ReminderService
	subjects        subject.Repository
	digests         DigestRunner
	adminTelegramID int64
}

func NewAdminService(rs *ReminderService, sr subject.Repository, digests DigestRunner, adminID int64) *AdminService {
	return &AdminService{
		reminders:       rs,
		subjects:        sr,
		digests:         digests,
		adminTelegramID: adminID,
	}
}

func (s *AdminService) IsAdmin(telegramID int64) bool {
	return s.adminTelegramID != 0 && telegramID == s.adminTelegramID
}

// ListSubjects returns every registered subject.
func (s *AdminService) ListSubjects(ctx context.Context, performingAdminID int64) ([]*subject.Subject, error) {
	if !s.IsAdmin(performingAdminID) {
		return nil, ErrAdminNotAuthorized
	}
	subjects, err := s.subjects.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}
	return subjects, nil
}

// Reseed adds catalog reminders the subject is missing, e.g. after the
// catalog gained new entries.
func (s *AdminService) Reseed(ctx context.Context, performingAdminID int64, subjectID uuid.UUID) (int, error) {
	if !s.IsAdmin(performingAdminID) {
		return 0, ErrAdminNotAuthorized
	}
	return s.reminders.SeedBaseline(ctx, subjectID)
}

// ReseedAll reseeds every subject and returns the number of reminders added.
// It stops at the first subject that fails.
func (s *AdminService) ReseedAll(ctx context.Context, performingAdminID int64) (int, error) {
	subjects, err := s.ListSubjects(ctx, performingAdminID)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, subj := range subjects {
		n, err := s.reminders.SeedBaseline(ctx, subj.ID)
		if err != nil {
			return total, fmt.Errorf("failed to reseed subject %s: %w", subj.ID, err)
		}
		total += n
	}
	return total, nil
}

// TriggerDailyDigest runs the daily digest outside the schedule. Subjects
// already notified today are not notified again.
func (s *AdminService) TriggerDailyDigest(ctx context.Context, performingAdminID int64) (*RunReport, error) {
	if !s.IsAdmin(performingAdminID) {
		return nil, ErrAdminNotAuthorized
	}
	return s.digests.SendDailyDigests(ctx)
}

func (s *AdminService) TriggerWeeklySummary(ctx context.Context, performingAdminID int64) (*RunReport, error) {
	if !s.IsAdmin(performingAdminID) {
		return nil, ErrAdminNotAuthorized
	}
	return s.digests.SendWeeklySummaries(ctx)
}
