// Package memstore provides in-memory repositories for development runs
// without a database and for tests.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"care_reminder_service/internal/domain/notification"
	"care_reminder_service/internal/domain/reminder"
	"care_reminder_service/internal/domain/subject"

	"github.com/google/uuid"
)

var ErrInvalidRecord = errors.New("invalid record")

// =============================================================================
// REMINDERS
// =============================================================================

type Reminders struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*reminder.Reminder
	order []uuid.UUID
	now   func() time.Time
}

func NewReminders() *Reminders {
	return &Reminders{
		byID: make(map[uuid.UUID]*reminder.Reminder),
		now:  time.Now,
	}
}

func (m *Reminders) FindByID(_ context.Context, id uuid.UUID) (*reminder.Reminder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.byID[id]
	if !ok {
		return nil, reminder.ErrNotFound
	}
	return cloneReminder(r), nil
}

func (m *Reminders) ListBySubject(_ context.Context, subjectID uuid.UUID) ([]*reminder.Reminder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*reminder.Reminder
	for _, id := range m.order {
		if r := m.byID[id]; r.SubjectID == subjectID {
			out = append(out, cloneReminder(r))
		}
	}
	return out, nil
}

func (m *Reminders) Save(_ context.Context, r *reminder.Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := validateReminder(r); err != nil {
		return err
	}
	m.putLocked(r)
	return nil
}

// SaveAll validates the whole batch before writing any of it.
func (m *Reminders) SaveAll(_ context.Context, rs []*reminder.Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range rs {
		if err := validateReminder(r); err != nil {
			return err
		}
	}
	for _, r := range rs {
		m.putLocked(r)
	}
	return nil
}

func (m *Reminders) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[id]; !ok {
		return reminder.ErrNotFound
	}
	delete(m.byID, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len is the number of stored reminders.
func (m *Reminders) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID)
}

func (m *Reminders) putLocked(r *reminder.Reminder) {
	now := m.now()
	if existing, ok := m.byID[r.ID]; ok {
		r.CreatedAt = existing.CreatedAt
	} else {
		r.CreatedAt = now
		m.order = append(m.order, r.ID)
	}
	r.UpdatedAt = now
	m.byID[r.ID] = cloneReminder(r)
}

func validateReminder(r *reminder.Reminder) error {
	if r == nil || r.ID == uuid.Nil || r.SubjectID == uuid.Nil || r.Kind == nil {
		return fmt.Errorf("%w: reminder needs an id, a subject and a kind", ErrInvalidRecord)
	}
	return nil
}

func cloneReminder(r *reminder.Reminder) *reminder.Reminder {
	c := *r
	if r.CompletedOn != nil {
		completed := *r.CompletedOn
		c.CompletedOn = &completed
	}
	return &c
}

// =============================================================================
// SUBJECTS
// =============================================================================

type Subjects struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*subject.Subject
	order []uuid.UUID
}

func NewSubjects() *Subjects {
	return &Subjects{byID: make(map[uuid.UUID]*subject.Subject)}
}

func (m *Subjects) Create(_ context.Context, s *subject.Subject) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.ID == uuid.Nil {
		return fmt.Errorf("%w: subject needs an id", ErrInvalidRecord)
	}
	if _, ok := m.byID[s.ID]; ok {
		return fmt.Errorf("%w: subject %s already exists", ErrInvalidRecord, s.ID)
	}
	now := time.Now()
	s.CreatedAt, s.UpdatedAt = now, now
	m.byID[s.ID] = cloneSubject(s)
	m.order = append(m.order, s.ID)
	return nil
}

func (m *Subjects) FindByID(_ context.Context, id uuid.UUID) (*subject.Subject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.byID[id]
	if !ok {
		return nil, subject.ErrNotFound
	}
	return cloneSubject(s), nil
}

func (m *Subjects) ListAll(_ context.Context) ([]*subject.Subject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*subject.Subject, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, cloneSubject(m.byID[id]))
	}
	return out, nil
}

func (m *Subjects) ListByChatID(_ context.Context, chatID int64) ([]*subject.Subject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*subject.Subject
	for _, id := range m.order {
		if s := m.byID[id]; chatID != 0 && s.Owner.TelegramChatID == chatID {
			out = append(out, cloneSubject(s))
		}
	}
	return out, nil
}

func cloneSubject(s *subject.Subject) *subject.Subject {
	c := *s
	if s.DateOfBirth != nil {
		dob := *s.DateOfBirth
		c.DateOfBirth = &dob
	}
	return &c
}

// =============================================================================
// NOTIFICATION RUNS
// =============================================================================

type Notifications struct {
	mu         sync.RWMutex
	runs       []*notification.Run
	deliveries []*notification.Delivery
}

func NewNotifications() *Notifications {
	return &Notifications{}
}

func (m *Notifications) CreateRun(_ context.Context, run *notification.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	run.CreatedAt = time.Now()
	c := *run
	m.runs = append(m.runs, &c)
	return nil
}

func (m *Notifications) GetRunByDateAndType(_ context.Context, runDate time.Time, runType notification.RunType) (*notification.Run, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	y, mo, d := runDate.Date()
	for i := len(m.runs) - 1; i >= 0; i-- {
		run := m.runs[i]
		ry, rmo, rd := run.RunDate.Date()
		if run.Type == runType && ry == y && rmo == mo && rd == d {
			c := *run
			return &c, nil
		}
	}
	return nil, notification.ErrRunNotFound
}

func (m *Notifications) RecordDelivery(_ context.Context, d *notification.Delivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = time.Now()
	c := *d
	m.deliveries = append(m.deliveries, &c)
	return nil
}

func (m *Notifications) HasSentDelivery(_ context.Context, runID, subjectID uuid.UUID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, d := range m.deliveries {
		if d.RunID == runID && d.SubjectID == subjectID && d.Status == notification.DeliverySent {
			return true, nil
		}
	}
	return false, nil
}

func (m *Notifications) ListDeliveriesByRun(_ context.Context, runID uuid.UUID) ([]*notification.Delivery, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*notification.Delivery
	for _, d := range m.deliveries {
		if d.RunID == runID {
			c := *d
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
