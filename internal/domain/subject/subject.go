package subject

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("subject not found")

// Subject is the infant whose care reminders are tracked.
type Subject struct {
	ID          uuid.UUID
	Name        string
	DateOfBirth *time.Time // nil when not known yet
	Owner       Owner
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Owner is the account that receives notifications for a subject.
type Owner struct {
	FirstName      string
	Email          string
	TelegramChatID int64 // 0 when the owner has not linked a chat
	Preferences    Preferences
}

type Preferences struct {
	Timezone             string
	NotificationsEnabled bool // weekly summary
	DailyDigestEnabled   bool
}

// Location resolves the subject's comparison time zone.
func (s *Subject) Location(fallback *time.Location) *time.Location {
	return ResolveLocation(s.Owner.Preferences.Timezone, fallback)
}
