package httpapi

import (
	"time"

	"care_reminder_service/internal/app"
	"care_reminder_service/internal/domain/subject"
)

// ReminderDTO is a reminder with its derived due date and range.
type ReminderDTO struct {
	ID             string     `json:"id"`
	SubjectID      string     `json:"subjectId"`
	Type           string     `json:"type"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	Frequency      string     `json:"frequency"`
	Occurrence     int        `json:"occurrence"`
	RequiresAction bool       `json:"requiresAction"`
	CompletedOn    *time.Time `json:"completedOn,omitempty"`
	UserCreated    bool       `json:"userCreated"`
	NextDue        *time.Time `json:"nextDue,omitempty"`
	Range          string     `json:"range,omitempty"`
}

type CreateReminderRequest struct {
	Type        string     `json:"type"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Notes       string     `json:"notes"`
	Frequency   string     `json:"frequency"`
	Occurrence  int        `json:"occurrence"`
	StartDate   *time.Time `json:"startDate"`
}

// UpdateReminderRequest is a partial update; absent fields stay unchanged.
type UpdateReminderRequest struct {
	Title          *string    `json:"title"`
	Description    *string    `json:"description"`
	Notes          *string    `json:"notes"`
	Frequency      *string    `json:"frequency"`
	Occurrence     *int       `json:"occurrence"`
	RequiresAction *bool      `json:"requiresAction"`
	CompletedOn    *time.Time `json:"completedOn"`
	StartDate      *time.Time `json:"startDate"`
}

type OwnerDTO struct {
	FirstName            string `json:"firstName"`
	Email                string `json:"email,omitempty"`
	TelegramChatID       int64  `json:"telegramChatId,omitempty"`
	Timezone             string `json:"timezone,omitempty"`
	NotificationsEnabled bool   `json:"notificationsEnabled"`
	DailyDigestEnabled   bool   `json:"dailyDigestEnabled"`
}

type CreateSubjectRequest struct {
	Name        string   `json:"name"`
	DateOfBirth string   `json:"dateOfBirth"` // YYYY-MM-DD, optional
	Owner       OwnerDTO `json:"owner"`
}

type SubjectDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	DateOfBirth string    `json:"dateOfBirth,omitempty"`
	Owner       OwnerDTO  `json:"owner"`
	CreatedAt   time.Time `json:"createdAt"`
}

type RegisterSubjectResponse struct {
	Subject   SubjectDTO `json:"subject"`
	Seeded    int        `json:"seeded"`
	SeedError string     `json:"seedError,omitempty"`
}

type SeedResponse struct {
	Seeded int `json:"seeded"`
}

// RangeResponse carries the reminder and whether it was classified at all.
type RangeResponse struct {
	Reminder   ReminderDTO `json:"reminder"`
	Classified bool        `json:"classified"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toReminderDTO(v app.View) ReminderDTO {
	r := v.Reminder
	dto := ReminderDTO{
		ID:             r.ID.String(),
		SubjectID:      r.SubjectID.String(),
		Title:          r.Title,
		Description:    r.Description,
		Notes:          r.Notes,
		Frequency:      string(r.Frequency),
		Occurrence:     r.OccurrenceOffsetDays,
		RequiresAction: r.RequiresAction,
		CompletedOn:    r.CompletedOn,
		UserCreated:    r.UserCreated,
		NextDue:        v.NextDue,
		Range:          string(v.Range),
	}
	if r.Kind != nil {
		dto.Type = r.Kind.String()
	}
	return dto
}

func toReminderDTOs(views []app.View) []ReminderDTO {
	out := make([]ReminderDTO, 0, len(views))
	for _, v := range views {
		out = append(out, toReminderDTO(v))
	}
	return out
}

func toSubjectDTO(s *subject.Subject) SubjectDTO {
	dto := SubjectDTO{
		ID:   s.ID.String(),
		Name: s.Name,
		Owner: OwnerDTO{
			FirstName:            s.Owner.FirstName,
			Email:                s.Owner.Email,
			TelegramChatID:       s.Owner.TelegramChatID,
			Timezone:             s.Owner.Preferences.Timezone,
			NotificationsEnabled: s.Owner.Preferences.NotificationsEnabled,
			DailyDigestEnabled:   s.Owner.Preferences.DailyDigestEnabled,
		},
		CreatedAt: s.CreatedAt,
	}
	if s.DateOfBirth != nil {
		dto.DateOfBirth = s.DateOfBirth.Format(time.DateOnly)
	}
	return dto
}
