package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"care_reminder_service/internal/app"
	"care_reminder_service/internal/domain/reminder"
	"care_reminder_service/internal/domain/subject"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Welcomer greets the owner of a newly registered subject.
type Welcomer interface {
	SendWelcome(ctx context.Context, subj *subject.Subject, seeded int)
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	reminders *app.ReminderService
	welcome   Welcomer // optional
	logger    *logrus.Entry
}

func NewHandler(reminders *app.ReminderService, welcome Welcomer, logger *logrus.Entry) *Handler {
	return &Handler{
		reminders: reminders,
		welcome:   welcome,
		logger:    logger.WithField("component", "http"),
	}
}

// =============================================================================
// SUBJECT ENDPOINTS
// =============================================================================

func (h *Handler) RegisterSubject(w http.ResponseWriter, r *http.Request) {
	var req CreateSubjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	subj := &subject.Subject{
		Name: strings.TrimSpace(req.Name),
		Owner: subject.Owner{
			FirstName:      req.Owner.FirstName,
			Email:          req.Owner.Email,
			TelegramChatID: req.Owner.TelegramChatID,
			Preferences: subject.Preferences{
				Timezone:             req.Owner.Timezone,
				NotificationsEnabled: req.Owner.NotificationsEnabled,
				DailyDigestEnabled:   req.Owner.DailyDigestEnabled,
			},
		},
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse(time.DateOnly, req.DateOfBirth)
		if err != nil {
			writeError(w, http.StatusBadRequest, "dateOfBirth must be YYYY-MM-DD", err)
			return
		}
		subj.DateOfBirth = &dob
	}

	resp := RegisterSubjectResponse{}
	seeded, err := h.reminders.RegisterSubject(r.Context(), subj)
	switch {
	case errors.Is(err, app.ErrCatalogLoad):
		// the subject exists, only its baseline is missing
		resp.SeedError = err.Error()
	case err != nil:
		h.writeServiceError(w, r, err)
		return
	}
	resp.Subject = toSubjectDTO(subj)
	resp.Seeded = seeded

	if h.welcome != nil {
		h.welcome.SendWelcome(r.Context(), subj, seeded)
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handler) GetSubject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "subjectID")
	if !ok {
		return
	}
	subj, err := h.reminders.Subject(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubjectDTO(subj))
}

func (h *Handler) SeedSubject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "subjectID")
	if !ok {
		return
	}
	n, err := h.reminders.SeedBaseline(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SeedResponse{Seeded: n})
}

// ListReminders serves the listings. view selects one of today, upcoming,
// medical or overdue; without it every reminder is returned. days bounds the
// upcoming view and range keeps only reminders in that range.
func (h *Handler) ListReminders(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "subjectID")
	if !ok {
		return
	}
	q := r.URL.Query()

	days, ok := queryInt(w, r, "days")
	if !ok {
		return
	}
	var wantRange reminder.Range
	if raw := q.Get("range"); raw != "" {
		parsed, err := reminder.ParseRange(strings.ToUpper(raw))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid range", err)
			return
		}
		wantRange = parsed
	}

	ctx := r.Context()
	var (
		views []app.View
		err   error
	)
	switch view := q.Get("view"); view {
	case "":
		views, err = h.reminders.ListForSubject(ctx, id)
	case "today":
		views, err = h.reminders.ListToday(ctx, id)
	case "upcoming":
		views, err = h.reminders.ListUpcoming(ctx, id, days)
	case "medical":
		views, err = h.reminders.ListMedical(ctx, id)
	case "overdue":
		views, err = h.reminders.ListOverdueRecurring(ctx, id)
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown view %q", view), nil)
		return
	}
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if wantRange != "" {
		// milestones carry no range and never match
		filtered := views[:0]
		for _, v := range views {
			if v.Range == wantRange {
				filtered = append(filtered, v)
			}
		}
		views = filtered
	}
	writeJSON(w, http.StatusOK, toReminderDTOs(views))
}

func (h *Handler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "subjectID")
	if !ok {
		return
	}
	var req CreateReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	kind, err := reminder.ParseKind(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid type", err)
		return
	}
	freq, err := reminder.ParseFrequency(req.Frequency)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid frequency", err)
		return
	}

	v, err := h.reminders.CreateCustom(r.Context(), id, app.CreateInput{
		Kind:                 kind,
		Title:                req.Title,
		Description:          req.Description,
		Notes:                req.Notes,
		Frequency:            freq,
		OccurrenceOffsetDays: req.Occurrence,
		StartDate:            req.StartDate,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReminderDTO(*v))
}

// CurrentMilestone answers 204 when no milestone has been reached.
func (h *Handler) CurrentMilestone(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "subjectID")
	if !ok {
		return
	}
	v, found, err := h.reminders.CurrentMilestone(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if !found {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, toReminderDTO(*v))
}

// =============================================================================
// REMINDER ENDPOINTS
// =============================================================================

func (h *Handler) GetReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	v, err := h.reminders.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReminderDTO(*v))
}

func (h *Handler) UpdateReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	patch := reminder.Patch{
		Title:                req.Title,
		Description:          req.Description,
		Notes:                req.Notes,
		OccurrenceOffsetDays: req.Occurrence,
		RequiresAction:       req.RequiresAction,
		CompletedOn:          req.CompletedOn,
		StartDate:            req.StartDate,
	}
	if req.Frequency != nil {
		freq, err := reminder.ParseFrequency(*req.Frequency)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid frequency", err)
			return
		}
		patch.Frequency = &freq
	}

	v, err := h.reminders.Update(r.Context(), id, patch)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReminderDTO(*v))
}

func (h *Handler) DeleteReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.reminders.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CompleteReminder records a completion now. taskOnly=true refuses anything
// but tasks.
func (h *Handler) CompleteReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	taskOnly := false
	if raw := r.URL.Query().Get("taskOnly"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "taskOnly must be a boolean", err)
			return
		}
		taskOnly = parsed
	}

	v, err := h.reminders.MarkComplete(r.Context(), id, taskOnly)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReminderDTO(*v))
}

func (h *Handler) ClassifyReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	days, ok := queryInt(w, r, "days")
	if !ok {
		return
	}

	v, classified, err := h.reminders.ClassifyRange(r.Context(), id, days)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RangeResponse{Reminder: toReminderDTO(*v), Classified: classified})
}

// =============================================================================
// HELPERS
// =============================================================================

func pathUUID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be a UUID", param), err)
		return uuid.Nil, false
	}
	return id, true
}

// queryInt returns nil when the parameter is absent.
func queryInt(w http.ResponseWriter, r *http.Request, param string) (*int, bool) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return nil, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be an integer", param), err)
		return nil, false
	}
	return &n, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, app.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found", err)
	case errors.Is(err, app.ErrInvalidOperation):
		writeError(w, http.StatusBadRequest, "invalid operation", err)
	default:
		h.logger.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).WithError(err).Error("Request failed")
		writeError(w, http.StatusInternalServerError, "internal error", nil)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
