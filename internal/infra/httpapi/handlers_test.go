package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"care_reminder_service/internal/app"
	"care_reminder_service/internal/domain/reminder"
	"care_reminder_service/internal/domain/subject"
	"care_reminder_service/internal/infra/catalog"
	"care_reminder_service/internal/infra/memstore"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type recordingWelcomer struct{ seeded []int }

func (r *recordingWelcomer) SendWelcome(_ context.Context, _ *subject.Subject, seeded int) {
	r.seeded = append(r.seeded, seeded)
}

type brokenCatalog struct{}

func (brokenCatalog) Load(context.Context) ([]reminder.Template, error) {
	return nil, errors.New("catalog file missing")
}

type apiFixture struct {
	router  *chi.Mux
	welcome *recordingWelcomer
	subject *subject.Subject
	ids     map[string]uuid.UUID
}

func newAPIFixture(t *testing.T, loader app.CatalogLoader) *apiFixture {
	t.Helper()
	ctx := context.Background()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := memstore.NewReminders()
	subjects := memstore.NewSubjects()
	svc := app.NewReminderService(store, subjects, loader, time.UTC, logrus.NewEntry(logger),
		app.WithClock(func() time.Time { return fixedNow }))

	dob := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	subj := &subject.Subject{ID: uuid.New(), Name: "Mia", DateOfBirth: &dob}
	require.NoError(t, subjects.Create(ctx, subj))

	f := &apiFixture{
		welcome: &recordingWelcomer{},
		subject: subj,
		ids:     map[string]uuid.UUID{},
	}
	f.router = NewRouter(NewHandler(svc, f.welcome, logrus.NewEntry(logger)), []string{"*"})

	completed := time.Date(2025, 5, 30, 0, 0, 0, 0, time.UTC)
	for _, r := range []reminder.Reminder{
		{Kind: reminder.Task, Title: "Tummy time", Frequency: reminder.Daily},
		{Kind: reminder.Task, Title: "Bath", Frequency: reminder.Weekly, CompletedOn: &completed, UserCreated: true},
		{Kind: reminder.Vaccination, Title: "6 month vaccines", Frequency: reminder.Once, OccurrenceOffsetDays: 155},
		{Kind: reminder.Milestone, Title: "Social smile", Frequency: reminder.Once, OccurrenceOffsetDays: 42},
	} {
		r.ID = uuid.New()
		r.SubjectID = subj.ID
		require.NoError(t, store.Save(ctx, &r))
		f.ids[r.Title] = r.ID
	}
	return f
}

func (f *apiFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (f *apiFixture) reminderPath(title string) string {
	return "/api/reminders/" + f.ids[title].String()
}

func (f *apiFixture) subjectPath() string {
	return "/api/subjects/" + f.subject.ID.String()
}

var testCatalog = catalog.Static{
	{Kind: reminder.Task, Title: "Bath", Frequency: reminder.Weekly, RequiresAction: true},
	{Kind: reminder.Vaccination, Title: "2 month vaccines", Frequency: reminder.Once, OccurrenceOffsetDays: 60},
	{Kind: reminder.Milestone, Title: "Social smile", Frequency: reminder.Once, OccurrenceOffsetDays: 42},
}

func TestRegisterSubject(t *testing.T) {
	f := newAPIFixture(t, testCatalog)

	rec := f.do(t, http.MethodPost, "/api/subjects", CreateSubjectRequest{
		Name:        "Leo",
		DateOfBirth: "2025-03-01",
		Owner:       OwnerDTO{FirstName: "Sam", TelegramChatID: 77, DailyDigestEnabled: true},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decode[RegisterSubjectResponse](t, rec)
	assert.Equal(t, 3, resp.Seeded)
	assert.Empty(t, resp.SeedError)
	assert.Equal(t, "2025-03-01", resp.Subject.DateOfBirth)
	assert.True(t, resp.Subject.Owner.DailyDigestEnabled)
	assert.Equal(t, []int{3}, f.welcome.seeded)

	rec = f.do(t, http.MethodGet, "/api/subjects/"+resp.Subject.ID+"/reminders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]ReminderDTO](t, rec), 3)
}

func TestRegisterSubject_Failures(t *testing.T) {
	f := newAPIFixture(t, testCatalog)

	rec := f.do(t, http.MethodPost, "/api/subjects", CreateSubjectRequest{Name: "Leo", DateOfBirth: "01/03/2025"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/subjects", CreateSubjectRequest{Name: "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// GIVEN: a catalog that cannot be read
	broken := newAPIFixture(t, brokenCatalog{})
	rec = broken.do(t, http.MethodPost, "/api/subjects", CreateSubjectRequest{Name: "Leo"})

	// THEN: the subject is still registered, without reminders
	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode[RegisterSubjectResponse](t, rec)
	assert.Zero(t, resp.Seeded)
	assert.Contains(t, resp.SeedError, "catalog file missing")
}

func TestGetReminder(t *testing.T) {
	f := newAPIFixture(t, testCatalog)

	rec := f.do(t, http.MethodGet, f.reminderPath("Tummy time"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dto := decode[ReminderDTO](t, rec)
	assert.Equal(t, "TASK", dto.Type)
	assert.Equal(t, "TODAY", dto.Range)
	require.NotNil(t, dto.NextDue)
	assert.True(t, dto.NextDue.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/reminders/"+uuid.NewString(), nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/reminders/not-a-uuid", nil).Code)
}

func TestListReminders(t *testing.T) {
	f := newAPIFixture(t, testCatalog)

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"Tummy time", "Bath", "6 month vaccines", "Social smile"}},
		{"?view=today", []string{"Tummy time"}},
		{"?view=upcoming&days=3", []string{"Tummy time"}},
		{"?view=upcoming&days=7", []string{"Tummy time", "Bath", "6 month vaccines"}},
		{"?view=medical", []string{"6 month vaccines"}},
		{"?view=overdue", []string{}},
		{"?range=upcoming_week", []string{"Bath", "6 month vaccines"}},
		{"?range=OVERDUE", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, f.subjectPath()+"/reminders"+tt.query, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			titles := []string{}
			for _, dto := range decode[[]ReminderDTO](t, rec) {
				titles = append(titles, dto.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}

	for _, bad := range []string{"?view=weekly", "?days=soon", "?range=LATER", "?view=upcoming&days=-1"} {
		rec := f.do(t, http.MethodGet, f.subjectPath()+"/reminders"+bad, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
	rec := f.do(t, http.MethodGet, "/api/subjects/"+uuid.NewString()+"/reminders", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateReminder(t *testing.T) {
	f := newAPIFixture(t, testCatalog)
	start := time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)

	rec := f.do(t, http.MethodPost, f.subjectPath()+"/reminders", CreateReminderRequest{
		Type:      "task",
		Title:     "Nails",
		Frequency: "weekly",
		StartDate: &start,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	dto := decode[ReminderDTO](t, rec)
	assert.True(t, dto.UserCreated)
	assert.True(t, dto.RequiresAction)
	require.NotNil(t, dto.NextDue)
	assert.Equal(t, "2025-06-03", dto.NextDue.Format(time.DateOnly))

	bad := []CreateReminderRequest{
		{Type: "MILESTONE", Title: "Walks", Frequency: "ONCE"},
		{Type: "CHORE", Title: "Laundry", Frequency: "DAILY"},
		{Type: "TASK", Title: "Laundry", Frequency: "HOURLY"},
		{Type: "TASK", Title: "", Frequency: "DAILY"},
	}
	for _, req := range bad {
		rec := f.do(t, http.MethodPost, f.subjectPath()+"/reminders", req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, req)
	}
}

func TestUpdateReminder(t *testing.T) {
	f := newAPIFixture(t, testCatalog)

	monthly := "MONTHLY"
	rec := f.do(t, http.MethodPut, f.reminderPath("Bath"), UpdateReminderRequest{Frequency: &monthly})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	dto := decode[ReminderDTO](t, rec)
	assert.Equal(t, "MONTHLY", dto.Frequency)
	assert.Nil(t, dto.CompletedOn, "a new cadence drops the old completion")

	title := "First smile"
	rec = f.do(t, http.MethodPut, f.reminderPath("Social smile"), UpdateReminderRequest{Title: &title})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	hourly := "HOURLY"
	rec = f.do(t, http.MethodPut, f.reminderPath("Bath"), UpdateReminderRequest{Frequency: &hourly})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompleteAndDeleteReminder(t *testing.T) {
	f := newAPIFixture(t, testCatalog)

	rec := f.do(t, http.MethodPost, f.reminderPath("6 month vaccines")+"/complete?taskOnly=true", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, f.reminderPath("6 month vaccines")+"/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "COMPLETED", decode[ReminderDTO](t, rec).Range)

	rec = f.do(t, http.MethodPost, f.reminderPath("Tummy time")+"/complete?taskOnly=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dto := decode[ReminderDTO](t, rec)
	require.NotNil(t, dto.CompletedOn)
	assert.True(t, dto.CompletedOn.Equal(fixedNow))

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodDelete, f.reminderPath("Social smile"), nil).Code)
	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, f.reminderPath("Bath"), nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, f.reminderPath("Bath"), nil).Code)
}

func TestClassifyReminder(t *testing.T) {
	f := newAPIFixture(t, testCatalog)

	rec := f.do(t, http.MethodGet, f.reminderPath("Bath")+"/range?days=7", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[RangeResponse](t, rec)
	assert.True(t, resp.Classified)
	assert.Equal(t, "UPCOMING_WEEK", resp.Reminder.Range)

	rec = f.do(t, http.MethodGet, f.reminderPath("Bath")+"/range?days=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[RangeResponse](t, rec).Classified)

	rec = f.do(t, http.MethodGet, f.reminderPath("Social smile")+"/range", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[RangeResponse](t, rec)
	assert.False(t, resp.Classified, "milestones are never classified")
	assert.Empty(t, resp.Reminder.Range)

	rec = f.do(t, http.MethodGet, f.reminderPath("Bath")+"/range?days=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCurrentMilestone(t *testing.T) {
	f := newAPIFixture(t, testCatalog)

	rec := f.do(t, http.MethodGet, f.subjectPath()+"/milestone", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Social smile", decode[ReminderDTO](t, rec).Title)

	rec = f.do(t, http.MethodPost, "/api/subjects", CreateSubjectRequest{Name: "Newborn", DateOfBirth: "2025-06-01"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[RegisterSubjectResponse](t, rec).Subject.ID

	rec = f.do(t, http.MethodGet, "/api/subjects/"+id+"/milestone", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHealthz(t *testing.T) {
	f := newAPIFixture(t, testCatalog)
	rec := f.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORS_Credentials(t *testing.T) {
	preflight := func(router http.Handler) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/subjects", nil)
		req.Header.Set("Origin", "https://elsewhere.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	// GIVEN: the wildcard default
	f := newAPIFixture(t, testCatalog)
	rec := preflight(f.router)

	// THEN: any origin may call, but never with credentials
	assert.Contains(t, []string{"*", "https://elsewhere.example.com"}, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))

	// GIVEN: an explicit origin list
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	h := NewHandler(nil, nil, logrus.NewEntry(logger))
	listed := NewRouter(h, []string{"https://care.example.com"})

	rec = preflight(listed)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodOptions, "/api/subjects", nil)
	req.Header.Set("Origin", "https://care.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	listed.ServeHTTP(rec, req)
	assert.Equal(t, "https://care.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
