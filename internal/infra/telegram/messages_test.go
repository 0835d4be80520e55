package telegram

import (
	"context"
	"errors"
	"testing"

	"care_reminder_service/internal/app"
	"care_reminder_service/internal/domain/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v3"
)

func dailyDigest() notification.Message {
	return notification.Message{
		Recipient: notification.Recipient{Name: "Sam", TelegramChatID: 77},
		Template:  notification.TemplateDailyDigest,
		Variables: map[string]any{
			"firstName":   "Sam",
			"subjectName": "Mia",
			"date":        "2025-06-01",
			"today": []app.DigestItem{
				{ID: "a1", Title: "Tummy time", Completable: true},
				{ID: "b2", Title: "Bath", DaysOverdue: 2, Completable: true},
			},
			"medical": []app.DigestItem{
				{ID: "c3", Title: "6 month vaccines", DueDate: "2025-06-20"},
			},
		},
	}
}

func TestRender_DailyDigest(t *testing.T) {
	text, markup, err := Render(dailyDigest())
	require.NoError(t, err)

	assert.Contains(t, text, "Good morning Sam!")
	assert.Contains(t, text, "- Tummy time\n")
	assert.Contains(t, text, "- Bath (overdue by 2 days)")
	assert.Contains(t, text, "- 6 month vaccines on 2025-06-20")

	require.NotNil(t, markup)
	require.Len(t, markup.InlineKeyboard, 2)
	assert.Equal(t, "done_a1", markup.InlineKeyboard[0][0].Data)
	assert.Equal(t, "Done: Bath", markup.InlineKeyboard[1][0].Text)
}

func TestRender_WeeklySummaryWithoutTasks(t *testing.T) {
	text, markup, err := Render(notification.Message{
		Template: notification.TemplateWeeklySummary,
		Variables: map[string]any{
			"firstName":           "Sam",
			"subjectName":         "Mia",
			"overdueTasks":        []app.DigestItem{},
			"overdueVaccinations": []app.DigestItem{{Title: "4 month vaccines", DueDate: "2025-05-01"}},
		},
	})
	require.NoError(t, err)

	assert.NotContains(t, text, "Overdue tasks")
	assert.Contains(t, text, "- 4 month vaccines was due 2025-05-01")
	assert.Nil(t, markup, "vaccinations get no buttons")
}

func TestRender_UnknownTemplate(t *testing.T) {
	_, _, err := Render(notification.Message{Template: "birthday"})
	assert.Error(t, err)
}

type fakeMessenger struct {
	to   telebot.Recipient
	text string
	opts []interface{}
	err  error
}

func (f *fakeMessenger) Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error) {
	f.to, f.opts = to, opts
	f.text, _ = what.(string)
	return &telebot.Message{}, f.err
}

func TestTelebotAdapter_Send(t *testing.T) {
	fake := &fakeMessenger{}
	adapter := NewTelebotAdapter(fake)

	require.NoError(t, adapter.Send(context.Background(), dailyDigest()))
	assert.Equal(t, "77", fake.to.Recipient())
	assert.Contains(t, fake.text, "Mia")
	require.Len(t, fake.opts, 1)
	options := fake.opts[0].(*telebot.SendOptions)
	assert.NotNil(t, options.ReplyMarkup)
}

func TestTelebotAdapter_SendFailures(t *testing.T) {
	msg := dailyDigest()
	msg.Recipient.TelegramChatID = 0
	assert.ErrorIs(t, NewTelebotAdapter(&fakeMessenger{}).Send(context.Background(), msg), ErrNoChat)

	blocked := errors.New("telegram: bot was blocked by the user (403)")
	err := NewTelebotAdapter(&fakeMessenger{err: blocked}).Send(context.Background(), dailyDigest())
	assert.ErrorIs(t, err, blocked)
}
