package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"care_reminder_service/internal/app"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// RegisterResponseHandlers handles the inline "Done" buttons under digests.
func RegisterResponseHandlers(ctx context.Context, b *telebot.Bot, reminders *app.ReminderService, baseLogger *logrus.Entry) {
	h := &chatCommands{reminders: reminders}
	logger := baseLogger.WithField("handler_group", "callbacks")

	b.Handle(telebot.OnCallback, func(c telebot.Context) error {
		data := c.Callback().Data
		logCtx := logger.WithFields(logrus.Fields{
			"chat_id": c.Chat().ID,
			"data":    data,
		})

		if !strings.HasPrefix(data, donePrefix) {
			c.Bot().OnError(fmt.Errorf("unhandled callback data: %s", data), c)
			return c.Respond(&telebot.CallbackResponse{Text: "Unknown action."})
		}

		text, err := h.complete(ctx, c.Chat().ID, data)
		if err != nil {
			logCtx.WithError(err).Error("Failed to complete reminder from callback")
			return c.Respond(&telebot.CallbackResponse{Text: "Something went wrong, please try again."})
		}
		logCtx.Info("Callback processed")
		return c.Respond(&telebot.CallbackResponse{Text: text})
	})
}

// complete ticks off the task named in the callback data if it belongs to
// one of the chat's subjects. Problems the owner can act on are answered in
// the returned text; only unexpected failures are returned as errors.
func (h *chatCommands) complete(ctx context.Context, chatID int64, data string) (string, error) {
	rawID, _ := strings.CutPrefix(data, donePrefix)
	id, err := uuid.Parse(rawID)
	if err != nil {
		return "That button is no longer valid.", nil
	}

	v, err := h.reminders.Get(ctx, id)
	if errors.Is(err, app.ErrNotFound) {
		return "This reminder no longer exists.", nil
	}
	if err != nil {
		return "", err
	}
	subj, err := h.reminders.Subject(ctx, v.Reminder.SubjectID)
	if err != nil {
		return "", err
	}
	if subj.Owner.TelegramChatID != chatID {
		return "This reminder no longer exists.", nil
	}

	done, err := h.reminders.MarkComplete(ctx, id, true)
	if errors.Is(err, app.ErrInvalidOperation) {
		return "Only tasks can be ticked off here.", nil
	}
	if err != nil {
		return "", err
	}

	text := "Done: " + done.Reminder.Title
	if done.NextDue != nil {
		text += ". Next time: " + done.NextDue.Format(time.DateOnly)
	}
	return text, nil
}
