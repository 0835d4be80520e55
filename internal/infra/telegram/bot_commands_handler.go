package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"care_reminder_service/internal/app"
	"care_reminder_service/internal/domain/reminder"
	"care_reminder_service/internal/domain/subject"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const defaultUpcomingDays = 7

// chatCommands answers the owner-facing commands. Every answer is scoped to
// the subjects linked to the calling chat.
type chatCommands struct {
	reminders *app.ReminderService
	isAdmin   func(int64) bool
}

func RegisterBotCommands(
	ctx context.Context,
	b *telebot.Bot,
	reminders *app.ReminderService,
	adminService *app.AdminService,
	baseLogger *logrus.Entry,
) {
	h := &chatCommands{reminders: reminders, isAdmin: adminService.IsAdmin}
	cmdLogger := baseLogger.WithField("handler_group", "owner_commands")

	handle := func(command string, answer func(c telebot.Context) (string, *telebot.ReplyMarkup, error)) {
		b.Handle(command, func(c telebot.Context) error {
			logCtx := cmdLogger.WithFields(logrus.Fields{
				"command": command,
				"chat_id": c.Chat().ID,
			})
			logCtx.Info("Processing command")

			text, markup, err := answer(c)
			if err != nil {
				logCtx.WithError(err).Error("Command failed")
				return c.Send("Something went wrong on our side. Please try again later.")
			}
			return reply(c, text, markup)
		})
	}

	handle("/start", func(c telebot.Context) (string, *telebot.ReplyMarkup, error) {
		text, err := h.start(ctx, c.Chat().ID, c.Sender().FirstName)
		return text, nil, err
	})
	handle("/help", func(c telebot.Context) (string, *telebot.ReplyMarkup, error) {
		return h.help(c.Sender().ID), nil, nil
	})
	handle("/today", func(c telebot.Context) (string, *telebot.ReplyMarkup, error) {
		return h.today(ctx, c.Chat().ID)
	})
	handle("/upcoming", func(c telebot.Context) (string, *telebot.ReplyMarkup, error) {
		text, err := h.upcoming(ctx, c.Chat().ID, c.Args())
		return text, nil, err
	})
	handle("/milestone", func(c telebot.Context) (string, *telebot.ReplyMarkup, error) {
		text, err := h.milestone(ctx, c.Chat().ID)
		return text, nil, err
	})
}

func reply(c telebot.Context, text string, markup *telebot.ReplyMarkup) error {
	if markup != nil {
		return c.Send(text, markup)
	}
	return c.Send(text)
}

func (h *chatCommands) start(ctx context.Context, chatID int64, firstName string) (string, error) {
	subjects, err := h.reminders.SubjectsForChat(ctx, chatID)
	if err != nil {
		return "", err
	}
	if len(subjects) == 0 {
		return fmt.Sprintf("Hi %s! Nothing is linked to this chat yet. Register your baby with chat id %d to get reminders here.",
			firstName, chatID), nil
	}
	return fmt.Sprintf("Hi %s! I'm keeping track of %s. Send /help to see what I can do.",
		firstName, joinNames(subjects)), nil
}

func (h *chatCommands) help(senderID int64) string {
	var helpText strings.Builder
	helpText.WriteString("/today - what needs doing today\n")
	helpText.WriteString("/upcoming [days] - everything due in the next days (7 by default)\n")
	helpText.WriteString("/milestone - the latest milestone reached\n")
	helpText.WriteString("/help - this message")
	if h.isAdmin(senderID) {
		helpText.WriteString("\n\nAdmin:\n")
		helpText.WriteString("/subjects - list registered subjects\n")
		helpText.WriteString("/reseed <subject id|all> - add missing catalog reminders\n")
		helpText.WriteString("/run_digest - send the daily digest now\n")
		helpText.WriteString("/run_summary - send the weekly summary now")
	}
	return helpText.String()
}

func (h *chatCommands) today(ctx context.Context, chatID int64) (string, *telebot.ReplyMarkup, error) {
	subjects, err := h.reminders.SubjectsForChat(ctx, chatID)
	if err != nil {
		return "", nil, err
	}
	if len(subjects) == 0 {
		return notLinked, nil, nil
	}

	var (
		text  strings.Builder
		items []app.DigestItem
	)
	for _, subj := range subjects {
		views, err := h.reminders.ListToday(ctx, subj.ID)
		if err != nil {
			return "", nil, err
		}
		fmt.Fprintf(&text, "%s today:\n", subj.Name)
		if len(views) == 0 {
			text.WriteString("- nothing due\n")
		}
		for _, v := range views {
			fmt.Fprintf(&text, "- %s\n", v.Reminder.Title)
		}
		items = append(items, completableItems(views)...)
	}
	return strings.TrimSpace(text.String()), doneKeyboard(items), nil
}

func (h *chatCommands) upcoming(ctx context.Context, chatID int64, args []string) (string, error) {
	days := defaultUpcomingDays
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return "Usage: /upcoming [days], where days is a whole number of zero or more.", nil
		}
		days = n
	}

	subjects, err := h.reminders.SubjectsForChat(ctx, chatID)
	if err != nil {
		return "", err
	}
	if len(subjects) == 0 {
		return notLinked, nil
	}

	var text strings.Builder
	for _, subj := range subjects {
		views, err := h.reminders.ListUpcoming(ctx, subj.ID, &days)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&text, "%s, next %d days:\n", subj.Name, days)
		if len(views) == 0 {
			text.WriteString("- nothing scheduled\n")
		}
		for _, v := range views {
			fmt.Fprintf(&text, "- %s: %s\n", v.NextDue.Format(time.DateOnly), v.Reminder.Title)
		}
	}
	return strings.TrimSpace(text.String()), nil
}

func (h *chatCommands) milestone(ctx context.Context, chatID int64) (string, error) {
	subjects, err := h.reminders.SubjectsForChat(ctx, chatID)
	if err != nil {
		return "", err
	}
	if len(subjects) == 0 {
		return notLinked, nil
	}

	var text strings.Builder
	for _, subj := range subjects {
		v, ok, err := h.reminders.CurrentMilestone(ctx, subj.ID)
		if err != nil && !errors.Is(err, app.ErrNotFound) {
			return "", err
		}
		if !ok {
			fmt.Fprintf(&text, "%s: no milestone reached yet\n", subj.Name)
			continue
		}
		fmt.Fprintf(&text, "%s: %s\n", subj.Name, v.Reminder.Title)
		if v.Reminder.Description != "" {
			fmt.Fprintf(&text, "  %s\n", v.Reminder.Description)
		}
	}
	return strings.TrimSpace(text.String()), nil
}

func completableItems(views []app.View) []app.DigestItem {
	var items []app.DigestItem
	for _, v := range views {
		if v.Reminder.Kind == reminder.Task {
			items = append(items, app.DigestItem{ID: v.Reminder.ID.String(), Title: v.Reminder.Title, Completable: true})
		}
	}
	return items
}

const notLinked = "No baby is linked to this chat yet. Send /start to get your chat id."

func joinNames(subjects []*subject.Subject) string {
	names := make([]string, 0, len(subjects))
	for _, s := range subjects {
		names = append(names, s.Name)
	}
	return strings.Join(names, ", ")
}
