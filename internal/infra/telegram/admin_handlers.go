package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"care_reminder_service/internal/app"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const notAuthorized = "You are not allowed to run this command."

type adminCommands struct {
	admin *app.AdminService
}

// RegisterAdminHandlers registers the maintenance commands. Every command is
// checked against the configured admin Telegram ID by the admin service.
func RegisterAdminHandlers(ctx context.Context, b *telebot.Bot, adminService *app.AdminService, baseLogger *logrus.Entry) {
	h := &adminCommands{admin: adminService}

	handle := func(command string, answer func(senderID int64, args []string) (string, error)) {
		b.Handle(command, func(c telebot.Context) error {
			handlerLogger := baseLogger.WithFields(logrus.Fields{
				"handler":   command,
				"sender_id": c.Sender().ID,
			})
			handlerLogger.Info("Command received")

			text, err := answer(c.Sender().ID, c.Args())
			if err != nil {
				handlerLogger.WithError(err).Error("Admin command failed")
				return c.Send(fmt.Sprintf("Command failed: %s", err.Error()))
			}
			return c.Send(text)
		})
	}

	handle("/subjects", func(senderID int64, _ []string) (string, error) {
		return h.subjects(ctx, senderID)
	})
	handle("/reseed", func(senderID int64, args []string) (string, error) {
		return h.reseed(ctx, senderID, args)
	})
	handle("/run_digest", func(senderID int64, _ []string) (string, error) {
		return h.report(h.admin.TriggerDailyDigest(ctx, senderID))
	})
	handle("/run_summary", func(senderID int64, _ []string) (string, error) {
		return h.report(h.admin.TriggerWeeklySummary(ctx, senderID))
	})
}

func (h *adminCommands) subjects(ctx context.Context, senderID int64) (string, error) {
	list, err := h.admin.ListSubjects(ctx, senderID)
	if errors.Is(err, app.ErrAdminNotAuthorized) {
		return notAuthorized, nil
	}
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "No subjects registered.", nil
	}

	var response strings.Builder
	fmt.Fprintf(&response, "--- %d subjects ---\n", len(list))
	for _, s := range list {
		dob := "unknown"
		if s.DateOfBirth != nil {
			dob = s.DateOfBirth.Format("2006-01-02")
		}
		fmt.Fprintf(&response, "%s %s, born %s, chat %d\n", s.ID, s.Name, dob, s.Owner.TelegramChatID)
	}
	return strings.TrimSpace(response.String()), nil
}

func (h *adminCommands) reseed(ctx context.Context, senderID int64, args []string) (string, error) {
	if !h.admin.IsAdmin(senderID) {
		return notAuthorized, nil
	}
	if len(args) != 1 {
		return "Usage: /reseed <subject id|all>", nil
	}

	if strings.EqualFold(args[0], "all") {
		n, err := h.admin.ReseedAll(ctx, senderID)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Added %d reminders across all subjects.", n), nil
	}

	id, err := uuid.Parse(args[0])
	if err != nil {
		return "Subject id must be a UUID.", nil
	}
	n, err := h.admin.Reseed(ctx, senderID, id)
	if errors.Is(err, app.ErrNotFound) {
		return fmt.Sprintf("Subject %s not found.", id), nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Added %d reminders.", n), nil
}

func (h *adminCommands) report(r *app.RunReport, err error) (string, error) {
	if errors.Is(err, app.ErrAdminNotAuthorized) {
		return notAuthorized, nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Run %s (%s): sent %d, failed %d, skipped %d.", r.RunID, r.Type, r.Sent, r.Failed, r.Skipped), nil
}
