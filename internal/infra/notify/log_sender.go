// Package notify holds the notification sender used when no chat transport
// is configured.
package notify

import (
	"context"

	"care_reminder_service/internal/domain/notification"

	"github.com/sirupsen/logrus"
)

// LogSender writes every notification to the log instead of delivering it.
type LogSender struct {
	logger *logrus.Entry
}

var _ notification.Sender = (*LogSender)(nil)

func NewLogSender(logger *logrus.Entry) *LogSender {
	return &LogSender{logger: logger.WithField("component", "log_sender")}
}

func (s *LogSender) Send(ctx context.Context, msg notification.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"template":  msg.Template,
		"recipient": msg.Recipient.Name,
		"email":     msg.Recipient.Email,
		"chat_id":   msg.Recipient.TelegramChatID,
		"variables": msg.Variables,
	}).Info("Notification (not delivered, no transport configured)")
	return nil
}
