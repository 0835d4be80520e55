package telegram

import (
	"context"
	"errors"
	"fmt"

	"care_reminder_service/internal/domain/notification"

	"gopkg.in/telebot.v3"
)

var ErrNoChat = errors.New("recipient has no linked Telegram chat")

// messenger is the part of *telebot.Bot the adapter sends through.
type messenger interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// TelebotAdapter delivers notifications as Telegram messages.
type TelebotAdapter struct {
	bot messenger
}

var _ notification.Sender = (*TelebotAdapter)(nil)

func NewTelebotAdapter(b messenger) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

func (tba *TelebotAdapter) Send(ctx context.Context, msg notification.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.Recipient.TelegramChatID == 0 {
		return ErrNoChat
	}

	text, markup, err := Render(msg)
	if err != nil {
		return err
	}

	options := &telebot.SendOptions{}
	if markup != nil {
		options.ReplyMarkup = markup
	}
	if _, err := tba.bot.Send(&telebot.Chat{ID: msg.Recipient.TelegramChatID}, text, options); err != nil {
		return fmt.Errorf("failed to send %s to chat %d: %w", msg.Template, msg.Recipient.TelegramChatID, err)
	}
	return nil
}
