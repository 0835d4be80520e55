package notification

import "context"

// Message is a templated notification addressed to one recipient.
type Message struct {
	Recipient Recipient
	Template  TemplateID
	Variables map[string]any
}

type Recipient struct {
	Name           string
	Email          string
	TelegramChatID int64
}

// Sender delivers messages. Callers treat delivery failures as non-fatal.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
