// Package telegram defines the message shape shared by Telegram senders.
package telegram

import "context"

// Message is a plain-text chat message.
type Message struct {
	ChatID string
	Text   string
}

type Sender interface {
	Send(ctx context.Context, message Message) error
}
