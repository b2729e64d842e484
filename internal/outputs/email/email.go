// Package email defines the message shape shared by email senders.
package email

import "context"

// Message is a single rendered notification email. Body is HTML.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

type Sender interface {
	Send(ctx context.Context, message Message) error
}
