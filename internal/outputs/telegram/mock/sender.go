package mock

import (
	"context"
	"sync"

	"github.com/bakkerme/feedwatch/internal/outputs/telegram"
)

// Sender records messages instead of sending them. When FailTexts is set only
// messages with a listed text fail with Err.
type Sender struct {
	mu        sync.Mutex
	Messages  []telegram.Message
	Err       error
	FailTexts map[string]bool
}

func (s *Sender) Send(ctx context.Context, message telegram.Message) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil && (s.FailTexts == nil || s.FailTexts[message.Text]) {
		return s.Err
	}
	s.Messages = append(s.Messages, message)
	return nil
}

// Texts returns the delivered message texts in order.
func (s *Sender) Texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.Messages))
	for _, m := range s.Messages {
		out = append(out, m.Text)
	}
	return out
}
