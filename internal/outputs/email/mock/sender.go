package mock

import (
	"context"
	"sync"

	"github.com/bakkerme/feedwatch/internal/outputs/email"
)

// Sender records messages instead of sending them. FailSubjects makes sends
// with a matching subject fail with Err.
type Sender struct {
	mu           sync.Mutex
	Messages     []email.Message
	Err          error
	FailSubjects map[string]bool
}

func (s *Sender) Send(ctx context.Context, message email.Message) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil && (s.FailSubjects == nil || s.FailSubjects[message.Subject]) {
		return s.Err
	}
	s.Messages = append(s.Messages, message)
	return nil
}
