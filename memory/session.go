package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionMessage is one transcript entry for the current run.
type SessionMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"ts"`
}

// Session is the append-only in-process transcript. It lives for one
// process run and is discarded on exit.
type Session struct {
	mu       sync.Mutex
	messages []SessionMessage
}

func NewSession() *Session {
	return &Session{}
}

// Append records one message.
func (s *Session) Append(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, SessionMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
}

// Messages returns a copy of the transcript in insertion order.
func (s *Session) Messages() []SessionMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SessionMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// Clear drops the transcript.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
}
