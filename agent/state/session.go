package state

import (
	"context"
	"sync"
	"time"
)

// Session is the ordered message log of one client. Turns on a session run one
// at a time; the turn slot enforces that.
type Session struct {
	id string

	mu        sync.RWMutex
	messages  []Message
	turns     int
	updatedAt time.Time

	slot chan struct{}

	// guarded by MemoryStore.mu
	conns      int
	detachedAt time.Time
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		id:        id,
		slot:      make(chan struct{}, 1),
		updatedAt: now.UTC(),
	}
}

func (s *Session) ID() string { return s.id }

// Messages returns a copy of the log.
func (s *Session) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Turns reports how many turns were committed.
func (s *Session) Turns() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.turns
}

func (s *Session) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// Commit appends the whole turn or nothing.
func (s *Session) Commit(turn *Turn, now time.Time) error {
	if err := turn.Validate(); err != nil {
		return err
	}
	if turn.SessionID != "" && turn.SessionID != s.id {
		return ErrSessionCorrupt
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, turn.Messages()...)
	s.turns++
	s.updatedAt = now.UTC()
	return nil
}

func (s *Session) lock(ctx context.Context) error {
	select {
	case s.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) unlock() {
	<-s.slot
}
