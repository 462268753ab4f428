package state

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/travelai/pkg/metrics"
)

// StoreOption customizes MemoryStore.
type StoreOption func(*MemoryStore)

// WithRetention keeps a session with no attached connection for d before it is
// evicted. Zero destroys it on the last Detach.
func WithRetention(d time.Duration) StoreOption {
	return func(s *MemoryStore) {
		if d >= 0 {
			s.retain = d
		}
	}
}

func WithClock(now func() time.Time) StoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// MemoryStore is the process-local session registry.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	retain   time.Duration
	now      func() time.Time
}

func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	s := &MemoryStore{
		sessions: make(map[string]*Session, 64),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Open attaches a connection to the session, creating it when absent.
func (s *MemoryStore) Open(sessionID string) (*Session, bool, error) {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return nil, false, ErrInvalidSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		sess = s.createLocked(id)
	}
	sess.conns++
	sess.detachedAt = time.Time{}
	return sess, !ok, nil
}

// Detach drops one connection. The last one destroys the session, or starts
// its retention window.
func (s *MemoryStore) Detach(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return
	}
	if sess.conns > 0 {
		sess.conns--
	}
	if sess.conns > 0 {
		return
	}
	if s.retain == 0 {
		s.deleteLocked(sessionID)
		return
	}
	sess.detachedAt = s.now()
}

// Acquire returns the session with its turn slot held. The caller must call
// release exactly once; extra calls are no-ops.
func (s *MemoryStore) Acquire(ctx context.Context, sessionID string) (*Session, func(), error) {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return nil, nil, ErrInvalidSession
	}

	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		sess = s.createLocked(id)
	}
	s.mu.Unlock()

	if err := sess.lock(ctx); err != nil {
		return nil, nil, err
	}
	var once sync.Once
	return sess, func() { once.Do(sess.unlock) }, nil
}

func (s *MemoryStore) Get(sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *MemoryStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteLocked(sessionID)
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Evict removes detached sessions whose retention window has passed.
func (s *MemoryStore) Evict(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, sess := range s.sessions {
		if sess.conns > 0 || sess.detachedAt.IsZero() {
			continue
		}
		if now.Sub(sess.detachedAt) >= s.retain {
			s.deleteLocked(id)
			n++
		}
	}
	return n
}

// RunJanitor calls Evict every interval until ctx is done.
func (s *MemoryStore) RunJanitor(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Evict(s.now()); n > 0 {
				log.Debug().Int("evicted", n).Msg("session janitor")
			}
		}
	}
}

func (s *MemoryStore) createLocked(id string) *Session {
	sess := newSession(id, s.now())
	s.sessions[id] = sess
	metrics.SetActiveSessions(len(s.sessions))
	log.Debug().Str("session_id", id).Msg("session created")
	return sess
}

func (s *MemoryStore) deleteLocked(id string) {
	if _, ok := s.sessions[id]; !ok {
		return
	}
	delete(s.sessions, id)
	metrics.SetActiveSessions(len(s.sessions))
	log.Debug().Str("session_id", id).Msg("session destroyed")
}
