package repository

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ahmednasr/repomind/internal/metrics"
	"github.com/ahmednasr/repomind/internal/models"
)

const (
	// SessionTTL is how long a session lives after creation.
	SessionTTL = time.Hour
	// SweepInterval is how often the in-memory store purges expired sessions.
	SweepInterval = 10 * time.Minute
)

// MemorySessionStore keeps sessions in process memory. Sessions are lost on
// restart and are not shared between replicas.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session

	ttl      time.Duration
	interval time.Duration
	now      func() time.Time

	started   atomic.Bool
	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// NewMemorySessionStore returns an empty store. Call Start to run the
// background sweep.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*models.Session),
		ttl:      SessionTTL,
		interval: SweepInterval,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the periodic sweep. Calling it more than once has no
// further effect.
func (s *MemorySessionStore) Start() {
	s.startOnce.Do(func() {
		s.started.Store(true)
		go s.loop()
	})
}

func (s *MemorySessionStore) loop() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				log.Printf("[Session Store] swept %d expired sessions", n)
			}
		case <-s.stop:
			return
		}
	}
}

// Sweep removes every expired session and returns how many were removed.
func (s *MemorySessionStore) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.Expired(now, s.ttl) {
			delete(s.sessions, id)
			removed++
		}
	}
	metrics.AddSessionsExpired(removed)
	metrics.SetActiveSessions(len(s.sessions))
	return removed
}

// Create stores a copy of sess under a fresh id.
func (s *MemorySessionStore) Create(ctx context.Context, sess *models.Session) (string, error) {
	id := uuid.NewString()

	s.mu.Lock()
	s.sessions[id] = sess.Clone()
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.SetActiveSessions(n)
	return id, nil
}

// Get returns a copy of the session. Unknown and expired ids both yield
// ErrSessionNotFound, whether or not the sweep has run yet.
func (s *MemorySessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok || sess.Expired(s.now(), s.ttl) {
		return nil, models.ErrSessionNotFound
	}
	return sess.Clone(), nil
}

// Set replaces an existing, live session. Its creation time, and so its
// expiry, is kept from the stored copy.
func (s *MemorySessionStore) Set(ctx context.Context, id string, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.sessions[id]
	if !ok || cur.Expired(s.now(), s.ttl) {
		return models.ErrSessionNotFound
	}

	next := sess.Clone()
	next.CreatedAt = cur.CreatedAt
	s.sessions[id] = next
	return nil
}

// Append adds msgs to the end of a live session's history under the store
// lock, so concurrent appends never overwrite each other.
func (s *MemorySessionStore) Append(ctx context.Context, id string, msgs ...models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.sessions[id]
	if !ok || cur.Expired(s.now(), s.ttl) {
		return models.ErrSessionNotFound
	}

	next := cur.Clone()
	next.Messages = append(next.Messages, msgs...)
	s.sessions[id] = next
	return nil
}

// Delete removes id. Deleting an unknown id is not an error.
func (s *MemorySessionStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	n := len(s.sessions)
	s.mu.Unlock()

	metrics.SetActiveSessions(n)
	return nil
}

// Len reports how many sessions are held, expired or not.
func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *MemorySessionStore) Ping(ctx context.Context) error { return nil }

// Close stops the sweep and waits for it to exit.
func (s *MemorySessionStore) Close(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stop) })
	if !s.started.Load() {
		return nil
	}
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
