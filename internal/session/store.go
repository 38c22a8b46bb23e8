// Package session holds one fetch cycle's materialized result in memory for a
// bounded lifetime. Entries are write-once and replaced whole, so concurrent
// reads during the TTL window are safe.
package session

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/worklog/internal/domain"
)

// Clock supplies the current time; tests inject a fake one to drive expiry.
type Clock func() time.Time

// Config tunes the store.
type Config struct {
	TTL           time.Duration
	SweepInterval time.Duration
	MaxSessions   int
	Clock         Clock
}

// DefaultTTL is the hard session lifetime.
const DefaultTTL = 30 * time.Minute

// Session is one stored fetch cycle.
type Session struct {
	SessionID   string
	UserID      string
	SourceTypes []domain.ToolType
	Payload     *domain.FetchResult
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Store is the in-memory TTL store. Never persisted; a process restart drops
// every session, which is within the lifetime contract.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	ttl           time.Duration
	sweepInterval time.Duration
	maxSessions   int
	clock         Clock

	logger           *log.Logger
	shutdownComplete chan struct{}
}

// NewStore constructs a Store. Zero config fields fall back to defaults.
func NewStore(cfg Config) *Store {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 1000
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &Store{
		sessions:         make(map[string]*Session),
		ttl:              cfg.TTL,
		sweepInterval:    cfg.SweepInterval,
		maxSessions:      cfg.MaxSessions,
		clock:            cfg.Clock,
		logger:           log.New(log.Writer(), "[session] ", log.LstdFlags),
		shutdownComplete: make(chan struct{}),
	}
}

// Create stores a payload and returns the opaque session id.
func (s *Store) Create(userID string, sourceTypes []domain.ToolType, payload *domain.FetchResult) string {
	now := s.clock().UTC()
	sess := &Session{
		SessionID:   uuid.NewString(),
		UserID:      userID,
		SourceTypes: append([]domain.ToolType(nil), sourceTypes...),
		Payload:     payload,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictOverflowLocked()
	s.sessions[sess.SessionID] = sess
	recordCreated(len(s.sessions))
	return sess.SessionID
}

// Get returns the stored session. Absent and expired are indistinguishable.
func (s *Store) Get(sessionID string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()

	if !ok || !s.clock().UTC().Before(sess.ExpiresAt) {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

// Delete removes a session. Idempotent.
func (s *Store) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; ok {
		delete(s.sessions, sessionID)
		recordDeleted(len(s.sessions))
	}
}

// Start launches the background sweep. Call in a goroutine; pair with Wait on
// shutdown.
func (s *Store) Start(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer func() {
		ticker.Stop()
		close(s.shutdownComplete)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if purged := s.Sweep(); purged > 0 {
				s.logger.Printf("purged %d expired sessions", purged)
			}
		}
	}
}

// Wait blocks until the sweep loop has stopped.
func (s *Store) Wait() {
	<-s.shutdownComplete
}

// Sweep removes every expired session and reports how many were purged.
// Exposed so tests can drive expiry with a fake clock instead of real timers.
func (s *Store) Sweep() int {
	now := s.clock().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for id, sess := range s.sessions {
		if !now.Before(sess.ExpiresAt) {
			delete(s.sessions, id)
			purged++
		}
	}
	if purged > 0 {
		recordExpired(purged, len(s.sessions))
	}
	return purged
}

// Len reports the number of stored sessions, expired or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// evictOverflowLocked drops oldest-by-creation sessions until a new entry fits.
func (s *Store) evictOverflowLocked() {
	if len(s.sessions) < s.maxSessions {
		return
	}
	ordered := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		ordered = append(ordered, sess)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})
	for _, sess := range ordered {
		if len(s.sessions) < s.maxSessions {
			break
		}
		delete(s.sessions, sess.SessionID)
		recordEvicted(len(s.sessions))
	}
}
