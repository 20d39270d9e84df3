package session

import (
	"log"
	"sync"
	"time"

	"github.com/scrypster/rolodex/internal/config"
	"github.com/scrypster/rolodex/pkg/types"
)

// MemoryService is the registry of user sessions. Sessions are created on
// first access and replaced wholesale, never mutated back to life, once they
// expire.
//
// The registry map is guarded by a mutex. Individual UserMemory values are
// not: callers must not drive the same user's session from two goroutines at
// once.
type MemoryService struct {
	cfg config.SessionConfig
	now func() time.Time

	mu       sync.Mutex
	memories map[string]*UserMemory
}

// Option configures a MemoryService.
type Option func(*MemoryService)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryService creates an empty registry.
func NewMemoryService(cfg config.SessionConfig, opts ...Option) *MemoryService {
	defaults := config.DefaultSessionConfig()
	if cfg.ExpiryAfter <= 0 {
		cfg.ExpiryAfter = defaults.ExpiryAfter
	}
	if cfg.RecentContacts <= 0 {
		cfg.RecentContacts = defaults.RecentContacts
	}
	if cfg.SweepThreshold <= 0 {
		cfg.SweepThreshold = defaults.SweepThreshold
	}
	s := &MemoryService{
		cfg:      cfg,
		now:      time.Now,
		memories: make(map[string]*UserMemory),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the session for userID, creating it if absent. An expired
// session is discarded and a fresh IDLE one takes its place. Once the
// registry grows past the sweep threshold, every expired entry is removed.
func (s *MemoryService) Get(userID string) *UserMemory {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.memories[userID]
	if ok && !m.IsExpired() {
		return m
	}
	if ok {
		log.Printf("[session] memory for user %s expired after %s idle, starting fresh",
			userID, s.now().Sub(m.LastActivity()).Round(time.Second))
	}

	m = NewUserMemory(userID, s.cfg, s.now)
	s.memories[userID] = m

	if len(s.memories) > s.cfg.SweepThreshold {
		s.sweepLocked()
	}
	return m
}

// Peek returns the session for userID without creating or replacing it.
func (s *MemoryService) Peek(userID string) (*UserMemory, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.memories[userID]
	return m, ok
}

// Sweep removes every expired session and returns how many were removed.
func (s *MemoryService) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked()
}

func (s *MemoryService) sweepLocked() int {
	removed := 0
	for id, m := range s.memories {
		if m.IsExpired() {
			delete(s.memories, id)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("[session] swept %d expired memories (%d remaining)", removed, len(s.memories))
	}
	return removed
}

// Reset discards the session for userID.
func (s *MemoryService) Reset(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.memories, userID)
}

// Len returns the number of sessions in the registry.
func (s *MemoryService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.memories)
}

// StartCollecting delegates to the user's UserMemory.
func (s *MemoryService) StartCollecting(userID string, c *types.Contact) *types.ActiveTask {
	return s.Get(userID).StartCollecting(c)
}

// UpdatePending delegates to the user's UserMemory.
func (s *MemoryService) UpdatePending(userID string, updates map[types.ContactField]string) (bool, error) {
	return s.Get(userID).UpdatePending(updates)
}

// HardReset delegates to the user's UserMemory.
func (s *MemoryService) HardReset(userID, savedName string) {
	s.Get(userID).HardReset(savedName)
}

// CancelPending delegates to the user's UserMemory.
func (s *MemoryService) CancelPending(userID string) *types.ActiveTask {
	return s.Get(userID).CancelPending()
}

// UnlockContact delegates to the user's UserMemory.
func (s *MemoryService) UnlockContact(userID, name string) *types.Contact {
	return s.Get(userID).UnlockContact(name)
}

// IsContactLocked delegates to the user's UserMemory.
func (s *MemoryService) IsContactLocked(userID, name string) bool {
	return s.Get(userID).IsContactLocked(name)
}

// PendingContact delegates to the user's UserMemory.
func (s *MemoryService) PendingContact(userID string) *types.Contact {
	return s.Get(userID).PendingContact()
}

// State delegates to the user's UserMemory.
func (s *MemoryService) State(userID string) types.ConversationState {
	return s.Get(userID).State()
}
