package execsync

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRecentlyClosedTTL is the grace period during which a just-answered
// execution id is suppressed from reopening the input modal.
const DefaultRecentlyClosedTTL = 5 * time.Second

// TTLSet is a time-windowed set of execution ids. Entries expire on their
// own after the configured window; Contains never returns an expired id.
type TTLSet interface {
	Add(ctx context.Context, id string) error
	Contains(ctx context.Context, id string) (bool, error)
	Close() error
}

// MemoryTTLSet is the in-process TTLSet used by a single-instance editor.
type MemoryTTLSet struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	expiry  map[string]time.Time
	closing chan struct{}
	once    sync.Once
}

// NewMemoryTTLSet creates an in-memory TTL set with a background evictor.
func NewMemoryTTLSet(ttl time.Duration) *MemoryTTLSet {
	s := &MemoryTTLSet{
		ttl:     ttl,
		now:     time.Now,
		expiry:  make(map[string]time.Time),
		closing: make(chan struct{}),
	}
	go s.evictLoop()
	return s
}

// newMemoryTTLSetAt creates a set with an injectable clock and no
// background evictor; expiry is enforced lazily. Tests use this to step
// time explicitly.
func newMemoryTTLSetAt(ttl time.Duration, now func() time.Time) *MemoryTTLSet {
	return &MemoryTTLSet{
		ttl:     ttl,
		now:     now,
		expiry:  make(map[string]time.Time),
		closing: make(chan struct{}),
	}
}

// Add inserts the id, restarting its expiry window if already present.
func (s *MemoryTTLSet) Add(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiry[id] = s.now().Add(s.ttl)
	return nil
}

// Contains reports whether the id is present and unexpired.
func (s *MemoryTTLSet) Contains(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deadline, ok := s.expiry[id]
	if !ok {
		return false, nil
	}
	if s.now().After(deadline) {
		delete(s.expiry, id)
		return false, nil
	}
	return true, nil
}

// Close stops the background evictor.
func (s *MemoryTTLSet) Close() error {
	s.once.Do(func() { close(s.closing) })
	return nil
}

func (s *MemoryTTLSet) evictLoop() {
	ticker := time.NewTicker(s.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-s.closing:
			return
		case <-ticker.C:
			now := s.now()
			s.mu.Lock()
			for id, deadline := range s.expiry {
				if now.After(deadline) {
					delete(s.expiry, id)
				}
			}
			s.mu.Unlock()
		}
	}
}

// RedisTTLSet is a TTLSet backed by redis key expiry, for deployments
// where several editor instances serve the same project and must agree on
// which requests were just answered.
type RedisTTLSet struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisTTLSet creates a redis-backed TTL set. The prefix namespaces the
// keys; pass something like "agentcanvas:recently_closed:".
func NewRedisTTLSet(client *redis.Client, prefix string, ttl time.Duration) *RedisTTLSet {
	return &RedisTTLSet{client: client, prefix: prefix, ttl: ttl}
}

// Add inserts the id with the configured TTL; redis evicts it on expiry.
func (s *RedisTTLSet) Add(ctx context.Context, id string) error {
	return s.client.Set(ctx, s.prefix+id, "1", s.ttl).Err()
}

// Contains reports whether the id is still present.
func (s *RedisTTLSet) Contains(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+id).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close releases the underlying client.
func (s *RedisTTLSet) Close() error {
	return s.client.Close()
}
