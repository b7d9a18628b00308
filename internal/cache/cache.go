package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"popchat/internal/answer"
	"popchat/internal/chart"
)

// Result is a fully processed backend answer: charts pulled out, the
// remaining narrative structured and analyzed.
type Result struct {
	Text        string                    `json:"text"`
	HTML        string                    `json:"html,omitempty"`
	Charts      []chart.Chart             `json:"charts"`
	Structured  answer.StructuredResponse `json:"structured"`
	Insights    []string                  `json:"insights,omitempty"`
	Comparisons []answer.Comparison       `json:"comparisons,omitempty"`
	Statistics  []answer.StatMention      `json:"statistics,omitempty"`
	Quality     answer.DataQuality        `json:"quality"`
	Sources     []answer.Source           `json:"sources,omitempty"`
}

type entry struct {
	result    *Result
	expiresAt time.Time
}

// Store is a thread-safe in-memory result cache with TTL eviction.
// Processing is deterministic on the answer text, so entries are keyed by
// its content hash.
type Store struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Store{
		entries: make(map[string]entry),
		ttl:     ttl,
	}
}

// Key computes the cache key for an answer body.
func Key(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

func (s *Store) Get(key string) (*Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.result, true
}

func (s *Store) Put(key string, r *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{result: r, expiresAt: time.Now().Add(s.ttl)}
}

// Cleanup removes expired entries.
func (s *Store) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
		}
	}
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Janitor runs periodic cleanup until the context is canceled.
func (s *Store) Janitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Cleanup()
		}
	}
}
