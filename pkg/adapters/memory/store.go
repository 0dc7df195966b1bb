package memory

import (
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"
)

type entry struct {
	value    string
	expireAt time.Time // Zero means no expiration
}

func (e entry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && !now.Before(e.expireAt)
}

// Store is an in-memory key/value database shared by every Client connected to it.
// Safe for concurrent use.
type Store struct {
	data map[string]entry
	mu   sync.RWMutex
	now  func() time.Time
}

// NewStore creates a new in-memory database.
func NewStore() *Store {
	return &Store{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

// Connect opens a new connection to the store.
func (s *Store) Connect() *Client {
	return &Client{store: s}
}

// lookup returns a live entry. Expired entries are removed lazily.
// The caller must hold the write lock.
func (s *Store) lookup(key string) (entry, bool) {
	e, ok := s.data[key]
	if !ok {
		return entry{}, false
	}
	if e.expired(s.now()) {
		delete(s.data, key)
		return entry{}, false
	}
	return e, true
}

func (s *Store) get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lookup(key)
	return e.value, ok
}

func (s *Store) set(key, value string, ttl time.Duration) {
	e := entry{value: value}
	if ttl > 0 {
		e.expireAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = e
}

func (s *Store) getSet(key, value string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.lookup(key)
	s.data[key] = entry{value: value}
	return prev.value, ok
}

func (s *Store) setNX(key, value string, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lookup(key); ok {
		return false
	}
	e := entry{value: value}
	if ttl > 0 {
		e.expireAt = s.now().Add(ttl)
	}
	s.data[key] = e
	return true
}

func (s *Store) del(keys ...string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := s.lookup(k); ok {
			delete(s.data, k)
			n++
		}
	}
	return n
}

func (s *Store) delIfValue(key, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lookup(key)
	if !ok || e.value != value {
		return false
	}
	delete(s.data, key)
	return true
}

// braces are literal in Redis patterns but alternations in glob.
var braces = strings.NewReplacer("{", `\{`, "}", `\}`)

// keys matches like Redis KEYS: "*" spans every character, "/" included.
func (s *Store) keys(pattern string) ([]string, error) {
	g, err := glob.Compile(braces.Replace(pattern))
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		if _, ok := s.lookup(k); !ok {
			continue
		}
		if g.Match(k) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (s *Store) size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k := range s.data {
		if _, ok := s.lookup(k); ok {
			n++
		}
	}
	return n
}

func (s *Store) flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]entry)
}
