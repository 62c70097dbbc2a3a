// Package session persists per browser session state: recovered form
// values awaiting re-display, and one shot flash messages. The
// backing store is Redis; nothing here is shared across requests in
// process.
package session

import (
	"encoding/json"
	"fmt"
	"time"
)

// KV is the slice of Redis the store needs. RedisKV implements it;
// tests substitute a map backed fake.
type KV interface {
	Get(key string) (string, error)
	Set(key string, value interface{}, expiration time.Duration) error
	Del(key string) error
}

// Store reads and writes session scoped values under a per session
// key namespace.
type Store struct {
	kv  KV
	ttl time.Duration
}

// NewStore wraps a KV with the session TTL.
func NewStore(kv KV, ttl time.Duration) *Store {
	return &Store{kv: kv, ttl: ttl}
}

func (s *Store) pageDataKey(sessionID, name string) string {
	return fmt.Sprintf("session:%s:pagedata:%s", sessionID, name)
}

func (s *Store) flashKey(sessionID string) string {
	return fmt.Sprintf("session:%s:flash", sessionID)
}

// SetPageData stores a JSON blob of recovered form state for the
// next GET of the named page.
func (s *Store) SetPageData(sessionID, name string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal page data: %w", err)
	}
	return s.kv.Set(s.pageDataKey(sessionID, name), string(payload), s.ttl)
}

// GetPageData loads recovered form state into out and deletes it, so
// a page re-display consumes the recovery exactly once. It reports
// whether any data was present.
func (s *Store) GetPageData(sessionID, name string, out interface{}) (bool, error) {
	key := s.pageDataKey(sessionID, name)
	raw, err := s.kv.Get(key)
	if err != nil || raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("unmarshal page data: %w", err)
	}
	if err := s.kv.Del(key); err != nil {
		return true, err
	}
	return true, nil
}

// SetFlash stores a one shot message shown on the next page load.
func (s *Store) SetFlash(sessionID, message string) error {
	return s.kv.Set(s.flashKey(sessionID), message, s.ttl)
}

// ConsumeFlash returns the pending flash message, if any, and clears
// it.
func (s *Store) ConsumeFlash(sessionID string) (string, error) {
	key := s.flashKey(sessionID)
	msg, err := s.kv.Get(key)
	if err != nil || msg == "" {
		return "", nil
	}
	if err := s.kv.Del(key); err != nil {
		return msg, err
	}
	return msg, nil
}
