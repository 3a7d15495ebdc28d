package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

var ErrIdempotencyConflict = errors.New("idempotency key conflicts with existing request")

const IdempotencyHeader = "Idempotency-Key"

type idempotencyEntry struct {
	requestHash string
	response    json.RawMessage
	storedAt    time.Time
}

// IdempotencyStore remembers the response of a keyed mutation so a retry
// with the same key and payload replays it instead of writing again.
type IdempotencyStore struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]idempotencyEntry
}

func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{
		ttl:     ttl,
		now:     time.Now,
		entries: map[string]idempotencyEntry{},
	}
}

func RequestHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func (s *IdempotencyStore) Check(_ context.Context, endpoint, key, requestHash string) (json.RawMessage, bool, error) {
	if s == nil || key == "" {
		return nil, false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[endpoint+"\x00"+key]
	if !ok {
		return nil, false, nil
	}
	if s.now().Sub(entry.storedAt) > s.ttl {
		delete(s.entries, endpoint+"\x00"+key)
		return nil, false, nil
	}
	if entry.requestHash != requestHash {
		return nil, false, ErrIdempotencyConflict
	}
	return entry.response, true, nil
}

func (s *IdempotencyStore) Save(_ context.Context, endpoint, key, requestHash string, response json.RawMessage) error {
	if s == nil || key == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	id := endpoint + "\x00" + key
	if entry, ok := s.entries[id]; ok && now.Sub(entry.storedAt) <= s.ttl && entry.requestHash != requestHash {
		return ErrIdempotencyConflict
	}
	s.entries[id] = idempotencyEntry{requestHash: requestHash, response: response, storedAt: now}

	for k, entry := range s.entries {
		if now.Sub(entry.storedAt) > s.ttl {
			delete(s.entries, k)
		}
	}
	return nil
}
