package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"live-trivia-service/internal/domain"
)

type countingStore struct {
	records map[string]*domain.GameRecord
	loads   int
}

func (s *countingStore) Save(_ context.Context, record *domain.GameRecord) error {
	s.records[record.SessionID] = record
	return nil
}

func (s *countingStore) Load(_ context.Context, sessionID string) (*domain.GameRecord, error) {
	s.loads++
	if record, ok := s.records[sessionID]; ok {
		return record, nil
	}
	return nil, domain.ErrRecordNotFound
}

func TestRecordCacheServesRepeatLoadsFromCache(t *testing.T) {
	backing := &countingStore{records: map[string]*domain.GameRecord{
		"sess-1": {SessionID: "sess-1"},
	}}
	cache := NewRecordCache(backing, time.Minute)

	if _, err := cache.Load(context.Background(), "sess-1"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if backing.loads != 1 {
		t.Fatalf("expected one backing load, got %d", backing.loads)
	}

	if _, err := cache.Load(context.Background(), "sess-1"); err != nil {
		t.Fatalf("load 2: %v", err)
	}
	if backing.loads != 1 {
		t.Fatalf("expected cache hit, backing loads=%d", backing.loads)
	}
}

func TestRecordCacheSavePrimes(t *testing.T) {
	backing := &countingStore{records: make(map[string]*domain.GameRecord)}
	cache := NewRecordCache(backing, time.Minute)

	if err := cache.Save(context.Background(), &domain.GameRecord{SessionID: "sess-2"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := cache.Load(context.Background(), "sess-2"); err != nil {
		t.Fatalf("load: %v", err)
	}
	if backing.loads != 0 {
		t.Fatalf("expected save to prime the cache, backing loads=%d", backing.loads)
	}
}

func TestRecordCachePropagatesNotFound(t *testing.T) {
	backing := &countingStore{records: make(map[string]*domain.GameRecord)}
	cache := NewRecordCache(backing, time.Minute)

	if _, err := cache.Load(context.Background(), "missing"); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}
