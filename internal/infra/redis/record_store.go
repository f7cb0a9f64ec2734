package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"live-trivia-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RecordStore keeps finished game records in Redis, one JSON value per
// session, with an optional TTL. Useful when the analytics viewer runs on a
// different host than the game server.
type RecordStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRecordStore(client *redis.Client, ttl time.Duration) *RecordStore {
	return &RecordStore{client: client, ttl: ttl}
}

func (s *RecordStore) Save(ctx context.Context, record *domain.GameRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := s.client.Set(ctx, s.key(record.SessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store record: %w", err)
	}
	return nil
}

func (s *RecordStore) Load(ctx context.Context, sessionID string) (*domain.GameRecord, error) {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load record: %w", err)
	}
	var record domain.GameRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return &record, nil
}

func (s *RecordStore) key(sessionID string) string {
	return "trivia:record:" + sessionID
}
