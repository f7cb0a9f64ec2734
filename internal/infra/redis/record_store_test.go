package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"live-trivia-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRecordStoreRoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRecordStore(client, time.Minute)
	ctx := context.Background()

	record := &domain.GameRecord{
		SessionID:  "sess-1",
		DurationMs: 120000,
		Leaderboard: []domain.LeaderboardEntry{
			{Rank: 1, ID: "p1", Name: "Alice", Score: 380},
		},
	}
	if err := store.Save(ctx, record); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("trivia:record:sess-1") {
		t.Fatalf("expected redis key to be set")
	}

	loaded, err := store.Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.DurationMs != 120000 || len(loaded.Leaderboard) != 1 {
		t.Fatalf("unexpected record: %+v", loaded)
	}
}

func TestRecordStoreLoadMissing(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewRecordStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	if _, err := store.Load(context.Background(), "missing"); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}
