package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"live-trivia-service/internal/domain"
)

func TestRecordStoreRoundTrip(t *testing.T) {
	store := NewRecordStore(t.TempDir())
	ctx := context.Background()

	record := &domain.GameRecord{
		SessionID:   "sess-1",
		SessionName: "Friday Trivia",
		StartedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		EndedAt:     time.Date(2025, 6, 1, 12, 5, 0, 0, time.UTC),
		DurationMs:  300000,
		Leaderboard: []domain.LeaderboardEntry{{Rank: 1, ID: "p1", Name: "Alice", Score: 200}},
	}
	if err := store.Save(ctx, record); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.SessionID != "sess-1" || loaded.DurationMs != 300000 {
		t.Fatalf("unexpected record: %+v", loaded)
	}
	if len(loaded.Leaderboard) != 1 || loaded.Leaderboard[0].Name != "Alice" {
		t.Fatalf("unexpected leaderboard: %+v", loaded.Leaderboard)
	}
}

func TestRecordStoreLoadMissing(t *testing.T) {
	store := NewRecordStore(t.TempDir())
	if _, err := store.Load(context.Background(), "nope"); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestRecordStoreRejectsPathEscapes(t *testing.T) {
	store := NewRecordStore(t.TempDir())
	if _, err := store.Load(context.Background(), "../etc/passwd"); err == nil {
		t.Fatalf("expected rejection of path-escaping session id")
	}
	if err := store.Save(context.Background(), &domain.GameRecord{SessionID: "a/b"}); err == nil {
		t.Fatalf("expected rejection of slash in session id")
	}
}

func TestQuestionLoaderParsesAndValidates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "questions.yaml")
	content := `id: demo
questions:
  - prompt: "What is 2 + 2?"
    options: ["3", "4", "5"]
    correctOption: 1
    timeLimitMs: 10000
  - prompt: "Which tag makes a hyperlink?"
    options: ["<link>", "<href>", "<a>", "<url>"]
    correctOption: 2
    timeLimitMs: 10000
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	questions, err := NewQuestionLoader(path).LoadQuestions(context.Background(), "demo")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(questions) != 2 || questions[1].CorrectOption != 2 {
		t.Fatalf("unexpected questions: %+v", questions)
	}
}

func TestQuestionLoaderRejectsBadSet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "questions.yaml")
	content := `questions:
  - prompt: "Broken"
    options: ["only one"]
    correctOption: 0
    timeLimitMs: 10000
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := NewQuestionLoader(path).LoadQuestions(context.Background(), ""); err == nil {
		t.Fatalf("expected validation failure for a one-option question")
	}
}
