package game

import (
	"testing"

	"live-trivia-service/internal/domain"
)

func TestRankOrdersByScoreThenTime(t *testing.T) {
	participants := map[string]*domain.Participant{
		"a": {ID: "a", DisplayName: "Alice", Score: 200, TotalTimeMs: 4000},
		"b": {ID: "b", DisplayName: "Bob", Score: 300, TotalTimeMs: 9000},
		"c": {ID: "c", DisplayName: "Cara", Score: 200, TotalTimeMs: 2500},
	}

	entries := Rank(participants)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	wantOrder := []string{"b", "c", "a"}
	for i, id := range wantOrder {
		if entries[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, entries[i].ID)
		}
	}
}

func TestRankIsDenseAndUnique(t *testing.T) {
	participants := map[string]*domain.Participant{
		"a": {ID: "a", Score: 100, TotalTimeMs: 1000},
		"b": {ID: "b", Score: 100, TotalTimeMs: 1000},
		"c": {ID: "c", Score: 100, TotalTimeMs: 500},
		"d": {ID: "d", Score: 50, TotalTimeMs: 100},
	}

	entries := Rank(participants)
	if len(entries) != len(participants) {
		t.Fatalf("expected %d entries, got %d", len(participants), len(entries))
	}
	for i, entry := range entries {
		if entry.Rank != i+1 {
			t.Fatalf("expected dense 1-based ranks, got rank %d at position %d", entry.Rank, i)
		}
	}
	// Tied (a, b) must still receive distinct sequential ranks via the id tie-break.
	if entries[0].ID != "c" || entries[1].ID != "a" || entries[2].ID != "b" {
		t.Fatalf("unexpected tie-break order: %+v", entries)
	}
}

func TestRankEmptyInput(t *testing.T) {
	if entries := Rank(map[string]*domain.Participant{}); len(entries) != 0 {
		t.Fatalf("expected empty leaderboard, got %d entries", len(entries))
	}
}
