package game

import (
	"sort"

	"live-trivia-service/internal/domain"
)

// Rank derives an ordered leaderboard snapshot from the current participants.
// Sort key: score descending, then cumulative answer time ascending (faster
// aggregate play wins ties), then id for a stable total order. Ranks are
// dense, unique and 1-based even when scores tie, matching the scoring
// engine's expectation of a strict ordering.
func Rank(participants map[string]*domain.Participant) []domain.LeaderboardEntry {
	entries := make([]domain.LeaderboardEntry, 0, len(participants))
	for _, p := range participants {
		entries = append(entries, domain.LeaderboardEntry{
			ID:          p.ID,
			Name:        p.DisplayName,
			Score:       p.Score,
			TotalTimeMs: p.TotalTimeMs,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if entries[i].TotalTimeMs != entries[j].TotalTimeMs {
			return entries[i].TotalTimeMs < entries[j].TotalTimeMs
		}
		return entries[i].ID < entries[j].ID
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
