package game

import (
	"context"
	"time"

	"live-trivia-service/internal/domain"
)

// RecordStore persists finished game records and serves them back to the
// read-only analytics viewer by session id.
type RecordStore interface {
	Save(ctx context.Context, record *domain.GameRecord) error
	Load(ctx context.Context, sessionID string) (*domain.GameRecord, error)
}

// RecordBuilder incrementally assembles the game record for one session.
// It is not safe for concurrent use; the session serializes all calls.
type RecordBuilder struct {
	record domain.GameRecord
	rows   map[string]int // participant id -> index into record.Participants
}

// NewRecordBuilder starts a record at the waiting->playing transition.
func NewRecordBuilder(sessionID, sessionName string, questions []domain.Question, startedAt time.Time) *RecordBuilder {
	summaries := make([]domain.QuestionSummary, len(questions))
	for i, q := range questions {
		summaries[i] = domain.QuestionSummary{
			Index:         i,
			Prompt:        q.Prompt,
			Options:       q.Options,
			CorrectOption: q.CorrectOption,
		}
	}
	return &RecordBuilder{
		record: domain.GameRecord{
			SessionID:   sessionID,
			SessionName: sessionName,
			StartedAt:   startedAt,
			Questions:   summaries,
		},
		rows: make(map[string]int),
	}
}

// UpsertParticipant rewrites the participant's summary row from current
// state. Re-running after a correction overwrites rather than duplicates.
func (b *RecordBuilder) UpsertParticipant(p *domain.Participant) {
	correct := 0
	answers := make([]domain.AnswerRecord, len(p.Answers))
	copy(answers, p.Answers)
	for _, a := range answers {
		if a.Correct {
			correct++
		}
	}

	row := domain.ParticipantSummary{
		ID:           p.ID,
		Name:         p.DisplayName,
		FinalScore:   p.Score,
		CorrectCount: correct,
		Answers:      answers,
	}

	if i, ok := b.rows[p.ID]; ok {
		row.FinalRank = b.record.Participants[i].FinalRank
		b.record.Participants[i] = row
		return
	}
	b.rows[p.ID] = len(b.record.Participants)
	b.record.Participants = append(b.record.Participants, row)
}

// MarkRevealed rewrites the per-question metadata at reveal time.
func (b *RecordBuilder) MarkRevealed(questionIndex int, at time.Time) {
	if questionIndex < 0 || questionIndex >= len(b.record.Questions) {
		return
	}
	b.record.Questions[questionIndex].Revealed = true
	b.record.Questions[questionIndex].RevealedAt = &at
}

// Finalize stamps end time and duration, freezes the final leaderboard and
// per-participant final ranks, and returns the completed record.
func (b *RecordBuilder) Finalize(leaderboard []domain.LeaderboardEntry, endedAt time.Time) *domain.GameRecord {
	b.record.EndedAt = endedAt
	b.record.DurationMs = endedAt.Sub(b.record.StartedAt).Milliseconds()

	frozen := make([]domain.LeaderboardEntry, len(leaderboard))
	copy(frozen, leaderboard)
	b.record.Leaderboard = frozen

	for _, entry := range frozen {
		if i, ok := b.rows[entry.ID]; ok {
			b.record.Participants[i].FinalRank = entry.Rank
			b.record.Participants[i].FinalScore = entry.Score
		}
	}
	return &b.record
}
