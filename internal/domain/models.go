package domain

import "time"

// Phase is the top-level session lifecycle state.
type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

// Question models an MCQ question with exactly one correct option.
// Question sets are loaded once at startup and immutable afterwards.
type Question struct {
	Prompt        string   `json:"prompt" yaml:"prompt"`
	Options       []string `json:"options" yaml:"options"`
	CorrectOption int      `json:"correctOption" yaml:"correctOption"`
	TimeLimitMs   int64    `json:"timeLimitMs" yaml:"timeLimitMs"`
}

// QuestionSet is a named, ordered collection of questions.
type QuestionSet struct {
	ID        string     `json:"id" yaml:"id"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// QuestionView is the answer-key-free shape sent to participants.
type QuestionView struct {
	Prompt      string   `json:"prompt"`
	Options     []string `json:"options"`
	TimeLimitMs int64    `json:"timeLimitMs"`
}

// View strips the correct option from a question.
func (q Question) View() QuestionView {
	return QuestionView{Prompt: q.Prompt, Options: q.Options, TimeLimitMs: q.TimeLimitMs}
}

// AnswerRecord captures a single submission. ScoreDelta stays zero until the
// results phase, when rank-among-correct can be computed over the complete
// submission set for the question.
type AnswerRecord struct {
	QuestionIndex  int       `json:"questionIndex"`
	SelectedOption int       `json:"selectedOption"`
	Correct        bool      `json:"correct"`
	ElapsedMs      int64     `json:"elapsedMs"`
	SubmittedAt    time.Time `json:"submittedAt"`
	ScoreDelta     int       `json:"scoreDelta"`
}

// Participant is owned exclusively by the session; connections reference it
// only through its ID.
type Participant struct {
	ID          string
	DisplayName string
	Score       int
	TotalTimeMs int64
	Connected   bool
	LastSeen    time.Time
	Answers     []AnswerRecord
}

// Answer returns the participant's answer for a question index, if any.
func (p *Participant) Answer(questionIndex int) (*AnswerRecord, bool) {
	for i := range p.Answers {
		if p.Answers[i].QuestionIndex == questionIndex {
			return &p.Answers[i], true
		}
	}
	return nil, false
}

// LeaderboardEntry is one row of a ranked snapshot. Ranks are dense, unique
// and 1-based even across score ties.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	ID          string `json:"id"`
	Name        string `json:"name"`
	Score       int    `json:"score"`
	TotalTimeMs int64  `json:"totalTimeMs"`
}

// RosterEntry is the public shape of a participant for roster broadcasts.
type RosterEntry struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
	Score     int    `json:"score"`
}

// ParticipantSummary is one participant's row in the game record, upserted on
// every submission and frozen with final rank at finish.
type ParticipantSummary struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	FinalScore   int            `json:"finalScore"`
	FinalRank    int            `json:"finalRank"`
	CorrectCount int            `json:"correctCount"`
	Answers      []AnswerRecord `json:"answers"`
}

// QuestionSummary is the per-question metadata stored in the game record.
// Analytics aggregates are derived later by the viewer from per-answer data.
type QuestionSummary struct {
	Index         int        `json:"index"`
	Prompt        string     `json:"prompt"`
	Options       []string   `json:"options"`
	CorrectOption int        `json:"correctOption"`
	Revealed      bool       `json:"revealed"`
	RevealedAt    *time.Time `json:"revealedAt,omitempty"`
}

// GameRecord is the durable artifact summarizing one full session. It is the
// sole input of the external analytics viewer.
type GameRecord struct {
	SessionID    string               `json:"sessionId"`
	SessionName  string               `json:"sessionName"`
	StartedAt    time.Time            `json:"startedAt"`
	EndedAt      time.Time            `json:"endedAt"`
	DurationMs   int64                `json:"durationMs"`
	Participants []ParticipantSummary `json:"participants"`
	Questions    []QuestionSummary    `json:"questions"`
	Leaderboard  []LeaderboardEntry   `json:"leaderboard"`
}
