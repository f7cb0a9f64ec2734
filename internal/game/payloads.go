package game

import "live-trivia-service/internal/domain"

// Server->client event types.
const (
	EventJoined        = "joined"
	EventReconnected   = "reconnected"
	EventRoster        = "roster_update"
	EventCountdown     = "countdown"
	EventQuestionStart = "question_start"
	EventResults       = "results"
	EventResultsShown  = "results_shown"
	EventQuestionStats = "question_stats"
	EventGameFinished  = "game_finished"
	EventResetNotice   = "reset_notice"
	EventError         = "error"
)

// Broadcaster fans events out to the live connection set. Implementations
// must never block: sends to closed or slow connections are dropped and the
// client recovers state via reconnection.
type Broadcaster interface {
	// Broadcast delivers to every connection, participants and observers alike.
	Broadcast(event string, payload any)
	// SendTo delivers to the connection currently bound to a participant, if any.
	SendTo(participantID, event string, payload any)
	// SendObservers delivers to observer connections only.
	SendObservers(event string, payload any)
	// CloseAll delivers a final payload to every connection and closes them.
	CloseAll(event string, payload any)
}

// JoinResult is returned to the joining connection.
type JoinResult struct {
	ParticipantID  string                `json:"participantId"`
	Phase          domain.Phase          `json:"phase"`
	Questions      []domain.QuestionView `json:"questions"`
	TotalQuestions int                   `json:"totalQuestions"`
}

// Snapshot resyncs a reconnecting client with full current state. Results is
// populated only while results are showing, recomputed fresh from live state
// rather than replayed from a cached message.
type Snapshot struct {
	ParticipantID  string                `json:"participantId"`
	Phase          domain.Phase          `json:"phase"`
	QuestionIndex  int                   `json:"questionIndex"`
	Score          int                   `json:"score"`
	ShowingResults bool                  `json:"showingResults"`
	Results        *ResultsPayload       `json:"results,omitempty"`
	Questions      []domain.QuestionView `json:"questions"`
	TotalQuestions int                   `json:"totalQuestions"`
}

type RosterPayload struct {
	Users []domain.RosterEntry `json:"users"`
}

type CountdownPayload struct {
	Seconds int `json:"seconds"`
}

type QuestionStartPayload struct {
	QuestionIndex int      `json:"questionIndex"`
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	TimeLimitMs   int64    `json:"timeLimitMs"`
}

// ObserverQuestionStartPayload additionally carries the answer key; it is
// only ever sent to observer connections.
type ObserverQuestionStartPayload struct {
	QuestionStartPayload
	CorrectOption int `json:"correctOption"`
}

// ResultsPayload is the personalized reveal sent to one participant.
type ResultsPayload struct {
	QuestionIndex int                       `json:"questionIndex"`
	CorrectOption int                       `json:"correctOption"`
	YourAnswer    *int                      `json:"yourAnswer"`
	YourScore     int                       `json:"yourScore"`
	ScoreDelta    int                       `json:"scoreDelta"`
	Rank          int                       `json:"rank"`
	GapToNext     int                       `json:"gapToNext"`
	Leaderboard   []domain.LeaderboardEntry `json:"leaderboard"`
}

// ResultsShownPayload is the lighter observer notification at reveal.
type ResultsShownPayload struct {
	QuestionIndex int                       `json:"questionIndex"`
	CorrectOption int                       `json:"correctOption"`
	Answered      int                       `json:"answered"`
	CorrectCount  int                       `json:"correctCount"`
	Leaderboard   []domain.LeaderboardEntry `json:"leaderboard"`
}

// OptionStat is one row of the live per-option answer distribution.
type OptionStat struct {
	Option  int     `json:"option"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// QuestionStatsPayload is the observer-only diagnostic snapshot.
type QuestionStatsPayload struct {
	QuestionIndex     int          `json:"questionIndex"`
	TotalParticipants int          `json:"totalParticipants"`
	Answered          int          `json:"answered"`
	TimedOut          int          `json:"timedOut"`
	Pending           int          `json:"pending"`
	Options           []OptionStat `json:"options"`
}

// EndScreenConfig carries the end-of-game display toggles.
type EndScreenConfig struct {
	TopN           int  `json:"topN"`
	ShowFullRoster bool `json:"showFullRoster"`
}

// FinishedPayload is the personalized end-of-game message.
type FinishedPayload struct {
	FinalScore int                       `json:"finalScore"`
	FinalRank  int                       `json:"finalRank"`
	TopN       []domain.LeaderboardEntry `json:"topN"`
	FullRoster []domain.LeaderboardEntry `json:"fullRoster,omitempty"`
	EndScreen  EndScreenConfig           `json:"endScreenConfig"`
}

type ErrorPayload struct {
	Reason string `json:"reason"`
}
