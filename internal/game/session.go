package game

import (
	"context"
	"sort"
	"sync"
	"time"

	"live-trivia-service/internal/domain"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// questionPhase is the per-question sub-phase within PhasePlaying.
type questionPhase int

const (
	subIdle questionPhase = iota
	subCountdown
	subActive
	subResults
)

// Config holds the session tunables loaded once at startup.
type Config struct {
	SessionName       string
	StartCountdown    time.Duration
	NextCountdown     time.Duration
	StatsTick         time.Duration
	DisconnectTimeout time.Duration
	TopN              int
	ShowFullRoster    bool
	Scoring           ScoringConfig
}

// ScheduleFunc runs fn once after d. The schedule cannot be cancelled; every
// scheduled callback re-validates its triggering condition before acting.
type ScheduleFunc func(d time.Duration, fn func())

// Session is the authoritative owner of all game state. One process hosts
// exactly one live session; every mutation happens under a single mutex, so
// no operation ever observes a half-updated state.
type Session struct {
	cfg       Config
	questions []domain.Question

	bcast   Broadcaster
	records RecordStore
	log     *logrus.Logger

	now      func() time.Time
	schedule ScheduleFunc

	mu                sync.Mutex
	id                string
	phase             domain.Phase
	sub               questionPhase
	joinOpen          bool
	current           int
	questionStartedAt time.Time
	showingResults    bool
	timedOut          map[string]bool
	participants      map[string]*domain.Participant
	record            *RecordBuilder
	recordSaved       bool
	gen               uint64 // bumped on reset; stale scheduled callbacks no-op
}

// NewSession builds a session with the real clock and timer-backed scheduler.
func NewSession(cfg Config, questions []domain.Question, bcast Broadcaster, records RecordStore, log *logrus.Logger) *Session {
	return NewSessionWithClock(cfg, questions, bcast, records, log, time.Now, func(d time.Duration, fn func()) {
		time.AfterFunc(d, fn)
	})
}

// NewSessionWithClock injects clock and scheduler for deterministic tests.
func NewSessionWithClock(cfg Config, questions []domain.Question, bcast Broadcaster, records RecordStore, log *logrus.Logger, now func() time.Time, schedule ScheduleFunc) *Session {
	if log == nil {
		log = logrus.New()
	}
	return &Session{
		cfg:          cfg,
		questions:    questions,
		bcast:        bcast,
		records:      records,
		log:          log,
		now:          now,
		schedule:     schedule,
		id:           uuid.NewString(),
		phase:        domain.PhaseWaiting,
		sub:          subIdle,
		joinOpen:     true,
		timedOut:     make(map[string]bool),
		participants: make(map[string]*domain.Participant),
	}
}

// ID returns the current session identifier. A reset issues a fresh one.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Phase returns the current lifecycle phase.
func (s *Session) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Join registers a new participant while joining is open.
func (s *Session) Join(name string) (JoinResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.joinOpen {
		return JoinResult{}, domain.ErrJoinClosed
	}

	p := &domain.Participant{
		ID:          uuid.NewString(),
		DisplayName: name,
		Connected:   true,
		LastSeen:    s.now(),
	}
	s.participants[p.ID] = p

	s.log.WithFields(logrus.Fields{"participant": p.ID, "name": name}).Info("participant joined")
	s.broadcastRosterLocked()

	return JoinResult{
		ParticipantID:  p.ID,
		Phase:          s.phase,
		Questions:      s.questionViewsLocked(),
		TotalQuestions: len(s.questions),
	}, nil
}

// Reconnect rebinds a known participant and returns a full state snapshot.
// If results are currently showing, the payload is recomputed fresh from live
// state so the reconnecting client sees the same values as everyone else.
func (s *Session) Reconnect(participantID string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[participantID]
	if !ok {
		return Snapshot{}, domain.ErrParticipantNotFound
	}
	p.Connected = true
	p.LastSeen = s.now()

	snap := Snapshot{
		ParticipantID:  p.ID,
		Phase:          s.phase,
		QuestionIndex:  s.current,
		Score:          p.Score,
		ShowingResults: s.showingResults,
		Questions:      s.questionViewsLocked(),
		TotalQuestions: len(s.questions),
	}
	if s.showingResults {
		results := s.personalResultsLocked(p, Rank(s.participants))
		snap.Results = &results
	}

	s.log.WithField("participant", p.ID).Info("participant reconnected")
	s.broadcastRosterLocked()
	return snap, nil
}

// Disconnect flips a participant to disconnected, keeping identity and score
// for a later reconnect.
func (s *Session) Disconnect(participantID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[participantID]
	if !ok {
		return
	}
	p.Connected = false
	p.LastSeen = s.now()
	s.log.WithField("participant", p.ID).Info("participant disconnected")
	s.broadcastRosterLocked()
}

// SubmitAnswer records an answer for the current active question. Scoring is
// deferred to the reveal so rank-among-correct covers the complete set.
func (s *Session) SubmitAnswer(participantID string, questionIndex, selectedOption int, elapsedMs int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[participantID]
	if !ok {
		return domain.ErrParticipantNotFound
	}
	if s.phase != domain.PhasePlaying || s.sub == subIdle || s.sub == subCountdown {
		return domain.ErrNotPlaying
	}
	if questionIndex != s.current {
		return domain.ErrWrongQuestion
	}
	if s.sub == subResults {
		return domain.ErrResultsShown
	}
	if _, answered := p.Answer(questionIndex); answered {
		return domain.ErrDuplicateAnswer
	}

	q := s.questions[questionIndex]
	now := s.now()
	p.Answers = append(p.Answers, domain.AnswerRecord{
		QuestionIndex:  questionIndex,
		SelectedOption: selectedOption,
		Correct:        selectedOption == q.CorrectOption,
		ElapsedMs:      elapsedMs,
		SubmittedAt:    now,
	})
	p.TotalTimeMs += elapsedMs
	p.LastSeen = now

	if s.record != nil {
		s.record.UpsertParticipant(p)
	}
	s.bcast.SendObservers(EventQuestionStats, s.statsLocked())
	return nil
}

// MarkTimeout records that a participant ran out the clock on the current
// question. Diagnostic only: it produces no AnswerRecord and never advances
// the game.
func (s *Session) MarkTimeout(participantID string, questionIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.participants[participantID]
	if !ok {
		return domain.ErrParticipantNotFound
	}
	if s.phase != domain.PhasePlaying {
		return domain.ErrNotPlaying
	}
	if questionIndex != s.current {
		return domain.ErrWrongQuestion
	}
	if _, answered := p.Answer(questionIndex); answered {
		return domain.ErrDuplicateAnswer
	}

	s.timedOut[participantID] = true
	p.LastSeen = s.now()
	s.bcast.SendObservers(EventQuestionStats, s.statsLocked())
	return nil
}

// Start closes joining, begins the game record and schedules activation of
// question zero after the configured countdown.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != domain.PhaseWaiting {
		return domain.ErrBadPhase
	}
	if len(s.questions) == 0 {
		return domain.ErrBadPhase
	}

	s.phase = domain.PhasePlaying
	s.sub = subCountdown
	s.joinOpen = false
	s.current = 0
	s.showingResults = false
	s.record = NewRecordBuilder(s.id, s.cfg.SessionName, s.questions, s.now())
	s.recordSaved = false

	s.log.WithField("session", s.id).Info("game starting")
	s.bcast.Broadcast(EventCountdown, CountdownPayload{Seconds: int(s.cfg.StartCountdown.Seconds())})

	gen := s.gen
	s.schedule(s.cfg.StartCountdown, func() { s.activate(gen, 0) })
	return nil
}

// NextQuestion advances to the next question behind a countdown, or finishes
// the game when none remain.
func (s *Session) NextQuestion() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != domain.PhasePlaying {
		return domain.ErrBadPhase
	}

	next := s.current + 1
	if next >= len(s.questions) {
		return s.finishLocked()
	}

	s.current = next
	s.sub = subCountdown
	s.showingResults = false

	s.bcast.Broadcast(EventCountdown, CountdownPayload{Seconds: int(s.cfg.NextCountdown.Seconds())})

	gen := s.gen
	s.schedule(s.cfg.NextCountdown, func() { s.activate(gen, next) })
	return nil
}

// activate fires after a countdown. The countdown cannot be cancelled, so it
// re-validates that the state it was scheduled for still holds.
func (s *Session) activate(gen uint64, questionIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gen != gen || s.phase != domain.PhasePlaying || s.current != questionIndex || s.sub != subCountdown {
		return
	}

	s.sub = subActive
	s.questionStartedAt = s.now()
	s.showingResults = false
	s.timedOut = make(map[string]bool)

	q := s.questions[questionIndex]
	view := QuestionStartPayload{
		QuestionIndex: questionIndex,
		Prompt:        q.Prompt,
		Options:       q.Options,
		TimeLimitMs:   q.TimeLimitMs,
	}
	s.log.WithFields(logrus.Fields{"session": s.id, "question": questionIndex}).Info("question activated")
	s.bcast.Broadcast(EventQuestionStart, view)
	s.bcast.SendObservers(EventQuestionStart, ObserverQuestionStartPayload{
		QuestionStartPayload: view,
		CorrectOption:        q.CorrectOption,
	})

	if s.cfg.StatsTick > 0 {
		s.schedule(s.cfg.StatsTick, func() { s.statsTick(gen, questionIndex) })
	}
}

// statsTick periodically pushes live answer statistics to observers while its
// question is still active. It is self-cancelling: once the state machine has
// moved on it simply stops re-arming, tolerating a lost timer handle.
func (s *Session) statsTick(gen uint64, questionIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gen != gen || s.phase != domain.PhasePlaying || s.current != questionIndex || s.sub != subActive {
		return
	}

	s.bcast.SendObservers(EventQuestionStats, s.statsLocked())
	s.schedule(s.cfg.StatsTick, func() { s.statsTick(gen, questionIndex) })
}

// Reveal scores the current question over the complete submission set and
// sends each participant their personalized result.
func (s *Session) Reveal() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != domain.PhasePlaying || s.sub != subActive {
		return domain.ErrBadPhase
	}

	s.sub = subResults
	s.showingResults = true

	q := s.questions[s.current]

	// Rank correct answers by response latency; ties fall back to submission
	// time, then id, so the ordering is total.
	type scored struct {
		p      *domain.Participant
		answer *domain.AnswerRecord
	}
	var correct []scored
	answered := 0
	for _, p := range s.participants {
		a, ok := p.Answer(s.current)
		if !ok {
			continue
		}
		answered++
		if a.Correct {
			correct = append(correct, scored{p: p, answer: a})
		}
	}
	sort.Slice(correct, func(i, j int) bool {
		ai, aj := correct[i].answer, correct[j].answer
		if ai.ElapsedMs != aj.ElapsedMs {
			return ai.ElapsedMs < aj.ElapsedMs
		}
		if !ai.SubmittedAt.Equal(aj.SubmittedAt) {
			return ai.SubmittedAt.Before(aj.SubmittedAt)
		}
		return correct[i].p.ID < correct[j].p.ID
	})

	for rank, sc := range correct {
		delta := Score(s.cfg.Scoring, true, sc.answer.ElapsedMs, rank+1, len(correct), q.TimeLimitMs)
		sc.answer.ScoreDelta = delta
		sc.p.Score += delta
		if s.record != nil {
			s.record.UpsertParticipant(sc.p)
		}
	}
	if s.record != nil {
		s.record.MarkRevealed(s.current, s.now())
	}

	lb := Rank(s.participants)
	for _, p := range s.participants {
		s.bcast.SendTo(p.ID, EventResults, s.personalResultsLocked(p, lb))
	}
	s.bcast.SendObservers(EventResultsShown, ResultsShownPayload{
		QuestionIndex: s.current,
		CorrectOption: q.CorrectOption,
		Answered:      answered,
		CorrectCount:  len(correct),
		Leaderboard:   lb,
	})

	s.log.WithFields(logrus.Fields{
		"session":  s.id,
		"question": s.current,
		"answered": answered,
		"correct":  len(correct),
	}).Info("results revealed")
	return nil
}

// Finish ends the game, broadcasts final standings and persists the record.
func (s *Session) Finish() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != domain.PhasePlaying {
		return domain.ErrBadPhase
	}
	return s.finishLocked()
}

func (s *Session) finishLocked() error {
	s.phase = domain.PhaseFinished
	s.sub = subIdle

	lb := Rank(s.participants)
	topN := lb
	if s.cfg.TopN > 0 && len(lb) > s.cfg.TopN {
		topN = lb[:s.cfg.TopN]
	}
	endScreen := EndScreenConfig{TopN: s.cfg.TopN, ShowFullRoster: s.cfg.ShowFullRoster}

	for _, p := range s.participants {
		payload := FinishedPayload{
			FinalScore: p.Score,
			FinalRank:  rankOf(lb, p.ID),
			TopN:       topN,
			EndScreen:  endScreen,
		}
		if s.cfg.ShowFullRoster {
			payload.FullRoster = lb
		}
		s.bcast.SendTo(p.ID, EventGameFinished, payload)
	}
	s.bcast.SendObservers(EventGameFinished, FinishedPayload{
		TopN:       topN,
		FullRoster: lb,
		EndScreen:  endScreen,
	})

	if s.record != nil && !s.recordSaved {
		s.recordSaved = true
		rec := s.record.Finalize(lb, s.now())
		if s.records != nil {
			if err := s.records.Save(context.Background(), rec); err != nil {
				// The session has already logically ended; surface the failure
				// to the operator view without rolling back.
				s.log.WithError(err).WithField("session", s.id).Error("failed to persist game record")
				s.bcast.SendObservers(EventError, ErrorPayload{Reason: "game record persistence failed: " + err.Error()})
			}
		}
	}

	s.log.WithField("session", s.id).Info("game finished")
	return nil
}

// Reset forcibly ends the session from any phase: every connection receives a
// reset notice and is closed, all participants and the in-flight record are
// discarded, and joining reopens under a fresh session id.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bcast.CloseAll(EventResetNotice, struct{}{})

	s.gen++
	s.id = uuid.NewString()
	s.phase = domain.PhaseWaiting
	s.sub = subIdle
	s.joinOpen = true
	s.current = 0
	s.showingResults = false
	s.questionStartedAt = time.Time{}
	s.timedOut = make(map[string]bool)
	s.participants = make(map[string]*domain.Participant)
	s.record = nil
	s.recordSaved = false

	s.log.WithField("session", s.id).Info("session reset")
}

// SweepDisconnected removes participants disconnected longer than the
// configured threshold. Advisory cleanup only: scoring reads live
// participants, so a missed sweep never affects correctness.
func (s *Session) SweepDisconnected() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.DisconnectTimeout <= 0 {
		return 0
	}
	now := s.now()
	removed := 0
	for id, p := range s.participants {
		if !p.Connected && now.Sub(p.LastSeen) > s.cfg.DisconnectTimeout {
			delete(s.participants, id)
			removed++
			s.log.WithFields(logrus.Fields{"participant": id, "name": p.DisplayName}).Info("swept inactive participant")
		}
	}
	if removed > 0 {
		s.broadcastRosterLocked()
	}
	return removed
}

// Roster returns the current participant list, id-ordered.
func (s *Session) Roster() []domain.RosterEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rosterLocked()
}

func (s *Session) rosterLocked() []domain.RosterEntry {
	users := make([]domain.RosterEntry, 0, len(s.participants))
	for _, p := range s.participants {
		users = append(users, domain.RosterEntry{
			ID:        p.ID,
			Name:      p.DisplayName,
			Connected: p.Connected,
			Score:     p.Score,
		})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

func (s *Session) broadcastRosterLocked() {
	s.bcast.Broadcast(EventRoster, RosterPayload{Users: s.rosterLocked()})
}

func (s *Session) questionViewsLocked() []domain.QuestionView {
	views := make([]domain.QuestionView, len(s.questions))
	for i, q := range s.questions {
		views[i] = q.View()
	}
	return views
}

func (s *Session) personalResultsLocked(p *domain.Participant, lb []domain.LeaderboardEntry) ResultsPayload {
	q := s.questions[s.current]
	payload := ResultsPayload{
		QuestionIndex: s.current,
		CorrectOption: q.CorrectOption,
		YourScore:     p.Score,
		Rank:          rankOf(lb, p.ID),
		Leaderboard:   lb,
	}
	if a, ok := p.Answer(s.current); ok {
		selected := a.SelectedOption
		payload.YourAnswer = &selected
		payload.ScoreDelta = a.ScoreDelta
	}
	if payload.Rank > 1 {
		gap := lb[payload.Rank-2].Score - p.Score
		if gap < 0 {
			gap = 0
		}
		payload.GapToNext = gap
	}
	return payload
}

func (s *Session) statsLocked() QuestionStatsPayload {
	q := s.questions[s.current]
	counts := make([]int, len(q.Options))
	answered := 0
	for _, p := range s.participants {
		a, ok := p.Answer(s.current)
		if !ok {
			continue
		}
		answered++
		if a.SelectedOption >= 0 && a.SelectedOption < len(counts) {
			counts[a.SelectedOption]++
		}
	}

	options := make([]OptionStat, len(counts))
	for i, count := range counts {
		stat := OptionStat{Option: i, Count: count}
		if answered > 0 {
			stat.Percent = float64(count) / float64(answered) * 100
		}
		options[i] = stat
	}

	timedOut := len(s.timedOut)
	pending := len(s.participants) - answered - timedOut
	if pending < 0 {
		pending = 0
	}
	return QuestionStatsPayload{
		QuestionIndex:     s.current,
		TotalParticipants: len(s.participants),
		Answered:          answered,
		TimedOut:          timedOut,
		Pending:           pending,
		Options:           options,
	}
}

func rankOf(lb []domain.LeaderboardEntry, id string) int {
	for _, entry := range lb {
		if entry.ID == id {
			return entry.Rank
		}
	}
	return len(lb) + 1
}
