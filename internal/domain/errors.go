package domain

import "errors"

var (
	// ErrJoinClosed is returned when joining after the game has started.
	ErrJoinClosed = errors.New("game already started, joining is closed")
	// ErrParticipantNotFound is returned for reconnects to an unknown id or
	// actions from a connection that never joined.
	ErrParticipantNotFound = errors.New("participant not found")
	// ErrNotPlaying is returned when an answer arrives outside the playing phase.
	ErrNotPlaying = errors.New("no question is currently active")
	// ErrWrongQuestion is returned when a submission targets a question other
	// than the current one.
	ErrWrongQuestion = errors.New("submission targets a non-current question")
	// ErrResultsShown is returned when a submission arrives after reveal.
	ErrResultsShown = errors.New("results already shown for this question")
	// ErrDuplicateAnswer is returned for a second submission on the same question.
	ErrDuplicateAnswer = errors.New("question already answered")
	// ErrBadPhase is returned for operator commands issued in the wrong phase.
	ErrBadPhase = errors.New("operation not valid in current phase")
	// ErrRecordNotFound indicates no persisted record exists for a session id.
	ErrRecordNotFound = errors.New("game record not found")
	// ErrQuestionSetNotFound indicates the question content could not be loaded.
	ErrQuestionSetNotFound = errors.New("question set not found")
)

// IsStateConflict reports whether err is a rejected-but-harmless state
// conflict: the offending connection is told, session state is untouched.
func IsStateConflict(err error) bool {
	switch {
	case errors.Is(err, ErrJoinClosed),
		errors.Is(err, ErrParticipantNotFound),
		errors.Is(err, ErrNotPlaying),
		errors.Is(err, ErrWrongQuestion),
		errors.Is(err, ErrResultsShown),
		errors.Is(err, ErrDuplicateAnswer),
		errors.Is(err, ErrBadPhase):
		return true
	}
	return false
}
