package file

import (
	"context"
	"fmt"
	"os"

	"live-trivia-service/internal/domain"
	"gopkg.in/yaml.v3"
)

// QuestionLoader reads a question set from a YAML file. Question sets are
// loaded once at startup and immutable afterwards.
type QuestionLoader struct {
	path string
}

func NewQuestionLoader(path string) *QuestionLoader {
	return &QuestionLoader{path: path}
}

func (l *QuestionLoader) LoadQuestions(_ context.Context, setID string) ([]domain.Question, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read question set: %w", err)
	}
	var set domain.QuestionSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("unmarshal question set: %w", err)
	}
	if setID != "" && set.ID != "" && set.ID != setID {
		return nil, fmt.Errorf("question set %q not found in %s", setID, l.path)
	}
	if err := ValidateQuestions(set.Questions); err != nil {
		return nil, err
	}
	return set.Questions, nil
}

// ValidateQuestions rejects malformed sets before a session ever starts.
func ValidateQuestions(questions []domain.Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("question set is empty")
	}
	for i, q := range questions {
		if q.Prompt == "" {
			return fmt.Errorf("question %d: empty prompt", i)
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("question %d: needs at least two options", i)
		}
		if q.CorrectOption < 0 || q.CorrectOption >= len(q.Options) {
			return fmt.Errorf("question %d: correct option %d out of range", i, q.CorrectOption)
		}
		if q.TimeLimitMs <= 0 {
			return fmt.Errorf("question %d: non-positive time limit", i)
		}
	}
	return nil
}
