// Package quiz defines the question model, the answer evaluator and the
// session state machine shared by inline checks, end-of-section quizzes and
// mock exams.
package quiz

import (
	"errors"
	"fmt"
	"strings"
)

const (
	MinOptions = 2
	MaxOptions = 4
)

var (
	ErrInvalidSelection = errors.New("invalid selection")
	ErrUnknownQuestion  = errors.New("unknown question")
	ErrAnswerLocked     = errors.New("answer is locked")
	ErrSubmitted        = errors.New("session already submitted")
	ErrNoFlags          = errors.New("no flagged questions")
	ErrInvalidQuestion  = errors.New("invalid question")
	ErrDuplicateID      = errors.New("duplicate question id")
	ErrEmptySession     = errors.New("session has no questions")
)

type Difficulty string

const (
	DifficultyBasic        Difficulty = "basic"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Question is an authored multiple-choice item. Options are identified by
// position; CorrectIndex points into Options.
type Question struct {
	ID           string     `json:"id" yaml:"id" validate:"required"`
	Prompt       string     `json:"prompt" yaml:"prompt" validate:"required"`
	Options      []string   `json:"options" yaml:"options" validate:"min=2,max=4,dive,required"`
	CorrectIndex int        `json:"correctIndex" yaml:"correctIndex"`
	Explanation  string     `json:"explanation" yaml:"explanation"`
	Category     string     `json:"category,omitempty" yaml:"category,omitempty"`
	Difficulty   Difficulty `json:"difficulty,omitempty" yaml:"difficulty,omitempty" validate:"omitempty,oneof=basic intermediate advanced"`
}

// Validate checks the authoring invariants of a single question.
func (q Question) Validate() error {
	switch {
	case strings.TrimSpace(q.ID) == "":
		return fmt.Errorf("%w: missing id", ErrInvalidQuestion)
	case strings.TrimSpace(q.Prompt) == "":
		return fmt.Errorf("%w %q: missing prompt", ErrInvalidQuestion, q.ID)
	case len(q.Options) < MinOptions:
		return fmt.Errorf("%w %q: need at least %d options, got %d", ErrInvalidQuestion, q.ID, MinOptions, len(q.Options))
	case len(q.Options) > MaxOptions:
		return fmt.Errorf("%w %q: at most %d options, got %d", ErrInvalidQuestion, q.ID, MaxOptions, len(q.Options))
	case q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options):
		return fmt.Errorf("%w %q: correct index %d out of range [0,%d)", ErrInvalidQuestion, q.ID, q.CorrectIndex, len(q.Options))
	}
	for i, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return fmt.Errorf("%w %q: option %d is empty", ErrInvalidQuestion, q.ID, i)
		}
	}
	return nil
}

// ValidateSet validates every question and rejects duplicate IDs.
func ValidateSet(questions []Question) error {
	var errs []error
	seen := make(map[string]bool, len(questions))
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[q.ID] {
			errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicateID, q.ID))
		}
		seen[q.ID] = true
	}
	return errors.Join(errs...)
}

// Outcome is the result of evaluating one selection.
type Outcome struct {
	QuestionID   string `json:"questionId"`
	Selected     int    `json:"selected"`
	CorrectIndex int    `json:"correctIndex"`
	IsCorrect    bool   `json:"isCorrect"`
	Explanation  string `json:"explanation"`
}

// Evaluate compares selected against the question's correct index. The
// explanation is returned whether or not the answer is correct.
func Evaluate(q Question, selected int) (Outcome, error) {
	if selected < 0 || selected >= len(q.Options) {
		return Outcome{}, fmt.Errorf("%w: option %d of %d for question %q", ErrInvalidSelection, selected, len(q.Options), q.ID)
	}
	return Outcome{
		QuestionID:   q.ID,
		Selected:     selected,
		CorrectIndex: q.CorrectIndex,
		IsCorrect:    selected == q.CorrectIndex,
		Explanation:  q.Explanation,
	}, nil
}
