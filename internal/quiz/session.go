package quiz

import (
	"fmt"
	"math"
)

// AnswerPolicy controls what happens when an answered question is selected again.
type AnswerPolicy int

const (
	// LockFirstAnswer keeps the first selection; a different option is rejected.
	LockFirstAnswer AnswerPolicy = iota
	// AllowChange overwrites the previous selection until the session is submitted.
	AllowChange
)

// RevealMode controls when feedback for a question becomes visible.
type RevealMode int

const (
	RevealOnAnswer RevealMode = iota
	RevealOnSubmit
)

// Options configures a Session.
type Options struct {
	Policy AnswerPolicy
	Reveal RevealMode
}

// QuestionStatus is the review status of one question.
type QuestionStatus string

const (
	StatusUnanswered QuestionStatus = "unanswered"
	StatusCorrect    QuestionStatus = "correct"
	StatusIncorrect  QuestionStatus = "incorrect"
)

// State is the mutable part of a session. It is plain data so it can be
// stored between requests and handed back to Restore.
type State struct {
	Answers   map[string]int  `json:"answers"`
	Revealed  map[string]bool `json:"revealed"`
	Flagged   map[string]bool `json:"flagged,omitempty"`
	Current   int             `json:"current"`
	Submitted bool            `json:"submitted"`
}

func newState() State {
	return State{
		Answers:  make(map[string]int),
		Revealed: make(map[string]bool),
		Flagged:  make(map[string]bool),
	}
}

func (s State) clone() State {
	out := newState()
	for k, v := range s.Answers {
		out.Answers[k] = v
	}
	for k, v := range s.Revealed {
		if v {
			out.Revealed[k] = true
		}
	}
	for k, v := range s.Flagged {
		if v {
			out.Flagged[k] = true
		}
	}
	out.Current = s.Current
	out.Submitted = s.Submitted
	return out
}

// Session tracks selections for an ordered set of questions.
type Session struct {
	questions []Question
	index     map[string]int
	opts      Options
	state     State
}

// NewSession validates questions and returns a session with no answers.
func NewSession(questions []Question, opts Options) (*Session, error) {
	return Restore(questions, newState(), opts)
}

// Restore rebuilds a session from previously saved state. Answers that no
// longer refer to a question, or that point outside its options, are dropped.
func Restore(questions []Question, st State, opts Options) (*Session, error) {
	if len(questions) == 0 {
		return nil, ErrEmptySession
	}
	if err := ValidateSet(questions); err != nil {
		return nil, err
	}

	s := &Session{
		questions: questions,
		index:     make(map[string]int, len(questions)),
		opts:      opts,
		state:     newState(),
	}
	for i, q := range questions {
		s.index[q.ID] = i
	}

	for id, sel := range st.Answers {
		i, ok := s.index[id]
		if !ok || sel < 0 || sel >= len(questions[i].Options) {
			continue
		}
		s.state.Answers[id] = sel
	}
	for id, v := range st.Revealed {
		if _, ok := s.index[id]; ok && v {
			s.state.Revealed[id] = true
		}
	}
	for id, v := range st.Flagged {
		if _, ok := s.index[id]; ok && v {
			s.state.Flagged[id] = true
		}
	}
	s.state.Submitted = st.Submitted
	if st.Current >= 0 && st.Current < len(questions) {
		s.state.Current = st.Current
	}
	return s, nil
}

func (s *Session) Len() int { return len(s.questions) }

// Questions returns the session's questions in order.
func (s *Session) Questions() []Question {
	out := make([]Question, len(s.questions))
	copy(out, s.questions)
	return out
}

// Question returns the question with the given ID.
func (s *Session) Question(id string) (Question, error) {
	i, ok := s.index[id]
	if !ok {
		return Question{}, fmt.Errorf("%w: %q", ErrUnknownQuestion, id)
	}
	return s.questions[i], nil
}

// State returns a copy of the session state.
func (s *Session) State() State { return s.state.clone() }

func (s *Session) Submitted() bool { return s.state.Submitted }

// SelectOption records a selection for a question and evaluates it.
//
// Under LockFirstAnswer a repeated selection of the same option returns the
// original outcome, while a different option fails with ErrAnswerLocked. An
// invalid selection records nothing.
func (s *Session) SelectOption(questionID string, option int) (Outcome, error) {
	q, err := s.Question(questionID)
	if err != nil {
		return Outcome{}, err
	}
	if s.state.Submitted {
		return Outcome{}, ErrSubmitted
	}

	out, err := Evaluate(q, option)
	if err != nil {
		return Outcome{}, err
	}

	if prev, answered := s.state.Answers[questionID]; answered && s.opts.Policy == LockFirstAnswer {
		if prev != option {
			return Outcome{}, fmt.Errorf("%w: question %q already answered with option %d", ErrAnswerLocked, questionID, prev)
		}
		return out, nil
	}

	s.state.Answers[questionID] = option
	if s.opts.Reveal == RevealOnAnswer {
		s.state.Revealed[questionID] = true
	}
	return out, nil
}

// Answer returns the recorded selection for a question.
func (s *Session) Answer(questionID string) (int, bool) {
	v, ok := s.state.Answers[questionID]
	return v, ok
}

// Revealed reports whether feedback for the question is visible.
func (s *Session) Revealed(questionID string) bool { return s.state.Revealed[questionID] }

// Outcome re-evaluates the recorded answer for a question.
func (s *Session) Outcome(questionID string) (Outcome, bool) {
	sel, ok := s.state.Answers[questionID]
	if !ok {
		return Outcome{}, false
	}
	out, err := Evaluate(s.questions[s.index[questionID]], sel)
	if err != nil {
		return Outcome{}, false
	}
	return out, true
}

// Score counts answered questions whose selection matches the correct index.
func (s *Session) Score() int {
	n := 0
	for id, sel := range s.state.Answers {
		if s.questions[s.index[id]].CorrectIndex == sel {
			n++
		}
	}
	return n
}

func (s *Session) Answered() int { return len(s.state.Answers) }

// Complete reports whether every question has an answer. Completion is
// advisory; it does not lock the session.
func (s *Session) Complete() bool { return len(s.state.Answers) == len(s.questions) }

// Status returns the review status of a question.
func (s *Session) Status(questionID string) (QuestionStatus, error) {
	q, err := s.Question(questionID)
	if err != nil {
		return "", err
	}
	sel, ok := s.state.Answers[questionID]
	switch {
	case !ok:
		return StatusUnanswered, nil
	case sel == q.CorrectIndex:
		return StatusCorrect, nil
	default:
		return StatusIncorrect, nil
	}
}

// Submit freezes the session and reveals feedback for every question.
// Submitting twice is a no-op.
func (s *Session) Submit() Result {
	if !s.state.Submitted {
		s.state.Submitted = true
		for _, q := range s.questions {
			s.state.Revealed[q.ID] = true
		}
	}
	return s.Result()
}

// Result summarises the score as a percentage of all questions.
type Result struct {
	Correct    int `json:"correct"`
	Answered   int `json:"answered"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

func (s *Session) Result() Result {
	return Result{
		Correct:    s.Score(),
		Answered:   s.Answered(),
		Total:      len(s.questions),
		Percentage: Percentage(s.Score(), len(s.questions)),
	}
}

// Percentage rounds correct/total to the nearest whole percent.
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}
