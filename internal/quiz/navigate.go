package quiz

import "fmt"

// Current returns the index of the question the learner is looking at.
func (s *Session) Current() int { return s.state.Current }

// Next moves the cursor forward. It stays put on the last question.
func (s *Session) Next() int {
	if s.state.Current < len(s.questions)-1 {
		s.state.Current++
	}
	return s.state.Current
}

// Prev moves the cursor back. It stays put on the first question.
func (s *Session) Prev() int {
	if s.state.Current > 0 {
		s.state.Current--
	}
	return s.state.Current
}

// Goto moves the cursor to position i.
func (s *Session) Goto(i int) error {
	if i < 0 || i >= len(s.questions) {
		return fmt.Errorf("%w: position %d of %d", ErrUnknownQuestion, i, len(s.questions))
	}
	s.state.Current = i
	return nil
}

// ToggleFlag marks or unmarks a question for later review and reports the new state.
func (s *Session) ToggleFlag(questionID string) (bool, error) {
	if _, err := s.Question(questionID); err != nil {
		return false, err
	}
	if s.state.Submitted {
		return false, ErrSubmitted
	}
	if s.state.Flagged[questionID] {
		delete(s.state.Flagged, questionID)
		return false, nil
	}
	s.state.Flagged[questionID] = true
	return true, nil
}

// Flagged returns the positions of flagged questions in ascending order.
func (s *Session) Flagged() []int {
	var out []int
	for i, q := range s.questions {
		if s.state.Flagged[q.ID] {
			out = append(out, i)
		}
	}
	return out
}

// NextFlagged moves the cursor to the next flagged question after the
// current one, wrapping around to the first flagged question.
func (s *Session) NextFlagged() (int, error) {
	flagged := s.Flagged()
	if len(flagged) == 0 {
		return s.state.Current, ErrNoFlags
	}
	for _, i := range flagged {
		if i > s.state.Current {
			s.state.Current = i
			return i, nil
		}
	}
	s.state.Current = flagged[0]
	return flagged[0], nil
}

// Summary counts answered, unanswered and flagged questions.
type Summary struct {
	Answered   int `json:"answered"`
	Unanswered int `json:"unanswered"`
	Flagged    int `json:"flagged"`
}

func (s *Session) Summary() Summary {
	return Summary{
		Answered:   len(s.state.Answers),
		Unanswered: len(s.questions) - len(s.state.Answers),
		Flagged:    len(s.Flagged()),
	}
}

// ReviewFilter selects which questions a review lists.
type ReviewFilter string

const (
	FilterAll        ReviewFilter = "all"
	FilterCorrect    ReviewFilter = "correct"
	FilterIncorrect  ReviewFilter = "incorrect"
	FilterUnanswered ReviewFilter = "unanswered"
	FilterFlagged    ReviewFilter = "flagged"
)

// ParseReviewFilter maps an empty string to FilterAll and rejects unknown filters.
func ParseReviewFilter(v string) (ReviewFilter, error) {
	switch f := ReviewFilter(v); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterCorrect, FilterIncorrect, FilterUnanswered, FilterFlagged:
		return f, nil
	default:
		return "", fmt.Errorf("unknown review filter %q", v)
	}
}

// Review returns the positions of questions matching filter.
func (s *Session) Review(filter ReviewFilter) []int {
	var out []int
	for i, q := range s.questions {
		status, _ := s.Status(q.ID)
		var keep bool
		switch filter {
		case FilterCorrect:
			keep = status == StatusCorrect
		case FilterIncorrect:
			keep = status == StatusIncorrect
		case FilterUnanswered:
			keep = status == StatusUnanswered
		case FilterFlagged:
			keep = s.state.Flagged[q.ID]
		default:
			keep = true
		}
		if keep {
			out = append(out, i)
		}
	}
	return out
}
