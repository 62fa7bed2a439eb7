package quiz

// InlineCheck is a single embedded question with no score. It shares the
// session's lock and reveal rules.
type InlineCheck struct {
	session *Session
	id      string
}

func NewInlineCheck(q Question) (*InlineCheck, error) {
	return RestoreInlineCheck(q, State{})
}

func RestoreInlineCheck(q Question, st State) (*InlineCheck, error) {
	s, err := Restore([]Question{q}, st, QuizOptions)
	if err != nil {
		return nil, err
	}
	return &InlineCheck{session: s, id: q.ID}, nil
}

func (c *InlineCheck) Question() Question { return c.session.questions[0] }

func (c *InlineCheck) Select(option int) (Outcome, error) {
	return c.session.SelectOption(c.id, option)
}

// Outcome returns the recorded outcome once the check has been answered.
func (c *InlineCheck) Outcome() (Outcome, bool) { return c.session.Outcome(c.id) }

func (c *InlineCheck) State() State { return c.session.State() }

// Session exposes the one-question session for views and navigation.
func (c *InlineCheck) Session() *Session { return c.session }
