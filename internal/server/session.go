package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/elecmate/studyquiz/internal/content"
	"github.com/elecmate/studyquiz/internal/quiz"
)

// deps is shared by every session handler.
type deps struct {
	logger   *slog.Logger
	store    Store
	registry *Registry
	broker   *Broker
	ttl      time.Duration
	now      func() time.Time
	origins  []string
}

// liveSession is a stored record joined with its questions from the current catalog.
type liveSession struct {
	rec    *SessionRecord
	sess   *quiz.Session
	check  *quiz.InlineCheck
	lesson *content.Lesson
	exam   *content.MockExam
}

func pickQuestions(pool []quiz.Question, ids []string) ([]quiz.Question, error) {
	byID := make(map[string]quiz.Question, len(pool))
	for _, q := range pool {
		byID[q.ID] = q
	}
	out := make([]quiz.Question, 0, len(ids))
	for _, id := range ids {
		q, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: question %q was removed", errContentChanged, id)
		}
		out = append(out, q)
	}
	return out, nil
}

func (d *deps) open(rec *SessionRecord) (*liveSession, error) {
	cat := d.registry.Catalog()
	ls := &liveSession{rec: rec}
	opts := quiz.QuizOptions

	var qs []quiz.Question
	var err error
	switch rec.Kind {
	case KindQuiz, KindInline:
		l, ok := cat.Lesson(rec.Lesson)
		if !ok {
			return nil, fmt.Errorf("%w: lesson %q was removed", errContentChanged, rec.Lesson)
		}
		ls.lesson = l
		if rec.Kind == KindInline {
			q, ok := l.InlineCheck(rec.Check)
			if !ok {
				return nil, fmt.Errorf("%w: check %q was removed", errContentChanged, rec.Check)
			}
			if ls.check, err = quiz.RestoreInlineCheck(q, rec.State); err != nil {
				return nil, fmt.Errorf("%w: %v", errContentChanged, err)
			}
			ls.sess = ls.check.Session()
			return ls, nil
		}
		qs, err = pickQuestions(l.Quiz.Questions, rec.QuestionIDs)
	case KindExam:
		e, ok := cat.Exam(rec.Exam)
		if !ok {
			return nil, fmt.Errorf("%w: exam %q was removed", errContentChanged, rec.Exam)
		}
		ls.exam = e
		opts = quiz.ExamOptions
		qs, err = pickQuestions(e.Bank, rec.QuestionIDs)
	default:
		return nil, fmt.Errorf("unknown session kind %q", rec.Kind)
	}
	if err != nil {
		return nil, err
	}

	ls.sess, err = quiz.Restore(qs, rec.State, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errContentChanged, err)
	}
	return ls, nil
}

// timeLimit is zero for anything but a timed exam.
func (ls *liveSession) timeLimit() time.Duration {
	if ls.exam == nil {
		return 0
	}
	return ls.exam.TimeLimit
}

// expire submits a timed exam whose deadline has passed.
func (ls *liveSession) expire(now time.Time) bool {
	if ls.sess.Submitted() || !quiz.Expired(ls.rec.StartedAt, ls.timeLimit(), now) {
		return false
	}
	ls.submit(now)
	return true
}

func (ls *liveSession) submit(now time.Time) quiz.Result {
	res := ls.sess.Submit()
	if ls.rec.SubmittedAt == nil {
		t := now
		ls.rec.SubmittedAt = &t
	}
	return res
}

// touch slides the record expiry forward, never before an exam deadline.
func (d *deps) touch(ls *liveSession, now time.Time) {
	exp := now.Add(d.ttl)
	if dl, ok := quiz.Deadline(ls.rec.StartedAt, ls.timeLimit()); ok && dl.After(exp) {
		exp = dl
	}
	ls.rec.ExpiresAt = exp
}

// mutate loads a session, auto-submits it if its time is up, runs op and
// saves the result. An error from op is returned after the save so that the
// auto-submit is never lost.
func (d *deps) mutate(ctx context.Context, id string, op func(*liveSession) error) (*liveSession, error) {
	var ls *liveSession
	var opErr error
	var auto bool

	_, err := d.store.Update(ctx, id, func(rec *SessionRecord) error {
		var err error
		ls, err = d.open(rec)
		if err != nil {
			return err
		}
		now := d.now()
		auto = ls.expire(now)
		if op != nil {
			opErr = op(ls)
		}
		rec.State = ls.sess.State()
		d.touch(ls, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if auto {
		d.logger.Info("exam auto-submitted", "session", id, "exam", ls.rec.Exam)
		d.publish(EventSessionSubmitted, ls, func(e *SessionEvent) { e.Auto = true })
	}
	return ls, opErr
}

func (d *deps) publish(typ string, ls *liveSession, with func(*SessionEvent)) {
	ev := SessionEvent{
		Type:      typ,
		SessionID: ls.rec.ID,
		Answered:  ls.sess.Answered(),
		Total:     ls.sess.Len(),
	}
	if with != nil {
		with(&ev)
	}
	d.broker.Publish(ev)
}

// QuestionView is a question as the learner sees it. Outcome, and with it
// the correct index, is present only once feedback is revealed.
type QuestionView struct {
	ID       string        `json:"id"`
	Prompt   string        `json:"prompt"`
	Options  []string      `json:"options"`
	Category string        `json:"category,omitempty"`
	Selected *int          `json:"selected,omitempty"`
	Flagged  bool          `json:"flagged,omitempty"`
	Outcome  *quiz.Outcome `json:"outcome,omitempty"`
}

type SessionResponse struct {
	ID               string           `json:"id"`
	Kind             SessionKind      `json:"kind"`
	Lesson           string           `json:"lesson,omitempty"`
	Check            string           `json:"check,omitempty"`
	Exam             string           `json:"exam,omitempty"`
	Title            string           `json:"title"`
	Questions        []QuestionView   `json:"questions"`
	Current          int              `json:"current"`
	Answered         int              `json:"answered"`
	Total            int              `json:"total"`
	Complete         bool             `json:"complete"`
	Submitted        bool             `json:"submitted"`
	Score            *int             `json:"score,omitempty"`
	Summary          *quiz.Summary    `json:"summary,omitempty"`
	Result           *quiz.ExamResult `json:"result,omitempty"`
	StartedAt        time.Time        `json:"startedAt"`
	ExpiresAt        time.Time        `json:"expiresAt"`
	Deadline         *time.Time       `json:"deadline,omitempty"`
	RemainingSeconds *int             `json:"remainingSeconds,omitempty"`
	ExitPath         string           `json:"exitPath,omitempty"`
}

func questionView(s *quiz.Session, q quiz.Question, flagged map[string]bool) QuestionView {
	v := QuestionView{
		ID:       q.ID,
		Prompt:   q.Prompt,
		Options:  q.Options,
		Category: q.Category,
		Flagged:  flagged[q.ID],
	}
	if sel, ok := s.Answer(q.ID); ok {
		v.Selected = &sel
	}
	if s.Revealed(q.ID) {
		if out, ok := s.Outcome(q.ID); ok {
			v.Outcome = &out
		}
	}
	return v
}

func (ls *liveSession) view(now time.Time) SessionResponse {
	s := ls.sess
	resp := SessionResponse{
		ID:        ls.rec.ID,
		Kind:      ls.rec.Kind,
		Lesson:    ls.rec.Lesson,
		Check:     ls.rec.Check,
		Exam:      ls.rec.Exam,
		Current:   s.Current(),
		Answered:  s.Answered(),
		Total:     s.Len(),
		Complete:  s.Complete(),
		Submitted: s.Submitted(),
		StartedAt: ls.rec.StartedAt,
		ExpiresAt: ls.rec.ExpiresAt,
	}
	flagged := s.State().Flagged
	for _, q := range s.Questions() {
		resp.Questions = append(resp.Questions, questionView(s, q, flagged))
	}

	switch ls.rec.Kind {
	case KindQuiz:
		resp.Title = ls.lesson.Quiz.Title
		score := s.Score()
		resp.Score = &score
	case KindInline:
		resp.Title = ls.lesson.Title
	case KindExam:
		resp.Title = ls.exam.Title
		resp.ExitPath = ls.exam.ExitPath
		sum := s.Summary()
		resp.Summary = &sum
		if s.Submitted() {
			res := quiz.GradeResult(s.Result(), ls.exam.PassThreshold)
			resp.Result = &res
			resp.Score = &res.Correct
		}
		if dl, ok := quiz.Deadline(ls.rec.StartedAt, ls.exam.TimeLimit); ok {
			resp.Deadline = &dl
			left := int(quiz.Remaining(ls.rec.StartedAt, ls.exam.TimeLimit, now).Seconds())
			if s.Submitted() {
				left = 0
			}
			resp.RemainingSeconds = &left
		}
	}
	return resp
}
