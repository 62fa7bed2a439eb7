package server

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/elecmate/studyquiz/internal/content"
	"github.com/elecmate/studyquiz/internal/quiz"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type CreateSessionRequest struct {
	Kind   SessionKind `json:"kind" validate:"required,oneof=quiz inline exam"`
	Lesson string      `json:"lesson,omitempty" validate:"required_unless=Kind exam"`
	Check  string      `json:"check,omitempty" validate:"required_if=Kind inline"`
	Exam   string      `json:"exam,omitempty" validate:"required_if=Kind exam"`
}

var (
	errLessonNotFound = errors.New("lesson not found")
	errCheckNotFound  = errors.New("inline check not found")
	errExamNotFound   = errors.New("exam not found")
)

// drawExam picks the questions for a new exam attempt.
func drawExam(rng *rand.Rand, e *content.MockExam) []quiz.Question {
	if e.Selection.Strategy == content.StrategyDifficulty {
		return quiz.SelectByDifficulty(rng, e.Bank, e.TotalQuestions, e.Selection.Weights)
	}
	return quiz.SelectBalanced(rng, e.Bank, e.TotalQuestions, e.Categories)
}

// newRecord builds a fresh session of the requested kind and its record.
func (d *deps) newRecord(req CreateSessionRequest) (*SessionRecord, error) {
	cat := d.registry.Catalog()
	rec := &SessionRecord{
		ID:     uuid.NewString(),
		Kind:   req.Kind,
		Lesson: req.Lesson,
		Check:  req.Check,
		Exam:   req.Exam,
	}

	var sess *quiz.Session
	var err error
	switch req.Kind {
	case KindQuiz:
		l, ok := cat.Lesson(req.Lesson)
		if !ok {
			return nil, errLessonNotFound
		}
		sess, err = quiz.NewSession(l.Quiz.Questions, quiz.QuizOptions)
	case KindInline:
		l, ok := cat.Lesson(req.Lesson)
		if !ok {
			return nil, errLessonNotFound
		}
		q, ok := l.InlineCheck(req.Check)
		if !ok {
			return nil, errCheckNotFound
		}
		var check *quiz.InlineCheck
		if check, err = quiz.NewInlineCheck(q); err == nil {
			sess = check.Session()
		}
	default:
		e, ok := cat.Exam(req.Exam)
		if !ok {
			return nil, errExamNotFound
		}
		rec.Lesson = ""
		rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
		sess, err = quiz.NewSession(drawExam(rng, e), quiz.ExamOptions)
	}
	if err != nil {
		return nil, fmt.Errorf("building %s session: %w", req.Kind, err)
	}

	for _, q := range sess.Questions() {
		rec.QuestionIDs = append(rec.QuestionIDs, q.ID)
	}
	rec.State = sess.State()
	return rec, nil
}

func handleCreateSession(d *deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSessionRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		rec, err := d.newRecord(req)
		switch {
		case errors.Is(err, errLessonNotFound), errors.Is(err, errCheckNotFound), errors.Is(err, errExamNotFound):
			writeError(w, http.StatusNotFound, err.Error())
			return
		case err != nil:
			d.logger.Error("creating session", "kind", req.Kind, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		ls, err := d.open(rec)
		if err != nil {
			writeDomainError(w, d.logger, err)
			return
		}
		now := d.now()
		rec.StartedAt = now
		d.touch(ls, now)

		if err := d.store.Create(r.Context(), rec); err != nil {
			writeDomainError(w, d.logger, err)
			return
		}

		d.logger.Info("session started", "session", rec.ID, "kind", rec.Kind, "questions", len(rec.QuestionIDs))
		writeJSON(w, http.StatusCreated, ls.view(now))
	}
}

func handleGetSession(d *deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ls, err := d.mutate(r.Context(), chi.URLParam(r, "id"), nil)
		if err != nil {
			writeDomainError(w, d.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, ls.view(d.now()))
	}
}

func handleDeleteSession(d *deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := d.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeDomainError(w, d.logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
