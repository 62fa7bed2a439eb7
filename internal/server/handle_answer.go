package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/elecmate/studyquiz/internal/quiz"
)

type AnswerRequest struct {
	QuestionID string `json:"questionId" validate:"required"`
	Option     *int   `json:"option" validate:"required"`
}

// AnswerResponse reports a recorded selection. Outcome is omitted while
// feedback is held back until submit.
type AnswerResponse struct {
	QuestionID string        `json:"questionId"`
	Selected   int           `json:"selected"`
	Outcome    *quiz.Outcome `json:"outcome,omitempty"`
	Score      *int          `json:"score,omitempty"`
	Answered   int           `json:"answered"`
	Total      int           `json:"total"`
	Complete   bool          `json:"complete"`
}

func (d *deps) answer(ctx context.Context, id string, req AnswerRequest) (AnswerResponse, error) {
	var out quiz.Outcome
	ls, err := d.mutate(ctx, id, func(ls *liveSession) error {
		var err error
		if ls.check != nil {
			if req.QuestionID != ls.check.Question().ID {
				return fmt.Errorf("%w: %q", quiz.ErrUnknownQuestion, req.QuestionID)
			}
			out, err = ls.check.Select(*req.Option)
			return err
		}
		out, err = ls.sess.SelectOption(req.QuestionID, *req.Option)
		return err
	})
	if err != nil {
		return AnswerResponse{}, err
	}

	resp := AnswerResponse{
		QuestionID: req.QuestionID,
		Selected:   *req.Option,
		Answered:   ls.sess.Answered(),
		Total:      ls.sess.Len(),
		Complete:   ls.sess.Complete(),
	}
	if ls.sess.Revealed(req.QuestionID) {
		resp.Outcome = &out
	}
	if ls.rec.Kind == KindQuiz {
		score := ls.sess.Score()
		resp.Score = &score
	}

	d.publish(EventAnswerRecorded, ls, func(e *SessionEvent) { e.QuestionID = req.QuestionID })
	return resp, nil
}

func handleAnswer(d *deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AnswerRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		resp, err := d.answer(r.Context(), chi.URLParam(r, "id"), req)
		if err != nil {
			writeDomainError(w, d.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
