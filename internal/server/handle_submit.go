package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/elecmate/studyquiz/internal/quiz"
)

var errNotSubmitted = errors.New("answers are hidden until the session is submitted")

// handleSubmit grades an exam. A second submit returns the same result.
func handleSubmit(d *deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var already bool
		ls, err := d.mutate(r.Context(), chi.URLParam(r, "id"), func(ls *liveSession) error {
			if ls.rec.Kind != KindExam {
				return errWrongKind
			}
			already = ls.sess.Submitted()
			ls.submit(d.now())
			return nil
		})
		if err != nil {
			writeDomainError(w, d.logger, err)
			return
		}

		res := quiz.GradeResult(ls.sess.Result(), ls.exam.PassThreshold)
		if !already {
			d.logger.Info("exam submitted",
				"session", ls.rec.ID,
				"exam", ls.rec.Exam,
				"percentage", res.Percentage,
				"band", res.Band,
			)
			d.publish(EventSessionSubmitted, ls, nil)
		}
		writeJSON(w, http.StatusOK, res)
	}
}

type ReviewResponse struct {
	Filter    quiz.ReviewFilter `json:"filter"`
	Positions []int             `json:"positions"`
	Questions []QuestionView    `json:"questions"`
}

// handleReview lists questions matching a filter. Before an exam is
// submitted only filters that reveal nothing are allowed.
func handleReview(d *deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := quiz.ParseReviewFilter(r.URL.Query().Get("filter"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		ls, err := d.mutate(r.Context(), chi.URLParam(r, "id"), func(ls *liveSession) error {
			hidden := filter == quiz.FilterCorrect || filter == quiz.FilterIncorrect
			if ls.rec.Kind == KindExam && !ls.sess.Submitted() && hidden {
				return errNotSubmitted
			}
			return nil
		})
		if err != nil {
			writeDomainError(w, d.logger, err)
			return
		}

		resp := ReviewResponse{Filter: filter, Positions: []int{}, Questions: []QuestionView{}}
		qs := ls.sess.Questions()
		flagged := ls.sess.State().Flagged
		for _, i := range ls.sess.Review(filter) {
			resp.Positions = append(resp.Positions, i)
			resp.Questions = append(resp.Questions, questionView(ls.sess, qs[i], flagged))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
