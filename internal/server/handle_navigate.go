package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type FlagRequest struct {
	QuestionID string `json:"questionId" validate:"required"`
}

type FlagResponse struct {
	QuestionID string `json:"questionId"`
	Flagged    bool   `json:"flagged"`
	Positions  []int  `json:"positions"`
}

// Flags belong to exams; quizzes give feedback immediately and have nothing to come back to.
func handleToggleFlag(d *deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req FlagRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var flagged bool
		ls, err := d.mutate(r.Context(), chi.URLParam(r, "id"), func(ls *liveSession) error {
			if ls.rec.Kind != KindExam {
				return errWrongKind
			}
			var err error
			flagged, err = ls.sess.ToggleFlag(req.QuestionID)
			return err
		})
		if err != nil {
			writeDomainError(w, d.logger, err)
			return
		}

		d.publish(EventFlagToggled, ls, func(e *SessionEvent) {
			e.QuestionID = req.QuestionID
			e.Flagged = &flagged
		})
		positions := ls.sess.Flagged()
		if positions == nil {
			positions = []int{}
		}
		writeJSON(w, http.StatusOK, FlagResponse{QuestionID: req.QuestionID, Flagged: flagged, Positions: positions})
	}
}

const (
	CursorNext    = "next"
	CursorPrev    = "prev"
	CursorGoto    = "goto"
	CursorFlagged = "flagged"
)

type CursorRequest struct {
	Action   string `json:"action" validate:"required,oneof=next prev goto flagged"`
	Position *int   `json:"position,omitempty" validate:"required_if=Action goto"`
}

type CursorResponse struct {
	Current    int    `json:"current"`
	QuestionID string `json:"questionId"`
}

func handleCursor(d *deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CursorRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		ls, err := d.mutate(r.Context(), chi.URLParam(r, "id"), func(ls *liveSession) error {
			switch req.Action {
			case CursorNext:
				ls.sess.Next()
			case CursorPrev:
				ls.sess.Prev()
			case CursorGoto:
				return ls.sess.Goto(*req.Position)
			case CursorFlagged:
				_, err := ls.sess.NextFlagged()
				return err
			}
			return nil
		})
		if err != nil {
			writeDomainError(w, d.logger, err)
			return
		}

		cur := ls.sess.Current()
		writeJSON(w, http.StatusOK, CursorResponse{Current: cur, QuestionID: ls.sess.Questions()[cur].ID})
	}
}
