package server

import (
	"log/slog"
	"net/http"
)

func handleContentReport(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, reg.Report())
	}
}

// handleContentReload reloads the catalog. Invalid content is rejected with
// 422 and the previous catalog keeps serving.
func handleContentReload(logger *slog.Logger, reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, err := reg.Reload()
		if err != nil {
			logger.Warn("content reload rejected", "error", err, "problems", len(rep.Problems))
			writeJSON(w, http.StatusUnprocessableEntity, rep)
			return
		}
		logger.Info("content reloaded", "lessons", rep.Lessons, "exams", rep.Exams, "questions", rep.Questions)
		writeJSON(w, http.StatusOK, rep)
	}
}
