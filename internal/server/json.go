package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/elecmate/studyquiz/internal/quiz"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

var (
	errWrongKind      = errors.New("operation not supported for this session kind")
	errContentChanged = errors.New("session content is no longer available")
)

// domainStatus maps session and store errors onto an HTTP status and the
// message shown to the client.
func domainStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "session not found"
	case errors.Is(err, quiz.ErrInvalidSelection),
		errors.Is(err, quiz.ErrUnknownQuestion):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, quiz.ErrAnswerLocked),
		errors.Is(err, quiz.ErrSubmitted),
		errors.Is(err, quiz.ErrNoFlags),
		errors.Is(err, errWrongKind),
		errors.Is(err, errNotSubmitted),
		errors.Is(err, errContentChanged):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// writeDomainError writes the mapped status. Unrecognised errors are logged.
func writeDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, msg := domainStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
	}
	writeError(w, status, msg)
}
