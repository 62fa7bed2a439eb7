package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// LiveFrame is sent back for every answer frame received on the live channel.
// Exactly one of Answer and Error is set.
type LiveFrame struct {
	Answer *AnswerResponse `json:"answer,omitempty"`
	Error  string          `json:"error,omitempty"`
	Status int             `json:"status,omitempty"`
}

// handleLive answers questions over a WebSocket. Each text frame is an
// AnswerRequest; each reply is a LiveFrame.
func handleLive(d *deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := d.store.Get(r.Context(), id); err != nil {
			writeDomainError(w, d.logger, err)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: d.origins,
		})
		if err != nil {
			d.logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Hour)
		defer cancel()

		for {
			var req AnswerRequest
			if err := wsjson.Read(ctx, conn, &req); err != nil {
				var ce websocket.CloseError
				if !errors.As(err, &ce) {
					d.logger.Debug("websocket read ended", "session", id, "error", err)
				}
				return
			}

			frame := d.liveAnswer(ctx, id, req)
			if err := wsjson.Write(ctx, conn, frame); err != nil {
				d.logger.Debug("websocket write failed", "session", id, "error", err)
				return
			}
			if frame.Status == http.StatusNotFound {
				conn.Close(websocket.StatusPolicyViolation, "session not found")
				return
			}
		}
	}
}

// originPatterns turns CORS origins such as "https://app.example.com" into
// the host patterns the WebSocket origin check expects.
func originPatterns(origins []string) []string {
	var out []string
	for _, o := range origins {
		if _, host, ok := strings.Cut(o, "://"); ok {
			o = host
		}
		if o = strings.TrimSuffix(o, "/"); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (d *deps) liveAnswer(ctx context.Context, id string, req AnswerRequest) LiveFrame {
	if err := validate.Struct(req); err != nil {
		return LiveFrame{Error: err.Error(), Status: http.StatusBadRequest}
	}
	resp, err := d.answer(ctx, id, req)
	if err != nil {
		status, msg := domainStatus(err)
		if status == http.StatusInternalServerError {
			d.logger.Error("live answer failed", "session", id, "error", err)
		}
		return LiveFrame{Error: msg, Status: status}
	}
	return LiveFrame{Answer: &resp}
}
