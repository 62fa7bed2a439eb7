package server

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/elecmate/studyquiz/internal/quiz"
)

var ErrNotFound = errors.New("not found")

type SessionKind string

const (
	KindQuiz   SessionKind = "quiz"
	KindInline SessionKind = "inline"
	KindExam   SessionKind = "exam"
)

// SessionRecord is the stored form of a learner session. Questions are
// referenced by ID and resolved against the current catalog on every request.
type SessionRecord struct {
	ID          string      `json:"id"`
	Kind        SessionKind `json:"kind"`
	Lesson      string      `json:"lesson,omitempty"`
	Check       string      `json:"check,omitempty"`
	Exam        string      `json:"exam,omitempty"`
	QuestionIDs []string    `json:"questionIds"`
	State       quiz.State  `json:"state"`
	StartedAt   time.Time   `json:"startedAt"`
	ExpiresAt   time.Time   `json:"expiresAt"`
	SubmittedAt *time.Time  `json:"submittedAt,omitempty"`
}

func (r *SessionRecord) expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

func (r *SessionRecord) clone() (*SessionRecord, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var out SessionRecord
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Store persists session records.
//
// Update runs fn against the current record and saves the result. Calls for
// the same session are serialised. If fn returns an error nothing is written
// and the error is returned unchanged. Expired records behave as missing.
type Store interface {
	Create(ctx context.Context, rec *SessionRecord) error
	Get(ctx context.Context, id string) (*SessionRecord, error)
	Update(ctx context.Context, id string, fn func(*SessionRecord) error) (*SessionRecord, error)
	Delete(ctx context.Context, id string) error
	PurgeExpired(ctx context.Context, now time.Time) (int, error)
}
