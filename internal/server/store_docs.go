package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// DocStore keeps each session as a JSONB document in the libSQL sessions
// table. The schema comes from the migrations package.
type DocStore struct {
	db  *sql.DB
	now func() time.Time

	// SQLite allows one writer at a time; the mutex keeps read-modify-write
	// cycles from this process from failing on lock upgrades.
	mu sync.Mutex
}

func NewDocStore(db *sql.DB) *DocStore {
	return &DocStore{db: db, now: time.Now}
}

func (s *DocStore) Create(ctx context.Context, rec *SessionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, kind, expires_at, data) VALUES (?, ?, ?, jsonb(?))`,
		rec.ID, string(rec.Kind), rec.ExpiresAt.UnixMilli(), string(data),
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

func (s *DocStore) Get(ctx context.Context, id string) (*SessionRecord, error) {
	return s.get(ctx, s.db, id)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *DocStore) get(ctx context.Context, q queryRower, id string) (*SessionRecord, error) {
	var data string
	err := q.QueryRowContext(ctx,
		`SELECT json(data) FROM sessions WHERE id = ? AND expires_at > ?`, id, s.now().UnixMilli(),
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	var rec SessionRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return &rec, nil
}

func (s *DocStore) Update(ctx context.Context, id string, fn func(*SessionRecord) error) (*SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	rec, err := s.get(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(rec); err != nil {
		return nil, err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET expires_at = ?, data = jsonb(?) WHERE id = ?`,
		rec.ExpiresAt.UnixMilli(), string(data), id,
	); err != nil {
		return nil, fmt.Errorf("updating session: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing session: %w", err)
	}
	return rec, nil
}

func (s *DocStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *DocStore) PurgeExpired(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("purging sessions: %w", err)
	}
	n, _ := result.RowsAffected()
	return int(n), nil
}

// Check pings the database so the store can serve as a health check.
func (s *DocStore) Check(ctx context.Context) error { return s.db.PingContext(ctx) }
