package server

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore keeps sessions in a map. It is the default store and loses
// everything on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*SessionRecord
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*SessionRecord),
		now:      time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, rec *SessionRecord) error {
	cp, err := rec.clone()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[rec.ID]; ok {
		return fmt.Errorf("session %s already exists", rec.ID)
	}
	s.sessions[rec.ID] = cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*SessionRecord, error) {
	s.mu.RLock()
	rec, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok || rec.expired(s.now()) {
		return nil, ErrNotFound
	}
	return rec.clone()
}

func (s *MemoryStore) Update(_ context.Context, id string, fn func(*SessionRecord) error) (*SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[id]
	if !ok || rec.expired(s.now()) {
		return nil, ErrNotFound
	}
	work, err := rec.clone()
	if err != nil {
		return nil, err
	}
	if err := fn(work); err != nil {
		return nil, err
	}
	saved, err := work.clone()
	if err != nil {
		return nil, err
	}
	s.sessions[id] = saved
	return work, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *MemoryStore) PurgeExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, rec := range s.sessions {
		if rec.expired(now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}
