package server

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/elecmate/studyquiz/internal/database"
	"github.com/elecmate/studyquiz/internal/migrations"
	"github.com/elecmate/studyquiz/internal/quiz"
)

func deadRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         "localhost:1",
		DialTimeout:  10 * time.Millisecond,
		ReadTimeout:  10 * time.Millisecond,
		WriteTimeout: 10 * time.Millisecond,
		MaxRetries:   -1,
	})
}

func newDocStore(t *testing.T) *DocStore {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewDocStore(db)
}

func testRecord(id string, expires time.Time) *SessionRecord {
	return &SessionRecord{
		ID:          id,
		Kind:        KindQuiz,
		Lesson:      "test-lesson",
		QuestionIDs: []string{"q1", "q2"},
		State: quiz.State{
			Answers:  map[string]int{"q1": 1},
			Revealed: map[string]bool{"q1": true},
		},
		StartedAt: time.Now(),
		ExpiresAt: expires,
	}
}

func TestStores(t *testing.T) {
	stores := map[string]func(t *testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemoryStore() },
		"libsql": func(t *testing.T) Store { return newDocStore(t) },
	}
	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			t.Run("round trip", func(t *testing.T) { testRoundTrip(t, open(t)) })
			t.Run("update", func(t *testing.T) { testUpdate(t, open(t)) })
			t.Run("expiry", func(t *testing.T) { testExpiry(t, open(t)) })
			t.Run("concurrent updates", func(t *testing.T) { testConcurrentUpdates(t, open(t)) })
		})
	}
}

func testRoundTrip(t *testing.T, s Store) {
	ctx := context.Background()
	rec := testRecord("s1", time.Now().Add(time.Hour))
	if err := s.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Create(ctx, rec); err == nil {
		t.Error("second create succeeded")
	}

	got, err := s.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Kind != KindQuiz || got.Lesson != "test-lesson" || len(got.QuestionIDs) != 2 {
		t.Errorf("got %+v", got)
	}
	if got.State.Answers["q1"] != 1 || !got.State.Revealed["q1"] {
		t.Errorf("state = %+v", got.State)
	}

	// Records handed out are copies.
	got.State.Answers["q2"] = 0
	again, _ := s.Get(ctx, "s1")
	if _, ok := again.State.Answers["q2"]; ok {
		t.Error("mutating a returned record changed the store")
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get missing: err = %v, want ErrNotFound", err)
	}

	if err := s.Delete(ctx, "s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: err = %v, want ErrNotFound", err)
	}
	if _, err := s.Get(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get deleted: err = %v, want ErrNotFound", err)
	}
}

func testUpdate(t *testing.T, s Store) {
	ctx := context.Background()
	if err := s.Create(ctx, testRecord("s1", time.Now().Add(time.Hour))); err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := s.Update(ctx, "s1", func(rec *SessionRecord) error {
		rec.State.Answers["q2"] = 0
		rec.State.Current = 1
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.State.Answers["q2"] != 0 || updated.State.Current != 1 {
		t.Errorf("updated = %+v", updated.State)
	}

	boom := errors.New("boom")
	_, err = s.Update(ctx, "s1", func(rec *SessionRecord) error {
		rec.State.Current = 0
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}

	got, err := s.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.State.Current != 1 || len(got.State.Answers) != 2 {
		t.Errorf("failed update leaked into store: %+v", got.State)
	}

	if _, err := s.Update(ctx, "missing", func(*SessionRecord) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Errorf("update missing: err = %v, want ErrNotFound", err)
	}
}

func testExpiry(t *testing.T, s Store) {
	ctx := context.Background()
	now := time.Now()
	if err := s.Create(ctx, testRecord("live", now.Add(time.Hour))); err != nil {
		t.Fatal(err)
	}
	if err := s.Create(ctx, testRecord("stale", now.Add(-time.Minute))); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Get(ctx, "stale"); !errors.Is(err, ErrNotFound) {
		t.Errorf("get stale: err = %v, want ErrNotFound", err)
	}
	if _, err := s.Update(ctx, "stale", func(*SessionRecord) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Errorf("update stale: err = %v, want ErrNotFound", err)
	}

	n, err := s.PurgeExpired(ctx, now)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 1 {
		t.Errorf("purged %d, want 1", n)
	}
	if _, err := s.Get(ctx, "live"); err != nil {
		t.Errorf("live session purged: %v", err)
	}
}

func testConcurrentUpdates(t *testing.T, s Store) {
	ctx := context.Background()
	if err := s.Create(ctx, testRecord("s1", time.Now().Add(time.Hour))); err != nil {
		t.Fatal(err)
	}

	const n = 20
	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Update(ctx, "s1", func(rec *SessionRecord) error {
				rec.State.Current++
				return nil
			}); err != nil {
				t.Errorf("update: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if got.State.Current != n {
		t.Errorf("current = %d, want %d (lost updates)", got.State.Current, n)
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	rdb := deadRedis()
	defer rdb.Close()
	s := NewRedisStore(rdb)
	ctx := context.Background()

	if err := s.Create(ctx, testRecord("s1", time.Now().Add(time.Hour))); err == nil {
		t.Error("create succeeded against a dead server")
	}
	if _, err := s.Get(ctx, "s1"); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("get: err = %v, want a connection error", err)
	}
	if err := s.Check(ctx); err == nil {
		t.Error("health check passed against a dead server")
	}
	if n, err := s.PurgeExpired(ctx, time.Now()); n != 0 || err != nil {
		t.Errorf("purge = %d, %v", n, err)
	}
}

func TestDocStoreCheck(t *testing.T) {
	s := newDocStore(t)
	if err := s.Check(context.Background()); err != nil {
		t.Errorf("health check on an open database: %v", err)
	}
}

func TestRedisKey(t *testing.T) {
	if got := redisKey("abc"); got != "studyquiz:session:abc" {
		t.Errorf("redisKey = %q", got)
	}
}
