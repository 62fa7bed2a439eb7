package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"testing/fstest"
	"time"

	"github.com/elecmate/studyquiz/internal/content"
)

const testLessonYAML = `kind: lesson
slug: test-lesson
course: test
module: 1
section: 2
title: Test Lesson
seo:
  title: Test Lesson
inlineChecks:
  - id: c1
    prompt: Which phrase qualifies duties under the Act?
    options:
      - As far as possible
      - At all times
      - So far as is reasonably practicable
      - When convenient
    correctIndex: 2
    explanation: SFARP balances risk against cost.
quiz:
  title: Section Quiz
  questions:
    - id: q1
      prompt: Pick B
      options: [A, B]
      correctIndex: 1
      explanation: B is right.
    - id: q2
      prompt: Pick A
      options: [A, B, C]
      correctIndex: 0
      explanation: A is right.
`

const testExamYAML = `kind: exam
id: mini-exam
title: Mini Exam
totalQuestions: 3
timeLimit: 10m
passThreshold: 60
exitPath: /study
categories: [x, y]
bank:
  - {id: e1, prompt: One, options: [yes, no], correctIndex: 0, category: x}
  - {id: e2, prompt: Two, options: [yes, no], correctIndex: 0, category: x}
  - {id: e3, prompt: Three, options: [yes, no], correctIndex: 0, category: y}
  - {id: e4, prompt: Four, options: [yes, no], correctIndex: 0, category: y}
`

func testCatalog(t *testing.T) *content.Catalog {
	t.Helper()
	cat, err := content.Load(fstest.MapFS{
		"lesson.yaml": {Data: []byte(testLessonYAML)},
		"exam.yaml":   {Data: []byte(testExamYAML)},
	})
	if err != nil {
		t.Fatalf("load test catalog: %v", err)
	}
	return cat
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testAPI struct {
	h     http.Handler
	clock *clock
	store Store
}

func newTestAPI(t *testing.T, opts Options) *testAPI {
	t.Helper()
	c := &clock{t: time.Now()}
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	if opts.Registry == nil {
		opts.Registry = StaticRegistry(testCatalog(t))
	}
	opts.Now = c.Now
	return &testAPI{
		h:     NewHandler(discardLogger(), opts, nil),
		clock: c,
		store: opts.Store,
	}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if r != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode %T: %v", v, err)
	}
	return v
}

func wantStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d: %s", w.Code, status, w.Body.String())
	}
}

func (a *testAPI) start(t *testing.T, req CreateSessionRequest) SessionResponse {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/sessions", req)
	wantStatus(t, w, http.StatusCreated)
	return decode[SessionResponse](t, w)
}

func answerBody(questionID string, option int) AnswerRequest {
	return AnswerRequest{QuestionID: questionID, Option: &option}
}
