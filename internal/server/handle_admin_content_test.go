package server

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"testing/fstest"

	"golang.org/x/crypto/bcrypt"

	"github.com/elecmate/studyquiz/internal/content"
)

// switchableSource serves whichever files were set last.
type switchableSource struct {
	mu    sync.Mutex
	files fstest.MapFS
}

func (s *switchableSource) set(files fstest.MapFS) {
	s.mu.Lock()
	s.files = files
	s.mu.Unlock()
}

func (s *switchableSource) load() (*content.Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return content.Load(s.files)
}

func TestAdminContent(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}

	src := &switchableSource{}
	src.set(fstest.MapFS{"lesson.yaml": {Data: []byte(testLessonYAML)}})
	reg, err := NewRegistry("test", src.load)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	api := newTestAPI(t, Options{Registry: reg, AdminTokenHash: string(hash)})

	admin := func(method, path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		api.h.ServeHTTP(w, req)
		return w
	}

	wantStatus(t, admin(http.MethodGet, "/api/admin/content", ""), http.StatusUnauthorized)
	wantStatus(t, admin(http.MethodGet, "/api/admin/content", "wrong"), http.StatusUnauthorized)

	w := admin(http.MethodGet, "/api/admin/content", "s3cret")
	wantStatus(t, w, http.StatusOK)
	if rep := decode[ContentReport](t, w); rep.Lessons != 1 || rep.Exams != 0 || rep.Questions != 3 {
		t.Fatalf("report = %+v", rep)
	}

	// A broken file is rejected and the old catalog keeps serving.
	src.set(fstest.MapFS{
		"lesson.yaml": {Data: []byte(testLessonYAML)},
		"exam.yaml":   {Data: []byte("kind: exam\nid: Bad Id\ntitle: x\ntotalQuestions: 1\nbank: []\n")},
	})
	w = admin(http.MethodPost, "/api/admin/content/reload", "s3cret")
	wantStatus(t, w, http.StatusUnprocessableEntity)
	rep := decode[ContentReport](t, w)
	if len(rep.Problems) == 0 || rep.LastError == "" || rep.Lessons != 1 {
		t.Fatalf("rejected report = %+v", rep)
	}
	wantStatus(t, api.do(t, http.MethodGet, "/api/lessons/test-lesson", nil), http.StatusOK)

	src.set(fstest.MapFS{
		"lesson.yaml": {Data: []byte(testLessonYAML)},
		"exam.yaml":   {Data: []byte(testExamYAML)},
	})
	w = admin(http.MethodPost, "/api/admin/content/reload", "s3cret")
	wantStatus(t, w, http.StatusOK)
	if rep := decode[ContentReport](t, w); rep.Exams != 1 || rep.LastError != "" || len(rep.Problems) != 0 {
		t.Fatalf("reloaded report = %+v", rep)
	}
	wantStatus(t, api.do(t, http.MethodGet, "/api/exams/mini-exam", nil), http.StatusOK)
}

func TestAdminDisabledWithoutHash(t *testing.T) {
	api := newTestAPI(t, Options{})
	req := httptest.NewRequest(http.MethodGet, "/api/admin/content", nil)
	req.Header.Set("Authorization", "Bearer anything")
	w := httptest.NewRecorder()
	api.h.ServeHTTP(w, req)
	wantStatus(t, w, http.StatusUnauthorized)
}

func TestSessionsSurviveContentRemoval(t *testing.T) {
	src := &switchableSource{}
	src.set(fstest.MapFS{
		"lesson.yaml": {Data: []byte(testLessonYAML)},
		"exam.yaml":   {Data: []byte(testExamYAML)},
	})
	reg, err := NewRegistry("test", src.load)
	if err != nil {
		t.Fatal(err)
	}
	api := newTestAPI(t, Options{Registry: reg})
	sess := api.start(t, CreateSessionRequest{Kind: KindExam, Exam: "mini-exam"})

	src.set(fstest.MapFS{"lesson.yaml": {Data: []byte(testLessonYAML)}})
	if _, err := reg.Reload(); err != nil {
		t.Fatal(err)
	}

	wantStatus(t, api.do(t, http.MethodGet, "/api/sessions/"+sess.ID, nil), http.StatusConflict)
}

func TestNewRegistryRejectsInvalidContent(t *testing.T) {
	_, err := NewRegistry("test", func() (*content.Catalog, error) {
		return content.Load(fstest.MapFS{"x.yaml": {Data: []byte("kind: poster\n")}})
	})
	if err == nil {
		t.Fatal("invalid initial content accepted")
	}
}
