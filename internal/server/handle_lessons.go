package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/elecmate/studyquiz/internal/content"
	"github.com/elecmate/studyquiz/internal/quiz"
)

// PublicQuestion is a question without its answer key or explanation.
type PublicQuestion struct {
	ID       string   `json:"id"`
	Prompt   string   `json:"prompt"`
	Options  []string `json:"options"`
	Category string   `json:"category,omitempty"`
}

func publicQuestions(qs []quiz.Question) []PublicQuestion {
	out := make([]PublicQuestion, 0, len(qs))
	for _, q := range qs {
		out = append(out, PublicQuestion{ID: q.ID, Prompt: q.Prompt, Options: q.Options, Category: q.Category})
	}
	return out
}

type LessonSummary struct {
	Slug          string `json:"slug"`
	Course        string `json:"course"`
	Module        int    `json:"module"`
	Section       int    `json:"section"`
	Title         string `json:"title"`
	InlineChecks  int    `json:"inlineChecks"`
	QuizQuestions int    `json:"quizQuestions"`
}

type LessonQuiz struct {
	Title     string           `json:"title"`
	Questions []PublicQuestion `json:"questions"`
}

type LessonResponse struct {
	Slug         string           `json:"slug"`
	Course       string           `json:"course"`
	Module       int              `json:"module"`
	Section      int              `json:"section"`
	Title        string           `json:"title"`
	SEO          content.SEO      `json:"seo"`
	Outcomes     []string         `json:"outcomes,omitempty"`
	Body         []content.Block  `json:"body,omitempty"`
	InlineChecks []PublicQuestion `json:"inlineChecks"`
	FAQs         []content.FAQ    `json:"faqs,omitempty"`
	Quiz         LessonQuiz       `json:"quiz"`
	Prev         *content.Link    `json:"prev,omitempty"`
	Next         *content.Link    `json:"next,omitempty"`
}

func handleListLessons(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lessons := reg.Catalog().Lessons()
		out := make([]LessonSummary, 0, len(lessons))
		for _, l := range lessons {
			out = append(out, LessonSummary{
				Slug:          l.Slug,
				Course:        l.Course,
				Module:        l.Module,
				Section:       l.Section,
				Title:         l.Title,
				InlineChecks:  len(l.InlineChecks),
				QuizQuestions: len(l.Quiz.Questions),
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleGetLesson(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l, ok := reg.Catalog().Lesson(chi.URLParam(r, "slug"))
		if !ok {
			writeError(w, http.StatusNotFound, "lesson not found")
			return
		}
		writeJSON(w, http.StatusOK, LessonResponse{
			Slug:         l.Slug,
			Course:       l.Course,
			Module:       l.Module,
			Section:      l.Section,
			Title:        l.Title,
			SEO:          l.SEO,
			Outcomes:     l.Outcomes,
			Body:         l.Body,
			InlineChecks: publicQuestions(l.InlineChecks),
			FAQs:         l.FAQs,
			Quiz:         LessonQuiz{Title: l.Quiz.Title, Questions: publicQuestions(l.Quiz.Questions)},
			Prev:         l.Prev,
			Next:         l.Next,
		})
	}
}

type ExamResponse struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	TotalQuestions   int           `json:"totalQuestions"`
	TimeLimitSeconds int           `json:"timeLimitSeconds"`
	PassThreshold    int           `json:"passThreshold"`
	ExitPath         string        `json:"exitPath,omitempty"`
	Categories       []string      `json:"categories,omitempty"`
	Strategy         string        `json:"strategy"`
	Weights          *quiz.Weights `json:"weights,omitempty"`
	BankSize         int           `json:"bankSize"`
}

func examResponse(e *content.MockExam) ExamResponse {
	resp := ExamResponse{
		ID:               e.ID,
		Title:            e.Title,
		TotalQuestions:   e.TotalQuestions,
		TimeLimitSeconds: int(e.TimeLimit.Seconds()),
		PassThreshold:    e.PassThreshold,
		ExitPath:         e.ExitPath,
		Categories:       e.Categories,
		Strategy:         content.StrategyBalanced,
		BankSize:         len(e.Bank),
	}
	if e.Selection.Strategy == content.StrategyDifficulty {
		resp.Strategy = content.StrategyDifficulty
		w := e.Selection.Weights
		resp.Weights = &w
	}
	return resp
}

func handleListExams(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		exams := reg.Catalog().Exams()
		out := make([]ExamResponse, 0, len(exams))
		for _, e := range exams {
			out = append(out, examResponse(e))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func handleGetExam(reg *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, ok := reg.Catalog().Exam(chi.URLParam(r, "id"))
		if !ok {
			writeError(w, http.StatusNotFound, "exam not found")
			return
		}
		writeJSON(w, http.StatusOK, examResponse(e))
	}
}
