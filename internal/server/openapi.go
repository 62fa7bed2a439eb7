package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthStatus mirrors one entry of the /healthz body.
type HealthStatus struct {
	Status string `json:"status" enum:"ok,error"`
	Error  string `json:"error,omitempty"`
}

type slugPath struct {
	Slug string `path:"slug"`
}

type idPath struct {
	ID string `path:"id"`
}

type reviewQuery struct {
	ID     string `path:"id"`
	Filter string `query:"filter" enum:"all,correct,incorrect,unanswered,flagged"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Study Quiz API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Lesson checks, end-of-section quizzes and timed mock exams.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of the catalog and the session store.")
	getHealthz.AddRespStructure(map[string]HealthStatus{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(map[string]HealthStatus{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /api/lessons
	listLessons, _ := r.NewOperationContext(http.MethodGet, "/api/lessons")
	listLessons.SetSummary("List lessons")
	listLessons.AddRespStructure([]LessonSummary{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listLessons)

	// GET /api/lessons/{slug}
	getLesson, _ := r.NewOperationContext(http.MethodGet, "/api/lessons/{slug}")
	getLesson.SetSummary("Get lesson")
	getLesson.SetDescription("Lesson body, inline checks, FAQs and quiz. Answer keys are not included.")
	getLesson.AddReqStructure(slugPath{})
	getLesson.AddRespStructure(LessonResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getLesson.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getLesson)

	// GET /api/exams
	listExams, _ := r.NewOperationContext(http.MethodGet, "/api/exams")
	listExams.SetSummary("List mock exams")
	listExams.AddRespStructure([]ExamResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(listExams)

	// GET /api/exams/{id}
	getExam, _ := r.NewOperationContext(http.MethodGet, "/api/exams/{id}")
	getExam.SetSummary("Get mock exam")
	getExam.AddReqStructure(idPath{})
	getExam.AddRespStructure(ExamResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getExam.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getExam)

	// POST /api/sessions
	createSession, _ := r.NewOperationContext(http.MethodPost, "/api/sessions")
	createSession.SetSummary("Start session")
	createSession.SetDescription("Starts a quiz, inline check or exam session. Exams draw their questions from the bank.")
	createSession.AddReqStructure(CreateSessionRequest{})
	createSession.AddRespStructure(SessionResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	createSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	createSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(createSession)

	// GET /api/sessions/{id}
	getSession, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{id}")
	getSession.SetSummary("Get session")
	getSession.SetDescription("Returns the session. Timed exams past their deadline are submitted first.")
	getSession.AddReqStructure(idPath{})
	getSession.AddRespStructure(SessionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getSession)

	// DELETE /api/sessions/{id}
	deleteSession, _ := r.NewOperationContext(http.MethodDelete, "/api/sessions/{id}")
	deleteSession.SetSummary("Discard session")
	deleteSession.AddReqStructure(idPath{})
	deleteSession.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	deleteSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(deleteSession)

	// POST /api/sessions/{id}/answers
	postAnswer, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{id}/answers")
	postAnswer.SetSummary("Select option")
	postAnswer.SetDescription("Records a selection. Quiz answers lock on first selection; exam answers can change until submit.")
	postAnswer.AddReqStructure(idPath{})
	postAnswer.AddReqStructure(AnswerRequest{})
	postAnswer.AddRespStructure(AnswerResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postAnswer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postAnswer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postAnswer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postAnswer)

	// POST /api/sessions/{id}/flags
	postFlag, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{id}/flags")
	postFlag.SetSummary("Toggle flag")
	postFlag.SetDescription("Marks or unmarks an exam question for review.")
	postFlag.AddReqStructure(idPath{})
	postFlag.AddReqStructure(FlagRequest{})
	postFlag.AddRespStructure(FlagResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postFlag.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postFlag)

	// POST /api/sessions/{id}/cursor
	postCursor, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{id}/cursor")
	postCursor.SetSummary("Move cursor")
	postCursor.SetDescription("next and prev clamp at the ends; flagged wraps to the first flagged question.")
	postCursor.AddReqStructure(idPath{})
	postCursor.AddReqStructure(CursorRequest{})
	postCursor.AddRespStructure(CursorResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postCursor.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postCursor.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postCursor)

	// POST /api/sessions/{id}/submit
	postSubmit, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{id}/submit")
	postSubmit.SetSummary("Submit exam")
	postSubmit.SetDescription("Freezes the exam, reveals every answer and grades the attempt.")
	postSubmit.AddReqStructure(idPath{})
	postSubmit.AddRespStructure(examResultDoc{}, openapi.WithHTTPStatus(http.StatusOK))
	postSubmit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postSubmit)

	// GET /api/sessions/{id}/review
	getReview, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{id}/review")
	getReview.SetSummary("Review questions")
	getReview.SetDescription("Lists questions matching a filter. correct and incorrect need a submitted exam.")
	getReview.AddReqStructure(reviewQuery{})
	getReview.AddRespStructure(ReviewResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getReview.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	getReview.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(getReview)

	// GET /api/sessions/{id}/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{id}/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events for answer_recorded, flag_toggled and session_submitted.")
	getEvents.AddReqStructure(idPath{})
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// GET /api/sessions/{id}/live
	getLive, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{id}/live")
	getLive.SetSummary("Live answering")
	getLive.SetDescription("Upgrades to a WebSocket. Send AnswerRequest frames; each is answered with a LiveFrame.")
	getLive.AddReqStructure(idPath{})
	getLive.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getLive)

	// GET /api/admin/content
	getContent, _ := r.NewOperationContext(http.MethodGet, "/api/admin/content")
	getContent.SetSummary("Content report")
	getContent.SetDescription("Requires a Bearer admin token.")
	getContent.AddRespStructure(ContentReport{}, openapi.WithHTTPStatus(http.StatusOK))
	getContent.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getContent)

	// POST /api/admin/content/reload
	postReload, _ := r.NewOperationContext(http.MethodPost, "/api/admin/content/reload")
	postReload.SetSummary("Reload content")
	postReload.SetDescription("Reloads lessons and exams. Invalid content is rejected and the current catalog stays live.")
	postReload.AddRespStructure(ContentReport{}, openapi.WithHTTPStatus(http.StatusOK))
	postReload.AddRespStructure(ContentReport{}, openapi.WithHTTPStatus(http.StatusUnprocessableEntity))
	postReload.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postReload)

	return r.Spec
}

// examResultDoc flattens quiz.ExamResult for the schema.
type examResultDoc struct {
	Correct       int    `json:"correct"`
	Answered      int    `json:"answered"`
	Total         int    `json:"total"`
	Percentage    int    `json:"percentage"`
	PassThreshold int    `json:"passThreshold"`
	Band          string `json:"band" enum:"pass,marginal,fail"`
	Passed        bool   `json:"passed"`
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
