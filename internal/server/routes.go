package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, opts Options) {
	d := &deps{
		logger:   logger,
		store:    opts.Store,
		registry: opts.Registry,
		broker:   NewBroker(),
		ttl:      opts.SessionTTL,
		now:      opts.Now,
		origins:  originPatterns(opts.CORSOrigins),
	}

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Study Quiz API", "/openapi.json", "/docs"))

	// Catalog, read-only.
	r.Get("/api/lessons", handleListLessons(opts.Registry))
	r.Get("/api/lessons/{slug}", handleGetLesson(opts.Registry))
	r.Get("/api/exams", handleListExams(opts.Registry))
	r.Get("/api/exams/{id}", handleGetExam(opts.Registry))

	// Learner sessions, addressed by an unguessable ID.
	r.Post("/api/sessions", handleCreateSession(d))
	r.Route("/api/sessions/{id}", func(r chi.Router) {
		r.Get("/", handleGetSession(d))
		r.Delete("/", handleDeleteSession(d))
		r.Post("/answers", handleAnswer(d))
		r.Post("/flags", handleToggleFlag(d))
		r.Post("/cursor", handleCursor(d))
		r.Post("/submit", handleSubmit(d))
		r.Get("/review", handleReview(d))
		r.Get("/events", handleEvents(d))
		r.Get("/live", handleLive(d))
	})

	r.Route("/api/admin/content", func(r chi.Router) {
		r.Use(adminAuthMiddleware(opts.AdminTokenHash))
		r.Get("/", handleContentReport(opts.Registry))
		r.Post("/reload", handleContentReload(logger, opts.Registry))
	})

	if opts.StaticDir != "" {
		if info, err := os.Stat(opts.StaticDir); err == nil && info.IsDir() {
			logger.Info("serving front-end", "dir", opts.StaticDir)
			r.NotFound(handleSPA(opts.StaticDir))
		}
	}
}
