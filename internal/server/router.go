package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/legalmind/legalmind/internal/api/handlers"
	"github.com/legalmind/legalmind/internal/api/middleware"
	"go.uber.org/zap"
)

type RouterConfig struct {
	QueryHandler     *handlers.QueryHandler
	IngestHandler    *handlers.IngestHandler
	DocumentsHandler *handlers.DocumentsHandler
	HealthHandler    *handlers.HealthHandler
	Logger           *zap.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Generous enough for scanned contract PDFs.
	const maxBodyBytes int64 = 32 * 1024 * 1024

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog(logger))
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", cfg.HealthHandler.Health)
	r.Post("/query", cfg.QueryHandler.Query)
	r.Post("/ingest", cfg.IngestHandler.Ingest)
	r.Get("/documents", cfg.DocumentsHandler.List)

	return r
}
