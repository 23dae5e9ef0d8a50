// Package api exposes the document and chat functionality over HTTP.
//
// Endpoints:
//
//	POST   /api/v1/upload                     index a single document
//	POST   /api/v1/upload/batch               index several documents
//	GET    /api/v1/documents                  list indexed documents
//	GET    /api/v1/documents/{id}             fetch one document
//	DELETE /api/v1/documents/{id}             delete a document and its chunks
//	POST   /api/v1/chat                       ask a question
//	DELETE /api/v1/chat/conversation/{id}     clear a conversation
//	GET    /health                            liveness probe
//	GET    /ready                             readiness probe
//
// File structure:
//   - server.go: server setup and lifecycle
//   - middleware.go: recovery, logging, CORS
//   - ratelimit.go: per-IP rate limiting
//   - upload.go, documents.go, chat.go: domain handlers
//   - health.go: probes
//   - response.go: JSON helpers
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/knowassist/knowassist/internal/config"
)

const (
	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout bounds header reads to resist slowloris clients.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	// Uploads can be large, so this is generous.
	ReadTimeout = 2 * time.Minute

	// WriteTimeout is the maximum duration for writing the response.
	// Generation can take a while on slow providers.
	WriteTimeout = 2 * time.Minute

	// IdleTimeout is the keep-alive idle limit.
	IdleTimeout = 120 * time.Second
)

// Server is the HTTP server for the REST API.
type Server struct {
	mux    *http.ServeMux
	cfg    *config.Config
	logger *slog.Logger

	health    *HealthHandler
	upload    *UploadHandler
	documents *DocumentsHandler
	chat      *ChatHandler
}

// NewServer creates a server with all routes registered.
func NewServer(cfg *config.Config, pool *pgxpool.Pool, ingestor Ingestor, docs DocumentStore, answerer Answerer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	s := &Server{
		mux:       mux,
		cfg:       cfg,
		logger:    logger,
		health:    NewHealthHandler(pool, logger),
		upload:    NewUploadHandler(ingestor, cfg.MaxUploadBytes, logger),
		documents: NewDocumentsHandler(docs, logger),
		chat:      NewChatHandler(answerer, logger),
	}

	s.health.RegisterRoutes(mux)
	s.upload.RegisterRoutes(mux)
	s.documents.RegisterRoutes(mux)
	s.chat.RegisterRoutes(mux)

	return s
}

// Handler returns the mux wrapped in middleware.
// Order: recovery → logging → CORS → rate limit → handler.
func (s *Server) Handler() http.Handler {
	rl := newRateLimiter(s.cfg.RatePerSecond, s.cfg.RateBurst)
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		loggingMiddleware(s.logger),
		corsMiddleware(s.cfg.CORSOrigins),
		rateLimitMiddleware(rl, s.cfg.TrustProxy, s.logger),
	)
}

// Run starts the server and blocks until the context is canceled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
