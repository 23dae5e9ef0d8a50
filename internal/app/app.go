// Package app assembles the application: configuration, database,
// Genkit provider plugins, and the document/chat services built on them.
package app

import (
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/knowassist/knowassist/internal/config"
	"github.com/knowassist/knowassist/internal/conversation"
	"github.com/knowassist/knowassist/internal/index"
	"github.com/knowassist/knowassist/internal/ingest"
	"github.com/knowassist/knowassist/internal/rag"
)

// App is the application container. Build one with Setup and release its
// resources with Close.
type App struct {
	Config *config.Config
	Logger *slog.Logger

	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	DBPool   *pgxpool.Pool

	Index         *index.Store
	Conversations *conversation.Store
	Ingest        *ingest.Service
	RAG           *rag.Service

	otelCleanup func()
}

// Close shuts down resources in reverse initialization order.
func (a *App) Close() error {
	a.logger().Info("shutting down application")

	if a.DBPool != nil {
		a.DBPool.Close()
		a.logger().Debug("database pool closed")
	}
	if a.otelCleanup != nil {
		a.otelCleanup()
	}
	return nil
}

func (a *App) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}
