package handler

import (
	"context"
	"net/http"

	"github.com/renato-saldanha/talk-to-api/internal/pinecone"
)

// Pinger verifies database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// IndexChecker verifies vector index connectivity.
type IndexChecker interface {
	DescribeIndexStats(ctx context.Context, index string) (*pinecone.IndexStats, error)
}

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	db        Pinger
	index     IndexChecker
	indexName string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db Pinger, index IndexChecker, indexName string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		index:     index,
		indexName: indexName,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

// Ready handles GET /ready. It checks the database and the vector index, the
// two dependencies a turn cannot proceed without.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := "ready"
	code := http.StatusOK
	database := "connected"
	index := "connected"

	if err := h.db.Ping(ctx); err != nil {
		status = "not ready"
		code = http.StatusServiceUnavailable
		database = "disconnected"
	}

	if _, err := h.index.DescribeIndexStats(ctx, h.indexName); err != nil {
		status = "not ready"
		code = http.StatusServiceUnavailable
		index = "disconnected"
	}

	writeJSON(w, code, map[string]string{
		"status":   status,
		"database": database,
		"index":    index,
	})
}
