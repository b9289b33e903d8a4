// Package rag implements the qualification oracle: a weight-loss reason is
// embedded and compared against a reference corpus of exemplar strong reasons
// in a vector index. The nearest match's similarity score decides the verdict.
package rag

import (
	"context"

	"go.uber.org/zap"

	"github.com/renato-saldanha/talk-to-api/internal/llm"
	"github.com/renato-saldanha/talk-to-api/internal/pinecone"
	"github.com/renato-saldanha/talk-to-api/pkg/logger"
	"github.com/renato-saldanha/talk-to-api/pkg/metrics"
)

// Index is the subset of the vector index used for scoring.
type Index interface {
	Query(ctx context.Context, index string, vector []float32, topK int) (*pinecone.QueryResponse, error)
}

// Oracle reduces a free-text reason to a qualify/reject decision.
type Oracle struct {
	embedder  llm.Embedder
	index     Index
	indexName string
	threshold float64
	logger    *logger.Logger
}

// NewOracle creates a new qualification oracle.
func NewOracle(embedder llm.Embedder, index Index, indexName string, threshold float64, log *logger.Logger) *Oracle {
	return &Oracle{
		embedder:  embedder,
		index:     index,
		indexName: indexName,
		threshold: threshold,
		logger:    log,
	}
}

// SimilarityScore embeds the reason and returns the top-1 similarity score
// against the reference corpus. Provider failures and empty results both
// degrade to 0, so a broken provider can never qualify a lead.
func (o *Oracle) SimilarityScore(ctx context.Context, reason string) float64 {
	vector, err := o.embedder.Embed(ctx, reason)
	if err != nil {
		o.logger.Warn("embedding call failed, scoring reason as 0", zap.Error(err))
		metrics.RecordProviderError("openai", "embed")
		return 0
	}

	resp, err := o.index.Query(ctx, o.indexName, vector, 1)
	if err != nil {
		o.logger.Warn("vector index query failed, scoring reason as 0", zap.Error(err))
		metrics.RecordProviderError("pinecone", "query")
		return 0
	}

	if len(resp.Matches) == 0 {
		return 0
	}

	return resp.Matches[0].Score
}

// IsQualified reports whether the reason scores at or above the threshold.
// A score exactly equal to the threshold qualifies.
func (o *Oracle) IsQualified(ctx context.Context, reason string) bool {
	score := o.SimilarityScore(ctx, reason)
	qualified := score >= o.threshold

	o.logger.Info("qualification verdict",
		zap.Float64("score", score),
		zap.Float64("threshold", o.threshold),
		zap.Bool("qualified", qualified),
	)
	metrics.RecordQualification(qualified, score)

	return qualified
}

// Threshold returns the configured qualification threshold.
func (o *Oracle) Threshold() float64 {
	return o.threshold
}
