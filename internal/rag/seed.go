package rag

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/renato-saldanha/talk-to-api/internal/llm"
	"github.com/renato-saldanha/talk-to-api/internal/pinecone"
	"github.com/renato-saldanha/talk-to-api/pkg/logger"
)

// strongReasons is the reference corpus of exemplar qualifying reasons. A
// lead's stated reason must land close to one of these to qualify.
var strongReasons = []string{
	"Preciso fazer cirurgia e o médico exigiu perder peso",
	"Minha saúde está em risco, pressão alta e diabetes",
	"Quero engravidar mas o médico disse que preciso emagrecer",
	"Tenho dor nas articulações por causa do peso",
	"Meu colesterol está altíssimo e estou com medo de infarto",
}

const (
	indexDimension = 1536
	indexMetric    = "cosine"
)

// SeedIndex is the subset of the vector index used for seeding.
type SeedIndex interface {
	ListIndexes(ctx context.Context) (*pinecone.ListIndexesResponse, error)
	CreateIndex(ctx context.Context, req *pinecone.CreateIndexRequest) error
	DescribeIndex(ctx context.Context, name string) (*pinecone.IndexDescription, error)
	DescribeIndexStats(ctx context.Context, index string) (*pinecone.IndexStats, error)
	Upsert(ctx context.Context, index string, vectors []pinecone.Vector) (*pinecone.UpsertResponse, error)
}

// Seeder ensures the reference index exists and is populated.
type Seeder struct {
	embedder    llm.Embedder
	index       SeedIndex
	indexName   string
	environment string
	logger      *logger.Logger
}

// NewSeeder creates a new index seeder.
func NewSeeder(embedder llm.Embedder, index SeedIndex, indexName, environment string, log *logger.Logger) *Seeder {
	return &Seeder{
		embedder:    embedder,
		index:       index,
		indexName:   indexName,
		environment: environment,
		logger:      log,
	}
}

// Seed creates the index if missing and populates it with the reference
// corpus. Seeding is skipped when the index already holds records.
func (s *Seeder) Seed(ctx context.Context) error {
	if err := s.ensureIndexExists(ctx); err != nil {
		return err
	}

	stats, err := s.index.DescribeIndexStats(ctx, s.indexName)
	if err != nil {
		return fmt.Errorf("failed to read index stats: %w", err)
	}

	if stats.TotalVectorCount > 0 {
		s.logger.Info("index already populated, skipping seed",
			zap.Int("records", stats.TotalVectorCount))
		return nil
	}

	s.logger.Info("populating index with reference reasons",
		zap.Int("count", len(strongReasons)))

	vectors := make([]pinecone.Vector, 0, len(strongReasons))
	for i, reason := range strongReasons {
		embedding, err := s.embedder.Embed(ctx, reason)
		if err != nil {
			return fmt.Errorf("failed to embed reference reason %d: %w", i+1, err)
		}

		vectors = append(vectors, pinecone.Vector{
			ID:     fmt.Sprintf("reason-%d", i+1),
			Values: embedding,
			Metadata: map[string]string{
				"text": reason,
				"type": "strong_reason",
			},
		})
	}

	if _, err := s.index.Upsert(ctx, s.indexName, vectors); err != nil {
		return fmt.Errorf("failed to upsert reference reasons: %w", err)
	}

	s.logger.Info("seeded reference reasons", zap.Int("count", len(vectors)))
	return nil
}

func (s *Seeder) ensureIndexExists(ctx context.Context) error {
	list, err := s.index.ListIndexes(ctx)
	if err != nil {
		return fmt.Errorf("failed to list indexes: %w", err)
	}

	for _, idx := range list.Indexes {
		if idx.Name == s.indexName {
			return nil
		}
	}

	cloud, region := s.serverlessSpec()
	s.logger.Info("creating index",
		zap.String("index", s.indexName),
		zap.String("cloud", cloud),
		zap.String("region", region),
	)

	err = s.index.CreateIndex(ctx, &pinecone.CreateIndexRequest{
		Name:      s.indexName,
		Dimension: indexDimension,
		Metric:    indexMetric,
		Spec: pinecone.IndexSpec{
			Serverless: pinecone.ServerlessSpec{Cloud: cloud, Region: region},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return s.waitUntilReady(ctx)
}

// waitUntilReady polls the control plane until the new index is ready.
func (s *Seeder) waitUntilReady(ctx context.Context) error {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	deadline := time.Now().Add(2 * time.Minute)
	for {
		desc, err := s.index.DescribeIndex(ctx, s.indexName)
		if err == nil && desc.Status.Ready {
			return nil
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("index %q not ready after creation", s.indexName)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Seeder) serverlessSpec() (cloud, region string) {
	if strings.HasPrefix(strings.ToLower(s.environment), "gcp") {
		return "gcp", "us-central1"
	}
	return "aws", "us-east-1"
}
