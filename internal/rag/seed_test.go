package rag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renato-saldanha/talk-to-api/internal/pinecone"
	"github.com/renato-saldanha/talk-to-api/pkg/logger"
)

type fakeSeedIndex struct {
	existing    []string
	vectorCount int

	created  []*pinecone.CreateIndexRequest
	upserted []pinecone.Vector
}

func (f *fakeSeedIndex) ListIndexes(context.Context) (*pinecone.ListIndexesResponse, error) {
	resp := &pinecone.ListIndexesResponse{}
	for _, name := range f.existing {
		resp.Indexes = append(resp.Indexes, pinecone.IndexDescription{Name: name})
	}
	return resp, nil
}

func (f *fakeSeedIndex) CreateIndex(_ context.Context, req *pinecone.CreateIndexRequest) error {
	f.created = append(f.created, req)
	f.existing = append(f.existing, req.Name)
	return nil
}

func (f *fakeSeedIndex) DescribeIndex(_ context.Context, name string) (*pinecone.IndexDescription, error) {
	desc := &pinecone.IndexDescription{Name: name}
	desc.Status.Ready = true
	return desc, nil
}

func (f *fakeSeedIndex) DescribeIndexStats(context.Context, string) (*pinecone.IndexStats, error) {
	return &pinecone.IndexStats{Dimension: indexDimension, TotalVectorCount: f.vectorCount}, nil
}

func (f *fakeSeedIndex) Upsert(_ context.Context, _ string, vectors []pinecone.Vector) (*pinecone.UpsertResponse, error) {
	f.upserted = append(f.upserted, vectors...)
	return &pinecone.UpsertResponse{UpsertedCount: len(vectors)}, nil
}

func TestSeedPopulatesEmptyIndex(t *testing.T) {
	index := &fakeSeedIndex{existing: []string{"reasons"}}
	embedder := &fakeEmbedder{vector: make([]float32, indexDimension)}
	seeder := NewSeeder(embedder, index, "reasons", "gcp-starter", logger.NewNop())

	err := seeder.Seed(context.Background())
	require.NoError(t, err)

	assert.Empty(t, index.created, "existing index must not be recreated")
	assert.Len(t, index.upserted, len(strongReasons))
	assert.Equal(t, "reason-1", index.upserted[0].ID)
	assert.Equal(t, strongReasons[0], index.upserted[0].Metadata["text"])
}

func TestSeedSkipsPopulatedIndex(t *testing.T) {
	index := &fakeSeedIndex{existing: []string{"reasons"}, vectorCount: 5}
	embedder := &fakeEmbedder{vector: make([]float32, indexDimension)}
	seeder := NewSeeder(embedder, index, "reasons", "gcp-starter", logger.NewNop())

	err := seeder.Seed(context.Background())
	require.NoError(t, err)

	assert.Empty(t, index.upserted)
}

func TestSeedCreatesMissingIndex(t *testing.T) {
	index := &fakeSeedIndex{}
	embedder := &fakeEmbedder{vector: make([]float32, indexDimension)}
	seeder := NewSeeder(embedder, index, "reasons", "gcp-starter", logger.NewNop())

	err := seeder.Seed(context.Background())
	require.NoError(t, err)

	require.Len(t, index.created, 1)
	created := index.created[0]
	assert.Equal(t, "reasons", created.Name)
	assert.Equal(t, indexDimension, created.Dimension)
	assert.Equal(t, indexMetric, created.Metric)
	assert.Equal(t, "gcp", created.Spec.Serverless.Cloud)
	assert.Equal(t, "us-central1", created.Spec.Serverless.Region)
}

func TestServerlessSpecDefaultsToAWS(t *testing.T) {
	seeder := NewSeeder(nil, nil, "reasons", "us-east-1-aws", logger.NewNop())
	cloud, region := seeder.serverlessSpec()
	assert.Equal(t, "aws", cloud)
	assert.Equal(t, "us-east-1", region)
}
