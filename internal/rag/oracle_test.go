package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/renato-saldanha/talk-to-api/internal/pinecone"
	"github.com/renato-saldanha/talk-to-api/pkg/logger"
)

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(context.Context, string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

type fakeIndex struct {
	score   float64
	matches int
	err     error
}

func (f *fakeIndex) Query(context.Context, string, []float32, int) (*pinecone.QueryResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	resp := &pinecone.QueryResponse{}
	for i := 0; i < f.matches; i++ {
		resp.Matches = append(resp.Matches, pinecone.Match{ID: "reason-1", Score: f.score})
	}
	return resp, nil
}

func newTestOracle(embedder *fakeEmbedder, index *fakeIndex, threshold float64) *Oracle {
	return NewOracle(embedder, index, "reasons", threshold, logger.NewNop())
}

func TestIsQualifiedThreshold(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1, 0.2}}

	tests := []struct {
		name  string
		score float64
		want  bool
	}{
		{name: "well above", score: 0.92, want: true},
		{name: "exactly at the threshold qualifies", score: 0.75, want: true},
		{name: "just below", score: 0.7499, want: false},
		{name: "far below", score: 0.12, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oracle := newTestOracle(embedder, &fakeIndex{score: tt.score, matches: 1}, 0.75)
			assert.Equal(t, tt.want, oracle.IsQualified(context.Background(), "motivo"))
		})
	}
}

func TestSimilarityScoreFailsClosed(t *testing.T) {
	tests := []struct {
		name     string
		embedder *fakeEmbedder
		index    *fakeIndex
	}{
		{
			name:     "embedding failure",
			embedder: &fakeEmbedder{err: errors.New("provider down")},
			index:    &fakeIndex{score: 0.99, matches: 1},
		},
		{
			name:     "index query failure",
			embedder: &fakeEmbedder{vector: []float32{0.1}},
			index:    &fakeIndex{err: errors.New("connection refused")},
		},
		{
			name:     "no matches in the index",
			embedder: &fakeEmbedder{vector: []float32{0.1}},
			index:    &fakeIndex{matches: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oracle := newTestOracle(tt.embedder, tt.index, 0.75)
			assert.Equal(t, 0.0, oracle.SimilarityScore(context.Background(), "motivo"))
			assert.False(t, oracle.IsQualified(context.Background(), "motivo"))
		})
	}
}
