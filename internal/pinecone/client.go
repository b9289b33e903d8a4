// Package pinecone provides a minimal HTTP client for the Pinecone vector
// database. Only the operations the funnel needs are implemented: index
// management on the control plane, and upsert/query/stats on the data plane.
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const controlPlaneURL = "https://api.pinecone.io"

// Client talks to the Pinecone REST API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	hosts map[string]string // index name -> data-plane host
}

// NewClient creates a new Pinecone client.
func NewClient(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("pinecone API key is required")
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    controlPlaneURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		hosts:      make(map[string]string),
	}, nil
}

// ListIndexes lists indexes visible to the API key.
func (c *Client) ListIndexes(ctx context.Context) (*ListIndexesResponse, error) {
	var out ListIndexesResponse
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/indexes", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateIndex creates a serverless index.
func (c *Client) CreateIndex(ctx context.Context, req *CreateIndexRequest) error {
	return c.do(ctx, http.MethodPost, c.baseURL+"/indexes", req, nil)
}

// DescribeIndex returns the control-plane description of an index, including
// its data-plane host.
func (c *Client) DescribeIndex(ctx context.Context, name string) (*IndexDescription, error) {
	var out IndexDescription
	if err := c.do(ctx, http.MethodGet, c.baseURL+"/indexes/"+name, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Upsert writes vectors to an index.
func (c *Client) Upsert(ctx context.Context, index string, vectors []Vector) (*UpsertResponse, error) {
	host, err := c.indexHost(ctx, index)
	if err != nil {
		return nil, err
	}

	var out UpsertResponse
	if err := c.do(ctx, http.MethodPost, host+"/vectors/upsert", &UpsertRequest{Vectors: vectors}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Query runs a nearest-neighbor search against an index.
func (c *Client) Query(ctx context.Context, index string, vector []float32, topK int) (*QueryResponse, error) {
	host, err := c.indexHost(ctx, index)
	if err != nil {
		return nil, err
	}

	req := &QueryRequest{
		Vector:          vector,
		TopK:            topK,
		IncludeMetadata: true,
	}

	var out QueryResponse
	if err := c.do(ctx, http.MethodPost, host+"/query", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DescribeIndexStats returns data-plane statistics for an index.
func (c *Client) DescribeIndexStats(ctx context.Context, index string) (*IndexStats, error) {
	host, err := c.indexHost(ctx, index)
	if err != nil {
		return nil, err
	}

	var out IndexStats
	if err := c.do(ctx, http.MethodPost, host+"/describe_index_stats", struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// indexHost resolves and caches the data-plane host for an index.
func (c *Client) indexHost(ctx context.Context, index string) (string, error) {
	c.mu.RLock()
	host, ok := c.hosts[index]
	c.mu.RUnlock()
	if ok {
		return host, nil
	}

	desc, err := c.DescribeIndex(ctx, index)
	if err != nil {
		return "", fmt.Errorf("failed to resolve host for index %q: %w", index, err)
	}
	if desc.Host == "" {
		return "", fmt.Errorf("index %q has no host yet", index)
	}

	host = "https://" + desc.Host

	c.mu.Lock()
	c.hosts[index] = host
	c.mu.Unlock()

	return host, nil
}

func (c *Client) do(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Api-Key", c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("pinecone request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr APIError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("pinecone api error: %s (status %d)", apiErr.Message, resp.StatusCode)
		}
		return fmt.Errorf("pinecone api error: status %d", resp.StatusCode)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}
