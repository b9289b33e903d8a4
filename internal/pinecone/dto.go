package pinecone

// IndexDescription describes an index on the control plane.
type IndexDescription struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Host      string `json:"host"`
	Status    struct {
		Ready bool   `json:"ready"`
		State string `json:"state"`
	} `json:"status"`
}

// ListIndexesResponse is the control-plane index listing.
type ListIndexesResponse struct {
	Indexes []IndexDescription `json:"indexes"`
}

// CreateIndexRequest creates a serverless index.
type CreateIndexRequest struct {
	Name      string    `json:"name"`
	Dimension int       `json:"dimension"`
	Metric    string    `json:"metric"`
	Spec      IndexSpec `json:"spec"`
}

// IndexSpec holds the serverless placement of an index.
type IndexSpec struct {
	Serverless ServerlessSpec `json:"serverless"`
}

// ServerlessSpec names the cloud and region for a serverless index.
type ServerlessSpec struct {
	Cloud  string `json:"cloud"`
	Region string `json:"region"`
}

// Vector is a single record in the index.
type Vector struct {
	ID       string            `json:"id"`
	Values   []float32         `json:"values"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// UpsertRequest writes vectors to the data plane.
type UpsertRequest struct {
	Vectors []Vector `json:"vectors"`
}

// UpsertResponse reports how many vectors were written.
type UpsertResponse struct {
	UpsertedCount int `json:"upsertedCount"`
}

// QueryRequest runs a nearest-neighbor search.
type QueryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

// Match is a single ranked result of a query.
type Match struct {
	ID       string            `json:"id"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// QueryResponse holds the ranked matches of a query.
type QueryResponse struct {
	Matches []Match `json:"matches"`
}

// IndexStats reports data-plane index statistics.
type IndexStats struct {
	Dimension        int `json:"dimension"`
	TotalVectorCount int `json:"totalVectorCount"`
}

// APIError is the error payload returned by the Pinecone API.
type APIError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}
