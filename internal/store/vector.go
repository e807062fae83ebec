package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mnakata/islandhop/internal/model"
	"github.com/mnakata/islandhop/internal/util"
)

// VectorHit is one semantic-search result
type VectorHit struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Score    float64           `json:"score"`
}

// VectorSearcher finds documents semantically similar to a query.
// Implementations return hits best-first.
type VectorSearcher interface {
	Search(ctx context.Context, query string, k int) ([]VectorHit, error)
}

// VectorClient talks to the external semantic-search service over HTTP
type VectorClient struct {
	baseURL    string
	topK       int
	httpClient *http.Client
	limiter    *rate.Limiter
}

type vectorRequest struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

type vectorResponse struct {
	Hits []VectorHit `json:"hits"`
}

// NewVectorClient creates a client for the configured search service
func NewVectorClient(cfg model.VectorConfig) *VectorClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	topK := cfg.TopK
	if topK <= 0 {
		topK = 5
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &VectorClient{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		topK:    topK,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc("", "", ""),
			},
		},
		limiter: limiter,
	}
}

// Search queries the service for the k most similar documents. k <= 0
// uses the configured default.
func (c *VectorClient) Search(ctx context.Context, query string, k int) ([]VectorHit, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("vector search base URL not configured")
	}
	if k <= 0 {
		k = c.topK
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	body, err := json.Marshal(vectorRequest{Query: query, K: k})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search error (%d): %s", resp.StatusCode, string(respBody))
	}

	var vr vectorResponse
	if err := json.Unmarshal(respBody, &vr); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return vr.Hits, nil
}
