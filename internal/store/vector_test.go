package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mnakata/islandhop/internal/model"
)

func TestVectorClientSearch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req vectorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.K != 3 {
			t.Errorf("k = %d, want 3", req.K)
		}
		_ = json.NewEncoder(w).Encode(vectorResponse{Hits: []VectorHit{
			{Content: "直岛美术馆周一闭馆", Score: 0.92},
			{Content: "宫浦港有自行车租赁", Score: 0.81, Metadata: map[string]string{"topic": "port"}},
		}})
	}))
	defer ts.Close()

	c := NewVectorClient(model.VectorConfig{BaseURL: ts.URL, TopK: 5})
	hits, err := c.Search(context.Background(), "直岛有什么看的", 3)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].Score < hits[1].Score {
		t.Error("expected hits best-first")
	}
}

func TestVectorClientDefaultK(t *testing.T) {
	var gotK int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req vectorRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotK = req.K
		_ = json.NewEncoder(w).Encode(vectorResponse{})
	}))
	defer ts.Close()

	c := NewVectorClient(model.VectorConfig{BaseURL: ts.URL, TopK: 7})
	if _, err := c.Search(context.Background(), "q", 0); err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if gotK != 7 {
		t.Errorf("k = %d, want configured default 7", gotK)
	}
}

func TestVectorClientErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "index not ready", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	c := NewVectorClient(model.VectorConfig{BaseURL: ts.URL})
	if _, err := c.Search(context.Background(), "q", 1); err == nil {
		t.Error("expected error for non-200 status")
	}
}

func TestVectorClientUnconfigured(t *testing.T) {
	c := NewVectorClient(model.VectorConfig{})
	if _, err := c.Search(context.Background(), "q", 1); err == nil {
		t.Error("expected error when base URL missing")
	}
}
