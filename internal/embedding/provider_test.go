package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"semnotes/internal/core"
)

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080", "test-key", "test-model", 768)
	if client == nil {
		t.Fatal("NewClient() returned nil")
	}
	if client.BaseURL != "http://localhost:8080" {
		t.Errorf("NewClient() BaseURL = %v, want http://localhost:8080", client.BaseURL)
	}
	if client.Dimensions() != 768 {
		t.Errorf("NewClient() Dimensions() = %v, want 768", client.Dimensions())
	}
}

func TestClient_Embed(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		dims       int
		serverResp func(w http.ResponseWriter, r *http.Request)
		wantErr    bool
	}{
		{
			name: "successful embedding",
			text: "Hello world",
			dims: 3,
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if r.URL.Path != "/v1/embeddings" {
					t.Errorf("expected /v1/embeddings, got %s", r.URL.Path)
				}
				if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
					t.Errorf("Authorization = %q, want Bearer test-key", auth)
				}

				var req embeddingsRequest
				if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
					t.Errorf("failed to decode request: %v", err)
				}
				if len(req.Input) != 1 || req.Input[0] != "Hello world" {
					t.Errorf("request input = %v", req.Input)
				}

				resp := embeddingsResponse{
					Data: []embeddingData{
						{Embedding: []float64{1.5, 2.5, 3.5}},
					},
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(resp)
			},
			wantErr: false,
		},
		{
			name: "wrong embedding count",
			text: "Hello",
			dims: 3,
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				resp := embeddingsResponse{
					Data: []embeddingData{
						{Embedding: []float64{1, 2, 3}},
						{Embedding: []float64{4, 5, 6}},
					},
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(resp)
			},
			wantErr: true,
		},
		{
			name: "wrong vector size",
			text: "Hello",
			dims: 3,
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				resp := embeddingsResponse{
					Data: []embeddingData{
						{Embedding: []float64{1, 2}}, // Wrong size
					},
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(resp)
			},
			wantErr: true,
		},
		{
			name: "server error",
			text: "Hello",
			dims: 3,
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte("internal server error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(tt.serverResp))
			defer server.Close()

			client := NewClient(server.URL, "test-key", "test-model", tt.dims)
			vec, err := client.Embed(context.Background(), tt.text)

			if tt.wantErr {
				if err == nil {
					t.Fatal("Embed() expected error, got nil")
				}
				if !errors.Is(err, core.ErrEmbeddingUnavailable) {
					t.Errorf("Embed() error = %v, want ErrEmbeddingUnavailable", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Embed() unexpected error: %v", err)
			}
			if len(vec) != tt.dims {
				t.Errorf("Embed() vector size = %d, want %d", len(vec), tt.dims)
			}
			if vec[0] != float32(1.5) || vec[1] != float32(2.5) || vec[2] != float32(3.5) {
				t.Errorf("Embed() = %v, want [1.5 2.5 3.5]", vec)
			}
		})
	}
}

func TestClient_Embed_EmptyTextSkipsRemoteCall(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "test-model", 4)

	for _, text := range []string{"", "   ", "\n\t"} {
		vec, err := client.Embed(context.Background(), text)
		if err != nil {
			t.Fatalf("Embed(%q) error = %v", text, err)
		}
		if len(vec) != 4 {
			t.Fatalf("Embed(%q) vector size = %d, want 4", text, len(vec))
		}
		for i, v := range vec {
			if v != 0 {
				t.Errorf("Embed(%q)[%d] = %v, want 0", text, i, v)
			}
		}
	}

	if n := calls.Load(); n != 0 {
		t.Errorf("remote endpoint called %d times for empty input, want 0", n)
	}
}

func TestClient_Embed_UnreachableServer(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", "test-key", "test-model", 3)

	_, err := client.Embed(context.Background(), "hello")
	if !errors.Is(err, core.ErrEmbeddingUnavailable) {
		t.Errorf("Embed() error = %v, want ErrEmbeddingUnavailable", err)
	}
}
