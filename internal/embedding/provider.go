package embedding

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_provider.go -package=mocks semnotes/internal/embedding Provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"semnotes/internal/core"
)

// Provider converts text into a fixed-length vector. Dimensions is fixed for
// the lifetime of the deployment.
type Provider interface {
	// Embed generates the vector for a single text. Empty or whitespace-only
	// input yields the zero vector without calling the remote model.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the vector dimensionality.
	Dimensions() int
}

// Client is a Provider backed by an OpenAI-compatible embeddings API.
type Client struct {
	BaseURL string
	APIKey  string
	Model   string
	dims    int
	client  *http.Client
}

// NewClient creates a new embeddings client. dims is the expected vector size;
// every embedding returned by the remote model is validated against it.
func NewClient(baseURL, apiKey, model string, dims int) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		dims:    dims,
		client:  http.DefaultClient,
	}
}

// embeddingsRequest represents the request payload for the embeddings API.
type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// embeddingData represents a single embedding in the response.
type embeddingData struct {
	Embedding []float64 `json:"embedding"`
}

// embeddingsResponse represents the response from the embeddings API.
type embeddingsResponse struct {
	Data []embeddingData `json:"data"`
}

// Dimensions returns the configured vector size.
func (c *Client) Dimensions() int {
	return c.dims
}

// Embed generates the vector for one text.
//
// Empty input short-circuits to the zero vector: remote providers reject empty
// text, and the ranking layer already defines similarity against a zero vector
// as 0, so nothing downstream divides by zero. Any remote failure for
// non-empty text surfaces as core.ErrEmbeddingUnavailable.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return make([]float32, c.dims), nil
	}

	url := fmt.Sprintf("%s/v1/embeddings", c.BaseURL)

	payload := embeddingsRequest{
		Model: c.Model,
		Input: []string{text},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.APIKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrEmbeddingUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: bad status %d: %s", core.ErrEmbeddingUnavailable, resp.StatusCode, string(raw))
	}

	var embeddingsResp embeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&embeddingsResp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", core.ErrEmbeddingUnavailable, err)
	}

	if len(embeddingsResp.Data) != 1 {
		return nil, fmt.Errorf("%w: expected 1 embedding, got %d", core.ErrEmbeddingUnavailable, len(embeddingsResp.Data))
	}

	data := embeddingsResp.Data[0]
	if len(data.Embedding) != c.dims {
		return nil, fmt.Errorf("%w: embedding has size %d, expected %d", core.ErrEmbeddingUnavailable, len(data.Embedding), c.dims)
	}

	// Convert []float64 to []float32
	vec := make([]float32, len(data.Embedding))
	for i, v := range data.Embedding {
		vec[i] = float32(v)
	}

	return vec, nil
}
