package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/craftsite-simple/config"
	"github.com/craftsite-simple/utils"
)

// EmbeddingClient calls the external sentence-embedding HTTP service.
type EmbeddingClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewEmbeddingClient creates a client against the configured embedding API.
func NewEmbeddingClient() *EmbeddingClient {
	return &EmbeddingClient{
		baseURL:    config.GetEnv("EMBED_API_URL", "http://localhost:8000"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type embedRequest struct {
	Texts []string `json:"texts"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// Embed returns one vector per input text, in order.
func (c *EmbeddingClient) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	body, _ := json.Marshal(embedRequest{Texts: texts})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, utils.WrapError(utils.ErrInternal, "failed to reach embedding service", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, utils.NewError(utils.ErrInternal, fmt.Sprintf("embedding service responded with status %d", resp.StatusCode))
	}

	var decoded embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, utils.WrapError(utils.ErrInternal, "invalid embedding response", err)
	}
	if len(decoded.Embeddings) != len(texts) {
		return nil, utils.NewError(utils.ErrInternal, "embedding service returned a mismatched vector count")
	}
	return decoded.Embeddings, nil
}

// CosineSimilarity measures how close two embedding vectors are.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
