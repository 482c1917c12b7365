package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/craftsite-simple/dto"
	"github.com/craftsite-simple/models"
	"github.com/craftsite-simple/utils"
)

type fakeIntentSource struct {
	intents []models.Intent
}

func (f *fakeIntentSource) FindAll() ([]models.Intent, error) {
	return f.intents, nil
}

func testIntents() *fakeIntentSource {
	return &fakeIntentSource{intents: []models.Intent{
		{Tags: models.StringList{"price", "cost"}, Answer: "Hosting is included in your account."},
		{Tags: models.StringList{"deploy"}, Answer: "Your site goes live automatically."},
	}}
}

func newEmbedServer(t *testing.T, vector []float64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad embed request: %v", err)
		}
		vectors := make([][]float64, len(req.Texts))
		for i := range vectors {
			vectors[i] = vector
		}
		json.NewEncoder(w).Encode(embedResponse{Embeddings: vectors})
	}))
}

func newLLMServer(answer string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var resp llmChatResponse
		resp.Choices = []struct {
			Message llmMessage `json:"message"`
		}{{Message: llmMessage{Role: "assistant", Content: answer}}}
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestPredictAnswersFromKnowledgeBase(t *testing.T) {
	embedServer := newEmbedServer(t, []float64{1, 0, 0})
	defer embedServer.Close()
	llmServer := newLLMServer("You can delete a site from the dashboard.")
	defer llmServer.Close()

	service := NewChatService(
		testIntents(),
		NewMemoryAnswerCache(),
		&EmbeddingClient{baseURL: embedServer.URL, httpClient: embedServer.Client()},
		&LLMClient{baseURL: llmServer.URL, model: "test", httpClient: llmServer.Client()},
	)
	service.chunks = []string{"Sites can be deleted from the dashboard."}
	service.embeddings = [][]float64{{1, 0, 0}}

	response, err := service.Predict(context.Background(), dto.ChatRequest{Message: "How do I delete my site?"})
	if err != nil {
		t.Fatalf("predict failed: %v", err)
	}
	if response.Cached {
		t.Error("first answer must not come from the cache")
	}
	if response.Answer != "You can delete a site from the dashboard." {
		t.Fatalf("unexpected answer: %q", response.Answer)
	}
}

func TestPredictServesRepeatsFromCache(t *testing.T) {
	embedServer := newEmbedServer(t, []float64{1, 0, 0})
	defer embedServer.Close()
	llmServer := newLLMServer("first answer")

	service := NewChatService(
		testIntents(),
		NewMemoryAnswerCache(),
		&EmbeddingClient{baseURL: embedServer.URL, httpClient: embedServer.Client()},
		&LLMClient{baseURL: llmServer.URL, model: "test", httpClient: llmServer.Client()},
	)
	service.chunks = []string{"chunk"}
	service.embeddings = [][]float64{{1, 0, 0}}

	first, err := service.Predict(context.Background(), dto.ChatRequest{Message: "What is the price?"})
	if err != nil {
		t.Fatalf("predict failed: %v", err)
	}

	// The completions backend is gone; a repeat must still answer, byte for
	// byte the same, from the cache.
	llmServer.Close()

	second, err := service.Predict(context.Background(), dto.ChatRequest{Message: "what is  THE price?"})
	if err != nil {
		t.Fatalf("cached predict failed: %v", err)
	}
	if !second.Cached {
		t.Error("repeat answer must come from the cache")
	}
	if second.Answer != first.Answer {
		t.Fatalf("cached answer diverged: %q vs %q", second.Answer, first.Answer)
	}
}

func TestPredictRecomputesAfterExpiry(t *testing.T) {
	embedServer := newEmbedServer(t, []float64{1, 0, 0})
	defer embedServer.Close()
	llmServer := newLLMServer("fresh answer")
	defer llmServer.Close()

	cache := NewMemoryAnswerCache()
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return current }

	service := NewChatService(
		testIntents(),
		cache,
		&EmbeddingClient{baseURL: embedServer.URL, httpClient: embedServer.Client()},
		&LLMClient{baseURL: llmServer.URL, model: "test", httpClient: llmServer.Client()},
	)
	service.chunks = []string{"chunk"}
	service.embeddings = [][]float64{{1, 0, 0}}

	if _, err := service.Predict(context.Background(), dto.ChatRequest{Message: "question"}); err != nil {
		t.Fatalf("predict failed: %v", err)
	}

	current = current.Add(answerCacheTTL + time.Second)
	response, err := service.Predict(context.Background(), dto.ChatRequest{Message: "question"})
	if err != nil {
		t.Fatalf("predict failed: %v", err)
	}
	if response.Cached {
		t.Error("expired entry must be recomputed, not served")
	}
}

func TestPredictFallsBackToIntents(t *testing.T) {
	// Question vector is orthogonal to every chunk: below the similarity
	// floor, so retrieval is skipped.
	embedServer := newEmbedServer(t, []float64{0, 1, 0})
	defer embedServer.Close()

	service := NewChatService(
		testIntents(),
		NewMemoryAnswerCache(),
		&EmbeddingClient{baseURL: embedServer.URL, httpClient: embedServer.Client()},
		&LLMClient{baseURL: "http://localhost:0", model: "test", httpClient: http.DefaultClient},
	)
	service.chunks = []string{"chunk"}
	service.embeddings = [][]float64{{1, 0, 0}}

	response, err := service.Predict(context.Background(), dto.ChatRequest{Message: "What does the PRICE plan cost?"})
	if err != nil {
		t.Fatalf("predict failed: %v", err)
	}
	if response.Answer != "Hosting is included in your account." {
		t.Fatalf("expected intent answer, got %q", response.Answer)
	}
}

func TestPredictOutOfScope(t *testing.T) {
	service := NewChatService(testIntents(), NewMemoryAnswerCache(), NewEmbeddingClient(), NewLLMClient())

	// No knowledge base loaded and no matching intent.
	response, err := service.Predict(context.Background(), dto.ChatRequest{Message: "tell me about quantum physics"})
	if err != nil {
		t.Fatalf("predict failed: %v", err)
	}
	if response.Answer != outOfScopeAnswer {
		t.Fatalf("expected out-of-scope answer, got %q", response.Answer)
	}

	// Graceful failures are cached too.
	repeat, err := service.Predict(context.Background(), dto.ChatRequest{Message: "tell me about quantum physics"})
	if err != nil {
		t.Fatalf("predict failed: %v", err)
	}
	if !repeat.Cached {
		t.Error("out-of-scope answers must be cached")
	}
}

func TestPredictRejectsEmptyMessage(t *testing.T) {
	service := NewChatService(testIntents(), NewMemoryAnswerCache(), NewEmbeddingClient(), NewLLMClient())

	_, err := service.Predict(context.Background(), dto.ChatRequest{Message: "   "})
	if utils.KindOf(err) != utils.ErrValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCosineSimilarity(t *testing.T) {
	if got := CosineSimilarity([]float64{1, 0}, []float64{1, 0}); got != 1 {
		t.Errorf("identical vectors: got %v, want 1", got)
	}
	if got := CosineSimilarity([]float64{1, 0}, []float64{0, 1}); got != 0 {
		t.Errorf("orthogonal vectors: got %v, want 0", got)
	}
	if got := CosineSimilarity([]float64{1, 0}, []float64{1}); got != 0 {
		t.Errorf("mismatched lengths: got %v, want 0", got)
	}
}
