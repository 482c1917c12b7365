package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/craftsite-simple/dto"
	"github.com/craftsite-simple/models"
	"github.com/craftsite-simple/utils"
	"github.com/ledongthuc/pdf"
)

// IntentSource provides the seeded keyword intents for fallback answers.
type IntentSource interface {
	FindAll() ([]models.Intent, error)
}

const (
	chatChunkSize       = 1000
	chatTopK            = 3
	chatSimilarityFloor = 0.35

	outOfScopeAnswer = "It is out of my scope, Please try asking something else."
)

// ChatService answers support questions. Questions are matched against the
// PDF knowledge base via embeddings and answered by the completions service;
// when the knowledge base has nothing relevant, seeded intents provide a
// keyword fallback. Every answer, graceful failures included, goes through
// the answer cache.
type ChatService struct {
	intents  IntentSource
	cache    AnswerCache
	embedder *EmbeddingClient
	llm      *LLMClient

	chunks     []string
	embeddings [][]float64
}

// NewChatService creates a chat service with the given collaborators. Call
// LoadKnowledgeBase before serving traffic to enable retrieval.
func NewChatService(intents IntentSource, cache AnswerCache, embedder *EmbeddingClient, llm *LLMClient) *ChatService {
	return &ChatService{
		intents:  intents,
		cache:    cache,
		embedder: embedder,
		llm:      llm,
	}
}

// LoadKnowledgeBase reads the support PDF, chunks it and embeds every chunk.
// Called once at startup; a missing or unreadable PDF disables retrieval but
// keeps the keyword fallback working.
func (s *ChatService) LoadKnowledgeBase(ctx context.Context, pdfPath string) error {
	chunks, err := extractPDFChunks(pdfPath)
	if err != nil {
		return err
	}

	embeddings, err := s.embedder.Embed(ctx, chunks)
	if err != nil {
		return fmt.Errorf("failed to embed knowledge base: %w", err)
	}

	s.chunks = chunks
	s.embeddings = embeddings
	log.Printf("✅ Knowledge base loaded: %d chunks", len(chunks))
	return nil
}

// Predict answers one question, serving repeats from the cache.
func (s *ChatService) Predict(ctx context.Context, req dto.ChatRequest) (*dto.ChatResponse, error) {
	question := strings.TrimSpace(req.Message)
	if question == "" {
		return nil, utils.NewError(utils.ErrValidation, "message is required")
	}

	if answer, ok := s.cache.Get(ctx, question); ok {
		return &dto.ChatResponse{Answer: answer, Cached: true}, nil
	}

	answer := s.answer(ctx, question)
	s.cache.Set(ctx, question, answer)
	return &dto.ChatResponse{Answer: answer}, nil
}

func (s *ChatService) answer(ctx context.Context, question string) string {
	if len(s.chunks) == 0 {
		return s.fallbackAnswer(question)
	}

	vectors, err := s.embedder.Embed(ctx, []string{question})
	if err != nil {
		log.Printf("Warning: question embedding failed: %v", err)
		return s.fallbackAnswer(question)
	}

	retrieved, best := s.retrieveContext(vectors[0])
	if best < chatSimilarityFloor {
		return s.fallbackAnswer(question)
	}

	answer, err := s.llm.Answer(ctx, retrieved, question)
	if err != nil {
		log.Printf("Warning: completions call failed: %v", err)
		return s.fallbackAnswer(question)
	}
	return answer
}

// retrieveContext picks the top chunks by cosine similarity and returns them
// joined, with the best score for thresholding.
func (s *ChatService) retrieveContext(questionVec []float64) (string, float64) {
	type scored struct {
		index int
		score float64
	}
	ranked := make([]scored, 0, len(s.embeddings))
	for i, vec := range s.embeddings {
		ranked = append(ranked, scored{index: i, score: CosineSimilarity(questionVec, vec)})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	limit := chatTopK
	if limit > len(ranked) {
		limit = len(ranked)
	}
	parts := make([]string, 0, limit)
	for _, entry := range ranked[:limit] {
		parts = append(parts, s.chunks[entry.index])
	}

	best := 0.0
	if len(ranked) > 0 {
		best = ranked[0].score
	}
	return strings.Join(parts, "\n\n"), best
}

// fallbackAnswer does keyword matching over the seeded intents.
func (s *ChatService) fallbackAnswer(question string) string {
	intents, err := s.intents.FindAll()
	if err != nil {
		log.Printf("Warning: intent lookup failed: %v", err)
		return outOfScopeAnswer
	}

	lowered := strings.ToLower(question)
	for _, intent := range intents {
		for _, tag := range intent.Tags {
			if tag != "" && strings.Contains(lowered, strings.ToLower(tag)) {
				return intent.Answer
			}
		}
	}
	return outOfScopeAnswer
}

// extractPDFChunks pulls plain text out of every readable page and splits it
// into fixed-size chunks.
func extractPDFChunks(path string) ([]string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge base pdf: %w", err)
	}
	defer file.Close()

	var text strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// Skip unreadable pages instead of failing the whole load.
			continue
		}
		text.WriteString(pageText)
		text.WriteString(" ")
	}

	normalized := strings.Join(strings.Fields(text.String()), " ")
	if normalized == "" {
		return nil, fmt.Errorf("no text extracted from knowledge base pdf")
	}

	runes := []rune(normalized)
	var chunks []string
	for start := 0; start < len(runes); start += chatChunkSize {
		end := start + chatChunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks, nil
}
