package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/craftsite-simple/config"
	"github.com/craftsite-simple/utils"
)

// LLMClient calls an OpenAI-compatible chat completions endpoint to answer
// questions grounded in retrieved knowledge-base context.
type LLMClient struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewLLMClient creates a client against the configured completions API.
func NewLLMClient() *LLMClient {
	return &LLMClient{
		baseURL:    strings.TrimRight(config.GetEnv("LLM_API_URL", "http://localhost:8001/v1"), "/"),
		apiKey:     os.Getenv("LLM_API_KEY"),
		model:      config.GetEnv("LLM_MODEL", "gpt-4o-mini"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type llmMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type llmChatRequest struct {
	Model    string       `json:"model"`
	Messages []llmMessage `json:"messages"`
}

type llmChatResponse struct {
	Choices []struct {
		Message llmMessage `json:"message"`
	} `json:"choices"`
}

// Answer asks the model to respond using only the supplied context.
func (c *LLMClient) Answer(ctx context.Context, knowledgeContext, question string) (string, error) {
	system := "You are a support assistant. Answer using only the provided context. If the context does not cover the question, say so briefly."
	user := fmt.Sprintf("Context:\n%s\n\nQuestion: %s", knowledgeContext, question)

	body, _ := json.Marshal(llmChatRequest{
		Model: c.model,
		Messages: []llmMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", utils.WrapError(utils.ErrInternal, "failed to reach completions service", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", utils.NewError(utils.ErrInternal, fmt.Sprintf("completions service responded with status %d", resp.StatusCode))
	}

	var decoded llmChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", utils.WrapError(utils.ErrInternal, "invalid completions response", err)
	}
	if len(decoded.Choices) == 0 || strings.TrimSpace(decoded.Choices[0].Message.Content) == "" {
		return "", utils.NewError(utils.ErrInternal, "completions service returned an empty answer")
	}
	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}
