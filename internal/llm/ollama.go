package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OllamaClient implements Client against a local Ollama server's chat API.
type OllamaClient struct {
	baseURL      string
	defaultModel string
	httpClient   *http.Client
}

// NewOllamaClient creates a client for the Ollama server at baseURL.
func NewOllamaClient(baseURL, defaultModel string) *OllamaClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		defaultModel: defaultModel,
		httpClient:   &http.Client{Timeout: 120 * time.Second},
	}
}

type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []ChatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	DoneReason      string `json:"done_reason"`
	PromptEvalCount int32  `json:"prompt_eval_count"`
	EvalCount       int32  `json:"eval_count"`
}

func (c *OllamaClient) Complete(ctx context.Context, req Request) (Response, error) {
	model := req.Model
	if strings.TrimSpace(model) == "" {
		model = c.defaultModel
	}
	if strings.TrimSpace(model) == "" {
		return Response{}, errors.New("llm: ollama model is required")
	}

	messages := make([]ChatMessage, 0, len(req.System)+len(req.Messages))
	for _, block := range req.System {
		if strings.TrimSpace(block) == "" {
			continue
		}
		messages = append(messages, ChatMessage{Role: ChatRoleSystem, Content: block})
	}
	for _, msg := range req.Messages {
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		messages = append(messages, msg)
	}
	if len(messages) == 0 {
		return Response{}, errors.New("llm: ollama requires at least one message")
	}

	options := map[string]any{}
	if req.Temperature >= 0 {
		options["temperature"] = req.Temperature
	}
	if req.TopP > 0 {
		options["top_p"] = req.TopP
	}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}

	payload, err := json.Marshal(ollamaChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   false,
		Options:  options,
	})
	if err != nil {
		return Response{}, fmt.Errorf("llm: ollama request marshal: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("llm: ollama request build: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("llm: ollama request failed: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("llm: ollama response read: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return Response{}, fmt.Errorf("llm: ollama returned status %d: %s", httpResp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded ollamaChatResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return Response{}, fmt.Errorf("llm: ollama response parse: %w", err)
	}

	text := strings.TrimSpace(decoded.Message.Content)
	if text == "" {
		return Response{}, errors.New("llm: ollama response contained no text")
	}

	return Response{
		Text:       text,
		StopReason: decoded.DoneReason,
		Usage: TokenUsage{
			InputTokens:  decoded.PromptEvalCount,
			OutputTokens: decoded.EvalCount,
			TotalTokens:  decoded.PromptEvalCount + decoded.EvalCount,
		},
	}, nil
}
