package perception

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/havenmind/havenmind-ai-platform/internal/llm"
)

const riskClassifierPrompt = `You are a mental-health risk triage classifier. Rate the crisis risk of this message. Respond with JSON only.

Scoring guidance:
- 0.95-1.0: explicit suicidal ideation, a plan, or intent to die
- 0.80-0.94: self-harm statements or strong passive death wish
- 0.60-0.79: pronounced hopelessness, despair, giving up
- 0.30-0.59: significant distress without danger statements
- 0.00-0.29: everyday sadness, stress, or neutral content

Message: %s

Respond with: {"risk_score": <0.0-1.0>, "labels": ["<label>", ...]}`

// LLMClassifier scores messages through a chat completion model. The model
// is asked for a JSON verdict; anything unparseable is treated as an error so
// the caller can degrade safely.
type LLMClassifier struct {
	client llm.Client
	model  string
}

// NewLLMClassifier creates an LLM-backed classifier.
func NewLLMClassifier(client llm.Client, model string) *LLMClassifier {
	if client == nil {
		panic("perception: llm classifier requires a client")
	}
	return &LLMClassifier{client: client, model: model}
}

// Classify asks the model for a risk verdict on the message.
func (c *LLMClassifier) Classify(ctx context.Context, message string) (Signal, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return Signal{}, nil
	}

	prompt := strings.Replace(riskClassifierPrompt, "%s", message, 1)

	resp, err := c.client.Complete(ctx, llm.Request{
		Model:       c.model,
		Messages:    []llm.ChatMessage{{Role: llm.ChatRoleUser, Content: prompt}},
		MaxTokens:   100,
		Temperature: 0,
	})
	if err != nil {
		return Signal{}, fmt.Errorf("perception: risk classification failed: %w", err)
	}

	var verdict struct {
		RiskScore float64  `json:"risk_score"`
		Labels    []string `json:"labels"`
	}

	// The model may wrap the JSON in extra prose.
	content := strings.TrimSpace(resp.Text)
	startIdx := strings.Index(content, "{")
	endIdx := strings.LastIndex(content, "}")
	if startIdx >= 0 && endIdx > startIdx {
		content = content[startIdx : endIdx+1]
	}
	if err := json.Unmarshal([]byte(content), &verdict); err != nil {
		return Signal{}, fmt.Errorf("perception: risk verdict parse: %w", err)
	}

	score := verdict.RiskScore
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	return Signal{RiskScore: score, Labels: verdict.Labels}, nil
}
