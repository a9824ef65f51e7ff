package policy

import (
	"context"
	"strings"

	"github.com/havenmind/havenmind-ai-platform/internal/llm"
	"github.com/havenmind/havenmind-ai-platform/pkg/logging"
)

const lowSystemPrompt = `You are a supportive and empathetic mental health assistant for teens.

Your role is to:
1. Provide empathetic, natural conversation
2. Suggest coping skills and self-care strategies when appropriate (breathing exercises, journaling, mindfulness)
3. Provide empathetic closure when the user is saying goodbye

Guidelines:
- Be warm, understanding, and conversational
- Use natural language, not clinical jargon
- Validate the user's feelings
- Do not diagnose or provide medical advice

Keep responses natural, flexible, and empathetic.`

var goodbyeKeywords = []string{
	"goodbye", "bye", "see you", "thanks", "thank you",
	"that's all", "done", "finished", "gotta go",
}

var copingKeywords = []string{
	"breathing", "journal", "mindfulness", "exercise", "meditation",
	"relaxation", "coping", "strategy", "technique", "practice",
}

// LowTierChat is the low tier policy: free empathetic conversation with high
// flexibility, ending when the user says goodbye.
type LowTierChat struct {
	client llm.Client
	model  string
	logger *logging.Logger
}

// NewLowTierChat builds the low tier policy. It panics on a nil client.
func NewLowTierChat(client llm.Client, model string, logger *logging.Logger) *LowTierChat {
	if client == nil {
		panic("policy: low tier requires an llm client")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &LowTierChat{client: client, model: model, logger: logger.Component("policy_low")}
}

func (p *LowTierChat) Name() string { return "low" }

// IsGoodbye reports whether the message reads as a farewell.
func IsGoodbye(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range goodbyeKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// suggestsCopingSkills reports whether a reply offers a concrete coping
// technique.
func suggestsCopingSkills(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range copingKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Respond generates a free-form empathetic reply. LLM failures fall back to
// a static response so the conversation never stalls.
func (p *LowTierChat) Respond(ctx context.Context, in Input) (Output, error) {
	temp, maxTokens := applyRigidity(in.Rigidity, TemperatureLow, baseMaxTokens)

	out := Output{
		Policy:      p.Name(),
		Temperature: temp,
		MaxTokens:   maxTokens,
		Closed:      IsGoodbye(in.Message),
	}

	messages := append([]llm.ChatMessage{}, in.History...)
	messages = append(messages, llm.ChatMessage{Role: llm.ChatRoleUser, Content: in.Message})

	resp, err := p.client.Complete(ctx, llm.Request{
		Model:       p.model,
		System:      []string{lowSystemPrompt},
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temp,
		TopP:        0.9,
	})
	if err != nil {
		p.logger.Warn("low tier generation failed, using fallback", "user_id", in.UserID, "error", err)
		out.Text = FallbackLow
		out.Fallback = true
		return out, nil
	}

	out.Text = resp.Text
	out.CopingSkillsSuggested = suggestsCopingSkills(resp.Text)
	return out, nil
}
