// Package policy implements the per-tier conversation behaviors: free
// empathetic chat on the low tier, a structured persuasion state machine on
// the medium tier, and a fixed safety script on the high tier.
package policy

import (
	"context"

	"github.com/havenmind/havenmind-ai-platform/internal/llm"
)

// Base generation parameters per tier, before rigidity adjustment.
const (
	TemperatureLow    float32 = 0.9
	TemperatureMedium float32 = 0.6

	baseMaxTokens int32 = 512
)

// Static fallbacks keep the conversation moving when the LLM is unreachable.
const (
	FallbackLow    = "I'm here to listen. How can I help you today?"
	FallbackMedium = "I understand this is important. Let's work through this together."
)

// Input is one user turn presented to a tier policy.
type Input struct {
	UserID   string
	Message  string
	Rigidity float64
	History  []llm.ChatMessage
}

// Output is a tier policy's reply plus the metadata the engine and audit
// trail record.
type Output struct {
	Text         string  `json:"text"`
	Policy       string  `json:"policy"`
	Temperature  float32 `json:"temperature"`
	MaxTokens    int32   `json:"max_tokens"`
	SafetyBanner string  `json:"safety_banner,omitempty"`
	FixedScript  bool    `json:"fixed_script"`
	Structured   bool    `json:"structured"`
	Fallback     bool    `json:"fallback,omitempty"`

	// CopingSkillsSuggested is set when a low tier reply offers a concrete
	// coping technique.
	CopingSkillsSuggested bool `json:"coping_skills_suggested,omitempty"`

	// Phase and ResistanceCategory are set by the medium tier state machine.
	Phase              string `json:"phase,omitempty"`
	ResistanceCategory string `json:"resistance_category,omitempty"`
	PeerGroupAccepted  bool   `json:"peer_group_accepted,omitempty"`

	// Closed is set when the user said goodbye on the low tier.
	Closed bool `json:"closed,omitempty"`
}

// Policy generates the reply for one tier.
type Policy interface {
	Name() string
	Respond(ctx context.Context, in Input) (Output, error)
}

// applyRigidity tightens generation parameters as rigidity rises. The
// temperature floor is 0.1 and the token floor is 100.
func applyRigidity(rigid float64, baseTemp float32, baseTokens int32) (float32, int32) {
	temp := baseTemp - float32(0.8*rigid)
	if temp < 0.1 {
		temp = 0.1
	}
	tokens := baseTokens - int32(300*rigid)
	if tokens < 100 {
		tokens = 100
	}
	return temp, tokens
}
