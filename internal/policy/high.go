package policy

import (
	"context"

	"github.com/havenmind/havenmind-ai-platform/pkg/logging"
)

// SafetyBanner accompanies every high tier reply.
const SafetyBanner = "If you are in immediate danger, call or text 988 (US). If outside the US, contact local emergency services."

// FixedSafetyScript is the only text the high tier ever emits. It must reach
// the user byte for byte.
const FixedSafetyScript = `I'm here to support you, and I want to make sure you're safe.

Right now, the most important thing is your safety. If you're having thoughts of hurting yourself or ending your life, please reach out for immediate help:

• Call or text 988 (US National Suicide & Crisis Lifeline) - available 24/7
• If outside the US, contact your local emergency services
• Reach out to a trusted adult, friend, or healthcare provider

You don't have to go through this alone. There are people who want to help and support you.

Would you like help finding resources in your area, or would you prefer to speak with someone right now?`

// HighTierScript is the high tier policy. It returns the fixed safety script
// for every message and never calls an LLM.
type HighTierScript struct {
	logger *logging.Logger
}

// NewHighTierScript builds the high tier policy.
func NewHighTierScript(logger *logging.Logger) *HighTierScript {
	if logger == nil {
		logger = logging.Default()
	}
	return &HighTierScript{logger: logger.Component("policy_high")}
}

func (p *HighTierScript) Name() string { return "high" }

// Respond returns the fixed script regardless of message content.
func (p *HighTierScript) Respond(ctx context.Context, in Input) (Output, error) {
	p.logger.Warn("high tier fixed script served", "user_id", in.UserID)

	return Output{
		Text:         FixedSafetyScript,
		Policy:       p.Name(),
		Temperature:  0,
		MaxTokens:    0,
		SafetyBanner: SafetyBanner,
		FixedScript:  true,
		Structured:   true,
	}, nil
}
