package safety

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/havenmind/havenmind-ai-platform/internal/policy"
)

type stubFilter struct {
	out string
	err error
}

func (s *stubFilter) FilterResponse(ctx context.Context, userMessage, proposed string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.out == "" {
		return proposed, nil
	}
	return s.out, nil
}

func TestGateFixedScriptImmutable(t *testing.T) {
	gate := NewGate(&stubFilter{out: "softened reply"}, nil, nil, nil)

	out := gate.Apply(context.Background(), "I want to hurt myself", policy.Output{
		Text:        policy.FixedSafetyScript,
		Policy:      "high",
		FixedScript: true,
	})

	// Byte-identical to the original, mutation discarded.
	assert.Equal(t, policy.FixedSafetyScript, out.Text)
}

func TestGateFilterAppliesOnFlexibleTiers(t *testing.T) {
	gate := NewGate(&stubFilter{out: "rewritten reply"}, nil, nil, nil)

	out := gate.Apply(context.Background(), "hello", policy.Output{
		Text:   "original reply",
		Policy: "low",
	})
	assert.Equal(t, "rewritten reply", out.Text)
}

func TestGateFailsOpenOnFilterError(t *testing.T) {
	gate := NewGate(&stubFilter{err: errors.New("moderation down")}, nil, nil, nil)

	out := gate.Apply(context.Background(), "hello", policy.Output{
		Text:   "original reply",
		Policy: "low",
	})
	assert.Equal(t, "original reply", out.Text)
}

func TestGateNoFilterPassthrough(t *testing.T) {
	gate := NewGate(nil, nil, nil, nil)

	out := gate.Apply(context.Background(), "hello", policy.Output{Text: "reply", Policy: "medium"})
	assert.Equal(t, "reply", out.Text)
}

func TestValidateResponse(t *testing.T) {
	v := NewValidator()

	t.Run("clean low tier reply", func(t *testing.T) {
		result := v.ValidateResponse("I'm here for you. Try a short walk today.", "low")
		assert.True(t, result.Valid)
	})

	t.Run("prohibited content flagged", func(t *testing.T) {
		result := v.ValidateResponse("here is how to hurt yourself", "low")
		assert.False(t, result.Valid)
		assert.NotEmpty(t, result.Issues)
	})

	t.Run("high tier requires crisis elements", func(t *testing.T) {
		result := v.ValidateResponse("just hang in there", "high")
		assert.False(t, result.Valid)
		assert.Contains(t, result.MissingElements, "988")
	})

	t.Run("fixed script passes high tier validation", func(t *testing.T) {
		result := v.ValidateResponse(policy.FixedSafetyScript, "high")
		assert.True(t, result.Valid, "issues=%v", result.Issues)
	})
}

func TestCheckUserMessage(t *testing.T) {
	v := NewValidator()

	crisis, keywords := v.CheckUserMessage("I want to die, nothing helps")
	assert.True(t, crisis)
	assert.Contains(t, keywords, "want to die")

	crisis, keywords = v.CheckUserMessage("my homework is due tomorrow")
	assert.False(t, crisis)
	assert.Empty(t, keywords)
}
