package policy

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respond(t *testing.T, p *MediumTierPersuasion, userID, message string) Output {
	t.Helper()
	out, err := p.Respond(context.Background(), Input{UserID: userID, Message: message, Rigidity: 0.6})
	require.NoError(t, err)
	return out
}

func TestDetectResistance(t *testing.T) {
	tests := []struct {
		message string
		want    ResistanceCategory
		found   bool
	}{
		{"I'm worried about my privacy", ResistancePrivacy, true},
		{"I'm too busy for that", ResistanceTime, true},
		{"people will judge me", ResistanceStigma, true},
		{"I don't think it will help", ResistanceDoubt, true},
		{"tell me more about it", "", false},
	}
	for _, tt := range tests {
		category, found := detectResistance(tt.message)
		assert.Equal(t, tt.found, found, "message=%q", tt.message)
		assert.Equal(t, tt.want, category, "message=%q", tt.message)
	}
}

func TestMediumImmediateAcceptance(t *testing.T) {
	p := NewMediumTierPersuasion(&stubLLM{resp: llmText("welcome aboard")}, "", 5, nil)

	out := respond(t, p, "user-1", "sure, sounds good")

	assert.Equal(t, string(PhaseAccepted), out.Phase)
	assert.True(t, out.PeerGroupAccepted)
	assert.True(t, out.Structured)
}

func TestMediumResistanceThenAcceptance(t *testing.T) {
	p := NewMediumTierPersuasion(&stubLLM{resp: llmText("I hear you")}, "", 5, nil)

	out := respond(t, p, "user-1", "I'm embarrassed, people will judge me")
	assert.Equal(t, string(PhaseHandlingResistance), out.Phase)
	assert.Equal(t, string(ResistanceStigma), out.ResistanceCategory)

	out = respond(t, p, "user-1", "okay, I'll join")
	assert.Equal(t, string(PhaseAccepted), out.Phase)
	assert.True(t, out.PeerGroupAccepted)
}

func TestMediumPersuasionBound(t *testing.T) {
	p := NewMediumTierPersuasion(&stubLLM{resp: llmText("here are some options")}, "", 2, nil)

	// First resistance enters handling_resistance with one turn spent.
	out := respond(t, p, "user-1", "no, that's private stuff")
	assert.Equal(t, string(PhaseHandlingResistance), out.Phase)

	// One more resisting turn stays within the budget.
	out = respond(t, p, "user-1", "still not comfortable, privacy matters to me")
	assert.Equal(t, string(PhaseHandlingResistance), out.Phase)

	// The budget is spent; the machine gives up and shifts to resources.
	out = respond(t, p, "user-1", "privacy again, stop asking")
	assert.Equal(t, string(PhaseRejected), out.Phase)

	out = respond(t, p, "user-1", "fine whatever")
	assert.Equal(t, string(PhaseProvidingResources), out.Phase)

	// The machine never loops back to persuasion.
	for i := 0; i < 3; i++ {
		out = respond(t, p, "user-1", fmt.Sprintf("message %d", i))
		assert.Equal(t, string(PhaseProvidingResources), out.Phase)
	}
}

func TestMediumResistanceCategoryUpdates(t *testing.T) {
	p := NewMediumTierPersuasion(&stubLLM{resp: llmText("understood")}, "", 5, nil)

	out := respond(t, p, "user-1", "I'm worried about privacy")
	assert.Equal(t, string(ResistancePrivacy), out.ResistanceCategory)

	out = respond(t, p, "user-1", "also I'm way too busy")
	assert.Equal(t, string(ResistanceTime), out.ResistanceCategory)
}

func TestMediumUserIsolationAndReset(t *testing.T) {
	p := NewMediumTierPersuasion(&stubLLM{resp: llmText("ok")}, "", 5, nil)

	respond(t, p, "user-a", "my privacy matters")
	assert.Equal(t, PhaseHandlingResistance, p.Phase("user-a"))
	assert.Equal(t, PhaseInitialSuggestion, p.Phase("user-b"))

	p.Reset("user-a")
	assert.Equal(t, PhaseInitialSuggestion, p.Phase("user-a"))
}

func TestMediumFallbackOnLLMFailure(t *testing.T) {
	p := NewMediumTierPersuasion(&stubLLM{err: errors.New("down")}, "", 5, nil)

	out := respond(t, p, "user-1", "I feel anxious")
	assert.Equal(t, FallbackMedium, out.Text)
	assert.True(t, out.Fallback)
	// The machine still advanced despite the generation failure.
	assert.Equal(t, string(PhaseDetectingResistance), out.Phase)
}
