package policy

import (
	"context"
	"strings"
	"sync"

	"github.com/havenmind/havenmind-ai-platform/internal/llm"
	"github.com/havenmind/havenmind-ai-platform/pkg/logging"
)

// Phase is a state of the medium tier persuasion machine.
type Phase string

const (
	PhaseInitialSuggestion   Phase = "initial_suggestion"
	PhaseDetectingResistance Phase = "detecting_resistance"
	PhaseHandlingResistance  Phase = "handling_resistance"
	PhaseAccepted            Phase = "accepted"
	PhaseRejected            Phase = "rejected"
	PhaseProvidingResources  Phase = "providing_resources"
)

// ResistanceCategory classifies why a user is pushing back on the peer group
// suggestion.
type ResistanceCategory string

const (
	ResistancePrivacy ResistanceCategory = "privacy"
	ResistanceTime    ResistanceCategory = "time"
	ResistanceStigma  ResistanceCategory = "stigma"
	ResistanceDoubt   ResistanceCategory = "doubt"
)

var resistanceKeywords = map[ResistanceCategory][]string{
	ResistancePrivacy: {"privacy", "private", "anonymous", "personal", "confidential"},
	ResistanceTime:    {"time", "busy", "schedule", "don't have time", "no time"},
	ResistanceStigma:  {"stigma", "embarrassed", "ashamed", "judge", "judgment"},
	ResistanceDoubt:   {"doubt", "not sure", "don't think", "won't help", "doesn't work"},
}

var acceptanceKeywords = []string{
	"yes", "okay", "ok", "sure", "i'll join", "sounds good",
	"i'd like to", "i want to", "let's do it",
}

const mediumSystemPrompt = `You are a professional mental health assistant for teens.

Your role in medium-risk conversations:
1. Acknowledge the teen's anxiety and concerns with empathy
2. Suggest joining a peer support group (always mention: "*the peer group has a moderator for safety*")
3. Handle resistance with understanding, not pressure
4. Confirm join and provide next steps

Guidelines:
- Be supportive but structured
- Address specific concerns (privacy, time, stigma, doubt)
- Always emphasize peer group safety (moderator present)
- Maintain professional boundaries

Keep responses balanced, professional, and supportive.`

const persuasionPrompt = `The user has expressed resistance to joining a peer support group.

Your task:
1. Acknowledge the user's specific concern
2. Provide a targeted, empathetic response addressing that concern
3. Reassure them about the peer group's safety and benefits

Be understanding but not pushy.`

const acceptancePrompt = `The user has accepted joining the peer support group. Confirm this warmly and provide clear next steps.`

const resourcesPrompt = `The user has declined joining the peer support group after several attempts. Respect their decision and offer self-help resources and other support options instead.`

// persuasionState is the per-user state of the machine.
type persuasionState struct {
	phase           Phase
	resistanceCount int
	category        ResistanceCategory
}

// MediumTierPersuasion is the medium tier policy: a bounded persuasion state
// machine steering users toward a moderated peer support group.
type MediumTierPersuasion struct {
	client   llm.Client
	model    string
	maxTurns int
	logger   *logging.Logger

	mu     sync.Mutex
	states map[string]*persuasionState
}

// NewMediumTierPersuasion builds the medium tier policy. It panics on a nil
// client.
func NewMediumTierPersuasion(client llm.Client, model string, maxTurns int, logger *logging.Logger) *MediumTierPersuasion {
	if client == nil {
		panic("policy: medium tier requires an llm client")
	}
	if maxTurns <= 0 {
		maxTurns = 5
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &MediumTierPersuasion{
		client:   client,
		model:    model,
		maxTurns: maxTurns,
		logger:   logger.Component("policy_medium"),
		states:   make(map[string]*persuasionState),
	}
}

func (p *MediumTierPersuasion) Name() string { return "medium" }

// Phase returns the user's current machine phase.
func (p *MediumTierPersuasion) Phase(userID string) Phase {
	p.mu.Lock()
	defer p.mu.Unlock()
	if st, ok := p.states[userID]; ok {
		return st.phase
	}
	return PhaseInitialSuggestion
}

// Reset drops the user's machine state, e.g. when a conversation ends or the
// tier changes.
func (p *MediumTierPersuasion) Reset(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.states, userID)
}

func (p *MediumTierPersuasion) state(userID string) *persuasionState {
	p.mu.Lock()
	defer p.mu.Unlock()
	st, ok := p.states[userID]
	if !ok {
		st = &persuasionState{phase: PhaseInitialSuggestion}
		p.states[userID] = st
	}
	return st
}

func detectResistance(message string) (ResistanceCategory, bool) {
	lower := strings.ToLower(message)
	for category, keywords := range resistanceKeywords {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return category, true
			}
		}
	}
	return "", false
}

func isAcceptance(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range acceptanceKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Respond advances the state machine one turn and generates the reply for
// the phase it lands on. Transitions:
//
//	initial_suggestion  + resistance          -> handling_resistance
//	initial_suggestion  + acceptance          -> accepted
//	initial_suggestion  + neither             -> detecting_resistance
//	detecting_resistance + resistance         -> handling_resistance
//	detecting_resistance + acceptance         -> accepted
//	handling_resistance + acceptance          -> accepted
//	handling_resistance + turn budget spent   -> rejected, then providing_resources
//	accepted / rejected                       -> terminal, providing_resources follows rejected
func (p *MediumTierPersuasion) Respond(ctx context.Context, in Input) (Output, error) {
	st := p.state(in.UserID)
	temp, maxTokens := applyRigidity(in.Rigidity, TemperatureMedium, baseMaxTokens)

	systemPrompt := mediumSystemPrompt

	switch st.phase {
	case PhaseInitialSuggestion:
		if category, found := detectResistance(in.Message); found {
			st.phase = PhaseHandlingResistance
			st.category = category
			st.resistanceCount = 1
			systemPrompt = persuasionPrompt
		} else if isAcceptance(in.Message) {
			st.phase = PhaseAccepted
			systemPrompt = acceptancePrompt
		} else {
			st.phase = PhaseDetectingResistance
		}

	case PhaseDetectingResistance:
		if category, found := detectResistance(in.Message); found {
			st.phase = PhaseHandlingResistance
			st.category = category
			st.resistanceCount = 1
			systemPrompt = persuasionPrompt
		} else if isAcceptance(in.Message) {
			st.phase = PhaseAccepted
			systemPrompt = acceptancePrompt
		}

	case PhaseHandlingResistance:
		if isAcceptance(in.Message) {
			st.phase = PhaseAccepted
			systemPrompt = acceptancePrompt
			break
		}
		st.resistanceCount++
		if st.resistanceCount > p.maxTurns {
			st.phase = PhaseRejected
			systemPrompt = resourcesPrompt
			break
		}
		if category, found := detectResistance(in.Message); found && category != st.category {
			st.category = category
		}
		systemPrompt = persuasionPrompt

	case PhaseAccepted:
		systemPrompt = acceptancePrompt

	case PhaseRejected, PhaseProvidingResources:
		st.phase = PhaseProvidingResources
		systemPrompt = resourcesPrompt
	}

	out := Output{
		Policy:             p.Name(),
		Temperature:        temp,
		MaxTokens:          maxTokens,
		Structured:         true,
		Phase:              string(st.phase),
		ResistanceCategory: string(st.category),
		PeerGroupAccepted:  st.phase == PhaseAccepted,
	}

	system := []string{systemPrompt}
	if st.phase == PhaseHandlingResistance && st.category != "" {
		system = append(system, "The user's concern is about: "+string(st.category)+". Address this specifically.")
	}

	messages := append([]llm.ChatMessage{}, in.History...)
	messages = append(messages, llm.ChatMessage{Role: llm.ChatRoleUser, Content: in.Message})

	resp, err := p.client.Complete(ctx, llm.Request{
		Model:       p.model,
		System:      system,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temp,
		TopP:        0.9,
	})
	if err != nil {
		p.logger.Warn("medium tier generation failed, using fallback",
			"user_id", in.UserID,
			"phase", st.phase,
			"error", err,
		)
		out.Text = FallbackMedium
		out.Fallback = true
		return out, nil
	}

	p.logger.Info("medium tier turn",
		"user_id", in.UserID,
		"phase", st.phase,
		"resistance_count", st.resistanceCount,
		"resistance_category", st.category,
	)

	out.Text = resp.Text
	return out, nil
}
