// Package conversation orchestrates the full message pipeline: perception,
// routing, tier policies, the safety gate, session history and auditing.
package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/havenmind/havenmind-ai-platform/internal/assessment"
	"github.com/havenmind/havenmind-ai-platform/internal/audit"
	"github.com/havenmind/havenmind-ai-platform/internal/llm"
	"github.com/havenmind/havenmind-ai-platform/internal/observability/metrics"
	"github.com/havenmind/havenmind-ai-platform/internal/perception"
	"github.com/havenmind/havenmind-ai-platform/internal/policy"
	"github.com/havenmind/havenmind-ai-platform/internal/risk"
	"github.com/havenmind/havenmind-ai-platform/internal/safety"
	"github.com/havenmind/havenmind-ai-platform/internal/session"
	"github.com/havenmind/havenmind-ai-platform/pkg/logging"
)

// DefaultIntakeScale is offered to users with no assessment on file.
const DefaultIntakeScale = assessment.ScaleGAD7

// Reply is the engine's answer to one user message.
type Reply struct {
	Text         string      `json:"text"`
	Tier         risk.Tier   `json:"tier"`
	Reason       risk.Reason `json:"reason"`
	Rigidity     float64     `json:"rigidity"`
	SafetyBanner string      `json:"safety_banner,omitempty"`
	FixedScript  bool        `json:"fixed_script"`
	Phase        string      `json:"phase,omitempty"`
	Closed       bool        `json:"closed,omitempty"`

	// IntakeRequested asks the client to offer the IntakeScale questionnaire.
	IntakeRequested bool               `json:"intake_requested,omitempty"`
	IntakeScale     assessment.ScaleID `json:"intake_scale,omitempty"`
}

// AssessmentOutcome is the result of scoring and routing one questionnaire
// submission.
type AssessmentOutcome struct {
	Result   assessment.Result `json:"result"`
	Decision risk.Decision     `json:"decision"`
}

// Deps carries the engine's collaborators. Decider, Updater, Sessions, Repo
// and the three policies are required.
type Deps struct {
	Decider    *risk.RouteDecider
	Updater    *risk.RouteUpdater
	Mapper     *risk.QuestionnaireMapper
	Perception *perception.Service
	Trigger    *perception.QuestionnaireTrigger
	Sessions   session.Store
	Repo       audit.Repository
	Gate       *safety.Gate

	LowPolicy    policy.Policy
	MediumPolicy *policy.MediumTierPersuasion
	HighPolicy   policy.Policy

	Metrics    *metrics.RoutingMetrics
	Logger     *logging.Logger
	LLMTimeout time.Duration
}

// Engine runs the conversation pipeline. Messages from the same user are
// strictly serialized; different users proceed in parallel.
type Engine struct {
	deps Deps

	mu       sync.Mutex
	userLock map[string]*sync.Mutex
	contexts map[string]*risk.ControlContext
	turns    map[string]int
}

// NewEngine builds an engine, panicking on missing required dependencies.
func NewEngine(deps Deps) *Engine {
	if deps.Decider == nil {
		panic("conversation: engine requires a route decider")
	}
	if deps.Updater == nil {
		panic("conversation: engine requires a route updater")
	}
	if deps.Sessions == nil {
		panic("conversation: engine requires a session store")
	}
	if deps.Repo == nil {
		panic("conversation: engine requires an audit repository")
	}
	if deps.LowPolicy == nil || deps.MediumPolicy == nil || deps.HighPolicy == nil {
		panic("conversation: engine requires all three tier policies")
	}
	if deps.Mapper == nil {
		deps.Mapper = risk.NewQuestionnaireMapper()
	}
	if deps.Gate == nil {
		deps.Gate = safety.NewGate(nil, nil, deps.Metrics, deps.Logger)
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	deps.Logger = deps.Logger.Component("engine")
	if deps.LLMTimeout <= 0 {
		deps.LLMTimeout = 30 * time.Second
	}
	return &Engine{
		deps:     deps,
		userLock: make(map[string]*sync.Mutex),
		contexts: make(map[string]*risk.ControlContext),
		turns:    make(map[string]int),
	}
}

// lockUser serializes processing per user.
func (e *Engine) lockUser(userID string) func() {
	e.mu.Lock()
	lock, ok := e.userLock[userID]
	if !ok {
		lock = &sync.Mutex{}
		e.userLock[userID] = lock
	}
	e.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// The context and turn maps are shared across users, so access goes through
// e.mu even while a per-user lock is held.

func (e *Engine) getState(userID string) (*risk.ControlContext, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	state, ok := e.contexts[userID]
	return state, ok
}

func (e *Engine) setState(userID string, state *risk.ControlContext) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.contexts[userID] = state
}

func (e *Engine) bumpTurns(userID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.turns[userID]++
	return e.turns[userID]
}

func (e *Engine) resetTurns(userID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.turns, userID)
}

// SubmitAssessment scores a questionnaire and routes the user. The decision
// is monotonic: an existing tier is only ever raised, never lowered.
func (e *Engine) SubmitAssessment(ctx context.Context, userID string, scaleID assessment.ScaleID, answers []string) (AssessmentOutcome, error) {
	if strings.TrimSpace(userID) == "" {
		return AssessmentOutcome{}, fmt.Errorf("conversation: user id is required")
	}
	unlock := e.lockUser(userID)
	defer unlock()

	res, err := assessment.Score(scaleID, answers)
	if err != nil {
		return AssessmentOutcome{}, err
	}

	decision := e.deps.Decider.Decide(res)

	// The questionnaire banding is a secondary signal that may only raise
	// the tier of the scored decision.
	if signal := e.deps.Mapper.MapResult(res); signal.Rank() > decision.Tier.Rank() && decision.Reason != risk.ReasonHardLock {
		decision.Tier = signal
		switch signal {
		case risk.TierHigh:
			decision.Reason = risk.ReasonHighRisk
			decision.Rigidity = 1.0
		default:
			decision.Reason = risk.ReasonMediumRisk
		}
	}

	state, ok := e.getState(userID)
	if !ok {
		e.setState(userID, risk.NewControlContext(userID, decision))
	} else {
		state.Apply(decision.Tier, decision.Reason)
		decision.Tier = state.Tier
		decision.Reason = state.Reason
		if state.Rigidity > decision.Rigidity {
			decision.Rigidity = state.Rigidity
		} else {
			state.Rigidity = decision.Rigidity
		}
	}

	e.deps.Metrics.ObserveDecision(string(decision.Tier), string(decision.Reason))
	e.saveAudit(ctx, userID, res, decision)

	return AssessmentOutcome{Result: res, Decision: decision}, nil
}

// HandleMessage processes one chat turn through the full pipeline.
func (e *Engine) HandleMessage(ctx context.Context, userID, message string) (Reply, error) {
	if strings.TrimSpace(userID) == "" {
		return Reply{}, fmt.Errorf("conversation: user id is required")
	}
	if strings.TrimSpace(message) == "" {
		return Reply{}, fmt.Errorf("conversation: message is required")
	}
	unlock := e.lockUser(userID)
	defer unlock()

	hasPrior, err := e.deps.Repo.HasPriorRecord(ctx, userID)
	if err != nil {
		e.deps.Logger.Warn("prior record lookup failed, assuming first contact", "user_id", userID, "error", err)
		hasPrior = false
	}

	state, ok := e.getState(userID)
	if !ok {
		// No assessment yet. Start on the low tier until perception or a
		// questionnaire says otherwise.
		state = risk.NewControlContext(userID, risk.Decision{
			Tier:     risk.TierLow,
			Rigidity: 0.15,
			Reason:   risk.ReasonLowRisk,
		})
		e.setState(userID, state)
	}

	turnCount := e.bumpTurns(userID)

	var verdict perception.Verdict
	if e.deps.Perception != nil {
		verdict = e.deps.Perception.Evaluate(ctx, message)
		if verdict.Degraded {
			e.deps.Metrics.ObserveClassifierDegraded()
		}
		state.LastScore = verdict.RiskScore
	}

	escalated := false
	if next, reason, moved := e.deps.Updater.NextTier(state.Tier, verdict.RiskScore); moved {
		from := state.Tier
		state.Apply(next, reason)
		e.deps.Metrics.ObserveEscalation(string(from), string(next))
		e.deps.Metrics.ObserveDecision(string(next), string(reason))
		if next == risk.TierHigh {
			e.deps.MediumPolicy.Reset(userID)
		}
		escalated = true
	}

	history, err := e.deps.Sessions.History(ctx, userID)
	if err != nil {
		e.deps.Logger.Warn("session load failed, continuing without history", "user_id", userID, "error", err)
		history = nil
	}
	messages := make([]llm.ChatMessage, 0, len(history))
	for _, turn := range history {
		messages = append(messages, turn.Message())
	}

	pol := e.policyFor(state.Tier)

	policyCtx, cancel := context.WithTimeout(ctx, e.deps.LLMTimeout)
	start := time.Now()
	out, err := pol.Respond(policyCtx, policy.Input{
		UserID:   userID,
		Message:  message,
		Rigidity: state.Rigidity,
		History:  messages,
	})
	cancel()
	e.deps.Metrics.ObservePolicyLatency(pol.Name(), time.Since(start).Seconds())
	if err != nil {
		return Reply{}, fmt.Errorf("conversation: policy %s failed: %w", pol.Name(), err)
	}

	out = e.deps.Gate.Apply(ctx, message, out)

	if escalated {
		e.saveEscalationAudit(ctx, userID, verdict, state, out.Text)
	}

	now := time.Now().UTC()
	if err := e.deps.Sessions.Append(ctx, userID, session.Turn{Role: llm.ChatRoleUser, Content: message, At: now}); err != nil {
		e.deps.Logger.Warn("session append failed", "user_id", userID, "error", err)
	}
	if err := e.deps.Sessions.Append(ctx, userID, session.Turn{Role: llm.ChatRoleAssistant, Content: out.Text, At: now}); err != nil {
		e.deps.Logger.Warn("session append failed", "user_id", userID, "error", err)
	}

	reply := Reply{
		Text:         out.Text,
		Tier:         state.Tier,
		Reason:       state.Reason,
		Rigidity:     state.Rigidity,
		SafetyBanner: out.SafetyBanner,
		FixedScript:  out.FixedScript,
		Phase:        out.Phase,
		Closed:       out.Closed,
	}

	if e.deps.Trigger != nil && state.Tier != risk.TierHigh {
		if e.deps.Trigger.ShouldTrigger(verdict, turnCount, hasPrior) {
			reply.IntakeRequested = true
			reply.IntakeScale = DefaultIntakeScale
		}
	}

	if out.Closed {
		e.endConversation(ctx, userID)
	}

	return reply, nil
}

// State returns the user's current routing state, if any.
func (e *Engine) State(userID string) (risk.ControlContext, bool) {
	unlock := e.lockUser(userID)
	defer unlock()
	state, ok := e.getState(userID)
	if !ok {
		return risk.ControlContext{}, false
	}
	return *state, true
}

// History returns the user's audit trail newest first.
func (e *Engine) History(ctx context.Context, userID string, filter audit.Filter) ([]audit.Record, error) {
	return e.deps.Repo.History(ctx, userID, filter)
}

func (e *Engine) policyFor(tier risk.Tier) policy.Policy {
	switch tier {
	case risk.TierHigh:
		return e.deps.HighPolicy
	case risk.TierMedium:
		return e.deps.MediumPolicy
	default:
		return e.deps.LowPolicy
	}
}

// previewText truncates a reply for the audit trail.
func previewText(s string) string {
	const max = 120
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// endConversation clears transient per-user state after a goodbye. The audit
// trail is untouched.
func (e *Engine) endConversation(ctx context.Context, userID string) {
	if err := e.deps.Sessions.Clear(ctx, userID); err != nil {
		e.deps.Logger.Warn("session clear failed", "user_id", userID, "error", err)
	}
	e.deps.MediumPolicy.Reset(userID)
	e.resetTurns(userID)
}

// saveAudit persists an assessment record. Failures are logged and
// swallowed so auditing never blocks the conversation.
func (e *Engine) saveAudit(ctx context.Context, userID string, res assessment.Result, decision risk.Decision) {
	flags, _ := json.Marshal(res.Flags)
	rec := audit.Record{
		UserID:     userID,
		ScaleID:    string(res.ScaleID),
		TotalScore: res.TotalScore,
		Severity:   res.Severity,
		Tier:       string(decision.Tier),
		Rigidity:   decision.Rigidity,
		Reason:     string(decision.Reason),
		Flags:      flags,
	}
	if err := e.deps.Repo.Save(ctx, rec); err != nil {
		e.deps.Logger.Error("audit save failed", "user_id", userID, "error", err)
		e.deps.Metrics.ObserveAuditFailure()
	}
}

// saveEscalationAudit records a mid-conversation escalation along with a
// preview of the reply the user received.
func (e *Engine) saveEscalationAudit(ctx context.Context, userID string, verdict perception.Verdict, state *risk.ControlContext, replyText string) {
	flags, _ := json.Marshal(verdict.Signal)
	rec := audit.Record{
		UserID:   userID,
		Tier:     string(state.Tier),
		Rigidity: state.Rigidity,
		Reason:   string(state.Reason),
		Preview:  previewText(replyText),
		Flags:    flags,
	}
	if err := e.deps.Repo.Save(ctx, rec); err != nil {
		e.deps.Logger.Error("audit save failed", "user_id", userID, "error", err)
		e.deps.Metrics.ObserveAuditFailure()
	}
}
