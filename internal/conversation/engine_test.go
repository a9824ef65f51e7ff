package conversation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenmind/havenmind-ai-platform/internal/assessment"
	"github.com/havenmind/havenmind-ai-platform/internal/audit"
	"github.com/havenmind/havenmind-ai-platform/internal/llm"
	"github.com/havenmind/havenmind-ai-platform/internal/perception"
	"github.com/havenmind/havenmind-ai-platform/internal/policy"
	"github.com/havenmind/havenmind-ai-platform/internal/risk"
	"github.com/havenmind/havenmind-ai-platform/internal/session"
)

type scriptedClassifier struct {
	mu     sync.Mutex
	scores []float64
	err    error
}

func (c *scriptedClassifier) Classify(ctx context.Context, message string) (perception.Signal, error) {
	if c.err != nil {
		return perception.Signal{}, c.err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.scores) == 0 {
		return perception.Signal{}, nil
	}
	score := c.scores[0]
	c.scores = c.scores[1:]
	return perception.Signal{RiskScore: score}, nil
}

type staticLLM struct {
	text string
}

func (s *staticLLM) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	return llm.Response{Text: s.text}, nil
}

type failingRepo struct {
	*audit.MemoryRepository
	failSave bool
}

func (r *failingRepo) Save(ctx context.Context, rec audit.Record) error {
	if r.failSave {
		return assert.AnError
	}
	return r.MemoryRepository.Save(ctx, rec)
}

func newTestEngine(t *testing.T, classifier perception.Classifier, repo audit.Repository) *Engine {
	t.Helper()

	if repo == nil {
		repo = audit.NewMemoryRepository()
	}

	scorer := risk.NewRigidityScorer(risk.DefaultMappingConfig())
	client := &staticLLM{text: "generated reply"}

	deps := Deps{
		Decider:      risk.NewRouteDecider(scorer, 0.40, 0.75, nil),
		Updater:      risk.NewRouteUpdater(0.70, 0.95, nil),
		Mapper:       risk.NewQuestionnaireMapper(),
		Trigger:      perception.NewQuestionnaireTrigger(5),
		Sessions:     session.NewMemoryStore(6),
		Repo:         repo,
		LowPolicy:    policy.NewLowTierChat(client, "", nil),
		MediumPolicy: policy.NewMediumTierPersuasion(client, "", 5, nil),
		HighPolicy:   policy.NewHighTierScript(nil),
		LLMTimeout:   time.Second,
	}
	if classifier != nil {
		deps.Perception = perception.NewService(classifier, 0.80, 0.95, time.Second, nil)
	}
	return NewEngine(deps)
}

func moderateGAD7() []string {
	return []string{"2", "2", "2", "2", "2", "0", "0"}
}

func TestSubmitAssessmentRoutesModerateToMedium(t *testing.T) {
	repo := audit.NewMemoryRepository()
	e := newTestEngine(t, nil, repo)
	ctx := context.Background()

	out, err := e.SubmitAssessment(ctx, "user-1", assessment.ScaleGAD7, moderateGAD7())
	require.NoError(t, err)

	assert.Equal(t, risk.TierMedium, out.Decision.Tier)
	assert.Equal(t, risk.ReasonMediumRisk, out.Decision.Reason)
	assert.InDelta(t, 0.60, out.Decision.Rigidity, 1e-9)
	assert.Equal(t, "moderate", out.Result.Severity)

	// The assessment was audited.
	records, err := repo.History(ctx, "user-1", audit.Filter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "medium", records[0].Tier)
	assert.Equal(t, "gad7", records[0].ScaleID)
}

func TestSubmitAssessmentHardLock(t *testing.T) {
	e := newTestEngine(t, nil, nil)

	// Mild answers but a positive suicidal ideation item.
	answers := []string{"1", "1", "1", "1", "0", "0", "0", "0", "2"}
	out, err := e.SubmitAssessment(context.Background(), "user-1", assessment.ScalePHQ9, answers)
	require.NoError(t, err)

	assert.Equal(t, risk.Decision{Tier: risk.TierHigh, Rigidity: 1.0, Reason: risk.ReasonHardLock}, out.Decision)
}

func TestSubmitAssessmentNeverLowersTier(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	ctx := context.Background()

	_, err := e.SubmitAssessment(ctx, "user-1", assessment.ScalePHQ9,
		[]string{"1", "1", "1", "1", "0", "0", "0", "0", "2"})
	require.NoError(t, err)

	// A later minimal assessment must not pull the user off the high tier.
	out, err := e.SubmitAssessment(ctx, "user-1", assessment.ScaleGAD7,
		[]string{"0", "0", "0", "0", "0", "0", "0"})
	require.NoError(t, err)

	assert.Equal(t, risk.TierHigh, out.Decision.Tier)

	state, ok := e.State("user-1")
	require.True(t, ok)
	assert.Equal(t, risk.TierHigh, state.Tier)
	assert.Equal(t, 1.0, state.Rigidity)
}

func TestHandleMessageEscalatesDirectToHigh(t *testing.T) {
	repo := audit.NewMemoryRepository()
	e := newTestEngine(t, &scriptedClassifier{scores: []float64{0.96, 0.0}}, repo)
	ctx := context.Background()

	_, err := e.SubmitAssessment(ctx, "user-1", assessment.ScaleGAD7, moderateGAD7())
	require.NoError(t, err)

	reply, err := e.HandleMessage(ctx, "user-1", "I can't do this anymore")
	require.NoError(t, err)

	assert.Equal(t, risk.TierHigh, reply.Tier)
	assert.Equal(t, risk.ReasonDirectHighRisk, reply.Reason)
	assert.Equal(t, policy.FixedSafetyScript, reply.Text)
	assert.Equal(t, policy.SafetyBanner, reply.SafetyBanner)
	assert.True(t, reply.FixedScript)
	assert.Equal(t, 1.0, reply.Rigidity)

	// The escalation was audited with a preview of the reply served.
	records, err := repo.History(ctx, "user-1", audit.Filter{Tier: "high"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.NotEmpty(t, records[0].Preview)

	// High is terminal even when later scores are calm.
	reply, err = e.HandleMessage(ctx, "user-1", "actually I'm fine")
	require.NoError(t, err)
	assert.Equal(t, risk.TierHigh, reply.Tier)
	assert.Equal(t, policy.FixedSafetyScript, reply.Text)
}

func TestHandleMessageEscalatesLowToMedium(t *testing.T) {
	e := newTestEngine(t, &scriptedClassifier{scores: []float64{0.72}}, nil)
	ctx := context.Background()

	_, err := e.SubmitAssessment(ctx, "user-1", assessment.ScaleGAD7,
		[]string{"1", "1", "1", "0", "0", "0", "0"})
	require.NoError(t, err)

	state, ok := e.State("user-1")
	require.True(t, ok)
	require.Equal(t, risk.TierLow, state.Tier)

	reply, err := e.HandleMessage(ctx, "user-1", "it's getting worse")
	require.NoError(t, err)

	assert.Equal(t, risk.TierMedium, reply.Tier)
	assert.Equal(t, risk.ReasonEscalationClassifier, reply.Reason)
	assert.False(t, reply.FixedScript)
}

func TestHandleMessageDegradedClassifierKeepsTier(t *testing.T) {
	e := newTestEngine(t, &scriptedClassifier{err: assert.AnError}, nil)
	ctx := context.Background()

	_, err := e.SubmitAssessment(ctx, "user-1", assessment.ScaleGAD7, moderateGAD7())
	require.NoError(t, err)

	reply, err := e.HandleMessage(ctx, "user-1", "hello")
	require.NoError(t, err)
	assert.Equal(t, risk.TierMedium, reply.Tier)
}

func TestHandleMessageFirstContactIntake(t *testing.T) {
	e := newTestEngine(t, &scriptedClassifier{}, nil)
	ctx := context.Background()

	// No assessment and no prior record. After enough turns the engine asks
	// for the default intake questionnaire.
	var reply Reply
	var err error
	for i := 0; i < 5; i++ {
		reply, err = e.HandleMessage(ctx, "user-1", "just chatting")
		require.NoError(t, err)
	}

	assert.Equal(t, risk.TierLow, reply.Tier)
	assert.True(t, reply.IntakeRequested)
	assert.Equal(t, DefaultIntakeScale, reply.IntakeScale)
}

func TestHandleMessageAuditFailureSwallowed(t *testing.T) {
	repo := &failingRepo{MemoryRepository: audit.NewMemoryRepository(), failSave: true}
	e := newTestEngine(t, &scriptedClassifier{scores: []float64{0.96}}, repo)
	ctx := context.Background()

	reply, err := e.HandleMessage(ctx, "user-1", "I give up on everything")
	require.NoError(t, err)
	assert.Equal(t, risk.TierHigh, reply.Tier)
}

func TestHandleMessageSessionWindow(t *testing.T) {
	e := newTestEngine(t, &scriptedClassifier{}, nil)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		_, err := e.HandleMessage(ctx, "user-1", "message")
		require.NoError(t, err)
	}

	history, err := e.deps.Sessions.History(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, history, 6)
}

func TestHandleMessageValidation(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	ctx := context.Background()

	_, err := e.HandleMessage(ctx, "", "hello")
	assert.Error(t, err)

	_, err = e.HandleMessage(ctx, "user-1", "   ")
	assert.Error(t, err)

	_, err = e.SubmitAssessment(ctx, "", assessment.ScaleGAD7, moderateGAD7())
	assert.Error(t, err)
}

func TestUsersProceedIndependently(t *testing.T) {
	e := newTestEngine(t, &scriptedClassifier{scores: []float64{0.96, 0.0}}, nil)
	ctx := context.Background()

	reply, err := e.HandleMessage(ctx, "user-a", "I'm in a very dark place")
	require.NoError(t, err)
	assert.Equal(t, risk.TierHigh, reply.Tier)

	reply, err = e.HandleMessage(ctx, "user-b", "pretty normal day")
	require.NoError(t, err)
	assert.Equal(t, risk.TierLow, reply.Tier)
}
