package perception

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/havenmind/havenmind-ai-platform/internal/llm"
)

type stubLLM struct {
	resp llm.Response
	err  error
	last llm.Request
}

func (s *stubLLM) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	s.last = req
	return s.resp, s.err
}

func TestLLMClassifierParsesVerdict(t *testing.T) {
	stub := &stubLLM{resp: llm.Response{Text: `{"risk_score": 0.82, "labels": ["hopelessness"]}`}}
	c := NewLLMClassifier(stub, "claude-test")

	sig, err := c.Classify(context.Background(), "everything feels pointless")
	require.NoError(t, err)
	assert.InDelta(t, 0.82, sig.RiskScore, 1e-9)
	assert.Equal(t, []string{"hopelessness"}, sig.Labels)
	assert.Equal(t, "claude-test", stub.last.Model)
}

func TestLLMClassifierExtractsWrappedJSON(t *testing.T) {
	stub := &stubLLM{resp: llm.Response{Text: "Here is my assessment:\n{\"risk_score\": 0.3, \"labels\": []}\nHope that helps."}}
	c := NewLLMClassifier(stub, "")

	sig, err := c.Classify(context.Background(), "rough week")
	require.NoError(t, err)
	assert.InDelta(t, 0.3, sig.RiskScore, 1e-9)
}

func TestLLMClassifierClampsScore(t *testing.T) {
	stub := &stubLLM{resp: llm.Response{Text: `{"risk_score": 1.4}`}}
	c := NewLLMClassifier(stub, "")

	sig, err := c.Classify(context.Background(), "message")
	require.NoError(t, err)
	assert.Equal(t, 1.0, sig.RiskScore)
}

func TestLLMClassifierErrors(t *testing.T) {
	t.Run("transport failure", func(t *testing.T) {
		c := NewLLMClassifier(&stubLLM{err: errors.New("timeout")}, "")
		_, err := c.Classify(context.Background(), "message")
		assert.Error(t, err)
	})

	t.Run("unparseable verdict", func(t *testing.T) {
		c := NewLLMClassifier(&stubLLM{resp: llm.Response{Text: "I cannot answer that"}}, "")
		_, err := c.Classify(context.Background(), "message")
		assert.Error(t, err)
	})

	t.Run("empty message scores zero without a call", func(t *testing.T) {
		stub := &stubLLM{err: errors.New("should not be called")}
		c := NewLLMClassifier(stub, "")
		sig, err := c.Classify(context.Background(), "   ")
		require.NoError(t, err)
		assert.Zero(t, sig.RiskScore)
	})
}
