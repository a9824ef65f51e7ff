package perception

import (
	"context"
	"time"

	"github.com/havenmind/havenmind-ai-platform/pkg/logging"
)

// Verdict is a classifier signal evaluated against the routing thresholds.
type Verdict struct {
	Signal
	// ShouldTriggerQuestionnaire asks the engine to offer a structured
	// intake questionnaire.
	ShouldTriggerQuestionnaire bool `json:"should_trigger_questionnaire"`
	// ShouldDirectHighRisk asks the engine to route straight to the high
	// tier.
	ShouldDirectHighRisk bool `json:"should_direct_high_risk"`
	// Degraded is set when classification failed and the zero score was
	// substituted.
	Degraded bool `json:"degraded,omitempty"`
}

// Service wraps a classifier with threshold evaluation, a bounded timeout
// and safe degradation. A classifier failure never blocks the conversation;
// it yields a zero-score verdict and a warning.
type Service struct {
	classifier Classifier

	questionnaireScore float64
	directHighScore    float64
	timeout            time.Duration

	logger *logging.Logger
}

// NewService builds a perception service. It panics on a nil classifier.
func NewService(classifier Classifier, questionnaireScore, directHighScore float64, timeout time.Duration, logger *logging.Logger) *Service {
	if classifier == nil {
		panic("perception: service requires a classifier")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		classifier:         classifier,
		questionnaireScore: questionnaireScore,
		directHighScore:    directHighScore,
		timeout:            timeout,
		logger:             logger.Component("perception"),
	}
}

// Evaluate classifies a message and applies the thresholds.
func (s *Service) Evaluate(ctx context.Context, message string) Verdict {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	signal, err := s.classifier.Classify(ctx, message)
	if err != nil {
		s.logger.Warn("classifier failed, degrading to zero score", "error", err)
		return Verdict{Degraded: true}
	}

	return Verdict{
		Signal:                     signal,
		ShouldTriggerQuestionnaire: signal.RiskScore >= s.questionnaireScore,
		ShouldDirectHighRisk:       signal.RiskScore >= s.directHighScore,
	}
}
