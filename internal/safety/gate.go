package safety

import (
	"context"

	"github.com/havenmind/havenmind-ai-platform/internal/observability/metrics"
	"github.com/havenmind/havenmind-ai-platform/internal/policy"
	"github.com/havenmind/havenmind-ai-platform/pkg/logging"
)

// Filter rewrites or suppresses a proposed reply. Implementations may call
// external moderation services.
type Filter interface {
	FilterResponse(ctx context.Context, userMessage, proposed string) (string, error)
}

// Gate runs the configured filter over outgoing replies while keeping the
// high tier's fixed script immutable. Any filter output that differs from a
// fixed script is discarded and the original restored.
type Gate struct {
	filter    Filter
	validator *Validator
	metrics   *metrics.RoutingMetrics
	logger    *logging.Logger
}

// NewGate builds a gate. filter may be nil, in which case replies pass
// through validation only.
func NewGate(filter Filter, validator *Validator, m *metrics.RoutingMetrics, logger *logging.Logger) *Gate {
	if validator == nil {
		validator = NewValidator()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Gate{
		filter:    filter,
		validator: validator,
		metrics:   m,
		logger:    logger.Component("safety_gate"),
	}
}

// Apply filters a policy output and returns the final text. Filter errors
// fail open: the proposed reply passes through unchanged.
func (g *Gate) Apply(ctx context.Context, userMessage string, out policy.Output) policy.Output {
	if g.filter != nil {
		filtered, err := g.filter.FilterResponse(ctx, userMessage, out.Text)
		switch {
		case err != nil:
			g.logger.Error("response filter failed, passing original through", "error", err)
		case out.FixedScript && filtered != out.Text:
			g.logger.Warn("filter attempted to modify fixed safety script, restoring original")
			g.metrics.ObserveScriptMutationAttempt()
		case filtered != out.Text:
			out.Text = filtered
		}
	}

	if result := g.validator.ValidateResponse(out.Text, out.Policy); !result.Valid {
		g.logger.Warn("response failed safety validation", "policy", out.Policy, "issues", result.Issues)
	}

	return out
}
