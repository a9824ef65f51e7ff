package risk

import (
	"github.com/havenmind/havenmind-ai-platform/internal/assessment"
	"github.com/havenmind/havenmind-ai-platform/pkg/logging"
)

// RouteDecider turns a scored assessment into the initial routing decision
// for a conversation.
type RouteDecider struct {
	scorer *RigidityScorer

	// mediumThreshold and highThreshold partition rigidity into tiers:
	// rigidity < mediumThreshold routes low, < highThreshold routes medium,
	// and anything at or above highThreshold routes high.
	mediumThreshold float64
	highThreshold   float64

	logger *logging.Logger
}

// NewRouteDecider builds a decider. It panics on a nil scorer since routing
// cannot proceed without one.
func NewRouteDecider(scorer *RigidityScorer, mediumThreshold, highThreshold float64, logger *logging.Logger) *RouteDecider {
	if scorer == nil {
		panic("risk: RouteDecider requires a scorer")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RouteDecider{
		scorer:          scorer,
		mediumThreshold: mediumThreshold,
		highThreshold:   highThreshold,
		logger:          logger.Component("route_decider"),
	}
}

// Decide maps an assessment result to a tier, rigidity and reason. Hard-lock
// conditions override scoring entirely and pin the decision to the high tier
// at full rigidity.
func (d *RouteDecider) Decide(res assessment.Result) Decision {
	if d.scorer.IsHardLock(res.Severity, res.Flags) {
		decision := Decision{Tier: TierHigh, Rigidity: 1.0, Reason: ReasonHardLock}
		d.logger.Warn("hard lock engaged",
			"scale", res.ScaleID,
			"severity", res.Severity,
			"crisis_indicator", res.Flags.CrisisIndicator,
			"crisis_score", res.Flags.CrisisScore,
		)
		return decision
	}

	riskScore := d.scorer.SeverityToRisk(res.Severity)
	rigidity := d.scorer.RiskToRigidity(riskScore)

	decision := Decision{Rigidity: rigidity}
	switch {
	case rigidity < d.mediumThreshold:
		decision.Tier = TierLow
		decision.Reason = ReasonLowRisk
	case rigidity < d.highThreshold:
		decision.Tier = TierMedium
		decision.Reason = ReasonMediumRisk
	default:
		decision.Tier = TierHigh
		decision.Reason = ReasonHighRisk
	}

	d.logger.Info("route decided",
		"scale", res.ScaleID,
		"severity", res.Severity,
		"risk", riskScore,
		"rigidity", rigidity,
		"tier", decision.Tier,
		"reason", decision.Reason,
	)
	return decision
}
