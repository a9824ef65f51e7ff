package risk

import "github.com/havenmind/havenmind-ai-platform/pkg/logging"

// RouteUpdater applies per-message classifier scores to an already-routed
// conversation. Transitions are strictly one-way: a tier can only move up,
// never down, regardless of how low later scores fall.
type RouteUpdater struct {
	// escalateMedium lifts a low-tier conversation to medium.
	escalateMedium float64
	// escalateHigh lifts any tier straight to high.
	escalateHigh float64

	logger *logging.Logger
}

// NewRouteUpdater builds an updater with the given escalation thresholds.
func NewRouteUpdater(escalateMedium, escalateHigh float64, logger *logging.Logger) *RouteUpdater {
	if logger == nil {
		logger = logging.Default()
	}
	return &RouteUpdater{
		escalateMedium: escalateMedium,
		escalateHigh:   escalateHigh,
		logger:         logger.Component("route_updater"),
	}
}

// NextTier evaluates one classifier score against the current tier. The
// returned reason is empty when the tier is unchanged. Rules are checked in
// order:
//
//  1. high is terminal
//  2. score at or above the high threshold jumps any tier to high
//  3. a low tier at or above the medium threshold moves to medium
//  4. otherwise the tier stays put; medium never moves except to high
func (u *RouteUpdater) NextTier(current Tier, score float64) (Tier, Reason, bool) {
	if current == TierHigh {
		return TierHigh, "", false
	}
	if score >= u.escalateHigh {
		u.logger.Warn("escalating to high tier", "from", current, "score", score)
		return TierHigh, ReasonDirectHighRisk, true
	}
	if current == TierLow && score >= u.escalateMedium {
		u.logger.Info("escalating to medium tier", "score", score)
		return TierMedium, ReasonEscalationClassifier, true
	}
	return current, "", false
}

// ShouldUpgrade reports whether a score would move the conversation off its
// current tier.
func (u *RouteUpdater) ShouldUpgrade(current Tier, score float64) bool {
	_, _, upgraded := u.NextTier(current, score)
	return upgraded
}

// TargetTier returns the tier a score would land on from the current tier.
func (u *RouteUpdater) TargetTier(current Tier, score float64) Tier {
	next, _, _ := u.NextTier(current, score)
	return next
}
