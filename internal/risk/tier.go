// Package risk maps assessment outcomes to routing tiers and keeps tier
// transitions monotonic across a conversation.
package risk

// Tier is the conversation routing tier.
type Tier string

const (
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// Rank orders tiers for monotonicity checks. Unknown tiers rank below low so
// they can never suppress an escalation.
func (t Tier) Rank() int {
	switch t {
	case TierLow:
		return 1
	case TierMedium:
		return 2
	case TierHigh:
		return 3
	default:
		return 0
	}
}

// Valid reports whether t is one of the three routing tiers.
func (t Tier) Valid() bool {
	return t == TierLow || t == TierMedium || t == TierHigh
}

// Reason explains why a routing decision landed on its tier.
type Reason string

const (
	ReasonLowRisk              Reason = "low_risk"
	ReasonMediumRisk           Reason = "medium_risk"
	ReasonHighRisk             Reason = "high_risk"
	ReasonHardLock             Reason = "hard_lock"
	ReasonEscalationClassifier Reason = "escalation_classifier"
	ReasonDirectHighRisk       Reason = "direct_high_risk"
)

// Decision is the outcome of scoring one assessment: the tier the
// conversation routes to, the rigidity applied to that tier's policy, and the
// reason for the placement.
type Decision struct {
	Tier     Tier    `json:"tier"`
	Rigidity float64 `json:"rigidity"`
	Reason   Reason  `json:"reason"`
}
