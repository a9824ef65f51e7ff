package risk

import "time"

// ControlContext is the mutable routing state of one conversation. The
// decider seeds it and the updater moves it strictly upward.
type ControlContext struct {
	UserID    string            `json:"user_id"`
	Tier      Tier              `json:"tier"`
	Rigidity  float64           `json:"rigidity"`
	Reason    Reason            `json:"reason"`
	LastScore float64           `json:"last_score"`
	DecidedAt time.Time         `json:"decided_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Extras    map[string]string `json:"extras,omitempty"`
}

// NewControlContext seeds routing state from an initial decision.
func NewControlContext(userID string, d Decision) *ControlContext {
	now := time.Now().UTC()
	return &ControlContext{
		UserID:    userID,
		Tier:      d.Tier,
		Rigidity:  d.Rigidity,
		Reason:    d.Reason,
		DecidedAt: now,
		UpdatedAt: now,
	}
}

// Apply records a tier transition. Downgrades are ignored so routing state
// stays monotonic even if a caller passes a stale decision.
func (c *ControlContext) Apply(tier Tier, reason Reason) bool {
	if tier.Rank() <= c.Tier.Rank() {
		return false
	}
	c.Tier = tier
	c.Reason = reason
	if tier == TierHigh {
		c.Rigidity = 1.0
	}
	c.UpdatedAt = time.Now().UTC()
	return true
}

// SetExtra attaches an auxiliary key to the context, allocating the map on
// first use.
func (c *ControlContext) SetExtra(key, value string) {
	if c.Extras == nil {
		c.Extras = make(map[string]string)
	}
	c.Extras[key] = value
}
