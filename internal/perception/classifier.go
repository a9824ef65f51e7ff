// Package perception scores incoming messages for risk signals that drive
// mid-conversation escalation and questionnaire triggering.
package perception

import "context"

// Signal is the raw output of a message classifier.
type Signal struct {
	// RiskScore is in [0,1]; higher means stronger crisis signal.
	RiskScore float64 `json:"risk_score"`
	// Labels are free-form tags describing what matched.
	Labels []string `json:"labels,omitempty"`
	// MatchedKeyword is the strongest pattern that fired, when applicable.
	MatchedKeyword string `json:"matched_keyword,omitempty"`
}

// Classifier scores a single user message.
type Classifier interface {
	Classify(ctx context.Context, message string) (Signal, error)
}
