// Package audit keeps the append-only record of assessments and routing
// decisions.
package audit

import (
	"context"
	"encoding/json"
	"time"
)

// Record is one immutable audit entry: an assessment outcome and the routing
// decision it produced.
type Record struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	ScaleID    string          `json:"scale_id,omitempty"`
	TotalScore int             `json:"total_score"`
	Severity   string          `json:"severity,omitempty"`
	Tier       string          `json:"tier"`
	Rigidity   float64         `json:"rigidity"`
	Reason     string          `json:"reason"`
	Preview    string          `json:"preview,omitempty"`
	Flags      json.RawMessage `json:"flags,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Filter narrows a history query.
type Filter struct {
	ScaleID   string
	Tier      string
	StartTime time.Time
	EndTime   time.Time
	Limit     int
	Offset    int
}

// Repository stores audit records. Save is append-only; nothing updates or
// deletes records.
type Repository interface {
	// Save persists one record.
	Save(ctx context.Context, rec Record) error
	// History returns the user's records newest first.
	History(ctx context.Context, userID string, filter Filter) ([]Record, error)
	// HasPriorRecord reports whether any record exists for the user.
	HasPriorRecord(ctx context.Context, userID string) (bool, error)
}
