package audit

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-process repository for tests and single-instance
// deployments.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string][]Record
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string][]Record)}
}

func (r *MemoryRepository) Save(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.UserID] = append(r.records[rec.UserID], rec)
	return nil
}

func (r *MemoryRepository) History(ctx context.Context, userID string, filter Filter) ([]Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Record
	for _, rec := range r.records[userID] {
		if filter.ScaleID != "" && rec.ScaleID != filter.ScaleID {
			continue
		}
		if filter.Tier != "" && rec.Tier != filter.Tier {
			continue
		}
		if !filter.StartTime.IsZero() && rec.CreatedAt.Before(filter.StartTime) {
			continue
		}
		if !filter.EndTime.IsZero() && rec.CreatedAt.After(filter.EndTime) {
			continue
		}
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *MemoryRepository) HasPriorRecord(ctx context.Context, userID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records[userID]) > 0, nil
}
