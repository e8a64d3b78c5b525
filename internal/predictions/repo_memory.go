package predictions

import (
	"context"
	"sort"
	"sync"

	"stress-backend/internal/stress"
)

type MemoryRepo struct {
	mu     sync.RWMutex
	byID   map[string]Prediction
	byUser map[string][]string
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:   make(map[string]Prediction),
		byUser: make(map[string][]string),
	}
}

func (r *MemoryRepo) Create(ctx context.Context, p Prediction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p.Recommendations = append([]stress.Recommendation(nil), p.Recommendations...)
	r.byID[p.ID] = p
	r.byUser[p.UserID] = append(r.byUser[p.UserID], p.ID)
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID, id string) (Prediction, error) {
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok || p.UserID != userID {
		return Prediction{}, ErrNotFound
	}
	return p, nil
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	ids := r.byUser[userID]
	items := make([]Prediction, 0, len(ids))
	for _, id := range ids {
		items = append(items, r.byID[id])
	}
	r.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})
	if offset >= len(items) {
		return []Prediction{}, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end], nil
}

func (r *MemoryRepo) CountByCategory(ctx context.Context, userID string) (map[stress.Category]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[stress.Category]int)
	for _, id := range r.byUser[userID] {
		out[r.byID[id].Category]++
	}
	return out, nil
}
