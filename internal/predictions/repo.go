package predictions

import (
	"context"

	"stress-backend/internal/stress"
)

type Repo interface {
	Create(ctx context.Context, p Prediction) error
	// GetByID returns ErrNotFound when the prediction does not exist or belongs to another user.
	GetByID(ctx context.Context, userID, id string) (Prediction, error)
	// ListByUser returns predictions newest first.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Prediction, error)
	CountByCategory(ctx context.Context, userID string) (map[stress.Category]int, error)
}
