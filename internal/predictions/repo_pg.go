package predictions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"stress-backend/internal/stress"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Create(ctx context.Context, p Prediction) error {
	factors, err := json.Marshal(p.Factors)
	if err != nil {
		return fmt.Errorf("encode factors: %w", err)
	}
	recs, err := json.Marshal(p.Recommendations)
	if err != nil {
		return fmt.Errorf("encode recommendations: %w", err)
	}

	const query = `
INSERT INTO predictions (id, user_id, factors, stress_level, category, recommendations, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = r.DB.ExecContext(ctx, query,
		p.ID,
		p.UserID,
		factors,
		p.StressLevel,
		string(p.Category),
		recs,
		p.CreatedAt,
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, userID, id string) (Prediction, error) {
	const query = `
SELECT id, user_id, factors, stress_level, category, recommendations, created_at
FROM predictions
WHERE id = $1 AND user_id = $2
LIMIT 1`
	p, err := scanPrediction(r.DB.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return Prediction{}, ErrNotFound
	}
	return p, err
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Prediction, error) {
	const query = `
SELECT id, user_id, factors, stress_level, category, recommendations, created_at
FROM predictions
WHERE user_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []Prediction{}
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *PGRepo) CountByCategory(ctx context.Context, userID string) (map[stress.Category]int, error) {
	const query = `
SELECT category, count(*)
FROM predictions
WHERE user_id = $1
GROUP BY category`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[stress.Category]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}
		out[stress.Category(category)] = count
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPrediction(row rowScanner) (Prediction, error) {
	var p Prediction
	var category string
	var factors, recs []byte
	if err := row.Scan(&p.ID, &p.UserID, &factors, &p.StressLevel, &category, &recs, &p.CreatedAt); err != nil {
		return Prediction{}, err
	}
	p.Category = stress.Category(category)
	if err := json.Unmarshal(factors, &p.Factors); err != nil {
		return Prediction{}, fmt.Errorf("decode factors: %w", err)
	}
	if len(recs) > 0 {
		if err := json.Unmarshal(recs, &p.Recommendations); err != nil {
			return Prediction{}, fmt.Errorf("decode recommendations: %w", err)
		}
	}
	if p.Recommendations == nil {
		p.Recommendations = []stress.Recommendation{}
	}
	return p, nil
}
