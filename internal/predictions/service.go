package predictions

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"stress-backend/internal/events"
	"stress-backend/internal/shared/metrics"
	"stress-backend/internal/shared/telemetry"
	"stress-backend/internal/stress"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Assessor scores a factor record. *stress.Engine satisfies it.
type Assessor interface {
	Assess(ctx context.Context, factors stress.FactorRecord) (stress.Result, error)
}

type Service struct {
	Engine Assessor
	Repo   Repo
	Events events.Publisher
	Now    func() time.Time
}

// PredictInput carries one assessment request.
type PredictInput struct {
	UserID    string
	RequestID string
	// Persist stores the prediction and publishes an event. Guests are assessed but not stored.
	Persist bool
	Factors stress.FactorRecord
}

// Predict assesses the factors and, when requested, persists the outcome. A score
// failure returns an error wrapping stress.ErrScoreUnavailable and stores nothing.
func (s *Service) Predict(ctx context.Context, in PredictInput) (Prediction, error) {
	if s == nil || s.Engine == nil || s.Repo == nil {
		return Prediction{}, errors.New("predictions service not configured")
	}

	start := time.Now()
	result, err := s.Engine.Assess(ctx, in.Factors)
	metrics.ObserveScoreDurationMs(metrics.SinceMillis(start))
	if err != nil {
		metrics.IncPredictionFailure()
		telemetry.Warn("prediction.score_failed", map[string]any{
			"request_id": in.RequestID,
			"user_id":    in.UserID,
			"err":        err,
		})
		return Prediction{}, err
	}

	p := Prediction{
		UserID:          in.UserID,
		Factors:         in.Factors,
		StressLevel:     result.StressLevel,
		Category:        result.StressCategory,
		Recommendations: result.Recommendations,
		CreatedAt:       s.now(),
	}
	metrics.IncPrediction(string(p.Category))

	if !in.Persist {
		return p, nil
	}

	p.ID = uuid.NewString()
	if err := s.Repo.Create(ctx, p); err != nil {
		return Prediction{}, err
	}
	telemetry.Info("prediction.completed", map[string]any{
		"request_id":      in.RequestID,
		"prediction_id":   p.ID,
		"user_id":         p.UserID,
		"stress_level":    p.StressLevel,
		"stress_category": p.Category,
	})
	s.publish(ctx, in.RequestID, p)
	return p, nil
}

// publish is best effort; a queue outage never fails a stored prediction.
func (s *Service) publish(ctx context.Context, requestID string, p Prediction) {
	if s.Events == nil {
		return
	}
	msg := events.Message{
		Type:           events.TypePredictionCompleted,
		PredictionID:   p.ID,
		UserID:         p.UserID,
		StressLevel:    p.StressLevel,
		StressCategory: string(p.Category),
		RequestID:      requestID,
		OccurredAt:     p.CreatedAt.UTC().Format(time.RFC3339),
		Version:        1,
	}
	if err := s.Events.Publish(ctx, msg); err != nil {
		telemetry.Warn("prediction.publish_failed", map[string]any{
			"request_id":    requestID,
			"prediction_id": p.ID,
			"err":           err,
		})
	}
}

// Get returns one of the user's predictions.
func (s *Service) Get(ctx context.Context, userID, id string) (Prediction, error) {
	return s.Repo.GetByID(ctx, userID, id)
}

// History lists the user's predictions newest first. A zero limit uses DefaultLimit.
func (s *Service) History(ctx context.Context, userID string, limit, offset int) ([]Prediction, error) {
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < 0 || limit > MaxLimit || offset < 0 {
		return nil, ErrInvalidRange
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// Summary counts the user's predictions per category and returns the latest one.
func (s *Service) Summary(ctx context.Context, userID string) (Summary, error) {
	counts, err := s.Repo.CountByCategory(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	out := Summary{ByCategory: make(map[string]int, len(stress.Categories))}
	for _, c := range stress.Categories {
		out.ByCategory[string(c)] = counts[c]
		out.Total += counts[c]
	}
	if out.Total == 0 {
		return out, nil
	}
	latest, err := s.Repo.ListByUser(ctx, userID, 1, 0)
	if err != nil {
		return Summary{}, err
	}
	if len(latest) > 0 {
		out.Latest = &latest[0]
	}
	return out, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
