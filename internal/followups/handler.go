// Package followups flags predictions severe enough to warrant outreach.
package followups

import (
	"context"
	"fmt"

	"stress-backend/internal/events"
	"stress-backend/internal/shared/metrics"
	"stress-backend/internal/shared/telemetry"
	"stress-backend/internal/stress"
)

// Handler raises a follow-up for every completed prediction at or above MinCategory.
// Other event types are acknowledged and ignored.
type Handler struct {
	MinCategory stress.Category
}

// NewHandler parses minCategory, defaulting to Critical.
func NewHandler(minCategory string) (*Handler, error) {
	if minCategory == "" {
		return &Handler{MinCategory: stress.CategoryCritical}, nil
	}
	c, ok := stress.ParseCategory(minCategory)
	if !ok {
		return nil, fmt.Errorf("unknown follow-up category %q", minCategory)
	}
	return &Handler{MinCategory: c}, nil
}

func (h *Handler) Handle(ctx context.Context, msg events.Message) error {
	if msg.Type != events.TypePredictionCompleted {
		telemetry.Info("followup.ignored", map[string]any{"event_type": msg.Type})
		return nil
	}
	category, ok := stress.ParseCategory(msg.StressCategory)
	if !ok {
		return fmt.Errorf("%w: prediction %s has unknown category %q", events.ErrPermanent, msg.PredictionID, msg.StressCategory)
	}
	if rank(category) < rank(h.MinCategory) {
		return nil
	}
	metrics.IncFollowup(string(category))
	telemetry.Warn("followup.raised", map[string]any{
		"prediction_id":   msg.PredictionID,
		"user_id":         msg.UserID,
		"stress_level":    msg.StressLevel,
		"stress_category": category,
		"request_id":      msg.RequestID,
		"occurred_at":     msg.OccurredAt,
	})
	return nil
}

func rank(c stress.Category) int {
	for i, known := range stress.Categories {
		if known == c {
			return i
		}
	}
	return -1
}

var _ events.Handler = (*Handler)(nil)
