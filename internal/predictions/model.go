package predictions

import (
	"time"

	"stress-backend/internal/stress"
)

// Prediction is a persisted assessment.
type Prediction struct {
	ID              string
	UserID          string
	Factors         stress.FactorRecord
	StressLevel     float64
	Category        stress.Category
	Recommendations []stress.Recommendation
	CreatedAt       time.Time
}

// Result returns the assessment portion of the prediction.
func (p Prediction) Result() stress.Result {
	return stress.Result{
		StressLevel:     p.StressLevel,
		StressCategory:  p.Category,
		Recommendations: p.Recommendations,
	}
}

// Summary aggregates a user's history.
type Summary struct {
	Total      int            `json:"total"`
	ByCategory map[string]int `json:"byCategory"`
	Latest     *Prediction    `json:"-"`
}
