// Package scoring provides the stress.Provider implementations: a local regression
// artifact, a remote inference endpoint, and an unconfigured placeholder.
package scoring

import (
	"context"
	"errors"

	"stress-backend/internal/stress"
)

// ErrNotConfigured is returned by Unconfigured for every call.
var ErrNotConfigured = errors.New("score provider not configured")

// Unconfigured is a Provider that never produces a score.
type Unconfigured struct{}

// Score always fails with ErrNotConfigured.
func (Unconfigured) Score(context.Context, stress.FeatureVector) (float64, error) {
	return 0, ErrNotConfigured
}

var _ stress.Provider = Unconfigured{}
