// Package stress turns a stress score and the student's reported factors into a
// severity band and an ordered list of recommendations.
package stress

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// ErrScoreUnavailable is returned by Assess when the provider cannot produce a usable score.
var ErrScoreUnavailable = errors.New("stress score unavailable")

// Provider produces a stress score from a positional feature vector.
// Implementations must be safe for concurrent use.
type Provider interface {
	Score(ctx context.Context, features FeatureVector) (float64, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, features FeatureVector) (float64, error)

// Score calls f.
func (f ProviderFunc) Score(ctx context.Context, features FeatureVector) (float64, error) {
	return f(ctx, features)
}

// Recommendation is one piece of guidance, optionally paired with context text.
type Recommendation struct {
	ID       string `json:"id"`
	Guidance string `json:"guidance"`
	Context  string `json:"context,omitempty"`
}

// Result is the outcome of one assessment.
type Result struct {
	StressLevel     float64          `json:"stress_level"`
	StressCategory  Category         `json:"stress_category"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Options configures an Engine.
type Options struct {
	// Catalog supplies recommendation text. Nil loads the default locale.
	Catalog *Catalog
	Format  Format
	// CopingAllowList enables the coping-strategy rule when non-empty.
	CopingAllowList []string
}

// Engine categorizes scores and composes recommendations. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	provider Provider
	catalog  *Catalog
	format   Format
	rules    ruleTable
}

// NewEngine builds an Engine around provider.
func NewEngine(provider Provider, opts Options) (*Engine, error) {
	if provider == nil {
		return nil, errors.New("stress: provider is required")
	}
	catalog := opts.Catalog
	if catalog == nil {
		var err error
		catalog, err = LoadCatalog(DefaultLocale)
		if err != nil {
			return nil, err
		}
	}
	format := opts.Format
	if format == "" {
		format = FormatAnnotated
	}
	return &Engine{
		provider: provider,
		catalog:  catalog,
		format:   format,
		rules:    newRuleTable(opts.CopingAllowList),
	}, nil
}

// Rules returns the active rule ids in evaluation order.
func (e *Engine) Rules() []string {
	return e.rules.ids()
}

// Assess scores factors with the provider, exactly once, and evaluates the result.
func (e *Engine) Assess(ctx context.Context, factors FactorRecord) (Result, error) {
	score, err := e.provider.Score(ctx, factors.Features())
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrScoreUnavailable, err)
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return Result{}, fmt.Errorf("%w: provider returned %v", ErrScoreUnavailable, score)
	}
	return e.Evaluate(score, factors), nil
}

// Evaluate categorizes score and applies the rule table to factors. The category
// is derived from the unrounded score.
func (e *Engine) Evaluate(score float64, factors FactorRecord) Result {
	category := Categorize(score)
	keys := e.rules.keys(evaluation{score: score, category: category, factors: factors})
	recs := make([]Recommendation, 0, len(keys))
	for _, key := range keys {
		recs = append(recs, e.catalog.recommendation(key, e.format))
	}
	return Result{
		StressLevel:     RoundScore(score),
		StressCategory:  category,
		Recommendations: recs,
	}
}

// RoundScore rounds to two decimal places, halves away from zero, by scaling the
// float64 by 100 first. Ties are decided on the scaled product: 2.675 rounds to
// 2.68 and 1.005 rounds to 1. Scores too large to scale have no fractional
// digits and are returned unchanged.
func RoundScore(score float64) float64 {
	scaled := score * 100
	if math.IsInf(scaled, 0) || math.IsNaN(scaled) {
		return score
	}
	return math.Round(scaled) / 100
}
