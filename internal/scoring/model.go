package scoring

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"stress-backend/internal/shared/storage/object"
	"stress-backend/internal/stress"
)

// ModelFormat identifies the artifact layout understood by Model.
const ModelFormat = "stress-model/v1"

//go:embed model.schema.json
var modelSchema string

var (
	// ErrInvalidModel wraps schema and feature-order violations found at load time.
	ErrInvalidModel = errors.New("invalid model artifact")
	// ErrFeatureMismatch is returned when an input vector does not line up with the model.
	ErrFeatureMismatch = errors.New("feature vector does not match model")
)

// ModelArtifact is the on-disk representation of a linear stress model.
type ModelArtifact struct {
	Format    string          `json:"format"`
	Version   string          `json:"version,omitempty"`
	Intercept float64         `json:"intercept"`
	Clamp     *Clamp          `json:"clamp,omitempty"`
	Features  []FeatureWeight `json:"features"`
}

// Clamp bounds the raw prediction.
type Clamp struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// FeatureWeight is the contribution of one positional feature.
type FeatureWeight struct {
	Name    string             `json:"name"`
	Kind    stress.FeatureKind `json:"kind"`
	Weight  float64            `json:"weight"`
	Levels  map[string]float64 `json:"levels,omitempty"`
	Default float64            `json:"default,omitempty"`
}

// Model scores feature vectors with a loaded artifact. It is immutable after
// construction and safe for concurrent use.
type Model struct {
	version   string
	intercept float64
	clamp     *Clamp
	features  []FeatureWeight
}

// LoadModel reads and validates a model artifact from the object store.
func LoadModel(ctx context.Context, store object.Store, key string) (*Model, error) {
	if store == nil {
		return nil, fmt.Errorf("model store is required")
	}
	rc, err := store.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open model %s: %w", key, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", key, err)
	}
	return ParseModel(data)
}

// ParseModel validates raw artifact bytes and builds a Model.
func ParseModel(data []byte) (*Model, error) {
	if err := ValidateArtifact(data); err != nil {
		return nil, err
	}

	var artifact ModelArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	return NewModel(artifact)
}

// ValidateArtifact checks raw artifact bytes against the embedded JSON schema.
func ValidateArtifact(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(modelSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidModel, err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		problems = append(problems, field+": "+desc.Description())
	}
	return fmt.Errorf("%w: %s", ErrInvalidModel, strings.Join(problems, "; "))
}

// NewModel builds a Model from a decoded artifact. The artifact's features must
// appear in exactly stress.FeatureOrder.
func NewModel(artifact ModelArtifact) (*Model, error) {
	if artifact.Format != ModelFormat {
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidModel, artifact.Format)
	}
	if len(artifact.Features) != len(stress.FeatureOrder) {
		return nil, fmt.Errorf("%w: expected %d features, got %d", ErrInvalidModel, len(stress.FeatureOrder), len(artifact.Features))
	}
	if artifact.Clamp != nil && artifact.Clamp.Min > artifact.Clamp.Max {
		return nil, fmt.Errorf("%w: clamp min %v exceeds max %v", ErrInvalidModel, artifact.Clamp.Min, artifact.Clamp.Max)
	}

	features := make([]FeatureWeight, len(artifact.Features))
	for i, f := range artifact.Features {
		if f.Name != stress.FeatureOrder[i] {
			return nil, fmt.Errorf("%w: feature %d is %q, expected %q", ErrInvalidModel, i, f.Name, stress.FeatureOrder[i])
		}
		levels := make(map[string]float64, len(f.Levels))
		for level, v := range f.Levels {
			levels[normalizeLevel(level)] = v
		}
		f.Levels = levels
		features[i] = f
	}

	var clamp *Clamp
	if artifact.Clamp != nil {
		c := *artifact.Clamp
		clamp = &c
	}
	return &Model{
		version:   artifact.Version,
		intercept: artifact.Intercept,
		clamp:     clamp,
		features:  features,
	}, nil
}

// Version returns the artifact version label, if any.
func (m *Model) Version() string {
	return m.version
}

// Score implements stress.Provider.
func (m *Model) Score(ctx context.Context, features stress.FeatureVector) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(features) != len(m.features) {
		return 0, fmt.Errorf("%w: expected %d values, got %d", ErrFeatureMismatch, len(m.features), len(features))
	}

	score := m.intercept
	for i, w := range m.features {
		v := features[i]
		if v.Kind != w.Kind {
			return 0, fmt.Errorf("%w: feature %d (%s) is %s, model expects %s", ErrFeatureMismatch, i, w.Name, v.Kind, w.Kind)
		}
		switch w.Kind {
		case stress.KindNumeric:
			score += w.Weight * v.Number
		case stress.KindCategorical:
			contribution, ok := w.Levels[normalizeLevel(v.Text)]
			if !ok {
				contribution = w.Default
			}
			score += contribution
		}
	}

	if m.clamp != nil {
		score = min(max(score, m.clamp.Min), m.clamp.Max)
	}
	return score, nil
}

func normalizeLevel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

var _ stress.Provider = (*Model)(nil)
