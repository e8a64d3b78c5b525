package stress

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Factor names in the order the score provider expects them.
const (
	FactorAcademicStage        = "academic_stage"
	FactorPeerPressure         = "peer_pressure"
	FactorHomeAcademicPressure = "home_academic_pressure"
	FactorStudyEnvironment     = "study_environment"
	FactorCopingStrategy       = "coping_strategy"
	FactorHasBadHabits         = "has_bad_habits"
	FactorAcademicCompetition  = "academic_competition"
)

// FeatureOrder is the positional contract with every Provider. Providers must
// interpret a FeatureVector by index using this order.
var FeatureOrder = []string{
	FactorAcademicStage,
	FactorPeerPressure,
	FactorHomeAcademicPressure,
	FactorStudyEnvironment,
	FactorCopingStrategy,
	FactorHasBadHabits,
	FactorAcademicCompetition,
}

// FactorRecord holds the self-reported inputs used for scoring and rule evaluation.
// Zero values are the defaults for absent inputs.
type FactorRecord struct {
	AcademicStage        string  `json:"academic_stage"`
	PeerPressure         float64 `json:"peer_pressure"`
	HomeAcademicPressure float64 `json:"home_academic_pressure"`
	StudyEnvironment     string  `json:"study_environment"`
	CopingStrategy       string  `json:"coping_strategy"`
	HasBadHabits         string  `json:"has_bad_habits"`
	AcademicCompetition  float64 `json:"academic_competition"`
}

// FeatureKind distinguishes numeric from categorical features.
type FeatureKind string

const (
	KindNumeric     FeatureKind = "numeric"
	KindCategorical FeatureKind = "categorical"
)

// FeatureValue is one positional element of a FeatureVector.
type FeatureValue struct {
	Name   string      `json:"name"`
	Kind   FeatureKind `json:"kind"`
	Number float64     `json:"number,omitempty"`
	Text   string      `json:"text,omitempty"`
}

// Value returns the feature as a plain value (float64 or string).
func (v FeatureValue) Value() any {
	if v.Kind == KindNumeric {
		return v.Number
	}
	return v.Text
}

// FeatureVector is a FactorRecord flattened into FeatureOrder.
type FeatureVector []FeatureValue

// Values returns the vector as plain values, in order.
func (fv FeatureVector) Values() []any {
	out := make([]any, len(fv))
	for i, v := range fv {
		out[i] = v.Value()
	}
	return out
}

// Features flattens the record into FeatureOrder.
func (r FactorRecord) Features() FeatureVector {
	return FeatureVector{
		{Name: FactorAcademicStage, Kind: KindCategorical, Text: r.AcademicStage},
		{Name: FactorPeerPressure, Kind: KindNumeric, Number: r.PeerPressure},
		{Name: FactorHomeAcademicPressure, Kind: KindNumeric, Number: r.HomeAcademicPressure},
		{Name: FactorStudyEnvironment, Kind: KindCategorical, Text: r.StudyEnvironment},
		{Name: FactorCopingStrategy, Kind: KindCategorical, Text: r.CopingStrategy},
		{Name: FactorHasBadHabits, Kind: KindCategorical, Text: r.HasBadHabits},
		{Name: FactorAcademicCompetition, Kind: KindNumeric, Number: r.AcademicCompetition},
	}
}

// FactorRecordFromMap builds a record from loosely typed input such as CSV rows or
// decoded JSON objects. Missing keys and unparsable numbers fall back to zero values.
func FactorRecordFromMap(m map[string]any) FactorRecord {
	return FactorRecord{
		AcademicStage:        textOf(m[FactorAcademicStage]),
		PeerPressure:         numberOf(m[FactorPeerPressure]),
		HomeAcademicPressure: numberOf(m[FactorHomeAcademicPressure]),
		StudyEnvironment:     textOf(m[FactorStudyEnvironment]),
		CopingStrategy:       textOf(m[FactorCopingStrategy]),
		HasBadHabits:         textOf(m[FactorHasBadHabits]),
		AcademicCompetition:  numberOf(m[FactorAcademicCompetition]),
	}
}

func textOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func numberOf(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int8:
		return float64(t)
	case int16:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint:
		return float64(t)
	case uint8:
		return float64(t)
	case uint16:
		return float64(t)
	case uint32:
		return float64(t)
	case uint64:
		return float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
