package predictions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"stress-backend/internal/stress"
)

// Score accepts a JSON number or a numeric string, as sent by HTML forms.
type Score float64

func (s *Score) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = 0
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			*s = 0
			return nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", raw)
		}
		*s = Score(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = Score(v)
	return nil
}

// PredictRequest keeps the field names of the original web form.
type PredictRequest struct {
	AcademicStage        string `json:"Your_Academic_Stage" validate:"max=100"`
	PeerPressure         Score  `json:"Peer_pressure" validate:"gte=0,lte=10"`
	HomeAcademicPressure Score  `json:"Academic_pressure_from_your_home" validate:"gte=0,lte=10"`
	StudyEnvironment     string `json:"Study_Environment" validate:"max=100"`
	CopingStrategy       string `json:"Coping_Strategy" validate:"max=200"`
	BadHabits            string `json:"Bad_Habits" validate:"max=50"`
	AcademicCompetition  Score  `json:"Academic_Competition" validate:"gte=0,lte=10"`
}

// Factors converts the request into the engine's input record.
func (r PredictRequest) Factors() stress.FactorRecord {
	return stress.FactorRecord{
		AcademicStage:        strings.TrimSpace(r.AcademicStage),
		PeerPressure:         float64(r.PeerPressure),
		HomeAcademicPressure: float64(r.HomeAcademicPressure),
		StudyEnvironment:     strings.TrimSpace(r.StudyEnvironment),
		CopingStrategy:       strings.TrimSpace(r.CopingStrategy),
		HasBadHabits:         strings.TrimSpace(r.BadHabits),
		AcademicCompetition:  float64(r.AcademicCompetition),
	}
}

type predictionResponse struct {
	ID        string              `json:"id,omitempty"`
	CreatedAt *time.Time          `json:"createdAt,omitempty"`
	Factors   stress.FactorRecord `json:"factors"`
	stress.Result
}

func toResponse(p Prediction) predictionResponse {
	resp := predictionResponse{
		ID:      p.ID,
		Factors: p.Factors,
		Result:  p.Result(),
	}
	if p.ID != "" {
		created := p.CreatedAt
		resp.CreatedAt = &created
	}
	if resp.Recommendations == nil {
		resp.Recommendations = []stress.Recommendation{}
	}
	return resp
}

type historyResponse struct {
	Items  []predictionResponse `json:"items"`
	Limit  int                  `json:"limit"`
	Offset int                  `json:"offset"`
}

type summaryResponse struct {
	Summary
	Latest *predictionResponse `json:"latest,omitempty"`
}
