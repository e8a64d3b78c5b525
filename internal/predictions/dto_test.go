package predictions

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreUnmarshal(t *testing.T) {
	cases := map[string]float64{
		`7`:       7,
		`7.25`:    7.25,
		`"8"`:     8,
		`" 3.5 "`: 3.5,
		`""`:      0,
		`null`:    0,
	}
	for raw, want := range cases {
		var s Score
		require.NoError(t, json.Unmarshal([]byte(raw), &s), raw)
		assert.Equal(t, want, float64(s), raw)
	}

	var s Score
	assert.Error(t, json.Unmarshal([]byte(`"high"`), &s))
	assert.Error(t, json.Unmarshal([]byte(`true`), &s))
}

func TestPredictRequestFactorsTrimsText(t *testing.T) {
	var req PredictRequest
	require.NoError(t, json.Unmarshal([]byte(`{
		"Your_Academic_Stage": " high school ",
		"Peer_pressure": "4",
		"Bad_Habits": " No "
	}`), &req))

	f := req.Factors()
	assert.Equal(t, "high school", f.AcademicStage)
	assert.Equal(t, 4.0, f.PeerPressure)
	assert.Equal(t, "No", f.HasBadHabits)
	assert.Zero(t, f.AcademicCompetition)
}
