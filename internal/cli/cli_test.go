package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stress-backend/internal/stress"
)

const bundledModels = "../../models"

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func absModels(t *testing.T) string {
	t.Helper()
	dir, err := filepath.Abs(bundledModels)
	require.NoError(t, err)
	return dir
}

func TestAssessJSON(t *testing.T) {
	out, err := run(t, "assess", "--model-dir", absModels(t), "-o", "json",
		"--stage", "undergraduate", "--peer", "8", "--bad-habits", "yes", "--competition", "7")
	require.NoError(t, err)

	var res stress.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	assert.NotEmpty(t, res.StressCategory)
	ids := make([]string, 0, len(res.Recommendations))
	for _, r := range res.Recommendations {
		ids = append(ids, r.ID)
	}
	assert.Contains(t, ids, stress.KeyPeerPressure)
	assert.Contains(t, ids, stress.KeyBadHabits)
	assert.NotContains(t, ids, stress.KeyHomePressure)
}

func TestAssessTable(t *testing.T) {
	out, err := run(t, "assess", "--model-dir", absModels(t), "--color=false", "--peer", "9")
	require.NoError(t, err)
	assert.Contains(t, out, "Stress level:")
	assert.Contains(t, out, "boundaries")
}

func TestAssessWithoutProvider(t *testing.T) {
	_, err := run(t, "assess", "--score-provider", "none")
	assert.ErrorIs(t, err, stress.ErrScoreUnavailable)
}

func TestAssessMissingModel(t *testing.T) {
	_, err := run(t, "assess", "--model-dir", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load score provider")
}

func TestUnknownOutputFormat(t *testing.T) {
	_, err := run(t, "rules", "-o", "xml")
	assert.Error(t, err)
}

func TestBatchPreservesInputOrder(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "rows.csv")
	rows := "Your_Academic_Stage,Peer_pressure,Bad_Habits,unused\n" +
		"high school,1,no,x\n" +
		"post-graduate,9,yes,y\n" +
		"undergraduate,,,\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(rows), 0o644))

	out, err := run(t, "batch", "--model-dir", absModels(t), "-f", csvPath, "-w", "2", "-o", "json")
	require.NoError(t, err)

	var got []batchRow
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	require.Len(t, got, 3)
	for i, r := range got {
		assert.Equal(t, i+1, r.Line)
	}
	assert.Equal(t, "post-graduate", got[1].Factors.AcademicStage)
	assert.Equal(t, 9.0, got[1].Factors.PeerPressure)
	assert.Equal(t, 0.0, got[2].Factors.PeerPressure)
}

func TestBatchRejectsZeroWorkers(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "rows.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("peer_pressure\n1\n"), 0o644))

	_, err := run(t, "batch", "--model-dir", absModels(t), "-f", csvPath, "-w", "0")
	assert.Error(t, err)
}

func TestReadFactors(t *testing.T) {
	records, err := readFactors(strings.NewReader("academic_stage, peer_pressure ,home_academic_pressure\nundergraduate,8,bad\n"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "undergraduate", records[0].AcademicStage)
	assert.Equal(t, 8.0, records[0].PeerPressure)
	assert.Equal(t, 0.0, records[0].HomeAcademicPressure)

	_, err = readFactors(strings.NewReader(""))
	assert.Error(t, err)
}

func TestRulesPlainJSON(t *testing.T) {
	out, err := run(t, "rules", "--format", "plain", "--coping-allow-list", "exercise,meditation", "-o", "json")
	require.NoError(t, err)

	var got rulesOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	assert.Equal(t, "en", got.Locale)
	assert.Contains(t, got.Rules, stress.FactorCopingStrategy)
	require.NotEmpty(t, got.Entries)
	for _, e := range got.Entries {
		assert.NotEmpty(t, e.Guidance)
		assert.Empty(t, e.Context)
	}
}

func TestRulesFromEnv(t *testing.T) {
	t.Setenv("STRESS_LOCALE", "ar")
	out, err := run(t, "rules", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"locale": "ar"`)
}

func TestRulesFromConfigFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "stressctl.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("locale: ar\noutput: json\n"), 0o644))

	out, err := run(t, "rules", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, `"locale": "ar"`)
}

func TestModelValidate(t *testing.T) {
	out, err := run(t, "model", "validate", "-f", filepath.Join(absModels(t), "stress_model.json"))
	require.NoError(t, err)
	assert.Contains(t, out, "valid stress-model/v1 artifact")

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"format":"stress-model/v1"}`), 0o644))
	_, err = run(t, "model", "validate", "-f", bad)
	assert.Error(t, err)
}

func TestModelPushToLocalStore(t *testing.T) {
	dest := t.TempDir()
	src := filepath.Join(absModels(t), "stress_model.json")

	out, err := run(t, "model", "push", "-f", src, "--model-dir", dest, "--key", "v2/stress_model.json")
	require.NoError(t, err)
	assert.Contains(t, out, "pushed model version")

	want, err := os.ReadFile(src)
	require.NoError(t, err)
	got, err := os.ReadFile(filepath.Join(dest, "v2", "stress_model.json"))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	out, err = run(t, "assess", "--model-dir", dest, "--model-key", "v2/stress_model.json", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "stress_category")
}
