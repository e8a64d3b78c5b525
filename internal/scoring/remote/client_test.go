package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"stress-backend/internal/stress"
)

func sampleFeatures() stress.FeatureVector {
	return stress.FactorRecord{
		AcademicStage:        "undergraduate",
		PeerPressure:         4,
		HomeAcademicPressure: 3,
		StudyEnvironment:     "Noisy",
		CopingStrategy:       "Social support (friends, family)",
		HasBadHabits:         "No",
		AcademicCompetition:  5,
	}.Features()
}

func TestScoreSendsInstancesInFeatureOrder(t *testing.T) {
	var got predictRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = w.Write([]byte(`{"predictions":[4.25]}`))
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	score, err := client.Score(context.Background(), sampleFeatures())
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score != 4.25 {
		t.Fatalf("expected 4.25, got %v", score)
	}

	if len(got.Instances) != 1 || len(got.Instances[0]) != len(stress.FeatureOrder) {
		t.Fatalf("unexpected instances %v", got.Instances)
	}
	if got.Instances[0][0] != "undergraduate" || got.Instances[0][1] != 4.0 || got.Instances[0][6] != 5.0 {
		t.Fatalf("instances out of order: %v", got.Instances[0])
	}
}

func TestScoreNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model offline", http.StatusBadGateway)
	}))
	defer srv.Close()

	client, _ := NewClient(srv.URL, time.Second)
	_, err := client.Score(context.Background(), sampleFeatures())
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestScoreRejectsOversizedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"predictions":[1],"pad":"` + strings.Repeat("x", maxResponseBody) + `"}`))
	}))
	defer srv.Close()

	client, _ := NewClient(srv.URL, time.Second)
	_, err := client.Score(context.Background(), sampleFeatures())
	if err == nil || !strings.Contains(err.Error(), "exceeds") {
		t.Fatalf("expected size error, got %v", err)
	}
}

func TestErrorSnippetKeepsRunesWhole(t *testing.T) {
	body := []byte(strings.Repeat("a", maxErrorBody-1) + "é tail")

	got := errorSnippet(body)

	if !utf8.ValidString(got) {
		t.Fatalf("snippet is not valid UTF-8: %q", got[len(got)-4:])
	}
	if len(got) != maxErrorBody-1 {
		t.Fatalf("expected cut before the split rune, got %d bytes", len(got))
	}
	if short := errorSnippet([]byte("  offline \n")); short != "offline" {
		t.Fatalf("expected trimmed short body, got %q", short)
	}
}

func TestScoreMissingPredictions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"predictions":[]}`))
	}))
	defer srv.Close()

	client, _ := NewClient(srv.URL, time.Second)
	if _, err := client.Score(context.Background(), sampleFeatures()); err == nil {
		t.Fatal("expected error for empty predictions")
	}
}

func TestScoreTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client, _ := NewClient(srv.URL, 50*time.Millisecond)
	_, err := client.Score(context.Background(), sampleFeatures())
	if err == nil || !strings.Contains(err.Error(), "timeout") {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestNewClientRequiresURL(t *testing.T) {
	if _, err := NewClient("  ", time.Second); err == nil {
		t.Fatal("expected error for empty url")
	}
}
