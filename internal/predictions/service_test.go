package predictions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stress-backend/internal/events"
	"stress-backend/internal/stress"
)

type failingPublisher struct{ calls int }

func (p *failingPublisher) Publish(context.Context, events.Message) error {
	p.calls++
	return errors.New("queue down")
}

type failingRepo struct {
	*MemoryRepo
}

func (failingRepo) Create(context.Context, Prediction) error {
	return errors.New("insert failed")
}

func newEngine(t *testing.T, score float64, err error) *stress.Engine {
	t.Helper()
	engine, engineErr := stress.NewEngine(stress.ProviderFunc(func(context.Context, stress.FeatureVector) (float64, error) {
		return score, err
	}), stress.Options{})
	require.NoError(t, engineErr)
	return engine
}

func fixedNow() time.Time {
	return time.Date(2024, 5, 2, 10, 30, 0, 0, time.UTC)
}

func TestServicePredictPublishFailureKeepsPrediction(t *testing.T) {
	repo := NewMemoryRepo()
	pub := &failingPublisher{}
	svc := &Service{Engine: newEngine(t, 6, nil), Repo: repo, Events: pub, Now: fixedNow}

	p, err := svc.Predict(context.Background(), PredictInput{UserID: "u1", RequestID: "r1", Persist: true})
	require.NoError(t, err)
	assert.Equal(t, 1, pub.calls)
	assert.Equal(t, fixedNow(), p.CreatedAt)

	stored, err := repo.GetByID(context.Background(), "u1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, stress.CategoryHigh, stored.Category)
}

func TestServicePredictScoreFailureStoresNothing(t *testing.T) {
	repo := NewMemoryRepo()
	rec := &events.Recorder{}
	svc := &Service{Engine: newEngine(t, 0, errors.New("boom")), Repo: repo, Events: rec}

	_, err := svc.Predict(context.Background(), PredictInput{UserID: "u1", Persist: true})
	require.ErrorIs(t, err, stress.ErrScoreUnavailable)

	items, err := repo.ListByUser(context.Background(), "u1", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Empty(t, rec.Events())
}

func TestServicePredictPersistFailure(t *testing.T) {
	rec := &events.Recorder{}
	svc := &Service{Engine: newEngine(t, 3, nil), Repo: failingRepo{NewMemoryRepo()}, Events: rec}

	_, err := svc.Predict(context.Background(), PredictInput{UserID: "u1", Persist: true})
	require.Error(t, err)
	assert.NotErrorIs(t, err, stress.ErrScoreUnavailable)
	assert.Empty(t, rec.Events())
}

func TestServicePredictWithoutEvents(t *testing.T) {
	svc := &Service{Engine: newEngine(t, 3, nil), Repo: NewMemoryRepo()}

	p, err := svc.Predict(context.Background(), PredictInput{UserID: "u1", Persist: true})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
}

func TestServiceUnconfigured(t *testing.T) {
	var svc *Service
	_, err := svc.Predict(context.Background(), PredictInput{})
	assert.Error(t, err)
}

func TestServiceHistoryLimits(t *testing.T) {
	svc := &Service{Engine: newEngine(t, 3, nil), Repo: NewMemoryRepo()}
	ctx := context.Background()

	items, err := svc.History(ctx, "u1", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = svc.History(ctx, "u1", MaxLimit+1, 0)
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = svc.History(ctx, "u1", 5, -1)
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = svc.History(ctx, "u1", MaxLimit, 0)
	assert.NoError(t, err)
}
