//go:build integration

package predictions_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"stress-backend/internal/predictions"
	"stress-backend/internal/shared/storage/db"
	"stress-backend/internal/stress"
	"stress-backend/internal/users"
)

func startPostgres(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		// The entrypoint restarts the server once after init.
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port.Port())
	sqlDB, err := db.Connect(ctx, connStr, db.DefaultMigrateOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.RunMigrations(ctx, sqlDB))
	return sqlDB
}

func TestPostgresRepositories(t *testing.T) {
	sqlDB := startPostgres(t)
	ctx := context.Background()

	version, err := db.MigrationVersion(ctx, sqlDB)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version)

	userRepo := &users.PGRepo{DB: sqlDB}
	require.NoError(t, userRepo.Create(ctx, users.User{
		ID:           "u1",
		Email:        "layla@example.com",
		FirstName:    "Layla",
		Provider:     users.ProviderPassword,
		PasswordHash: "hash",
	}))
	err = userRepo.Create(ctx, users.User{ID: "u2", Email: "layla@example.com", Provider: users.ProviderPassword})
	assert.ErrorIs(t, err, users.ErrEmailTaken)

	repo := &predictions.PGRepo{DB: sqlDB}
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, cat := range []stress.Category{stress.CategoryLow, stress.CategoryCritical, stress.CategoryLow} {
		require.NoError(t, repo.Create(ctx, predictions.Prediction{
			ID:              fmt.Sprintf("p%d", i+1),
			UserID:          "u1",
			Factors:         stress.FactorRecord{AcademicStage: "undergraduate", PeerPressure: float64(i)},
			StressLevel:     float64(i) * 3,
			Category:        cat,
			Recommendations: []stress.Recommendation{{ID: stress.KeySeverityLow, Guidance: "keep going"}},
			CreatedAt:       base.Add(time.Duration(i) * time.Minute),
		}))
	}

	items, err := repo.ListByUser(ctx, "u1", 2, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "p3", items[0].ID)
	assert.Equal(t, "p2", items[1].ID)
	assert.Equal(t, "undergraduate", items[0].Factors.AcademicStage)
	assert.Equal(t, "keep going", items[0].Recommendations[0].Guidance)

	got, err := repo.GetByID(ctx, "u1", "p2")
	require.NoError(t, err)
	assert.Equal(t, stress.CategoryCritical, got.Category)
	assert.True(t, got.CreatedAt.Equal(base.Add(time.Minute)))

	_, err = repo.GetByID(ctx, "someone-else", "p2")
	assert.ErrorIs(t, err, predictions.ErrNotFound)

	counts, err := repo.CountByCategory(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, counts[stress.CategoryLow])
	assert.Equal(t, 1, counts[stress.CategoryCritical])

	_, err = sqlDB.ExecContext(ctx, `INSERT INTO predictions (id, user_id, factors, stress_level, category) VALUES ('bad', 'u1', '{}', 1, 'Severe')`)
	assert.Error(t, err, "category check constraint")
}
