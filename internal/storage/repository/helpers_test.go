package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/habit-progression/internal/migrations"
	"github.com/magabrotheeeer/habit-progression/internal/models"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) *Storage {
	if testing.Short() {
		t.Skip("integration test, skipped in -short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := New(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.DB.Close() })

	root, err := filepath.Abs("../../..")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(s.DB, filepath.Join(root, "migrations")))
	require.NoError(t, CheckDatabaseReady(s))
	return s
}

// createTestUser создаёт пользователя с начальными значениями прогресса.
func createTestUser(t *testing.T, s *Storage, tgID int64) string {
	uid, err := s.CreateUser(context.Background(), models.NewUser(tgID, "user", "User"))
	require.NoError(t, err)
	return uid
}
