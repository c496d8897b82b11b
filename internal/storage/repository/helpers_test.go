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

	"github.com/EvgeniyKhan/post/internal/migrations"
	"github.com/EvgeniyKhan/post/internal/models"
)

// setupTestStorage поднимает PostgreSQL в контейнере и применяет миграции
func setupTestStorage(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
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
				WithStartupTimeout(30*time.Second),
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

	storage, err := New(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath))
	require.NoError(t, CheckDatabaseReady(ctx, storage))

	return storage
}

// testDataFactory создаёт тестовые записи напрямую через хранилище
type testDataFactory struct {
	storage *Storage
}

func newTestDataFactory(storage *Storage) *testDataFactory {
	return &testDataFactory{storage: storage}
}

func (f *testDataFactory) createUser(t *testing.T, phone string) int64 {
	t.Helper()
	id, err := f.storage.CreateUser(context.Background(), models.User{
		PhoneNumber:  phone,
		PasswordHash: "hashedpassword",
		IsActive:     true,
	})
	require.NoError(t, err)
	return id
}

func (f *testDataFactory) createArticle(t *testing.T, title string, premium bool, owner *int64) *models.Article {
	t.Helper()
	a, err := f.storage.CreateArticle(context.Background(), models.Article{
		Title:     title,
		Content:   "content of " + title,
		OwnerID:   owner,
		IsPremium: premium,
	})
	require.NoError(t, err)
	return a
}
