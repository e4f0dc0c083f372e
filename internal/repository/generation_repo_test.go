package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Tephenbaay/imagescribeAI/internal/config"
	"github.com/Tephenbaay/imagescribeAI/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestRepo(t *testing.T) *GenerationRepository {
	t.Helper()
	db, err := InitDB(&config.DatabaseConfig{
		Driver:      "sqlite",
		Path:        filepath.Join(t.TempDir(), "data", "test.db"),
		AutoMigrate: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	return NewGenerationRepository(db)
}

func TestGenerationRepository(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	rows := []*domain.Generation{
		{ID: "g1", Filename: "dog.jpg", Caption: "a dog", Status: domain.GenerationStatusCompleted, Stage: domain.StageSynthesized, CreatedAt: base},
		{ID: "g2", Filename: "cat.jpg", Status: domain.GenerationStatusFailed, Stage: domain.StageCaptioned, Error: "boom", CreatedAt: base.Add(time.Minute)},
		{ID: "g3", Filename: "dog.jpg", Caption: "a wet dog", Status: domain.GenerationStatusCompleted, Stage: domain.StageSynthesized, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, g := range rows {
		require.NoError(t, repo.Create(ctx, g))
	}

	got, err := repo.GetByID(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "a dog", got.Caption)
	assert.Equal(t, domain.StageSynthesized, got.Stage)

	_, err = repo.GetByID(ctx, "missing")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	recent, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "g3", recent[0].ID)
	assert.Equal(t, "g2", recent[1].ID)

	dogs, err := repo.ListByFilename(ctx, "dog.jpg")
	require.NoError(t, err)
	assert.Len(t, dogs, 2)

	completed, err := repo.CountByStatus(ctx, domain.GenerationStatusCompleted)
	require.NoError(t, err)
	assert.EqualValues(t, 2, completed)

	// replacing a row keeps a single record
	rows[1].Status = domain.GenerationStatusCompleted
	require.NoError(t, repo.Create(ctx, rows[1]))
	completed, err = repo.CountByStatus(ctx, domain.GenerationStatusCompleted)
	require.NoError(t, err)
	assert.EqualValues(t, 3, completed)
}
